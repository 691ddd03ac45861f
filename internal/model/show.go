package model

import "time"

// SeatType names a priced tier of seats inside a performance.
type SeatType string

const (
	SeatBalcony  SeatType = "Balcony"
	SeatOrdinary SeatType = "Ordinary"
)

// Valid reports whether t is one of the known seat tiers.
func (t SeatType) Valid() bool {
	return t == SeatBalcony || t == SeatOrdinary
}

// Show is a single calendar date's booking unit.  A show holds one
// performance per timing and each performance carries its own seat
// inventory.  This struct corresponds to a row in the `shows` table
// plus its nested `show_performances` and `seat_categories` rows.
//
// Fields:
//
//	ID            – UUID primary key.
//	ShowDate      – date of the show (UTC midnight).
//	NumberOfShows – number of performances on that date.
//	Performances  – performances ordered by position.
//	ManagerID     – user ID of the owning manager.
//	CreatedAt     – creation timestamp.
type Show struct {
	ID            string        `json:"id"`              // shows.id
	ShowDate      time.Time     `json:"show_date"`       // shows.show_date
	NumberOfShows int           `json:"number_of_shows"` // shows.number_of_shows
	Performances  []Performance `json:"performances"`
	ManagerID     string        `json:"manager_id"` // shows.manager_id
	CreatedAt     time.Time     `json:"created_at"` // shows.created_at
}

// Performance is one timed instance of a show.
//
// Fields:
//
//	ID             – UUID primary key.
//	ShowID         – parent show.
//	Timing         – time-of-day label, unique within the show.
//	Position       – zero-based order within the show.
//	SeatCategories – inventory of this performance.
type Performance struct {
	ID             string         `json:"id"`       // show_performances.id
	ShowID         string         `json:"-"`        // show_performances.show_id
	Timing         string         `json:"timing"`   // show_performances.timing
	Position       int            `json:"position"` // show_performances.position
	SeatCategories []SeatCategory `json:"seat_categories"`
}

// SeatCategory tracks total and available seats of one tier within a
// performance.  AvailableSeats is only ever changed by the booking
// service and always stays within [0, TotalSeats].
type SeatCategory struct {
	ID             string   `json:"id"`              // seat_categories.id
	PerformanceID  string   `json:"-"`               // seat_categories.performance_id
	Category       SeatType `json:"category"`        // seat_categories.category
	TotalSeats     int      `json:"total_seats"`     // seat_categories.total_seats
	AvailableSeats int      `json:"available_seats"` // seat_categories.available_seats
	PriceCents     int64    `json:"price_cents"`     // seat_categories.price_cents
}

// FindPerformance returns the performance whose timing matches exactly.
func FindPerformance(s *Show, timing string) (*Performance, error) {
	for i := range s.Performances {
		if s.Performances[i].Timing == timing {
			return &s.Performances[i], nil
		}
	}
	return nil, NotFound(EntityShowTiming)
}

// FindSeatCategory returns the seat category of the given tier.
func FindSeatCategory(p *Performance, category SeatType) (*SeatCategory, error) {
	for i := range p.SeatCategories {
		if p.SeatCategories[i].Category == category {
			return &p.SeatCategories[i], nil
		}
	}
	return nil, NotFound(EntitySeatCategory)
}
