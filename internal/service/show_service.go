package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auditorium-booking/internal/model"
)

const dateLayout = "2006-01-02"

// ShowWriter persists and lists shows.
type ShowWriter interface {
	GetShowByID(ctx context.Context, id string) (*model.Show, error)
	SaveShow(ctx context.Context, s *model.Show) error
	ListUpcoming(ctx context.Context, from time.Time) ([]model.Show, error)
}

// SeatCategoryInput describes one seat tier of a new show.
type SeatCategoryInput struct {
	Category   string `json:"category"`
	TotalSeats int    `json:"total_seats"`
	PriceCents int64  `json:"price_cents"`
}

// CreateShowInput is the body of a show creation request.
type CreateShowInput struct {
	ShowDate       string              `json:"show_date"`
	NumberOfShows  int                 `json:"number_of_shows"`
	Timings        []string            `json:"timings"`
	SeatCategories []SeatCategoryInput `json:"seat_categories"`
}

// ShowService lets managers create shows and anyone signed in browse them.
type ShowService struct {
	shows ShowWriter
	log   logrus.FieldLogger
	now   func() time.Time
}

func NewShowService(shows ShowWriter, log logrus.FieldLogger) *ShowService {
	return &ShowService{shows: shows, log: log, now: time.Now}
}

// CreateShow validates in and stores a show owned by managerID.  Each
// timing becomes a performance with its own copy of the seat categories,
// all seats available.
func (s *ShowService) CreateShow(ctx context.Context, managerID string, in CreateShowInput) (*model.Show, error) {
	if strings.TrimSpace(managerID) == "" {
		return nil, model.Required("manager_id")
	}
	if strings.TrimSpace(in.ShowDate) == "" {
		return nil, model.Required("show_date")
	}
	date, err := time.Parse(dateLayout, strings.TrimSpace(in.ShowDate))
	if err != nil {
		return nil, model.Invalid("show_date", "must be a date in YYYY-MM-DD form")
	}
	if in.NumberOfShows < 1 {
		return nil, model.Invalid("number_of_shows", "must be at least 1")
	}
	if len(in.Timings) != in.NumberOfShows {
		return nil, model.Invalid("timings",
			fmt.Sprintf("number of timings (%d) does not match number_of_shows (%d)", len(in.Timings), in.NumberOfShows))
	}
	if len(in.SeatCategories) == 0 {
		return nil, model.Required("seat_categories")
	}

	seen := map[string]bool{}
	timings := make([]string, len(in.Timings))
	for i, t := range in.Timings {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, model.Invalid("timings", "must not contain empty values")
		}
		if seen[t] {
			return nil, model.Invalid("timings", fmt.Sprintf("duplicate timing %q", t))
		}
		seen[t] = true
		timings[i] = t
	}

	tiers := map[model.SeatType]bool{}
	for _, c := range in.SeatCategories {
		cat := model.SeatType(strings.TrimSpace(c.Category))
		switch {
		case !cat.Valid():
			return nil, model.Invalid("seat_categories.category", "must be Balcony or Ordinary")
		case tiers[cat]:
			return nil, model.Invalid("seat_categories.category", fmt.Sprintf("duplicate category %q", cat))
		case c.TotalSeats < 0:
			return nil, model.Invalid("seat_categories.total_seats", "must not be negative")
		case c.PriceCents < 0:
			return nil, model.Invalid("seat_categories.price_cents", "must not be negative")
		}
		tiers[cat] = true
	}

	show := &model.Show{
		ShowDate:      date.UTC(),
		NumberOfShows: in.NumberOfShows,
		ManagerID:     managerID,
		Performances:  make([]model.Performance, len(timings)),
	}
	for i, t := range timings {
		cats := make([]model.SeatCategory, len(in.SeatCategories))
		for j, c := range in.SeatCategories {
			cats[j] = model.SeatCategory{
				Category:       model.SeatType(strings.TrimSpace(c.Category)),
				TotalSeats:     c.TotalSeats,
				AvailableSeats: c.TotalSeats,
				PriceCents:     c.PriceCents,
			}
		}
		show.Performances[i] = model.Performance{Timing: t, Position: i, SeatCategories: cats}
	}
	if err := s.shows.SaveShow(ctx, show); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"show_id": show.ID, "show_date": in.ShowDate, "manager_id": managerID}).Info("show created")
	return show, nil
}

// GetShow loads a show with its current availability.
func (s *ShowService) GetShow(ctx context.Context, id string) (*model.Show, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, model.Required("show_id")
	}
	return s.shows.GetShowByID(ctx, id)
}

// ListUpcoming returns shows from today on.
func (s *ShowService) ListUpcoming(ctx context.Context) ([]model.Show, error) {
	today := s.now().UTC().Truncate(24 * time.Hour)
	return s.shows.ListUpcoming(ctx, today)
}
