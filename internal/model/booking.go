package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingActive    BookingStatus = "Active"
	BookingCancelled BookingStatus = "Cancelled"
)

// Spectator is the person a seat was booked for.  PaymentInfo is an
// opaque string and is never interpreted.
type Spectator struct {
	Name        string `json:"name"`
	PaymentInfo string `json:"payment_info"`
}

// Cancellation records when a booking was cancelled and what was refunded.
type Cancellation struct {
	CancellationDate  time.Time `json:"cancellation_date"`
	RefundAmountCents int64     `json:"refund_amount_cents"`
}

// Booking is a spectator's reservation of one seat in one seat category
// of one performance.  TicketPriceCents is a snapshot of the category
// price at booking time and never changes afterwards.
//
// Fields:
//
//	ID               – UUID primary key.
//	ShowID           – referenced show.
//	ShowTime         – timing of the booked performance.
//	SeatType         – booked seat tier.
//	SeatNumber       – caller-supplied seat label.
//	Spectator        – spectator name and payment info.
//	BookedBy         – salesperson or manager who made the booking.
//	TicketPriceCents – price snapshot in cents.
//	Status           – Active or Cancelled.
//	CreatedAt        – creation timestamp.
//	Cancellation     – set once the booking is cancelled.
type Booking struct {
	ID               string        `json:"id"`                 // bookings.id
	ShowID           string        `json:"show_id"`            // bookings.show_id
	ShowTime         string        `json:"show_time"`          // bookings.show_time
	SeatType         SeatType      `json:"seat_type"`          // bookings.seat_type
	SeatNumber       string        `json:"seat_number"`        // bookings.seat_number
	Spectator        Spectator     `json:"spectator"`          // bookings.spectator_name, bookings.payment_info
	BookedBy         string        `json:"booked_by"`          // bookings.booked_by
	TicketPriceCents int64         `json:"ticket_price_cents"` // bookings.ticket_price_cents
	Status           BookingStatus `json:"status"`             // bookings.status
	CreatedAt        time.Time     `json:"created_at"`         // bookings.created_at
	Cancellation     *Cancellation `json:"cancellation,omitempty"`
}

// Cancel moves an active booking to Cancelled.  It fails with
// ErrAlreadyCancelled when the booking was cancelled before, leaving the
// booking untouched.
func (b *Booking) Cancel(at time.Time, refundCents int64) error {
	if b.Status == BookingCancelled {
		return ErrAlreadyCancelled
	}
	b.Status = BookingCancelled
	b.Cancellation = &Cancellation{CancellationDate: at, RefundAmountCents: refundCents}
	return nil
}

// BookingView is the listing shape of a booking joined with its show date.
type BookingView struct {
	ID               string        `json:"id"`
	ShowDate         *time.Time    `json:"show_date"`
	ShowTime         string        `json:"show_time"`
	SeatType         SeatType      `json:"seat_type"`
	SeatNumber       string        `json:"seat_number"`
	SpectatorName    string        `json:"spectator_name"`
	TicketPriceCents int64         `json:"ticket_price_cents"`
	Status           BookingStatus `json:"status"`
	BookingDate      time.Time     `json:"booking_date"`
	PaymentInfo      string        `json:"payment_info"`
}
