// Package queue carries booking events over RabbitMQ: a publisher used by
// the booking service after each committed change, and a consumer that
// appends every event to the booking log file.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/auditorium-booking/internal/model"
)

// QueueName is the durable queue both sides declare.
const QueueName = "booking.events"

// Event types.
const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
)

// BookingEvent is the JSON payload of every message.  RefundAmountCents is
// only set for cancellations.
type BookingEvent struct {
	EventID           string    `json:"event_id"`
	Type              string    `json:"type"`
	BookingID         string    `json:"booking_id"`
	ShowID            string    `json:"show_id"`
	ShowTime          string    `json:"show_time"`
	SeatType          string    `json:"seat_type"`
	SeatNumber        string    `json:"seat_number"`
	BookedBy          string    `json:"booked_by"`
	TicketPriceCents  int64     `json:"ticket_price_cents"`
	RefundAmountCents *int64    `json:"refund_amount_cents,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// NewBookingEvent builds an event of type typ describing b.
func NewBookingEvent(typ string, b *model.Booking, at time.Time) BookingEvent {
	ev := BookingEvent{
		EventID:          uuid.NewString(),
		Type:             typ,
		BookingID:        b.ID,
		ShowID:           b.ShowID,
		ShowTime:         b.ShowTime,
		SeatType:         string(b.SeatType),
		SeatNumber:       b.SeatNumber,
		BookedBy:         b.BookedBy,
		TicketPriceCents: b.TicketPriceCents,
		OccurredAt:       at.UTC(),
	}
	if b.Cancellation != nil {
		refund := b.Cancellation.RefundAmountCents
		ev.RefundAmountCents = &refund
	}
	return ev
}
