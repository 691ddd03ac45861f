// Package service holds the business rules.  Services receive the
// authenticated caller explicitly from handlers and talk to storage
// through the small interfaces declared here.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auditorium-booking/internal/config"
	"github.com/iliyamo/auditorium-booking/internal/model"
	"github.com/iliyamo/auditorium-booking/internal/queue"
	"github.com/iliyamo/auditorium-booking/internal/refund"
)

// TxBeginner opens the transaction that a booking or cancellation runs in.
type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// ShowStore is the inventory store as seen by the services.
type ShowStore interface {
	GetShowByID(ctx context.Context, id string) (*model.Show, error)
	GetShowByIDTx(ctx context.Context, tx *sqlx.Tx, id string) (*model.Show, error)
	FindPerformance(s *model.Show, timing string) (*model.Performance, error)
	FindSeatCategory(p *model.Performance, category model.SeatType) (*model.SeatCategory, error)
	ReserveSeatTx(ctx context.Context, tx *sqlx.Tx, categoryID string) error
	ReleaseSeatTx(ctx context.Context, tx *sqlx.Tx, categoryID string) error
}

// BookingStore is the booking ledger as seen by the services.
type BookingStore interface {
	CreateBookingTx(ctx context.Context, tx *sqlx.Tx, b *model.Booking) error
	GetBookingByID(ctx context.Context, id string) (*model.Booking, error)
	GetBookingByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*model.Booking, error)
	FindBookingsByBooker(ctx context.Context, bookedBy string) ([]model.Booking, error)
	ListViewsByBooker(ctx context.Context, bookedBy string) ([]model.BookingView, error)
	UpdateBookingTx(ctx context.Context, tx *sqlx.Tx, b *model.Booking) error
	ActiveSeatTakenTx(ctx context.Context, tx *sqlx.Tx, showID, timing string, seatType model.SeatType, seatNumber string) (bool, error)
}

// EventPublisher delivers booking events after a commit.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

const publishTimeout = 5 * time.Second

// CreateBookingInput is everything needed to book one seat.
type CreateBookingInput struct {
	ShowID        string
	Timing        string
	SeatType      string
	SeatNumber    string
	SpectatorName string
	PaymentInfo   string
	BookedBy      string
}

// CancelBookingInput identifies the booking to cancel.  RefundAmountCents
// is optional; how a supplied value is treated depends on the refund mode.
type CancelBookingInput struct {
	BookingID         string
	RefundAmountCents *int64
}

// RefundQuote is what cancelling a booking right now would refund.
type RefundQuote struct {
	BookingID         string         `json:"booking_id"`
	SeatType          model.SeatType `json:"seat_type"`
	TicketPriceCents  int64          `json:"ticket_price_cents"`
	DaysUntilShow     int            `json:"days_until_show"`
	RefundAmountCents int64          `json:"refund_amount_cents"`
}

// BookingService creates and cancels bookings.  Every mutation runs in a
// single transaction so a failure never leaves a seat count and the
// ledger out of step.
type BookingService struct {
	db         TxBeginner
	shows      ShowStore
	bookings   BookingStore
	events     EventPublisher
	refundMode string
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewBookingService wires a BookingService.  events may be nil, in which
// case nothing is published.
func NewBookingService(db TxBeginner, shows ShowStore, bookings BookingStore, events EventPublisher, refundMode string, log logrus.FieldLogger) *BookingService {
	return &BookingService{
		db:         db,
		shows:      shows,
		bookings:   bookings,
		events:     events,
		refundMode: refundMode,
		log:        log,
		now:        time.Now,
	}
}

func (s *BookingService) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Storage("begin transaction", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return model.Storage("commit transaction", err)
	}
	return nil
}

func (in CreateBookingInput) validate() (CreateBookingInput, error) {
	in.ShowID = strings.TrimSpace(in.ShowID)
	in.Timing = strings.TrimSpace(in.Timing)
	in.SeatType = strings.TrimSpace(in.SeatType)
	in.SeatNumber = strings.TrimSpace(in.SeatNumber)
	in.SpectatorName = strings.TrimSpace(in.SpectatorName)
	in.PaymentInfo = strings.TrimSpace(in.PaymentInfo)
	in.BookedBy = strings.TrimSpace(in.BookedBy)

	required := []struct{ field, value string }{
		{"show_id", in.ShowID},
		{"show_time", in.Timing},
		{"seat_type", in.SeatType},
		{"seat_number", in.SeatNumber},
		{"spectator_name", in.SpectatorName},
		{"payment_info", in.PaymentInfo},
		{"booked_by", in.BookedBy},
	}
	for _, f := range required {
		if f.value == "" {
			return in, model.Required(f.field)
		}
	}
	if !model.SeatType(in.SeatType).Valid() {
		return in, model.Invalid("seat_type", "must be Balcony or Ordinary")
	}
	// column widths of the bookings table
	limits := []struct {
		field, value string
		max          int
	}{
		{"show_time", in.Timing, 32},
		{"seat_number", in.SeatNumber, 16},
		{"spectator_name", in.SpectatorName, 120},
		{"payment_info", in.PaymentInfo, 255},
	}
	for _, f := range limits {
		if utf8.RuneCountInString(f.value) > f.max {
			return in, model.Invalid(f.field, fmt.Sprintf("must be at most %d characters", f.max))
		}
	}
	return in, nil
}

// CreateBooking takes one seat of the requested category and records an
// Active booking priced at the category's current price.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	seatType := model.SeatType(in.SeatType)

	var booking *model.Booking
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		show, err := s.shows.GetShowByIDTx(ctx, tx, in.ShowID)
		if err != nil {
			return err
		}
		perf, err := s.shows.FindPerformance(show, in.Timing)
		if err != nil {
			return err
		}
		cat, err := s.shows.FindSeatCategory(perf, seatType)
		if err != nil {
			return err
		}
		if err := s.shows.ReserveSeatTx(ctx, tx, cat.ID); err != nil {
			return err
		}
		taken, err := s.bookings.ActiveSeatTakenTx(ctx, tx, show.ID, perf.Timing, seatType, in.SeatNumber)
		if err != nil {
			return err
		}
		if taken {
			return model.ErrSeatTaken
		}
		b := &model.Booking{
			ShowID:           show.ID,
			ShowTime:         perf.Timing,
			SeatType:         seatType,
			SeatNumber:       in.SeatNumber,
			Spectator:        model.Spectator{Name: in.SpectatorName, PaymentInfo: in.PaymentInfo},
			BookedBy:         in.BookedBy,
			TicketPriceCents: cat.PriceCents,
		}
		if err := s.bookings.CreateBookingTx(ctx, tx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"show_id":    booking.ShowID,
		"seat_type":  booking.SeatType,
		"booked_by":  booking.BookedBy,
	}).Info("booking created")
	s.publish(ctx, queue.EventBookingCreated, booking)
	return booking, nil
}

// CancelBooking cancels an Active booking, stores the refund and returns
// the seat to its category.
func (s *BookingService) CancelBooking(ctx context.Context, in CancelBookingInput) (*model.Booking, error) {
	in.BookingID = strings.TrimSpace(in.BookingID)
	if in.BookingID == "" {
		return nil, model.Required("booking_id")
	}
	if in.RefundAmountCents != nil && *in.RefundAmountCents < 0 {
		return nil, model.Invalid("refund_amount_cents", "must not be negative")
	}

	var booking *model.Booking
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		b, err := s.bookings.GetBookingByIDForUpdateTx(ctx, tx, in.BookingID)
		if err != nil {
			return err
		}
		if b.Status == model.BookingCancelled {
			return model.ErrAlreadyCancelled
		}
		show, err := s.shows.GetShowByIDTx(ctx, tx, b.ShowID)
		if err != nil {
			return err
		}
		perf, err := s.shows.FindPerformance(show, b.ShowTime)
		if err != nil {
			return err
		}
		cat, err := s.shows.FindSeatCategory(perf, b.SeatType)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		amount, err := s.resolveRefund(refund.Compute(show.ShowDate, now, b.SeatType, b.TicketPriceCents), in.RefundAmountCents)
		if err != nil {
			return err
		}
		if err := b.Cancel(now, amount); err != nil {
			return err
		}
		if err := s.bookings.UpdateBookingTx(ctx, tx, b); err != nil {
			return err
		}
		if err := s.shows.ReleaseSeatTx(ctx, tx, cat.ID); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"refund":     booking.Cancellation.RefundAmountCents,
	}).Info("booking cancelled")
	s.publish(ctx, queue.EventBookingCancelled, booking)
	return booking, nil
}

// resolveRefund picks the stored refund.  In strict mode a supplied
// amount must equal the computed one; in trusted mode it is stored as is.
func (s *BookingService) resolveRefund(computed int64, supplied *int64) (int64, error) {
	if supplied == nil {
		return computed, nil
	}
	if s.refundMode == config.RefundTrusted {
		return *supplied, nil
	}
	if *supplied != computed {
		return 0, &model.ValidationError{
			Field: "refund_amount_cents",
			Msg:   "does not match refund policy",
			Err:   model.ErrRefundMismatch,
		}
	}
	return computed, nil
}

// RefundQuote reports the refund the policy would grant if b were
// cancelled now.
func (s *BookingService) RefundQuote(ctx context.Context, bookingID string) (*RefundQuote, error) {
	b, err := s.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status == model.BookingCancelled {
		return nil, model.ErrAlreadyCancelled
	}
	show, err := s.shows.GetShowByID(ctx, b.ShowID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	return &RefundQuote{
		BookingID:         b.ID,
		SeatType:          b.SeatType,
		TicketPriceCents:  b.TicketPriceCents,
		DaysUntilShow:     refund.DaysUntil(show.ShowDate, now),
		RefundAmountCents: refund.Compute(show.ShowDate, now, b.SeatType, b.TicketPriceCents),
	}, nil
}

// GetBooking loads one booking.
func (s *BookingService) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, model.Required("booking_id")
	}
	return s.bookings.GetBookingByID(ctx, id)
}

// ListBookings returns bookedBy's bookings, newest first.
func (s *BookingService) ListBookings(ctx context.Context, bookedBy string) ([]model.BookingView, error) {
	bookedBy = strings.TrimSpace(bookedBy)
	if bookedBy == "" {
		return nil, model.Required("user_id")
	}
	return s.bookings.ListViewsByBooker(ctx, bookedBy)
}

func (s *BookingService) publish(ctx context.Context, typ string, b *model.Booking) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	ev := queue.NewBookingEvent(typ, b, s.now())
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithField("event_id", ev.EventID).Warn("booking event not published")
	}
}
