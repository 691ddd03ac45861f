package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/auditorium-booking/internal/model"
)

// bookingRow mirrors the bookings table.  Spectator and cancellation are
// flattened into columns; the cancellation columns stay NULL while the
// booking is active.
type bookingRow struct {
	ID                string        `db:"id"`
	ShowID            string        `db:"show_id"`
	ShowTime          string        `db:"show_time"`
	SeatType          string        `db:"seat_type"`
	SeatNumber        string        `db:"seat_number"`
	SpectatorName     string        `db:"spectator_name"`
	PaymentInfo       string        `db:"payment_info"`
	BookedBy          string        `db:"booked_by"`
	TicketPriceCents  int64         `db:"ticket_price_cents"`
	Status            string        `db:"status"`
	CreatedAt         time.Time     `db:"created_at"`
	CancellationDate  sql.NullTime  `db:"cancellation_date"`
	RefundAmountCents sql.NullInt64 `db:"refund_amount_cents"`
}

func (b bookingRow) toModel() model.Booking {
	out := model.Booking{
		ID:               b.ID,
		ShowID:           b.ShowID,
		ShowTime:         b.ShowTime,
		SeatType:         model.SeatType(b.SeatType),
		SeatNumber:       b.SeatNumber,
		Spectator:        model.Spectator{Name: b.SpectatorName, PaymentInfo: b.PaymentInfo},
		BookedBy:         b.BookedBy,
		TicketPriceCents: b.TicketPriceCents,
		Status:           model.BookingStatus(b.Status),
		CreatedAt:        b.CreatedAt.UTC(),
	}
	if b.CancellationDate.Valid {
		out.Cancellation = &model.Cancellation{
			CancellationDate:  b.CancellationDate.Time.UTC(),
			RefundAmountCents: b.RefundAmountCents.Int64,
		}
	}
	return out
}

// bookingViewRow is a booking joined with the date of its show.
type bookingViewRow struct {
	ID               string       `db:"id"`
	ShowDate         sql.NullTime `db:"show_date"`
	ShowTime         string       `db:"show_time"`
	SeatType         string       `db:"seat_type"`
	SeatNumber       string       `db:"seat_number"`
	SpectatorName    string       `db:"spectator_name"`
	TicketPriceCents int64        `db:"ticket_price_cents"`
	Status           string       `db:"status"`
	CreatedAt        time.Time    `db:"created_at"`
	PaymentInfo      string       `db:"payment_info"`
}

// BookingRepo is the booking ledger.
type BookingRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sqlx.DB) *BookingRepo {
	return &BookingRepo{db: db, now: time.Now}
}

const selectBooking = `SELECT id, show_id, show_time, seat_type, seat_number, spectator_name, payment_info,
	booked_by, ticket_price_cents, status, created_at, cancellation_date, refund_amount_cents FROM bookings`

// CreateBookingTx inserts b as a new Active booking inside the caller's
// transaction.  ID, Status and CreatedAt are assigned here and written
// back into b.
func (r *BookingRepo) CreateBookingTx(ctx context.Context, tx *sqlx.Tx, b *model.Booking) error {
	required := []struct{ field, value string }{
		{"show_id", b.ShowID},
		{"show_time", b.ShowTime},
		{"seat_type", string(b.SeatType)},
		{"seat_number", b.SeatNumber},
		{"spectator.name", b.Spectator.Name},
		{"spectator.payment_info", b.Spectator.PaymentInfo},
		{"booked_by", b.BookedBy},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return model.Required(f.field)
		}
	}

	b.ID = uuid.NewString()
	b.Status = model.BookingActive
	b.CreatedAt = r.now().UTC().Truncate(time.Microsecond)
	b.Cancellation = nil
	_, err := tx.ExecContext(ctx, r.db.Rebind(`INSERT INTO bookings
		(id, show_id, show_time, seat_type, seat_number, spectator_name, payment_info,
		 booked_by, ticket_price_cents, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.ShowID, b.ShowTime, string(b.SeatType), b.SeatNumber, b.Spectator.Name,
		b.Spectator.PaymentInfo, b.BookedBy, b.TicketPriceCents, string(b.Status), b.CreatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return model.ErrSeatTaken
		}
		return model.Storage("insert booking", err)
	}
	return nil
}

// GetBookingByID loads one booking.
func (r *BookingRepo) GetBookingByID(ctx context.Context, id string) (*model.Booking, error) {
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(selectBooking+` WHERE id = ?`), id); err != nil {
		return nil, lookupErr(model.EntityBooking, "load booking", err)
	}
	b := row.toModel()
	return &b, nil
}

// GetBookingByIDForUpdateTx loads one booking and locks its row until the
// transaction ends, so two cancellations of the same booking serialise.
func (r *BookingRepo) GetBookingByIDForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*model.Booking, error) {
	var row bookingRow
	if err := tx.GetContext(ctx, &row, r.db.Rebind(selectBooking+` WHERE id = ? FOR UPDATE`), id); err != nil {
		return nil, lookupErr(model.EntityBooking, "lock booking", err)
	}
	b := row.toModel()
	return &b, nil
}

// FindBookingsByBooker returns every booking made by bookedBy, most
// recent first.
func (r *BookingRepo) FindBookingsByBooker(ctx context.Context, bookedBy string) ([]model.Booking, error) {
	var rows []bookingRow
	q := r.db.Rebind(selectBooking + ` WHERE booked_by = ? ORDER BY created_at DESC`)
	if err := r.db.SelectContext(ctx, &rows, q, bookedBy); err != nil {
		return nil, model.Storage("list bookings", err)
	}
	out := make([]model.Booking, len(rows))
	for i, row := range rows {
		out[i] = row.toModel()
	}
	return out, nil
}

// ListViewsByBooker returns the listing shape of bookedBy's bookings,
// most recent first.  ShowDate is nil when the show row is gone.
func (r *BookingRepo) ListViewsByBooker(ctx context.Context, bookedBy string) ([]model.BookingView, error) {
	const q = `SELECT b.id, s.show_date, b.show_time, b.seat_type, b.seat_number, b.spectator_name,
		b.ticket_price_cents, b.status, b.created_at, b.payment_info
		FROM bookings b LEFT JOIN shows s ON s.id = b.show_id
		WHERE b.booked_by = ? ORDER BY b.created_at DESC`
	var rows []bookingViewRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), bookedBy); err != nil {
		return nil, model.Storage("list booking views", err)
	}
	out := make([]model.BookingView, len(rows))
	for i, row := range rows {
		v := model.BookingView{
			ID:               row.ID,
			ShowTime:         row.ShowTime,
			SeatType:         model.SeatType(row.SeatType),
			SeatNumber:       row.SeatNumber,
			SpectatorName:    row.SpectatorName,
			TicketPriceCents: row.TicketPriceCents,
			Status:           model.BookingStatus(row.Status),
			BookingDate:      row.CreatedAt.UTC(),
			PaymentInfo:      row.PaymentInfo,
		}
		if row.ShowDate.Valid {
			d := row.ShowDate.Time.UTC()
			v.ShowDate = &d
		}
		out[i] = v
	}
	return out, nil
}

// UpdateBookingTx persists the status and cancellation of b.
func (r *BookingRepo) UpdateBookingTx(ctx context.Context, tx *sqlx.Tx, b *model.Booking) error {
	var (
		cancelledAt sql.NullTime
		refund      sql.NullInt64
	)
	if b.Cancellation != nil {
		cancelledAt = sql.NullTime{Time: b.Cancellation.CancellationDate, Valid: true}
		refund = sql.NullInt64{Int64: b.Cancellation.RefundAmountCents, Valid: true}
	}
	res, err := tx.ExecContext(ctx, r.db.Rebind(
		`UPDATE bookings SET status = ?, cancellation_date = ?, refund_amount_cents = ? WHERE id = ?`),
		string(b.Status), cancelledAt, refund, b.ID)
	if err != nil {
		return model.Storage("update booking", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.NotFound(model.EntityBooking)
	}
	return nil
}

// ActiveSeatTakenTx reports whether an Active booking already holds the
// seat number in the given show, timing and tier.  The read locks the
// matching rows so it sees bookings committed after the transaction's
// snapshot was taken.
func (r *BookingRepo) ActiveSeatTakenTx(ctx context.Context, tx *sqlx.Tx, showID, timing string, seatType model.SeatType, seatNumber string) (bool, error) {
	var ids []string
	err := tx.SelectContext(ctx, &ids, r.db.Rebind(`SELECT id FROM bookings
		WHERE show_id = ? AND show_time = ? AND seat_type = ? AND seat_number = ? AND status = ?
		FOR UPDATE`),
		showID, timing, string(seatType), seatNumber, string(model.BookingActive))
	if err != nil {
		return false, model.Storage("check seat", err)
	}
	return len(ids) > 0, nil
}
