package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auditorium-booking/internal/model"
	"github.com/iliyamo/auditorium-booking/internal/queue"
)

// newMockDB returns an sqlx handle backed by sqlmock.  Services only use
// it to begin, commit and roll back, so tests express the transaction
// boundary with ExpectBegin/ExpectCommit/ExpectRollback.
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

// fakeShows is an in-memory inventory store.  It ignores the transaction.
type fakeShows struct {
	mu    sync.Mutex
	shows map[string]*model.Show
	saved []*model.Show
	err   error
}

func newFakeShows(shows ...*model.Show) *fakeShows {
	f := &fakeShows{shows: map[string]*model.Show{}}
	for _, s := range shows {
		f.shows[s.ID] = s
	}
	return f
}

func copyShow(s *model.Show) *model.Show {
	cp := *s
	cp.Performances = make([]model.Performance, len(s.Performances))
	for i, p := range s.Performances {
		p.SeatCategories = append([]model.SeatCategory(nil), p.SeatCategories...)
		cp.Performances[i] = p
	}
	return &cp
}

func (f *fakeShows) GetShowByID(ctx context.Context, id string) (*model.Show, error) {
	return f.GetShowByIDTx(ctx, nil, id)
}

func (f *fakeShows) GetShowByIDTx(_ context.Context, _ *sqlx.Tx, id string) (*model.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.shows[id]
	if !ok {
		return nil, model.NotFound(model.EntityShow)
	}
	return copyShow(s), nil
}

func (f *fakeShows) FindPerformance(s *model.Show, timing string) (*model.Performance, error) {
	return model.FindPerformance(s, timing)
}

func (f *fakeShows) FindSeatCategory(p *model.Performance, category model.SeatType) (*model.SeatCategory, error) {
	return model.FindSeatCategory(p, category)
}

func (f *fakeShows) category(id string) *model.SeatCategory {
	for _, s := range f.shows {
		for i := range s.Performances {
			for j := range s.Performances[i].SeatCategories {
				if c := &s.Performances[i].SeatCategories[j]; c.ID == id {
					return c
				}
			}
		}
	}
	return nil
}

func (f *fakeShows) ReserveSeatTx(_ context.Context, _ *sqlx.Tx, categoryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.category(categoryID)
	if c == nil || c.AvailableSeats <= 0 {
		return model.ErrCapacityExceeded
	}
	c.AvailableSeats--
	return nil
}

func (f *fakeShows) ReleaseSeatTx(_ context.Context, _ *sqlx.Tx, categoryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c := f.category(categoryID); c != nil && c.AvailableSeats < c.TotalSeats {
		c.AvailableSeats++
	}
	return nil
}

func (f *fakeShows) SaveShow(_ context.Context, s *model.Show) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if s.ID == "" {
		s.ID = fmt.Sprintf("show-%d", len(f.shows)+1)
	}
	f.shows[s.ID] = copyShow(s)
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeShows) ListUpcoming(_ context.Context, from time.Time) ([]model.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Show
	for _, s := range f.shows {
		if !s.ShowDate.Before(from) {
			out = append(out, *copyShow(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShowDate.Before(out[j].ShowDate) })
	return out, nil
}

func (f *fakeShows) available(categoryID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.category(categoryID).AvailableSeats
}

// fakeBookings is an in-memory booking ledger.
type fakeBookings struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	seq      int
	clock    time.Time
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{
		bookings: map[string]*model.Booking{},
		clock:    time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeBookings) CreateBookingTx(_ context.Context, _ *sqlx.Tx, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.clock = f.clock.Add(time.Minute)
	b.ID = fmt.Sprintf("booking-%d", f.seq)
	b.Status = model.BookingActive
	b.CreatedAt = f.clock
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeBookings) GetBookingByID(_ context.Context, id string) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, model.NotFound(model.EntityBooking)
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookings) GetBookingByIDForUpdateTx(ctx context.Context, _ *sqlx.Tx, id string) (*model.Booking, error) {
	return f.GetBookingByID(ctx, id)
}

func (f *fakeBookings) FindBookingsByBooker(_ context.Context, bookedBy string) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.bookings {
		if b.BookedBy == bookedBy {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeBookings) ListViewsByBooker(ctx context.Context, bookedBy string) ([]model.BookingView, error) {
	bs, _ := f.FindBookingsByBooker(ctx, bookedBy)
	out := make([]model.BookingView, len(bs))
	for i, b := range bs {
		out[i] = model.BookingView{ID: b.ID, ShowTime: b.ShowTime, SeatType: b.SeatType, Status: b.Status, BookingDate: b.CreatedAt}
	}
	return out, nil
}

func (f *fakeBookings) UpdateBookingTx(_ context.Context, _ *sqlx.Tx, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeBookings) ActiveSeatTakenTx(_ context.Context, _ *sqlx.Tx, showID, timing string, seatType model.SeatType, seatNumber string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.ShowID == showID && b.ShowTime == timing && b.SeatType == seatType &&
			b.SeatNumber == seatNumber && b.Status == model.BookingActive {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookings) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev queue.BookingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}
