package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleShow() *Show {
	return &Show{
		ID:            "show-1",
		NumberOfShows: 2,
		Performances: []Performance{
			{ID: "p1", Timing: "14:00", SeatCategories: []SeatCategory{
				{ID: "c1", Category: SeatOrdinary, TotalSeats: 10, AvailableSeats: 10, PriceCents: 30000},
			}},
			{ID: "p2", Timing: "18:00", SeatCategories: []SeatCategory{
				{ID: "c2", Category: SeatBalcony, TotalSeats: 5, AvailableSeats: 5, PriceCents: 50000},
				{ID: "c3", Category: SeatOrdinary, TotalSeats: 10, AvailableSeats: 10, PriceCents: 30000},
			}},
		},
	}
}

func TestFindPerformance(t *testing.T) {
	s := sampleShow()

	p, err := FindPerformance(s, "18:00")
	require.NoError(t, err)
	assert.Equal(t, "p2", p.ID)

	_, err = FindPerformance(s, "18:00 ")
	assert.ErrorIs(t, err, ErrNotFound)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, EntityShowTiming, nf.Entity)
}

func TestFindSeatCategory(t *testing.T) {
	s := sampleShow()

	c, err := FindSeatCategory(&s.Performances[1], SeatBalcony)
	require.NoError(t, err)
	assert.Equal(t, "c2", c.ID)

	_, err = FindSeatCategory(&s.Performances[0], SeatBalcony)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, EntitySeatCategory, nf.Entity)
}

func TestFindSeatCategoryReturnsPointerIntoShow(t *testing.T) {
	s := sampleShow()
	c, err := FindSeatCategory(&s.Performances[0], SeatOrdinary)
	require.NoError(t, err)
	c.AvailableSeats--
	assert.Equal(t, 9, s.Performances[0].SeatCategories[0].AvailableSeats)
}

func TestBookingCancel(t *testing.T) {
	at := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	b := &Booking{ID: "b1", Status: BookingActive}

	require.NoError(t, b.Cancel(at, 29000))
	assert.Equal(t, BookingCancelled, b.Status)
	require.NotNil(t, b.Cancellation)
	assert.Equal(t, int64(29000), b.Cancellation.RefundAmountCents)
	assert.Equal(t, at, b.Cancellation.CancellationDate)

	err := b.Cancel(at.Add(time.Hour), 100)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.Equal(t, int64(29000), b.Cancellation.RefundAmountCents, "second cancel must not touch the refund")
}

func TestSeatTypeValid(t *testing.T) {
	assert.True(t, SeatBalcony.Valid())
	assert.True(t, SeatOrdinary.Valid())
	assert.False(t, SeatType("balcony").Valid())
	assert.False(t, SeatType("").Valid())
}

func TestErrorTaxonomy(t *testing.T) {
	ve := Required("seat_number")
	assert.ErrorIs(t, ve, ErrValidation)
	assert.Equal(t, "seat_number: is required", ve.Error())

	mismatch := &ValidationError{Field: "refund_amount_cents", Msg: "does not match", Err: ErrRefundMismatch}
	assert.ErrorIs(t, mismatch, ErrValidation)
	assert.ErrorIs(t, mismatch, ErrRefundMismatch)

	wrapped := fmt.Errorf("create booking: %w", NotFound(EntityShow))
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, "create booking: Show not found", wrapped.Error())

	driverErr := errors.New("connection reset")
	se := Storage("insert booking", driverErr)
	assert.ErrorIs(t, se, ErrStorage)
	assert.ErrorIs(t, se, driverErr)
	assert.NotErrorIs(t, se, ErrNotFound)
}

func TestSourcesIndentWithTabs(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		raw, err := os.ReadFile(f)
		require.NoError(t, err)
		for i, line := range strings.Split(string(raw), "\n") {
			assert.False(t, strings.HasPrefix(line, " "), "%s:%d is indented with spaces", f, i+1)
		}
	}
}
