package service

import (
	"context"
	"errors"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auditorium-booking/internal/model"
)

func newShowService(shows *fakeShows) *ShowService {
	log, _ := logtest.NewNullLogger()
	svc := NewShowService(shows, log)
	svc.now = func() time.Time { return testToday }
	return svc
}

func validShowInput() CreateShowInput {
	return CreateShowInput{
		ShowDate:      "2025-03-20",
		NumberOfShows: 2,
		Timings:       []string{"15:00", "19:30"},
		SeatCategories: []SeatCategoryInput{
			{Category: "Balcony", TotalSeats: 40, PriceCents: 45000},
			{Category: "Ordinary", TotalSeats: 120, PriceCents: 30000},
		},
	}
}

func TestCreateShow_BuildsPerformancesWithFullInventory(t *testing.T) {
	shows := newFakeShows()
	svc := newShowService(shows)

	show, err := svc.CreateShow(context.Background(), "manager-1", validShowInput())
	require.NoError(t, err)

	assert.NotEmpty(t, show.ID)
	assert.Equal(t, testShowDate, show.ShowDate)
	assert.Equal(t, "manager-1", show.ManagerID)
	require.Len(t, show.Performances, 2)
	for i, p := range show.Performances {
		assert.Equal(t, i, p.Position)
		require.Len(t, p.SeatCategories, 2)
		for _, c := range p.SeatCategories {
			assert.Equal(t, c.TotalSeats, c.AvailableSeats)
		}
	}
	assert.Equal(t, "19:30", show.Performances[1].Timing)
	assert.Equal(t, int64(45000), show.Performances[0].SeatCategories[0].PriceCents)

	// performances must not share a category slice
	show.Performances[0].SeatCategories[0].AvailableSeats = 0
	assert.Equal(t, 40, show.Performances[1].SeatCategories[0].AvailableSeats)
	assert.Len(t, shows.saved, 1)
}

func TestCreateShow_Validation(t *testing.T) {
	cases := []struct {
		name  string
		field string
		edit  func(*CreateShowInput)
	}{
		{"missing date", "show_date", func(in *CreateShowInput) { in.ShowDate = "" }},
		{"bad date", "show_date", func(in *CreateShowInput) { in.ShowDate = "20/03/2025" }},
		{"zero shows", "number_of_shows", func(in *CreateShowInput) { in.NumberOfShows = 0 }},
		{"timing count", "timings", func(in *CreateShowInput) { in.Timings = []string{"15:00"} }},
		{"empty timing", "timings", func(in *CreateShowInput) { in.Timings = []string{"15:00", " "} }},
		{"duplicate timing", "timings", func(in *CreateShowInput) { in.Timings = []string{"15:00", "15:00"} }},
		{"no categories", "seat_categories", func(in *CreateShowInput) { in.SeatCategories = nil }},
		{"unknown category", "seat_categories.category", func(in *CreateShowInput) { in.SeatCategories[0].Category = "Box" }},
		{"duplicate category", "seat_categories.category", func(in *CreateShowInput) { in.SeatCategories[1].Category = "Balcony" }},
		{"negative seats", "seat_categories.total_seats", func(in *CreateShowInput) { in.SeatCategories[0].TotalSeats = -1 }},
		{"negative price", "seat_categories.price_cents", func(in *CreateShowInput) { in.SeatCategories[1].PriceCents = -5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shows := newFakeShows()
			in := validShowInput()
			tc.edit(&in)

			_, err := newShowService(shows).CreateShow(context.Background(), "manager-1", in)

			var ve *model.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.Empty(t, shows.saved)
		})
	}
}

func TestCreateShow_RequiresManager(t *testing.T) {
	_, err := newShowService(newFakeShows()).CreateShow(context.Background(), "", validShowInput())
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestCreateShow_StorageFailure(t *testing.T) {
	shows := newFakeShows()
	shows.err = model.Storage("insert show", errors.New("disk full"))

	_, err := newShowService(shows).CreateShow(context.Background(), "manager-1", validShowInput())
	assert.ErrorIs(t, err, model.ErrStorage)
}

func TestListUpcoming_StartsToday(t *testing.T) {
	past := eveningShow()
	past.ID = "show-past"
	past.ShowDate = time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	today := eveningShow()
	today.ID = "show-today"
	today.ShowDate = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	later := eveningShow()

	shows, err := newShowService(newFakeShows(past, today, later)).ListUpcoming(context.Background())
	require.NoError(t, err)
	require.Len(t, shows, 2)
	assert.Equal(t, "show-today", shows[0].ID)
	assert.Equal(t, "show-1", shows[1].ID)
}

func TestGetShow(t *testing.T) {
	svc := newShowService(newFakeShows(eveningShow()))

	s, err := svc.GetShow(context.Background(), "show-1")
	require.NoError(t, err)
	assert.Equal(t, "18:00", s.Performances[0].Timing)

	_, err = svc.GetShow(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.GetShow(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrValidation)
}
