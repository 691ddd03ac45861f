package queue

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auditorium-booking/internal/model"
)

var occurred = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func booking() *model.Booking {
	return &model.Booking{
		ID:               "b-1",
		ShowID:           "show-1",
		ShowTime:         "18:00",
		SeatType:         model.SeatBalcony,
		SeatNumber:       "B7",
		BookedBy:         "sales-1",
		TicketPriceCents: 45000,
		Status:           model.BookingActive,
	}
}

func TestNewBookingEvent(t *testing.T) {
	b := booking()
	created := NewBookingEvent(EventBookingCreated, b, occurred)
	assert.NotEmpty(t, created.EventID)
	assert.Nil(t, created.RefundAmountCents)
	assert.Equal(t, "Balcony", created.SeatType)

	require.NoError(t, b.Cancel(occurred, 44500))
	cancelled := NewBookingEvent(EventBookingCancelled, b, occurred)
	require.NotNil(t, cancelled.RefundAmountCents)
	assert.Equal(t, int64(44500), *cancelled.RefundAmountCents)
	assert.NotEqual(t, created.EventID, cancelled.EventID)

	raw, err := json.Marshal(created)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "refund_amount_cents")
}

func TestFormatLine(t *testing.T) {
	ev := NewBookingEvent(EventBookingCreated, booking(), occurred)
	assert.Equal(t,
		`[2025-03-10T10:00:00Z] booking.created | booking_id=b-1 | show_id=show-1 | time="18:00" | seat=Balcony/B7 | booked_by=sales-1 | price=45000 cents`+"\n",
		formatLine(ev))

	refund := int64(44500)
	ev.Type = EventBookingCancelled
	ev.RefundAmountCents = &refund
	assert.True(t, strings.HasSuffix(formatLine(ev), " | refund=44500 cents\n"))
}

func TestHandle_AppendsToLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "booking.log")
	log, _ := logtest.NewNullLogger()
	c := NewConsumer("amqp://unused", path, log)

	for _, typ := range []string{EventBookingCreated, EventBookingCancelled} {
		body, err := json.Marshal(NewBookingEvent(typ, booking(), occurred))
		require.NoError(t, err)
		require.NoError(t, c.handle(body))
	}

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "booking.created")
	assert.Contains(t, lines[1], "booking.cancelled")
}

func TestHandle_RejectsGarbage(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	c := NewConsumer("amqp://unused", filepath.Join(t.TempDir(), "booking.log"), log)
	assert.Error(t, c.handle([]byte("not json")))
}

func TestRun_StopsOnCancel(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	c := NewConsumer("amqp://127.0.0.1:1/", filepath.Join(t.TempDir(), "booking.log"), log)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := c.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPublish_UnreachableBroker(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	p := NewPublisher("amqp://127.0.0.1:1/", log)

	err := p.Publish(context.Background(), NewBookingEvent(EventBookingCreated, booking(), occurred))
	assert.Error(t, err)
}

func TestPublish_SilentBrokerHonoursDeadline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	log, _ := logtest.NewNullLogger()
	p := NewPublisher("amqp://"+ln.Addr().String()+"/", log)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = p.Publish(ctx, NewBookingEvent(EventBookingCreated, booking(), occurred))
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPublish_CancelledContext(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	p := NewPublisher("amqp://127.0.0.1:1/", log)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, NewBookingEvent(EventBookingCreated, booking(), occurred))
	assert.ErrorIs(t, err, context.Canceled)
}
