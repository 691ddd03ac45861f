// Package refund implements the time-to-show refund policy applied when
// a booking is cancelled.  Amounts are integer cents.
package refund

import (
	"math"
	"time"

	"github.com/iliyamo/auditorium-booking/internal/model"
)

// Deductions in cents.
const (
	BookingFeeCents        int64 = 500
	BalconyLateFeeCents    int64 = 1500
	OrdinaryLateFeeCents   int64 = 1000
	lastMinuteRefundDivide int64 = 2
)

// DaysUntil returns ceil((showDate - today) / 24h).  A show later the
// same day counts as one day away; a show at exactly this instant as zero.
func DaysUntil(showDate, today time.Time) int {
	return int(math.Ceil(showDate.Sub(today).Hours() / 24))
}

// Compute returns the refund for a ticket bought at ticketPriceCents for
// a show on showDate, cancelled at today.
//
//	more than 3 days:  price - booking fee
//	2 to 3 days:       price - 15.00 (Balcony) or 10.00 (Ordinary)
//	0 to 1 day:        half the price, rounded down to the cent
//	show has passed:   nothing
//
// The result never goes below zero.
func Compute(showDate, today time.Time, seatType model.SeatType, ticketPriceCents int64) int64 {
	days := DaysUntil(showDate, today)
	var amount int64
	switch {
	case days > 3:
		amount = ticketPriceCents - BookingFeeCents
	case days > 1:
		if seatType == model.SeatBalcony {
			amount = ticketPriceCents - BalconyLateFeeCents
		} else {
			amount = ticketPriceCents - OrdinaryLateFeeCents
		}
	case days >= 0:
		amount = ticketPriceCents / lastMinuteRefundDivide
	default:
		amount = 0
	}
	if amount < 0 {
		return 0
	}
	return amount
}
