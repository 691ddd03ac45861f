package service

import (
	"context"
	"math"
	"strings"

	"github.com/iliyamo/auditorium-booking/internal/model"
)

// BookingReader is the read side of the booking ledger.
type BookingReader interface {
	FindBookingsByBooker(ctx context.Context, bookedBy string) ([]model.Booking, error)
}

// SalesMetrics aggregates one salesperson's bookings.
type SalesMetrics struct {
	TotalTickets     int   `json:"total_tickets"`
	ActiveTickets    int   `json:"active_tickets"`
	CancelledTickets int   `json:"cancelled_tickets"`
	BalconyTickets   int   `json:"balcony_tickets"`
	OrdinaryTickets  int   `json:"ordinary_tickets"`
	TotalSalesCents  int64 `json:"total_sales_cents"`
	CommissionCents  int64 `json:"commission_cents"`
}

// CommissionReport is the commission view of one salesperson.
type CommissionReport struct {
	SalespersonID string          `json:"salesperson_id"`
	SalesMetrics  SalesMetrics    `json:"sales_metrics"`
	AllSales      []model.Booking `json:"all_sales"`
}

// Summarize counts tickets by status and tier.  Sales and commission only
// include Active bookings; commission is percent of sales rounded half up
// to the cent.
func Summarize(bookings []model.Booking, percent float64) SalesMetrics {
	var m SalesMetrics
	for _, b := range bookings {
		m.TotalTickets++
		if b.Status == model.BookingCancelled {
			m.CancelledTickets++
			continue
		}
		m.ActiveTickets++
		m.TotalSalesCents += b.TicketPriceCents
		switch b.SeatType {
		case model.SeatBalcony:
			m.BalconyTickets++
		case model.SeatOrdinary:
			m.OrdinaryTickets++
		}
	}
	m.CommissionCents = int64(math.Round(float64(m.TotalSalesCents) * percent / 100))
	return m
}

// ReportService computes read-only sales reports.
type ReportService struct {
	bookings BookingReader
	percent  float64
}

func NewReportService(bookings BookingReader, commissionPercent float64) *ReportService {
	return &ReportService{bookings: bookings, percent: commissionPercent}
}

// Commission builds the report for salespersonID.
func (s *ReportService) Commission(ctx context.Context, salespersonID string) (*CommissionReport, error) {
	salespersonID = strings.TrimSpace(salespersonID)
	if salespersonID == "" {
		return nil, model.Required("salesperson_id")
	}
	bookings, err := s.bookings.FindBookingsByBooker(ctx, salespersonID)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	return &CommissionReport{
		SalespersonID: salespersonID,
		SalesMetrics:  Summarize(bookings, s.percent),
		AllSales:      bookings,
	}, nil
}
