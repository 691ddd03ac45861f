package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auditorium-booking/internal/model"
	"github.com/iliyamo/auditorium-booking/internal/service"
)

// BookingAPI is the booking service as used by the HTTP layer.
type BookingAPI interface {
	CreateBooking(ctx context.Context, in service.CreateBookingInput) (*model.Booking, error)
	CancelBooking(ctx context.Context, in service.CancelBookingInput) (*model.Booking, error)
	RefundQuote(ctx context.Context, bookingID string) (*service.RefundQuote, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ListBookings(ctx context.Context, bookedBy string) ([]model.BookingView, error)
}

// BookingHandler serves /v1/bookings.
type BookingHandler struct {
	Bookings BookingAPI
	Access   AccessChecker
}

func NewBookingHandler(b BookingAPI, a AccessChecker) *BookingHandler {
	return &BookingHandler{Bookings: b, Access: a}
}

type createBookingReq struct {
	ShowID        string `json:"show_id"`
	ShowTime      string `json:"show_time"`
	SeatType      string `json:"seat_type"`
	SeatNumber    string `json:"seat_number"`
	SpectatorName string `json:"spectator_name"`
	PaymentInfo   string `json:"payment_info"`
}

type cancelBookingReq struct {
	RefundAmountCents *int64 `json:"refund_amount_cents"`
}

// Create books one seat for a spectator on behalf of the caller.
func (h *BookingHandler) Create(c echo.Context) error {
	caller, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	b, err := h.Bookings.CreateBooking(ctx, service.CreateBookingInput{
		ShowID:        req.ShowID,
		Timing:        req.ShowTime,
		SeatType:      req.SeatType,
		SeatNumber:    req.SeatNumber,
		SpectatorName: req.SpectatorName,
		PaymentInfo:   req.PaymentInfo,
		BookedBy:      caller.UserID,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// List returns the bookings made by ?user_id= (default: the caller).
func (h *BookingHandler) List(c echo.Context) error {
	caller, err := currentIdentity(c)
	if err != nil {
		return err
	}
	userID := strings.TrimSpace(c.QueryParam("user_id"))
	if userID == "" {
		userID = caller.UserID
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Access.CanActFor(ctx, caller, userID); err != nil {
		return writeError(c, err)
	}
	views, err := h.Bookings.ListBookings(ctx, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": views})
}

// load fetches :id and checks the caller may see it.
func (h *BookingHandler) load(ctx context.Context, c echo.Context) (*model.Booking, error) {
	caller, err := currentIdentity(c)
	if err != nil {
		return nil, err
	}
	b, err := h.Bookings.GetBooking(ctx, c.Param("id"))
	if err != nil {
		return nil, err
	}
	if err := h.Access.CanActFor(ctx, caller, b.BookedBy); err != nil {
		return nil, err
	}
	return b, nil
}

// Get returns one booking.
func (h *BookingHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	b, err := h.load(ctx, c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// RefundQuote returns what cancelling the booking now would refund.
func (h *BookingHandler) RefundQuote(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	b, err := h.load(ctx, c)
	if err != nil {
		return writeError(c, err)
	}
	q, err := h.Bookings.RefundQuote(ctx, b.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// Cancel cancels the booking and returns it with its cancellation.
func (h *BookingHandler) Cancel(c echo.Context) error {
	var req cancelBookingReq
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	b, err := h.load(ctx, c)
	if err != nil {
		return writeError(c, err)
	}
	b, err = h.Bookings.CancelBooking(ctx, service.CancelBookingInput{
		BookingID:         b.ID,
		RefundAmountCents: req.RefundAmountCents,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, b)
}
