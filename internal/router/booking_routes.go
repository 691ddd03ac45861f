package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auditorium-booking/internal/handler"
	"github.com/iliyamo/auditorium-booking/internal/middleware"
	"github.com/iliyamo/auditorium-booking/internal/model"
)

// Limits bundles the optional redis middleware.  Either may be a no-op.
type Limits struct {
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// RegisterBooking registers shows, bookings and commission reports.  All
// routes require a valid JWT; show reads are cached and booking writes
// rate limited.
func RegisterBooking(e *echo.Echo, s *handler.ShowHandler, b *handler.BookingHandler, r *handler.ReportHandler, l Limits, jwtSecret string) {
	if l.Cache == nil {
		l.Cache = passThrough
	}
	if l.RateLimit == nil {
		l.RateLimit = passThrough
	}
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleManager, model.RoleSalesperson),
	)
	manager := middleware.RequireRole(model.RoleManager)

	g.GET("/shows", s.List, l.Cache)
	g.GET("/shows/:id", s.Get, l.Cache)
	g.POST("/shows", s.Create, manager)

	g.POST("/bookings", b.Create, l.RateLimit)
	g.GET("/bookings", b.List)
	g.GET("/bookings/:id", b.Get)
	g.GET("/bookings/:id/refund-quote", b.RefundQuote)
	g.POST("/bookings/:id/cancel", b.Cancel, l.RateLimit)

	g.GET("/salespersons/:id/commission", r.SalespersonCommission, manager)
	g.GET("/me/commission", r.MyCommission, middleware.RequireRole(model.RoleSalesperson))
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
