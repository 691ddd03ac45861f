package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auditorium-booking/internal/service"
)

// CommissionAPI computes commission reports.
type CommissionAPI interface {
	Commission(ctx context.Context, salespersonID string) (*service.CommissionReport, error)
}

// ReportHandler serves the commission endpoints.
type ReportHandler struct {
	Reports CommissionAPI
	Access  AccessChecker
}

func NewReportHandler(r CommissionAPI, a AccessChecker) *ReportHandler {
	return &ReportHandler{Reports: r, Access: a}
}

// SalespersonCommission reports on :id, one of the calling manager's
// salespersons.
func (h *ReportHandler) SalespersonCommission(c echo.Context) error {
	caller, err := currentIdentity(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	id := c.Param("id")
	if err := h.Access.CanActFor(ctx, caller, id); err != nil {
		return writeError(c, err)
	}
	rep, err := h.Reports.Commission(ctx, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

// MyCommission reports on the calling salesperson.
func (h *ReportHandler) MyCommission(c echo.Context) error {
	caller, err := currentIdentity(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rep, err := h.Reports.Commission(ctx, caller.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}
