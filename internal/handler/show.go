package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auditorium-booking/internal/model"
	"github.com/iliyamo/auditorium-booking/internal/service"
)

// ShowAPI is the show service as used by the HTTP layer.
type ShowAPI interface {
	CreateShow(ctx context.Context, managerID string, in service.CreateShowInput) (*model.Show, error)
	GetShow(ctx context.Context, id string) (*model.Show, error)
	ListUpcoming(ctx context.Context) ([]model.Show, error)
}

// ShowHandler serves /v1/shows.
type ShowHandler struct {
	Shows ShowAPI
}

func NewShowHandler(s ShowAPI) *ShowHandler { return &ShowHandler{Shows: s} }

// Create stores a new show owned by the calling manager.
func (h *ShowHandler) Create(c echo.Context) error {
	caller, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req service.CreateShowInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	show, err := h.Shows.CreateShow(ctx, caller.UserID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, show)
}

// List returns upcoming shows with their availability.
func (h *ShowHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	shows, err := h.Shows.ListUpcoming(ctx)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": shows})
}

// Get returns one show.
func (h *ShowHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()
	show, err := h.Shows.GetShow(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, show)
}
