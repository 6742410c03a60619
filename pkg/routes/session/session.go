package session

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/dedupe"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Handler serves session lifecycle endpoints
type Handler struct {
	service *dedupe.Service
}

// NewHandler creates a new session handler
func NewHandler(service *dedupe.Service) *Handler {
	return &Handler{service: service}
}

// Register registers session routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/reset", h.Reset)
}

// Reset reseeds the default rules and clears pending matches and merge history
func (h *Handler) Reset(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "session_handler.Reset")
	defer span.End()

	h.service.Reset(ctx)
	return c.NoContent(http.StatusNoContent)
}
