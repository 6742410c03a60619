package duplicate

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/dedupe"
	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Handler serves duplicate detection and pending-match endpoints
type Handler struct {
	service *dedupe.Service
}

// NewHandler creates a new duplicate handler
func NewHandler(service *dedupe.Service) *Handler {
	return &Handler{service: service}
}

// Register registers duplicate routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("/find", h.Find)
	g.POST("/bulk", h.Bulk)
	g.GET("/pending", h.Pending)
	g.POST("/resolve", h.Resolve)
}

// FindRequest is the request body for matching one contact against candidates
type FindRequest struct {
	Contact    models.Contact   `json:"contact" validate:"required"`
	Candidates []models.Contact `json:"candidates"`
	Threshold  *float64         `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Find ranks the candidates that look like the contact
func (h *Handler) Find(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "duplicate_handler.Find")
	defer span.End()

	var req FindRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	run := h.service.FindDuplicates(ctx, req.Contact, req.Candidates, h.threshold(req.Threshold))
	return c.JSON(http.StatusOK, run)
}

// BulkRequest is the request body for a bulk deduplication run
type BulkRequest struct {
	Contacts       []models.Contact `json:"contacts" validate:"required"`
	Threshold      *float64         `json:"threshold,omitempty" validate:"omitempty,gte=0,lte=100"`
	TimeoutSeconds int              `json:"timeout_seconds,omitempty" validate:"gte=0"`
}

// Bulk scores every pair of contacts and replaces the pending matches
func (h *Handler) Bulk(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "duplicate_handler.Bulk")
	defer span.End()

	var req BulkRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	timeout := time.Duration(req.TimeoutSeconds) * time.Second
	run := h.service.RunBulkDeduplication(ctx, req.Contacts, h.threshold(req.Threshold), timeout)
	return c.JSON(http.StatusOK, run)
}

// Pending lists the pending matches, optionally filtered by ?confidence=
func (h *Handler) Pending(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "duplicate_handler.Pending")
	defer span.End()

	var filter *models.Confidence
	if raw := c.QueryParam("confidence"); raw != "" {
		confidence, err := models.ParseConfidence(raw)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		filter = &confidence
	}

	return c.JSON(http.StatusOK, h.service.GetPendingMatches(ctx, filter))
}

// ResolveRequest is the request body for resolving a pending match
type ResolveRequest struct {
	ContactID1 string               `json:"contact_id_1" validate:"required"`
	ContactID2 string               `json:"contact_id_2" validate:"required"`
	Action     models.ResolveAction `json:"action" validate:"required,oneof=merge not_duplicate skip"`
}

// ResolveResponse is returned after a pending match is resolved
type ResolveResponse struct {
	Resolved bool                  `json:"resolved"`
	Action   models.ResolveAction  `json:"action"`
	Match    models.DuplicateMatch `json:"match"`
}

// Resolve removes a pair from the pending matches
func (h *Handler) Resolve(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "duplicate_handler.Resolve")
	defer span.End()

	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	match, err := h.service.ResolveMatch(ctx, req.ContactID1, req.ContactID2, req.Action)
	if err != nil {
		return clovererrors.ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, ResolveResponse{
		Resolved: true,
		Action:   req.Action,
		Match:    match,
	})
}

func (h *Handler) threshold(requested *float64) float64 {
	if requested == nil {
		return h.service.DefaultThreshold()
	}
	return *requested
}
