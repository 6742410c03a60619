package matchrule

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/dedupe"
	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Handler serves the deduplication rule endpoints
type Handler struct {
	service *dedupe.Service
}

// NewHandler creates a new rule handler
func NewHandler(service *dedupe.Service) *Handler {
	return &Handler{service: service}
}

// Register registers rule routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Configure)
	g.PUT("/:id", h.Update)
}

// List lists every configured rule
func (h *Handler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "matchrule_handler.List")
	defer span.End()

	return c.JSON(http.StatusOK, h.service.ListRules(ctx))
}

// ConfigureRuleRequest is the request body for adding or replacing a rule
type ConfigureRuleRequest struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Field     string           `json:"field" validate:"required"`
	MatchType models.MatchType `json:"match_type" validate:"required"`
	Weight    float64          `json:"weight"`
	Threshold float64          `json:"threshold"`
	IsActive  *bool            `json:"is_active,omitempty"`
}

// Configure adds a rule, or replaces the rule with the same id
func (h *Handler) Configure(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "matchrule_handler.Configure")
	defer span.End()

	var req ConfigureRuleRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	rule, err := h.service.ConfigureRule(ctx, models.DeduplicationRule{
		ID:        req.ID,
		Name:      req.Name,
		Field:     req.Field,
		MatchType: req.MatchType,
		Weight:    req.Weight,
		Threshold: req.Threshold,
		IsActive:  isActive,
	})
	if err != nil {
		return clovererrors.ToHTTPError(err)
	}

	return c.JSON(http.StatusCreated, rule)
}

// Update patches an existing rule
func (h *Handler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "matchrule_handler.Update")
	defer span.End()

	var patch models.RulePatch
	if err := c.Bind(&patch); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rule, err := h.service.UpdateRule(ctx, c.Param("id"), patch)
	if err != nil {
		return clovererrors.ToHTTPError(err)
	}

	return c.JSON(http.StatusOK, rule)
}
