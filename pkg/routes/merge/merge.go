package merge

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/dedupe"
	clovererrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var validate = validator.New()

// Handler serves the merge endpoints
type Handler struct {
	service *dedupe.Service
}

// NewHandler creates a new merge handler
func NewHandler(service *dedupe.Service) *Handler {
	return &Handler{service: service}
}

// Register registers merge routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Merge)
	g.GET("", h.History)
}

// Merge folds the duplicates into the master. merged_by defaults to the
// calling user.
func (h *Handler) Merge(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "merge_handler.Merge")
	defer span.End()

	var req models.MergeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.MergedBy == "" {
		req.MergedBy = context.GetUserID(ctx)
	}

	result, err := h.service.MergeContacts(ctx, req)
	if err != nil {
		return clovererrors.ToHTTPError(err)
	}

	return c.JSON(http.StatusCreated, result)
}

// History lists every merge of the session, oldest first
func (h *Handler) History(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "merge_handler.History")
	defer span.End()

	return c.JSON(http.StatusOK, h.service.MergeHistory(ctx))
}
