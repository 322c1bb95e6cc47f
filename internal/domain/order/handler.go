package order

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lamar-health/careplan/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/orders", h.CreateOrder)
	api.GET("/orders", h.ListOrders)
	api.GET("/orders/:id", h.GetOrder)
}

// CreateOrder accepts a submission. Responses:
//   - 201 with the created order when accepted
//   - 400 with per-field messages when validation fails
//   - 409 with the warning set when acknowledgment is required
//   - 409 when a uniqueness race lost and the caller should retry
func (h *Handler) CreateOrder(c echo.Context) error {
	var sub Submission
	if err := c.Bind(&sub); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.svc.Submit(c.Request().Context(), &sub)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":  "validation_failed",
				"fields": verr.Fields,
			})
		}
		var ierr *IntegrityError
		if errors.As(err, &ierr) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":   "integrity_conflict",
				"message": ierr.Error(),
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create order")
	}

	if !res.Accepted() {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":    "acknowledgment_required",
			"message":  "review the warnings and resubmit with them acknowledged to proceed",
			"warnings": res.Warnings,
		})
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListOrders(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
