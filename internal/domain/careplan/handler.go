package careplan

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lamar-health/careplan/internal/platform/llm"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/orders/:id/care-plan", h.GenerateCarePlan)
	api.GET("/orders/:id/care-plan", h.GetCarePlanForOrder)
	api.GET("/care-plans/:id", h.GetCarePlan)
	api.PUT("/care-plans/:id", h.UpdateCarePlan)
	api.GET("/care-plans/:id/download", h.DownloadCarePlan)
}

// GenerateCarePlan kicks off generation for an order. Responses:
//   - 201 with the plan on success
//   - 409 when a succeeded plan already exists
//   - 502 with the failure kind when the upstream model call fails; the
//     failed attempt is recorded on the order and can be retried
func (h *Handler) GenerateCarePlan(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}

	cp, err := h.svc.GenerateForOrder(c.Request().Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrAlreadyGenerated) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error":     "already_generated",
				"message":   "this order already has a generated care plan",
				"care_plan": cp,
			})
		}
		var gerr *llm.GenerationError
		if errors.As(err, &gerr) {
			return c.JSON(http.StatusBadGateway, echo.Map{
				"error":     "generation_failed",
				"kind":      gerr.Kind,
				"message":   gerr.Message,
				"retryable": gerr.Retryable(),
				"care_plan": cp,
			})
		}
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusCreated, cp)
}

func (h *Handler) GetCarePlanForOrder(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	cp, err := h.svc.GetForOrder(c.Request().Context(), orderID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load care plan")
	}
	if cp == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no care plan for this order")
	}
	return c.JSON(http.StatusOK, cp)
}

func (h *Handler) GetCarePlan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "care plan not found")
	}
	return c.JSON(http.StatusOK, cp)
}

// DownloadCarePlan serves the plan text as a plain-text attachment for
// handoff outside the system.
func (h *Handler) DownloadCarePlan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "care plan not found")
	}
	if !cp.Succeeded() {
		return echo.NewHTTPError(http.StatusConflict, "care plan has no generated content")
	}

	filename := fmt.Sprintf("care_plan_%s.txt", cp.OrderID)
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(cp.Content))
}

func (h *Handler) UpdateCarePlan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	cp, err := h.svc.UpdateContent(c.Request().Context(), id, body.Content)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, cp)
}
