package federation

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/launchpadder/launchpadder/core"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Fanout(c echo.Context) error
	GetBySubmission(c echo.Context) error
	List(c echo.Context) error
}

type handler struct {
	service Service
}

// NewHandler creates a new handler
func NewHandler(service Service) Handler {
	return &handler{service: service}
}

func (h handler) Fanout(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerFanout")
	defer span.End()

	requester, ok := c.Get(core.RequesterIdCtxKey).(string)
	if !ok || requester == "" {
		return core.NewErrorUnauthorized("authentication required")
	}

	var request FanoutRequest
	err := c.Bind(&request)
	if err != nil {
		return core.NewErrorValidation("Invalid request body")
	}

	results, err := h.service.Fanout(ctx, c.Param("id"), request, requester)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": results})
}

func (h handler) GetBySubmission(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerGetBySubmission")
	defer span.End()

	requester, ok := c.Get(core.RequesterIdCtxKey).(string)
	if !ok || requester == "" {
		return core.NewErrorUnauthorized("authentication required")
	}

	records, err := h.service.GetBySubmission(ctx, c.Param("id"), requester)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": records})
}

// List serves the moderation view of all federated submission rows
func (h handler) List(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerList")
	defer span.End()

	query := ListQuery{
		Page:   atoiDefault(c.QueryParam("page"), 1),
		Limit:  atoiDefault(c.QueryParam("limit"), defaultLimit),
		Status: c.QueryParam("status"),
	}

	records, total, err := h.service.GetList(ctx, query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"content": records,
		"total":   total,
		"page":    query.Page,
		"limit":   query.Limit,
	})
}

func atoiDefault(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
