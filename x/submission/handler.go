package submission

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/launchpadder/launchpadder/core"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Create(c echo.Context) error
	Ingest(c echo.Context) error
	Get(c echo.Context) error
	List(c echo.Context) error
	Update(c echo.Context) error
	Delete(c echo.Context) error
	SetStatus(c echo.Context) error
}

type handler struct {
	service Service
}

// NewHandler creates a new handler
func NewHandler(service Service) Handler {
	return &handler{service: service}
}

func (h handler) Create(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerCreate")
	defer span.End()

	requester, ok := c.Get(core.RequesterIdCtxKey).(string)
	if !ok || requester == "" {
		return core.NewErrorUnauthorized("authentication required")
	}

	var request CreateRequest
	err := c.Bind(&request)
	if err != nil {
		return core.NewErrorValidation("Invalid request body")
	}

	created, err := h.service.Create(ctx, request, requester)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{"status": "ok", "content": created})
}

// Ingest accepts a submission pushed by an authenticated federation partner
func (h handler) Ingest(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerIngest")
	defer span.End()

	requesterType, _ := c.Get(core.RequesterTypeCtxKey).(int)
	requester, _ := c.Get(core.RequesterIdCtxKey).(string)
	if requesterType != core.RequesterTypePartner || requester == "" {
		return core.NewError(core.KindForbidden, "federation partner credentials required")
	}

	var request IngestRequest
	err := c.Bind(&request)
	if err != nil {
		return core.NewErrorValidation("Invalid request body")
	}

	created, err := h.service.Ingest(ctx, request, requester)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{"status": "ok", "content": created})
}

func (h handler) Get(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerGet")
	defer span.End()

	submission, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": submission})
}

func (h handler) List(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerList")
	defer span.End()

	query := ListQuery{
		Page:   atoiDefault(c.QueryParam("page"), 1),
		Limit:  atoiDefault(c.QueryParam("limit"), defaultLimit),
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
		Sort:   c.QueryParam("sort"),
		Order:  c.QueryParam("order"),
	}
	if tags := c.QueryParam("tags"); tags != "" {
		query.Tags = strings.Split(tags, ",")
	}

	submissions, total, err := h.service.GetList(ctx, query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"content": submissions,
		"total":   total,
		"page":    query.Page,
		"limit":   query.Limit,
	})
}

func (h handler) Update(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerUpdate")
	defer span.End()

	requester, ok := c.Get(core.RequesterIdCtxKey).(string)
	if !ok || requester == "" {
		return core.NewErrorUnauthorized("authentication required")
	}

	var request UpdateRequest
	err := c.Bind(&request)
	if err != nil {
		return core.NewErrorValidation("Invalid request body")
	}

	updated, err := h.service.Update(ctx, c.Param("id"), request, requester)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": updated})
}

func (h handler) Delete(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerDelete")
	defer span.End()

	requester, ok := c.Get(core.RequesterIdCtxKey).(string)
	if !ok || requester == "" {
		return core.NewErrorUnauthorized("authentication required")
	}

	err := h.service.Delete(ctx, c.Param("id"), requester)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus is the moderation endpoint, restricted upstream
func (h handler) SetStatus(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerSetStatus")
	defer span.End()

	var request statusRequest
	err := c.Bind(&request)
	if err != nil {
		return core.NewErrorValidation("Invalid request body")
	}

	updated, err := h.service.SetStatus(ctx, c.Param("id"), request.Status)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": updated})
}

func atoiDefault(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
