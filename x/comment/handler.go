package comment

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/launchpadder/launchpadder/core"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Create(c echo.Context) error
	List(c echo.Context) error
	Delete(c echo.Context) error
}

type handler struct {
	service Service
}

// NewHandler creates a new handler
func NewHandler(service Service) Handler {
	return &handler{service: service}
}

type createRequest struct {
	Body string `json:"body"`
}

func (h handler) Create(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerCreate")
	defer span.End()

	requester, ok := c.Get(core.RequesterIdCtxKey).(string)
	if !ok || requester == "" {
		return core.NewErrorUnauthorized("authentication required")
	}

	var request createRequest
	err := c.Bind(&request)
	if err != nil {
		return core.NewErrorValidation("Invalid request body")
	}

	created, err := h.service.Create(ctx, c.Param("id"), requester, request.Body)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{"status": "ok", "content": created})
}

func (h handler) List(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerList")
	defer span.End()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	comments, total, err := h.service.ListBySubmission(ctx, c.Param("id"), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": comments, "total": total})
}

func (h handler) Delete(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerDelete")
	defer span.End()

	requester, ok := c.Get(core.RequesterIdCtxKey).(string)
	if !ok || requester == "" {
		return core.NewErrorUnauthorized("authentication required")
	}

	err := h.service.Delete(ctx, c.Param("commentId"), requester)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
