package vote

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/launchpadder/launchpadder/core"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Create(c echo.Context) error
	Delete(c echo.Context) error
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

	created, err := h.service.Create(ctx, c.Param("id"), requester)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{"status": "ok", "content": created})
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
