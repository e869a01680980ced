package instance

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/launchpadder/launchpadder/core"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Info(c echo.Context) error
	Directories(c echo.Context) error
	Register(c echo.Context) error
	Get(c echo.Context) error
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

// Info serves the capability descriptor other instances probe
func (h handler) Info(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerInfo")
	defer span.End()

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": h.service.Info(ctx)})
}

func (h handler) Directories(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerDirectories")
	defer span.End()

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": h.service.Directories(ctx)})
}

func (h handler) Register(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerRegister")
	defer span.End()

	var request RegisterRequest
	err := c.Bind(&request)
	if err != nil {
		return core.NewErrorValidation("Invalid request body")
	}

	registered, err := h.service.Register(ctx, request)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{"status": "ok", "content": registered})
}

func (h handler) Get(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerGet")
	defer span.End()

	instance, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": instance})
}

func (h handler) List(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerList")
	defer span.End()

	instances, err := h.service.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": instances})
}

func (h handler) Delete(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerDelete")
	defer span.End()

	err := h.service.Delete(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
