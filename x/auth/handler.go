package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Token(c echo.Context) error
}

type handler struct {
	service Service
}

// NewHandler creates a new handler
func NewHandler(service Service) Handler {
	return &handler{service: service}
}

// Token exchanges a partner API key for a one-hour JWT
func (h handler) Token(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerToken")
	defer span.End()

	var request tokenRequest
	err := c.Bind(&request)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request", "message": err.Error()})
	}

	response, err := h.service.ExchangeToken(ctx, request.APIKey)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": response})
}
