package badge

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/launchpadder/launchpadder/core"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	CreateDefinition(c echo.Context) error
	GetDefinition(c echo.Context) error
	ListDefinitions(c echo.Context) error
	DeleteDefinition(c echo.Context) error
	Award(c echo.Context) error
	ListUserBadges(c echo.Context) error
	Verify(c echo.Context) error
}

type handler struct {
	service Service
}

// NewHandler creates a new handler
func NewHandler(service Service) Handler {
	return &handler{service: service}
}

type definitionRequest struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type awardRequest struct {
	UserID string `json:"user_id"`
}

type verifyRequest struct {
	Pubkey string `json:"pubkey,omitempty"`
}

func (h handler) CreateDefinition(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerCreateDefinition")
	defer span.End()

	var request definitionRequest
	err := c.Bind(&request)
	if err != nil {
		return core.NewErrorValidation("Invalid request body")
	}

	created, err := h.service.CreateDefinition(ctx, request.Slug, request.Name, request.Description, request.ImageURL)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{"status": "ok", "content": created})
}

func (h handler) GetDefinition(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerGetDefinition")
	defer span.End()

	definition, err := h.service.GetDefinition(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": definition})
}

func (h handler) ListDefinitions(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerListDefinitions")
	defer span.End()

	definitions, err := h.service.ListDefinitions(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": definitions})
}

func (h handler) DeleteDefinition(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerDeleteDefinition")
	defer span.End()

	err := h.service.DeleteDefinition(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h handler) Award(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerAward")
	defer span.End()

	var request awardRequest
	err := c.Bind(&request)
	if err != nil {
		return core.NewErrorValidation("Invalid request body")
	}

	award, err := h.service.Award(ctx, c.Param("id"), request.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, echo.Map{"status": "ok", "content": award})
}

func (h handler) ListUserBadges(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerListUserBadges")
	defer span.End()

	awards, err := h.service.ListUserBadges(ctx, c.Param("userId"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": awards})
}

// Verify is part of the public federation surface: other instances check
// awards they were shown
func (h handler) Verify(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "HandlerVerify")
	defer span.End()

	var request verifyRequest
	err := c.Bind(&request)
	if err != nil {
		return core.NewErrorValidation("Invalid request body")
	}

	verifier, _ := c.Get(core.RequesterIdCtxKey).(string)
	if verifier == "" {
		verifier = c.RealIP()
	}

	verification, err := h.service.Verify(ctx, c.Param("badgeId"), verifier, request.Pubkey)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, echo.Map{"status": "ok", "content": verification})
}
