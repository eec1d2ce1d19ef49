package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devshad-01/meteor-push-pwa/internal/errs"
	"github.com/devshad-01/meteor-push-pwa/internal/models"
	"github.com/devshad-01/meteor-push-pwa/internal/repositories"
)

// SubscriptionHandler handles push-endpoint registration HTTP requests
type SubscriptionHandler struct {
	registry repositories.EndpointRegistry
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(registry repositories.EndpointRegistry) *SubscriptionHandler {
	return &SubscriptionHandler{registry: registry}
}

// RegisterPublicRoutes registers routes that allow anonymous callers.
func (h *SubscriptionHandler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/subscriptions", h.AddSubscription)
}

// RegisterSubscriptionRoutes registers authenticated subscription routes.
func (h *SubscriptionHandler) RegisterSubscriptionRoutes(g *echo.Group) {
	g.DELETE("/subscriptions", h.RemoveSubscription)
	g.GET("/subscriptions/me", h.GetOwnSubscription)
}

// AddSubscription registers a push endpoint. Anonymous registration is
// permitted; an authenticated user's prior endpoint is replaced.
func (h *SubscriptionHandler) AddSubscription(c echo.Context) error {
	var req models.AddSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	endpointID, err := h.registry.Register(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidEndpoint) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"id": endpointID}})
}

// RemoveSubscription unregisters the caller's endpoint; removing a missing
// endpoint succeeds.
func (h *SubscriptionHandler) RemoveSubscription(c echo.Context) error {
	userID := currentUserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.registry.Unregister(c.Request().Context(), userID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// GetOwnSubscription returns the caller's endpoint, if any.
func (h *SubscriptionHandler) GetOwnSubscription(c echo.Context) error {
	userID := currentUserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	ep, err := h.registry.Lookup(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, errs.ErrEndpointNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"subscription": ep}})
}
