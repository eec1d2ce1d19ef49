package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/devshad-01/meteor-push-pwa/internal/models"
)

// currentUserID returns the authenticated user's id, or "" for anonymous
// callers.
func currentUserID(c echo.Context) string {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return ""
	}
	return claims.UserID
}
