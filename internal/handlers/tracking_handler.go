package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/devshad-01/meteor-push-pwa/internal/models"
	"github.com/devshad-01/meteor-push-pwa/internal/service"
)

// TrackingHandler handles presence-tracking HTTP requests. Presence is
// best-effort telemetry: mutations always return 200, even when the caller
// is anonymous and the update is dropped.
type TrackingHandler struct {
	tracker *service.PresenceTracker
}

// NewTrackingHandler creates a new TrackingHandler
func NewTrackingHandler(tracker *service.PresenceTracker) *TrackingHandler {
	return &TrackingHandler{tracker: tracker}
}

// RegisterPublicRoutes registers the presence mutation routes; they accept
// anonymous callers (and silently ignore them).
func (h *TrackingHandler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/tracking/status", h.UpdateStatus)
	g.POST("/tracking/heartbeat", h.Heartbeat)
	g.POST("/tracking/disconnect", h.Disconnect)
}

// RegisterTrackingRoutes registers authenticated presence routes.
func (h *TrackingHandler) RegisterTrackingRoutes(g *echo.Group) {
	g.GET("/tracking/online", h.ListOnline)
}

// UpdateStatus sets the session's presence status.
func (h *TrackingHandler) UpdateStatus(c echo.Context) error {
	var req models.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	h.tracker.SetStatus(currentUserID(c), req.SessionID, models.PresenceStatus(req.Status))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Heartbeat refreshes the session's last-seen timestamp.
func (h *TrackingHandler) Heartbeat(c echo.Context) error {
	var req models.HeartbeatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	h.tracker.Heartbeat(currentUserID(c), req.SessionID)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Disconnect removes the session immediately (explicit logout/tab close).
func (h *TrackingHandler) Disconnect(c echo.Context) error {
	var req models.HeartbeatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	h.tracker.Disconnect(currentUserID(c), req.SessionID)
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ListOnline returns sessions currently considered online or away.
func (h *TrackingHandler) ListOnline(c echo.Context) error {
	if currentUserID(c) == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	online := h.tracker.ListOnline()
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"online": online},
		"meta":    echo.Map{"count": len(online)},
	})
}
