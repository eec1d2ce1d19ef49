package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/devshad-01/meteor-push-pwa/internal/errs"
	"github.com/devshad-01/meteor-push-pwa/internal/events"
	"github.com/devshad-01/meteor-push-pwa/internal/models"
	"github.com/devshad-01/meteor-push-pwa/internal/repositories"
	"github.com/devshad-01/meteor-push-pwa/internal/service"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	engine *service.DispatchEngine
	store  repositories.NotificationStore
	bus    *events.Bus
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(engine *service.DispatchEngine, store repositories.NotificationStore, bus *events.Bus) *NotificationHandler {
	return &NotificationHandler{engine: engine, store: store, bus: bus}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.POST("/notifications/send", h.Send)
	g.POST("/notifications/broadcast", h.Broadcast)
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.DELETE("/notifications/:id", h.Remove)
	g.DELETE("/notifications", h.ClearAll)
}

// Send dispatches a notification to a single user. The caller gets the
// notification id even when push delivery fails, because the record is
// created before any delivery attempt.
func (h *NotificationHandler) Send(c echo.Context) error {
	if currentUserID(c) == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.SendNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	notificationID, err := h.engine.SendToUser(c.Request().Context(), req.UserID, req.Notification)
	if err != nil {
		if notificationID != "" {
			// Record exists, push failed: surface the delivery error along
			// with the id so the caller can still reference the record.
			return c.JSON(http.StatusBadGateway, echo.Map{
				"success": false,
				"error":   err.Error(),
				"data":    echo.Map{"id": notificationID},
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"id": notificationID}})
}

// Broadcast dispatches a notification to every user with a registered
// endpoint. Individual delivery failures are not surfaced here.
func (h *NotificationHandler) Broadcast(c echo.Context) error {
	if currentUserID(c) == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var input models.NotificationInput
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&input); err != nil {
		return err
	}

	count, err := h.engine.Broadcast(c.Request().Context(), input)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"recipients": count}})
}

// GetNotifications returns the caller's notifications, newest first.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID := currentUserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	notifications, err := h.store.ListForUser(c.Request().Context(), userID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"notifications": notifications},
		"meta":    echo.Map{"count": len(notifications)},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	userID := currentUserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.store.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": count}})
}

// MarkAsRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID := currentUserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notificationID := c.Param("id")
	if err := h.store.MarkRead(c.Request().Context(), userID, notificationID); err != nil {
		if errors.Is(err, errs.ErrNotFoundOrNotOwned) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if h.bus != nil {
		h.bus.Publish(events.Event{
			Kind:           events.NotificationRead,
			UserID:         userID,
			NotificationID: notificationID,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// MarkAllAsRead marks all of the caller's notifications as read.
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID := currentUserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	affected, err := h.store.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"updated": affected}})
}

// Remove deletes one of the caller's notifications.
func (h *NotificationHandler) Remove(c echo.Context) error {
	userID := currentUserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.store.Remove(c.Request().Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, errs.ErrNotFoundOrNotOwned) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ClearAll deletes all of the caller's notifications.
func (h *NotificationHandler) ClearAll(c echo.Context) error {
	userID := currentUserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	removed, err := h.store.ClearAll(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"removed": removed}})
}
