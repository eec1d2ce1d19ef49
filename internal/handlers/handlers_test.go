package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devshad-01/meteor-push-pwa/internal/errs"
	"github.com/devshad-01/meteor-push-pwa/internal/models"
	"github.com/devshad-01/meteor-push-pwa/internal/service"
	"github.com/devshad-01/meteor-push-pwa/pkg/logger"
	"github.com/devshad-01/meteor-push-pwa/validators"
)

func newTestContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = validators.NewValidator()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func asUser(c echo.Context, userID string) {
	c.Set("user", &models.JwtCustomClaims{UserID: userID})
}

// --- tracking ---

func newHandlerTracker(t *testing.T) *service.PresenceTracker {
	t.Helper()
	tracker := service.NewPresenceTracker(time.Minute, time.Minute, logger.NewNopLogger(), nil)
	t.Cleanup(tracker.Stop)
	return tracker
}

func TestHeartbeatAnonymousIsSilentlyDropped(t *testing.T) {
	tracker := newHandlerTracker(t)
	h := NewTrackingHandler(tracker)

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/tracking/heartbeat", `{"sessionId":"s1"}`)
	require.NoError(t, h.Heartbeat(c))

	assert.Equal(t, http.StatusOK, rec.Code, "presence mutations never error the caller")
	assert.Empty(t, tracker.ListOnline())
}

func TestHeartbeatAuthenticated(t *testing.T) {
	tracker := newHandlerTracker(t)
	h := NewTrackingHandler(tracker)

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/tracking/heartbeat", `{"sessionId":"s1"}`)
	asUser(c, "alice")
	require.NoError(t, h.Heartbeat(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, tracker.ListOnline(), 1)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	h := NewTrackingHandler(newHandlerTracker(t))

	c, _ := newTestContext(t, http.MethodPost, "/api/v1/tracking/status", `{"status":"busy","sessionId":"s1"}`)
	asUser(c, "alice")

	err := h.UpdateStatus(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestDisconnectRemovesSession(t *testing.T) {
	tracker := newHandlerTracker(t)
	h := NewTrackingHandler(tracker)
	tracker.Heartbeat("alice", "s1")

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/tracking/disconnect", `{"sessionId":"s1"}`)
	asUser(c, "alice")
	require.NoError(t, h.Disconnect(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, tracker.ListOnline())
}

// --- notifications ---

type stubStore struct {
	markReadErr error
	lastUserID  string
	lastID      string
}

func (s *stubStore) Create(_ context.Context, userID string, kind models.NotificationKind, input models.NotificationInput) (*models.NotificationRecord, error) {
	return &models.NotificationRecord{ID: "n1", UserID: userID, Kind: kind, Title: input.Title}, nil
}

func (s *stubStore) MarkRead(_ context.Context, userID, id string) error {
	s.lastUserID, s.lastID = userID, id
	return s.markReadErr
}

func (s *stubStore) MarkAllRead(context.Context, string) (int64, error) { return 2, nil }
func (s *stubStore) Remove(context.Context, string, string) error       { return nil }
func (s *stubStore) ClearAll(context.Context, string) (int64, error)    { return 0, nil }
func (s *stubStore) UnreadCount(context.Context, string) (int64, error) { return 5, nil }

func (s *stubStore) ListForUser(context.Context, string, int) ([]models.NotificationRecord, error) {
	return nil, nil
}

func TestMarkAsReadRequiresAuth(t *testing.T) {
	h := NewNotificationHandler(nil, &stubStore{}, nil)

	c, _ := newTestContext(t, http.MethodPut, "/api/v1/notifications/n1/read", "")

	err := h.MarkAsRead(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestMarkAsReadMapsOwnershipViolationTo404(t *testing.T) {
	store := &stubStore{markReadErr: errs.ErrNotFoundOrNotOwned}
	h := NewNotificationHandler(nil, store, nil)

	c, _ := newTestContext(t, http.MethodPut, "/api/v1/notifications/n1/read", "")
	c.SetParamNames("id")
	c.SetParamValues("n1")
	asUser(c, "mallory")

	err := h.MarkAsRead(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	assert.Equal(t, "mallory", store.lastUserID, "ownership check uses the caller, not the record owner")
}

func TestMarkAsReadSuccess(t *testing.T) {
	store := &stubStore{}
	h := NewNotificationHandler(nil, store, nil)

	c, rec := newTestContext(t, http.MethodPut, "/api/v1/notifications/n1/read", "")
	c.SetParamNames("id")
	c.SetParamValues("n1")
	asUser(c, "alice")

	require.NoError(t, h.MarkAsRead(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "n1", store.lastID)
}

func TestGetUnreadCount(t *testing.T) {
	h := NewNotificationHandler(nil, &stubStore{}, nil)

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/notifications/unread-count", "")
	asUser(c, "alice")

	require.NoError(t, h.GetUnreadCount(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":5`)
}

// --- subscriptions ---

type stubRegistry struct {
	registered  *models.AddSubscriptionRequest
	registerUID string
}

func (r *stubRegistry) Register(_ context.Context, userID string, sub models.AddSubscriptionRequest) (string, error) {
	if sub.Endpoint == "" {
		return "", errs.ErrInvalidEndpoint
	}
	r.registered = &sub
	r.registerUID = userID
	return "ep1", nil
}

func (r *stubRegistry) Unregister(context.Context, string) error { return nil }

func (r *stubRegistry) Lookup(context.Context, string) (*models.Endpoint, error) {
	return nil, errs.ErrEndpointNotFound
}

func (r *stubRegistry) ListAll(context.Context) ([]models.Endpoint, error) { return nil, nil }
func (r *stubRegistry) Evict(context.Context, string) error                { return nil }

func TestAddSubscriptionAnonymous(t *testing.T) {
	registry := &stubRegistry{}
	h := NewSubscriptionHandler(registry)

	body := `{"endpoint":"https://push.example.com/ep","keys":{"p256dh":"k1","auth":"k2"}}`
	c, rec := newTestContext(t, http.MethodPost, "/api/v1/subscriptions", body)

	require.NoError(t, h.AddSubscription(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, registry.registered)
	assert.Empty(t, registry.registerUID, "anonymous registration is permitted")
}

func TestAddSubscriptionRejectsMissingEndpoint(t *testing.T) {
	h := NewSubscriptionHandler(&stubRegistry{})

	c, _ := newTestContext(t, http.MethodPost, "/api/v1/subscriptions", `{"keys":{"p256dh":"k1","auth":"k2"}}`)

	err := h.AddSubscription(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestGetOwnSubscriptionNotFound(t *testing.T) {
	h := NewSubscriptionHandler(&stubRegistry{})

	c, _ := newTestContext(t, http.MethodGet, "/api/v1/subscriptions/me", "")
	asUser(c, "alice")

	err := h.GetOwnSubscription(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}
