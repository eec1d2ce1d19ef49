package push

import (
	"context"
	"encoding/json"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"github.com/devshad-01/meteor-push-pwa/internal/errs"
	"github.com/devshad-01/meteor-push-pwa/internal/models"
	"github.com/devshad-01/meteor-push-pwa/pkg/logger"
)

// FCMTransport delivers through Firebase Cloud Messaging. The endpoint URI
// is the device registration token.
type FCMTransport struct {
	client *messaging.Client
	log    *logger.Logger
}

func NewFCMTransport(client *messaging.Client, log *logger.Logger) *FCMTransport {
	return &FCMTransport{client: client, log: log}
}

func (t *FCMTransport) Deliver(ctx context.Context, endpoint string, _ models.EndpointKeys, payload Payload) error {
	data := map[string]string{
		"tag": payload.Tag,
		"url": payload.URL,
	}
	if payload.Data != nil {
		if raw, err := json.Marshal(payload.Data); err == nil {
			data["payload"] = string(raw)
		}
	}

	requireInteraction := payload.RequireInteraction
	msg := &messaging.Message{
		Token: endpoint,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: androidPriorityFor(payload.Priority),
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title:              payload.Title,
				Body:               payload.Body,
				Icon:               payload.Icon,
				Badge:              payload.Badge,
				Tag:                payload.Tag,
				RequireInteraction: requireInteraction,
				Actions:            webpushActions(payload.Actions),
			},
		},
	}

	if _, err := t.client.Send(ctx, msg); err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) {
			return fmt.Errorf("fcm token not registered: %w", errs.ErrEndpointGone)
		}
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

func androidPriorityFor(priority string) string {
	switch models.NotificationPriority(priority) {
	case models.PriorityHigh, models.PriorityUrgent:
		return "high"
	default:
		return "normal"
	}
}

func webpushActions(actions []models.NotificationAction) []*messaging.WebpushNotificationAction {
	if len(actions) == 0 {
		return nil
	}
	out := make([]*messaging.WebpushNotificationAction, 0, len(actions))
	for _, a := range actions {
		out = append(out, &messaging.WebpushNotificationAction{
			Action: a.Action,
			Title:  a.Label,
			Icon:   a.Icon,
		})
	}
	return out
}
