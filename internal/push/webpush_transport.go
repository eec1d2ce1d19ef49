package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/devshad-01/meteor-push-pwa/internal/errs"
	"github.com/devshad-01/meteor-push-pwa/internal/models"
	"github.com/devshad-01/meteor-push-pwa/pkg/logger"
)

// WebPushConfig holds the VAPID material for the Web Push transport.
type WebPushConfig struct {
	Subscriber      string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	TTL             int // seconds the push service may queue the message
}

// WebPushTransport delivers over the Web Push protocol with VAPID auth.
type WebPushTransport struct {
	cfg WebPushConfig
	log *logger.Logger
}

func NewWebPushTransport(cfg WebPushConfig, log *logger.Logger) *WebPushTransport {
	if cfg.TTL == 0 {
		cfg.TTL = 60 * 60 * 24
	}
	return &WebPushTransport{cfg: cfg, log: log}
}

func (t *WebPushTransport) Deliver(ctx context.Context, endpoint string, keys models.EndpointKeys, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal push payload: %w", err)
	}

	sub := &webpush.Subscription{
		Endpoint: endpoint,
		Keys: webpush.Keys{
			P256dh: keys.P256dh,
			Auth:   keys.Auth,
		},
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, sub, &webpush.Options{
		Subscriber:      t.cfg.Subscriber, // webpush-go adds mailto: automatically
		VAPIDPublicKey:  t.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: t.cfg.VAPIDPrivateKey,
		TTL:             t.cfg.TTL,
		Urgency:         urgencyFor(payload.Priority),
	})
	if err != nil {
		return fmt.Errorf("webpush send: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("push service returned %d: %w", resp.StatusCode, errs.ErrEndpointGone)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push service returned %d: %s", resp.StatusCode, respBody)
	}
}

func urgencyFor(priority string) webpush.Urgency {
	switch models.NotificationPriority(priority) {
	case models.PriorityLow:
		return webpush.UrgencyLow
	case models.PriorityHigh, models.PriorityUrgent:
		return webpush.UrgencyHigh
	default:
		return webpush.UrgencyNormal
	}
}
