package push

import (
	"context"

	"github.com/devshad-01/meteor-push-pwa/internal/models"
)

// Payload is the wire content of one push message, mirroring what the
// service worker expects on the client.
type Payload struct {
	Title              string                      `json:"title"`
	Body               string                      `json:"body"`
	Icon               string                      `json:"icon"`
	Badge              string                      `json:"badge"`
	URL                string                      `json:"url"`
	Tag                string                      `json:"tag"`
	Priority           string                      `json:"priority"`
	RequireInteraction bool                        `json:"requireInteraction"`
	Data               models.JSONMap              `json:"data,omitempty"`
	Actions            []models.NotificationAction `json:"actions,omitempty"`
}

const (
	defaultIcon  = "/icons/icon-192x192.svg"
	defaultBadge = "/icons/icon-192x192.svg"
	defaultURL   = "/"
)

// NewPayload derives the transport payload from a stored notification and
// the caller's input. The tag is the notification id so clients can
// deduplicate redeliveries.
func NewPayload(rec *models.NotificationRecord, in models.NotificationInput) Payload {
	p := Payload{
		Title:              rec.Title,
		Body:               rec.Body,
		Icon:               in.Icon,
		Badge:              in.Badge,
		URL:                in.URL,
		Tag:                rec.ID,
		Priority:           string(rec.Priority),
		RequireInteraction: rec.Priority == models.PriorityUrgent,
		Data:               rec.Payload,
		Actions:            rec.Actions,
	}
	if p.Icon == "" {
		p.Icon = defaultIcon
	}
	if p.Badge == "" {
		p.Badge = defaultBadge
	}
	if p.URL == "" {
		p.URL = defaultURL
	}
	return p
}

// Transport pushes one payload to one endpoint. A nil error means delivered;
// errs.ErrEndpointGone (possibly wrapped) means the endpoint is permanently
// dead; any other error is transient.
type Transport interface {
	Deliver(ctx context.Context, endpoint string, keys models.EndpointKeys, payload Payload) error
}
