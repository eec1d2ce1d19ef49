package models

import "time"

// EndpointKeys holds the encryption material the push service needs to
// deliver to one endpoint. Opaque to everything except the transport.
type EndpointKeys struct {
	P256dh string `json:"p256dh" bson:"p256dh"`
	Auth   string `json:"auth" bson:"auth"`
}

// Endpoint represents one device's capability to receive push messages (MongoDB)
type Endpoint struct {
	ID        string       `json:"id" bson:"_id"`
	UserID    string       `json:"user_id,omitempty" bson:"user_id,omitempty"` // empty for anonymous registrations
	Endpoint  string       `json:"endpoint" bson:"endpoint"`
	Keys      EndpointKeys `json:"keys" bson:"keys"`
	CreatedAt time.Time    `json:"created_at" bson:"created_at"`
}

// AddSubscriptionRequest is the body of POST /subscriptions, shaped like the
// browser's PushSubscription.toJSON().
type AddSubscriptionRequest struct {
	Endpoint string       `json:"endpoint" validate:"required"`
	Keys     EndpointKeys `json:"keys"`
}
