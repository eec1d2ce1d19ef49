package models

import "time"

// PresenceStatus is a session's liveness state.
type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusAway    PresenceStatus = "away"
	StatusOffline PresenceStatus = "offline"
)

// Valid reports whether s is a recognized presence status.
func (s PresenceStatus) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusOffline:
		return true
	}
	return false
}

// PresenceEntry is one active session's liveness, keyed by (userId, sessionId).
type PresenceEntry struct {
	UserID     string         `json:"user_id"`
	SessionID  string         `json:"session_id"`
	Status     PresenceStatus `json:"status"`
	LastSeenAt time.Time      `json:"last_seen_at"`
}

// UpdateStatusRequest is the body of POST /tracking/status.
type UpdateStatusRequest struct {
	Status    string `json:"status" validate:"required,oneof=online away offline"`
	SessionID string `json:"sessionId" validate:"required"`
}

// HeartbeatRequest is the body of POST /tracking/heartbeat and /tracking/disconnect.
type HeartbeatRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}
