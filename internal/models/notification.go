package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NotificationKind distinguishes direct sends from broadcasts.
type NotificationKind string

const (
	KindPersonal  NotificationKind = "personal"
	KindBroadcast NotificationKind = "broadcast"
)

// NotificationPriority controls client-side presentation urgency.
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// NotificationAction is one action button attached to a notification.
type NotificationAction struct {
	Action string `json:"action" validate:"required"`
	Label  string `json:"label" validate:"required"`
	Icon   string `json:"icon,omitempty"`
}

// JSONMap is an opaque structured payload persisted as jsonb.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("unsupported type %T for JSONMap", value)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, m)
}

// ActionList persists an ordered list of actions as jsonb.
type ActionList []NotificationAction

func (a ActionList) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (a *ActionList) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("unsupported type %T for ActionList", value)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, a)
}

// NotificationRecord is one user-facing notification (PostgreSQL).
// Title, body, kind and priority are immutable after creation; only the
// read state mutates.
type NotificationRecord struct {
	ID        string               `json:"id" gorm:"primaryKey;size:36"`
	UserID    string               `json:"user_id" gorm:"size:64;index:idx_notification_user_created,priority:1"`
	Title     string               `json:"title" gorm:"size:200"`
	Body      string               `json:"body"`
	Kind      NotificationKind     `json:"kind" gorm:"size:16"`
	Priority  NotificationPriority `json:"priority" gorm:"size:16"`
	Read      bool                 `json:"read" gorm:"index"`
	CreatedAt time.Time            `json:"created_at" gorm:"index:idx_notification_user_created,priority:2,sort:desc"`
	ReadAt    *time.Time           `json:"read_at,omitempty"`
	Payload   JSONMap              `json:"payload,omitempty" gorm:"type:jsonb"`
	Actions   ActionList           `json:"actions,omitempty" gorm:"type:jsonb"`
}

func (NotificationRecord) TableName() string { return "notification_records" }

// NotificationInput is what a caller submits to send or broadcast.
type NotificationInput struct {
	Title    string               `json:"title" validate:"required,max=200"`
	Body     string               `json:"body" validate:"required,max=2000"`
	Priority NotificationPriority `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	Icon     string               `json:"icon,omitempty"`
	Badge    string               `json:"badge,omitempty"`
	URL      string               `json:"url,omitempty"`
	Payload  JSONMap              `json:"payload,omitempty"`
	Actions  ActionList           `json:"actions,omitempty" validate:"omitempty,dive"`
}

// SendNotificationRequest targets a single recipient.
type SendNotificationRequest struct {
	UserID       string            `json:"userId" validate:"required"`
	Notification NotificationInput `json:"notification" validate:"required"`
}
