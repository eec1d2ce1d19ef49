package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/devshad-01/meteor-push-pwa/internal/errs"
	"github.com/devshad-01/meteor-push-pwa/internal/models"
)

// NotificationStore owns the append-only per-user notification log and its
// read/unread state. All mutations are scoped to the owning user.
type NotificationStore interface {
	Create(ctx context.Context, userID string, kind models.NotificationKind, input models.NotificationInput) (*models.NotificationRecord, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Remove(ctx context.Context, userID, notificationID string) error
	ClearAll(ctx context.Context, userID string) (int64, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]models.NotificationRecord, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

type postgresNotificationStore struct {
	db           *gorm.DB
	defaultLimit int
	maxLimit     int
}

// NewPostgresNotificationStore creates a NotificationStore. defaultLimit and
// maxLimit bound ListForUser; they are enforced here, never trusted from the
// caller.
func NewPostgresNotificationStore(db *gorm.DB, defaultLimit, maxLimit int) NotificationStore {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &postgresNotificationStore{db: db, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

func (r *postgresNotificationStore) Create(ctx context.Context, userID string, kind models.NotificationKind, input models.NotificationInput) (*models.NotificationRecord, error) {
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	rec := models.NotificationRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     input.Title,
		Body:      input.Body,
		Kind:      kind,
		Priority:  priority,
		Read:      false,
		CreatedAt: time.Now().UTC(),
		Payload:   input.Payload,
		Actions:   input.Actions,
	}

	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *postgresNotificationStore) MarkRead(ctx context.Context, userID, notificationID string) error {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.NotificationRecord{}).
		Where("id = ? AND user_id = ? AND read = ?", notificationID, userID, false).
		Updates(map[string]any{"read": true, "read_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Nothing updated: either the record is already read (idempotent
	// success, readAt untouched) or it does not exist for this user.
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.NotificationRecord{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return errs.ErrNotFoundOrNotOwned
	}
	return nil
}

func (r *postgresNotificationStore) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.NotificationRecord{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]any{"read": true, "read_at": now})
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationStore) Remove(ctx context.Context, userID, notificationID string) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&models.NotificationRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFoundOrNotOwned
	}
	return nil
}

func (r *postgresNotificationStore) ClearAll(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.NotificationRecord{})
	return res.RowsAffected, res.Error
}

func (r *postgresNotificationStore) ListForUser(ctx context.Context, userID string, limit int) ([]models.NotificationRecord, error) {
	if limit <= 0 {
		limit = r.defaultLimit
	}
	if limit > r.maxLimit {
		limit = r.maxLimit
	}

	var records []models.NotificationRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (r *postgresNotificationStore) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.NotificationRecord{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}
