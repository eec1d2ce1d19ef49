package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/devshad-01/meteor-push-pwa/internal/errs"
	"github.com/devshad-01/meteor-push-pwa/internal/models"
)

func newMockStore(t *testing.T) (NotificationStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return NewPostgresNotificationStore(gormDB, 50, 100), mock
}

func TestCreateNotification(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO "notification_records"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec, err := store.Create(context.Background(), "alice", models.KindPersonal, models.NotificationInput{
		Title: "Hi",
		Body:  "there",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "alice", rec.UserID)
	assert.Equal(t, models.KindPersonal, rec.Kind)
	assert.Equal(t, models.PriorityNormal, rec.Priority, "unspecified priority defaults to normal")
	assert.False(t, rec.Read)
	assert.Nil(t, rec.ReadAt)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateNotificationKeepsExplicitPriority(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO "notification_records"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec, err := store.Create(context.Background(), "alice", models.KindBroadcast, models.NotificationInput{
		Title:    "Sys",
		Body:     "maintenance",
		Priority: models.PriorityUrgent,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, rec.Priority)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRead(t *testing.T) {
	t.Run("marks unread record", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(`UPDATE "notification_records" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.MarkRead(context.Background(), "alice", "n1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("idempotent on already-read record", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(`UPDATE "notification_records" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "notification_records"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		err := store.MarkRead(context.Background(), "alice", "n1")
		assert.NoError(t, err, "re-reading an already-read record is not an error")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects missing or foreign record", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(`UPDATE "notification_records" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "notification_records"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := store.MarkRead(context.Background(), "mallory", "n1")
		assert.ErrorIs(t, err, errs.ErrNotFoundOrNotOwned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMarkAllRead(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE "notification_records" SET`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := store.MarkAllRead(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemove(t *testing.T) {
	t.Run("removes owned record", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(`DELETE FROM "notification_records"`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Remove(context.Background(), "alice", "n1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects missing or foreign record", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec(`DELETE FROM "notification_records"`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := store.Remove(context.Background(), "mallory", "n1")
		assert.ErrorIs(t, err, errs.ErrNotFoundOrNotOwned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestClearAll(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM "notification_records"`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	removed, err := store.ClearAll(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForUser(t *testing.T) {
	columns := []string{"id", "user_id", "title", "body", "kind", "priority", "read", "created_at", "read_at", "payload", "actions"}

	t.Run("orders by created_at descending", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery(`SELECT \* FROM "notification_records" WHERE user_id = \$1 ORDER BY created_at DESC, id DESC LIMIT`).
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := store.ListForUser(context.Background(), "alice", 0)
		assert.NoError(t, err, "zero limit falls back to the default")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("caps excessive limits", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery(`SELECT \* FROM "notification_records" WHERE user_id = \$1 ORDER BY created_at DESC, id DESC LIMIT`).
			WillReturnRows(sqlmock.NewRows(columns))

		_, err := store.ListForUser(context.Background(), "alice", 5000)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUnreadCount(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "notification_records"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := store.UnreadCount(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
