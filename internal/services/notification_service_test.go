package services

import (
	"testing"

	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/utils"
	"schoolpay_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNotification(t *testing.T, repo *fakeNotificationRepo, userID, text string, read bool) *models.Notification {
	t.Helper()

	stored, created, err := repo.CreateUnique(&models.Notification{
		UserID:      userID,
		Message:     text,
		ContentHash: utils.ContentHash(text, ""),
		IsRead:      read,
	})
	require.NoError(t, err)
	require.True(t, created)
	return stored
}

func TestMarkAsRead_IsOneWay(t *testing.T) {
	t.Parallel()

	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo)
	row := seedNotification(t, repo, "user-1", "Payment confirmed", false)

	require.NoError(t, svc.MarkAsRead(row.ID, "user-1"))

	stored, err := repo.FindByID(row.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
	require.NotNil(t, stored.ReadAt)
	firstReadAt := *stored.ReadAt

	// Marking again is a no-op, not an error, and ReadAt stays put.
	require.NoError(t, svc.MarkAsRead(row.ID, "user-1"))
	stored, err = repo.FindByID(row.ID)
	require.NoError(t, err)
	assert.Equal(t, firstReadAt, *stored.ReadAt)
}

func TestMarkAsRead_RejectsForeignNotification(t *testing.T) {
	t.Parallel()

	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo)
	row := seedNotification(t, repo, "user-1", "Payment confirmed", false)

	err := svc.MarkAsRead(row.ID, "user-2")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)

	stored, findErr := repo.FindByID(row.ID)
	require.NoError(t, findErr)
	assert.False(t, stored.IsRead)
}

func TestMarkAllAsRead_CountsOnlyUnread(t *testing.T) {
	t.Parallel()

	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo)
	seedNotification(t, repo, "user-1", "first", false)
	seedNotification(t, repo, "user-1", "second", false)
	seedNotification(t, repo, "user-1", "already read", true)
	seedNotification(t, repo, "user-2", "someone else", false)

	resp, err := svc.MarkAllAsRead("user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.MarkedCount)

	unread, err := repo.GetUnreadCount("user-1")
	require.NoError(t, err)
	assert.Zero(t, unread)

	otherUnread, err := repo.GetUnreadCount("user-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), otherUnread, "other users untouched")
}

func TestDeleteNotification_GatedOnRead(t *testing.T) {
	t.Parallel()

	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo)
	row := seedNotification(t, repo, "user-1", "Payment confirmed", false)

	err := svc.DeleteNotification(row.ID, "user-1")
	assert.ErrorIs(t, err, apperrors.ErrNotificationUnread, "unread rows must not be deletable")

	require.NoError(t, svc.MarkAsRead(row.ID, "user-1"))
	require.NoError(t, svc.DeleteNotification(row.ID, "user-1"))

	_, err = repo.FindByID(row.ID)
	assert.Error(t, err)
}

func TestDeleteNotification_RejectsForeignNotification(t *testing.T) {
	t.Parallel()

	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo)
	row := seedNotification(t, repo, "user-1", "Payment confirmed", true)

	err := svc.DeleteNotification(row.ID, "user-2")
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)
}

func TestNotificationToDTO_DecodesData(t *testing.T) {
	t.Parallel()

	repo := newFakeNotificationRepo()
	stored, _, err := repo.CreateUnique(&models.Notification{
		UserID:      "user-1",
		Message:     "Payment confirmed",
		ContentHash: utils.ContentHash("Payment confirmed", "/payments/p1"),
		Link:        "/payments/p1",
		Data:        []byte(`{"payment_id":"p1"}`),
	})
	require.NoError(t, err)

	out := NotificationToDTO(stored)
	assert.Equal(t, "Payment confirmed", out.Message)
	assert.Equal(t, "/payments/p1", out.Link)
	require.NotNil(t, out.Data)
	assert.Equal(t, "p1", out.Data["payment_id"])
}
