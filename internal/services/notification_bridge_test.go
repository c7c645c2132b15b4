package services

import (
	"context"
	"testing"

	"schoolpay_backend/internal/events"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBridge(
	notificationRepo *fakeNotificationRepo,
	paymentRepo *fakePaymentRepo,
	messageRepo *fakeMessageRepo,
	userRepo *fakeUserRepo,
	pusher *fakePusher,
) *NotificationBridge {
	return NewNotificationBridge(notificationRepo, paymentRepo, messageRepo, userRepo, pusher)
}

func TestNotify_DuplicateContentCollapsesToOneRow(t *testing.T) {
	t.Parallel()

	notificationRepo := newFakeNotificationRepo()
	pusher := &fakePusher{}
	bridge := newTestBridge(notificationRepo, &fakePaymentRepo{}, &fakeMessageRepo{}, &fakeUserRepo{}, pusher)

	first, created, err := bridge.Notify("user-1", "3 payments pending", "/payments?status=pending", nil)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := bridge.Notify("user-1", "3 payments pending", "/payments?status=pending", nil)
	require.NoError(t, err)
	assert.False(t, created, "identical content must not create a second row")
	assert.Equal(t, first.ID, second.ID)

	assert.Equal(t, 1, notificationRepo.countForUser("user-1"))
	assert.Equal(t, 1, pusher.pushCount(), "only the first write pushes")
}

func TestNotify_DifferentContentCreatesSeparateRows(t *testing.T) {
	t.Parallel()

	notificationRepo := newFakeNotificationRepo()
	pusher := &fakePusher{}
	bridge := newTestBridge(notificationRepo, &fakePaymentRepo{}, &fakeMessageRepo{}, &fakeUserRepo{}, pusher)

	_, created, err := bridge.Notify("user-1", "3 payments pending", "/payments", nil)
	require.NoError(t, err)
	assert.True(t, created)

	// Same text, different link: distinct content.
	_, created, err = bridge.Notify("user-1", "3 payments pending", "/cashier/payments", nil)
	require.NoError(t, err)
	assert.True(t, created)

	// Same content for a different user: distinct row.
	_, created, err = bridge.Notify("user-2", "3 payments pending", "/payments", nil)
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, 2, notificationRepo.countForUser("user-1"))
	assert.Equal(t, 1, notificationRepo.countForUser("user-2"))
	assert.Equal(t, 3, pusher.pushCount())
}

func TestRecomputeAggregates_ZeroCountsSuppressed(t *testing.T) {
	t.Parallel()

	notificationRepo := newFakeNotificationRepo()
	userRepo := &fakeUserRepo{usersByRole: map[models.UserRole][]models.User{
		models.UserRoleCashier: {userWithID("cashier-1", models.UserRoleCashier)},
		models.UserRoleAdmin:   {userWithID("admin-1", models.UserRoleAdmin)},
	}}
	bridge := newTestBridge(notificationRepo, &fakePaymentRepo{}, &fakeMessageRepo{}, userRepo, &fakePusher{})

	bridge.RecomputeAggregates(context.Background())

	assert.Equal(t, 0, notificationRepo.countForUser("cashier-1"), "zero counts produce no rows")
	assert.Equal(t, 0, notificationRepo.countForUser("admin-1"))
}

func TestRecomputeAggregates_FansOutToRoles(t *testing.T) {
	t.Parallel()

	notificationRepo := newFakeNotificationRepo()
	paymentRepo := &fakePaymentRepo{pendingOnline: 3}
	userRepo := &fakeUserRepo{usersByRole: map[models.UserRole][]models.User{
		models.UserRoleCashier: {
			userWithID("cashier-1", models.UserRoleCashier),
			userWithID("cashier-2", models.UserRoleCashier),
		},
		models.UserRoleAdmin: {userWithID("admin-1", models.UserRoleAdmin)},
	}}
	bridge := newTestBridge(notificationRepo, paymentRepo, &fakeMessageRepo{}, userRepo, &fakePusher{})

	bridge.RecomputeAggregates(context.Background())

	// pending_online targets cashiers and admins.
	assert.Equal(t, 1, notificationRepo.countForUser("cashier-1"))
	assert.Equal(t, 1, notificationRepo.countForUser("cashier-2"))
	assert.Equal(t, 1, notificationRepo.countForUser("admin-1"))
}

func TestRecomputeAggregates_RepeatedRunsDoNotDuplicate(t *testing.T) {
	t.Parallel()

	notificationRepo := newFakeNotificationRepo()
	paymentRepo := &fakePaymentRepo{pendingOnline: 3, pendingAll: 5}
	userRepo := &fakeUserRepo{usersByRole: map[models.UserRole][]models.User{
		models.UserRoleCashier:        {userWithID("cashier-1", models.UserRoleCashier)},
		models.UserRoleBusinessOffice: {userWithID("bo-1", models.UserRoleBusinessOffice)},
		models.UserRoleAdmin:          {userWithID("admin-1", models.UserRoleAdmin)},
	}}
	bridge := newTestBridge(notificationRepo, paymentRepo, &fakeMessageRepo{}, userRepo, &fakePusher{})

	bridge.RecomputeAggregates(context.Background())
	firstRun := notificationRepo.creates

	bridge.RecomputeAggregates(context.Background())
	bridge.RecomputeAggregates(context.Background())

	assert.Equal(t, firstRun, notificationRepo.creates, "unchanged counts dedup to the same rows")

	// A changed count is new content and lands as a new row.
	paymentRepo.pendingOnline = 4
	bridge.RecomputeAggregates(context.Background())
	assert.Equal(t, 2, notificationRepo.countForUser("cashier-1"), "cashier sees old and new pending_online rows")
}

func TestRecomputeAggregates_OneFailingCategoryDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	notificationRepo := newFakeNotificationRepo()
	paymentRepo := &fakePaymentRepo{
		pendingOnlineErr: assert.AnError,
		pendingAll:       7,
	}
	messageRepo := &fakeMessageRepo{openCount: 2}
	userRepo := &fakeUserRepo{usersByRole: map[models.UserRole][]models.User{
		models.UserRoleCashier:        {userWithID("cashier-1", models.UserRoleCashier)},
		models.UserRoleBusinessOffice: {userWithID("bo-1", models.UserRoleBusinessOffice)},
		models.UserRoleAdmin:          {userWithID("admin-1", models.UserRoleAdmin)},
	}}
	bridge := newTestBridge(notificationRepo, paymentRepo, messageRepo, userRepo, &fakePusher{})

	bridge.RecomputeAggregates(context.Background())

	// pending_online failed; pending_all and open_messages still landed.
	assert.Equal(t, 1, notificationRepo.countForUser("bo-1"))
	assert.Equal(t, 1, notificationRepo.countForUser("admin-1"))
	assert.Equal(t, 1, notificationRepo.countForUser("cashier-1"), "open_messages still reaches the cashier")
}

func TestBridge_MessageAnsweredNotifiesStudent(t *testing.T) {
	t.Parallel()

	notificationRepo := newFakeNotificationRepo()
	pusher := &fakePusher{}
	bridge := newTestBridge(notificationRepo, &fakePaymentRepo{}, &fakeMessageRepo{}, &fakeUserRepo{}, pusher)

	bus := events.NewBus()
	bridge.RegisterSubscriptions(bus)

	message := &models.SupportMessage{
		StudentID: "student-1",
		Subject:   "Balance question",
		Status:    models.MessageStatusAnswered,
	}
	message.ID = "msg-1"

	bus.PublishSync(context.Background(), events.Event{
		Type:    events.EventMessageAnswered,
		Message: message,
	})

	notifications, _, err := notificationRepo.FindUserNotifications("student-1", repositories.NotificationCriteria{})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Contains(t, notifications[0].Message, "Balance question")
	assert.Equal(t, "/messages/msg-1", notifications[0].Link)
	assert.Equal(t, 1, pusher.pushCount())
}

func TestBridge_UnreadResponsesDigest(t *testing.T) {
	t.Parallel()

	notificationRepo := newFakeNotificationRepo()
	messageRepo := &fakeMessageRepo{}

	first := models.SupportMessage{
		StudentID: "student-1",
		Subject:   "Balance question",
		Status:    models.MessageStatusAnswered,
	}
	first.ID = "msg-1"
	require.NoError(t, messageRepo.Create(&first))

	second := models.SupportMessage{
		StudentID: "student-1",
		Subject:   "Receipt copy",
		Status:    models.MessageStatusAnswered,
	}
	second.ID = "msg-2"
	require.NoError(t, messageRepo.Create(&second))

	bridge := newTestBridge(notificationRepo, &fakePaymentRepo{}, messageRepo, &fakeUserRepo{}, &fakePusher{})

	bus := events.NewBus()
	bridge.RegisterSubscriptions(bus)

	bus.PublishSync(context.Background(), events.Event{
		Type:    events.EventMessageAnswered,
		Message: &second,
	})

	notifications, _, err := notificationRepo.FindUserNotifications("student-1", repositories.NotificationCriteria{})
	require.NoError(t, err)
	require.Len(t, notifications, 2, "per-message notice plus the digest")

	var digest *models.Notification
	for i := range notifications {
		if notifications[i].Link == "/messages?unread=true" {
			digest = &notifications[i]
		}
	}
	require.NotNil(t, digest)
	assert.Contains(t, digest.Message, "2 unread responses")
}

func TestBridge_SingleUnreadResponseSkipsDigest(t *testing.T) {
	t.Parallel()

	notificationRepo := newFakeNotificationRepo()
	messageRepo := &fakeMessageRepo{}

	only := models.SupportMessage{
		StudentID: "student-1",
		Subject:   "Balance question",
		Status:    models.MessageStatusAnswered,
	}
	only.ID = "msg-1"
	require.NoError(t, messageRepo.Create(&only))

	bridge := newTestBridge(notificationRepo, &fakePaymentRepo{}, messageRepo, &fakeUserRepo{}, &fakePusher{})

	bus := events.NewBus()
	bridge.RegisterSubscriptions(bus)

	bus.PublishSync(context.Background(), events.Event{
		Type:    events.EventMessageAnswered,
		Message: &only,
	})

	notifications, _, err := notificationRepo.FindUserNotifications("student-1", repositories.NotificationCriteria{})
	require.NoError(t, err)
	require.Len(t, notifications, 1, "one fresh answer needs no digest")
	assert.Equal(t, "/messages/msg-1", notifications[0].Link)
}

func TestBridge_CounterPaymentNotifiesStudent(t *testing.T) {
	t.Parallel()

	notificationRepo := newFakeNotificationRepo()
	bridge := newTestBridge(notificationRepo, &fakePaymentRepo{}, &fakeMessageRepo{}, &fakeUserRepo{}, &fakePusher{})

	bus := events.NewBus()
	bridge.RegisterSubscriptions(bus)

	payment := &models.Payment{
		StudentID:  "student-1",
		Amount:     2500,
		Method:     models.PaymentMethodCash,
		Term:       "2026-1",
		RecordedBy: "cashier-1",
		Status:     models.PaymentStatusCompleted,
	}
	payment.ID = "pay-1"

	bus.PublishSync(context.Background(), events.Event{
		Type:    events.EventPaymentCreated,
		Payment: payment,
	})

	assert.Equal(t, 1, notificationRepo.countForUser("student-1"))

	// An online initiation has no recorder and stays silent for the student.
	online := &models.Payment{
		StudentID: "student-2",
		Amount:    1000,
		Method:    models.PaymentMethodOnline,
		Status:    models.PaymentStatusPending,
	}
	online.ID = "pay-2"

	bus.PublishSync(context.Background(), events.Event{
		Type:    events.EventPaymentCreated,
		Payment: online,
	})

	assert.Equal(t, 0, notificationRepo.countForUser("student-2"))
}
