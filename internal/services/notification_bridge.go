package services

import (
	"context"
	"encoding/json"
	"fmt"

	"schoolpay_backend/internal/events"
	"schoolpay_backend/internal/logger"
	"schoolpay_backend/internal/models"
	"schoolpay_backend/internal/repositories"
	"schoolpay_backend/internal/utils"

	"gorm.io/datatypes"

	"log/slog"
)

// NotificationPusher delivers a freshly materialized notification to any live
// connections the user has. The websocket manager implements it.
type NotificationPusher interface {
	PushToUser(userID string, payload interface{})
}

// NotificationBridge turns domain events into persisted notifications. Every
// write goes through the (user_id, content_hash) unique index, so replays,
// concurrent handlers and repeated aggregate recomputes collapse into a
// single row per distinct content.
type NotificationBridge struct {
	notificationRepo repositories.NotificationRepository
	paymentRepo      repositories.PaymentRepository
	messageRepo      repositories.MessageRepository
	userRepo         repositories.UserRepository
	pusher           NotificationPusher
}

func NewNotificationBridge(
	notificationRepo repositories.NotificationRepository,
	paymentRepo repositories.PaymentRepository,
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	pusher NotificationPusher,
) *NotificationBridge {
	return &NotificationBridge{
		notificationRepo: notificationRepo,
		paymentRepo:      paymentRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		pusher:           pusher,
	}
}

// RegisterSubscriptions wires the bridge into the event bus.
func (b *NotificationBridge) RegisterSubscriptions(bus *events.Bus) {
	bus.Subscribe(events.EventPaymentCreated, b.handlePaymentCreated)
	bus.Subscribe(events.EventPaymentStatusChanged, b.handlePaymentStatusChanged)
	bus.Subscribe(events.EventMessageCreated, b.handleMessageCreated)
	bus.Subscribe(events.EventMessageAnswered, b.handleMessageAnswered)
}

// Seed recomputes the aggregate rows once at startup so dashboards reflect
// reality after a restart, not just after the next event.
func (b *NotificationBridge) Seed(ctx context.Context) {
	b.RecomputeAggregates(ctx)
}

// Notify materializes one notification. Returns the stored row and whether it
// was newly created; an existing row with the same content comes back with
// created=false and no push happens.
func (b *NotificationBridge) Notify(userID, text, link string, data map[string]interface{}) (*models.Notification, bool, error) {
	notification := &models.Notification{
		UserID:      userID,
		Message:     text,
		Link:        link,
		ContentHash: utils.ContentHash(text, link),
	}

	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return nil, false, err
		}
		notification.Data = datatypes.JSON(jsonData)
	}

	stored, created, err := b.notificationRepo.CreateUnique(notification)
	if err != nil {
		return nil, false, err
	}

	if created && b.pusher != nil {
		b.pusher.PushToUser(userID, NotificationToDTO(stored))
	}

	return stored, created, nil
}

// Event handlers

func (b *NotificationBridge) handlePaymentCreated(ctx context.Context, evt events.Event) {
	payment := evt.Payment
	if payment == nil {
		return
	}

	if payment.RecordedBy != "" {
		// Counter payment keyed in by a cashier: tell the student.
		text := fmt.Sprintf("A %s payment of %.2f for %s was recorded on your account.",
			payment.Method, payment.Amount, payment.Term)
		b.notifyOne(payment.StudentID, text, "/payments/"+payment.ID, map[string]interface{}{
			"payment_id": payment.ID,
		})
	}

	b.RecomputeAggregates(ctx)
}

func (b *NotificationBridge) handlePaymentStatusChanged(ctx context.Context, evt events.Event) {
	payment := evt.Payment
	if payment == nil {
		return
	}

	if payment.Status.IsCollected() {
		text := fmt.Sprintf("Your online payment %s of %.2f has been confirmed.",
			payment.Reference, payment.Amount)
		b.notifyOne(payment.StudentID, text, "/payments/"+payment.ID, map[string]interface{}{
			"payment_id": payment.ID,
		})
	}

	b.RecomputeAggregates(ctx)
}

func (b *NotificationBridge) handleMessageCreated(ctx context.Context, evt events.Event) {
	message := evt.Message
	if message == nil {
		return
	}

	text := fmt.Sprintf("New student inquiry: %s", message.Subject)
	b.notifyRoles([]models.UserRole{models.UserRoleCashier}, text,
		"/cashier/messages/"+message.ID, map[string]interface{}{
			"message_id": message.ID,
		})

	b.RecomputeAggregates(ctx)
}

func (b *NotificationBridge) handleMessageAnswered(ctx context.Context, evt events.Event) {
	message := evt.Message
	if message == nil {
		return
	}

	text := fmt.Sprintf("The cashier responded to your inquiry \"%s\".", message.Subject)
	b.notifyOne(message.StudentID, text, "/messages/"+message.ID, map[string]interface{}{
		"message_id": message.ID,
	})

	// A single fresh answer already has its per-message notice above; once
	// unread responses pile up the student gets a digest pointing at the list.
	unread, err := b.messageRepo.CountUnreadForStudent(message.StudentID)
	if err != nil {
		logger.FromContext(ctx).Error("unread response count failed",
			slog.String("student_id", message.StudentID),
			slog.String("error", err.Error()),
		)
	} else if unread > 1 {
		digest := fmt.Sprintf("You have %d unread responses from the cashier.", unread)
		b.notifyOne(message.StudentID, digest, "/messages?unread=true", map[string]interface{}{
			"category": "unread_responses",
			"count":    unread,
		})
	}

	b.RecomputeAggregates(ctx)
}

// Aggregates

type aggregateCategory struct {
	name  string
	count func() (int64, error)
	text  func(count int64) string
	link  string
	roles []models.UserRole
}

// RecomputeAggregates refreshes the dashboard count notifications. Each
// category is computed independently: one failing query is logged and skipped
// so the rest still land. A zero count produces no row; stale nonzero rows
// from earlier recomputes stay behind as history.
func (b *NotificationBridge) RecomputeAggregates(ctx context.Context) {
	categories := []aggregateCategory{
		{
			name:  "pending_online",
			count: b.paymentRepo.CountPendingOnline,
			text: func(count int64) string {
				return fmt.Sprintf("%d online payment(s) awaiting confirmation", count)
			},
			link:  "/cashier/payments?status=pending&method=online",
			roles: []models.UserRole{models.UserRoleCashier, models.UserRoleAdmin},
		},
		{
			name:  "pending_all",
			count: b.paymentRepo.CountPendingAll,
			text: func(count int64) string {
				return fmt.Sprintf("%d payment(s) currently pending", count)
			},
			link:  "/payments?status=pending",
			roles: []models.UserRole{models.UserRoleBusinessOffice, models.UserRoleAdmin},
		},
		{
			name:  "pending_today",
			count: b.paymentRepo.CountPendingToday,
			text: func(count int64) string {
				return fmt.Sprintf("%d payment(s) initiated today still pending", count)
			},
			link:  "/cashier/payments?status=pending&range=today",
			roles: []models.UserRole{models.UserRoleCashier},
		},
		{
			name:  "open_messages",
			count: b.messageRepo.CountOpen,
			text: func(count int64) string {
				return fmt.Sprintf("%d student inquiries awaiting a response", count)
			},
			link:  "/cashier/messages?status=open",
			roles: []models.UserRole{models.UserRoleCashier},
		},
	}

	log := logger.FromContext(ctx)

	for _, category := range categories {
		count, err := category.count()
		if err != nil {
			log.Error("aggregate count query failed",
				slog.String("category", category.name),
				slog.String("error", err.Error()),
			)
			continue
		}

		if count == 0 {
			continue
		}

		b.notifyRoles(category.roles, category.text(count), category.link, map[string]interface{}{
			"category": category.name,
			"count":    count,
		})
	}
}

// Helpers

func (b *NotificationBridge) notifyOne(userID, text, link string, data map[string]interface{}) {
	if _, _, err := b.Notify(userID, text, link, data); err != nil {
		logger.Error("notification write failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

func (b *NotificationBridge) notifyRoles(roles []models.UserRole, text, link string, data map[string]interface{}) {
	for _, role := range roles {
		users, err := b.userRepo.FindByRole(role, 200, 0)
		if err != nil {
			logger.Error("role fan-out lookup failed",
				slog.String("role", string(role)),
				slog.String("error", err.Error()),
			)
			continue
		}

		for i := range users {
			b.notifyOne(users[i].ID, text, link, data)
		}
	}
}
