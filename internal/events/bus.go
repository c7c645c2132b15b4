package events

import (
	"context"
	"sync"

	"schoolpay_backend/internal/logger"
	"schoolpay_backend/internal/models"

	"log/slog"
)

type EventType string

const (
	EventPaymentCreated       EventType = "payment.created"
	EventPaymentStatusChanged EventType = "payment.status_changed"
	EventMessageCreated       EventType = "message.created"
	EventMessageAnswered      EventType = "message.answered"
)

// Event describes a domain change. Exactly one of Payment or Message is set,
// depending on the type.
type Event struct {
	Type    EventType
	Payment *models.Payment
	Message *models.SupportMessage

	// PrevStatus is set for status-change events.
	PrevStatus string
}

type Handler func(ctx context.Context, evt Event)

// Bus is an in-process publish/subscribe dispatcher. Publishing never blocks
// the caller on subscriber work and a panicking subscriber cannot take down
// the request that triggered the event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

func (b *Bus) Subscribe(eventType EventType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

func (b *Bus) Publish(ctx context.Context, evt Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[evt.Type]))
	copy(handlers, b.handlers[evt.Type])
	b.mu.RUnlock()

	// Subscribers outlive the publishing request; a context canceled at
	// response time must not abort their DB writes.
	ctx = context.WithoutCancel(ctx)

	for _, h := range handlers {
		go b.dispatch(ctx, h, evt)
	}
}

// PublishSync runs subscribers inline. Used by tests and by startup seeding
// where ordering matters.
func (b *Bus) PublishSync(ctx context.Context, evt Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[evt.Type]))
	copy(handlers, b.handlers[evt.Type])
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, evt)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event subscriber panicked",
				slog.String("event_type", string(evt.Type)),
				slog.Any("panic", r),
			)
		}
	}()
	h(ctx, evt)
}
