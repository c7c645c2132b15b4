package events

import (
	"context"
	"testing"
	"time"

	"schoolpay_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublish_HandlerSurvivesRequestCancellation(t *testing.T) {
	t.Parallel()

	bus := NewBus()

	ready := make(chan struct{})
	done := make(chan error, 1)
	bus.Subscribe(EventPaymentCreated, func(ctx context.Context, evt Event) {
		<-ready
		done <- ctx.Err()
	})

	reqCtx, cancel := context.WithCancel(context.Background())
	bus.Publish(reqCtx, Event{Type: EventPaymentCreated, Payment: &models.Payment{}})

	// The request finishes and its context is canceled before the
	// subscriber gets to run.
	cancel()
	close(ready)

	select {
	case err := <-done:
		assert.NoError(t, err, "subscriber context must not inherit request cancellation")
	case <-time.After(time.Second):
		t.Fatal("subscriber never ran")
	}
}

func TestPublish_DeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus()

	hits := make(chan string, 2)
	bus.Subscribe(EventMessageCreated, func(ctx context.Context, evt Event) {
		hits <- "first:" + evt.Message.ID
	})
	bus.Subscribe(EventMessageCreated, func(ctx context.Context, evt Event) {
		hits <- "second:" + evt.Message.ID
	})

	message := &models.SupportMessage{}
	message.ID = "msg-1"
	bus.Publish(context.Background(), Event{Type: EventMessageCreated, Message: message})

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case hit := <-hits:
			got[hit] = true
		case <-time.After(time.Second):
			t.Fatal("subscriber never ran")
		}
	}
	assert.True(t, got["first:msg-1"])
	assert.True(t, got["second:msg-1"])
}

func TestPublishSync_PanickingSubscriberDoesNotPropagate(t *testing.T) {
	t.Parallel()

	bus := NewBus()

	var after bool
	bus.Subscribe(EventPaymentStatusChanged, func(ctx context.Context, evt Event) {
		panic("boom")
	})
	bus.Subscribe(EventPaymentStatusChanged, func(ctx context.Context, evt Event) {
		after = true
	})

	require.NotPanics(t, func() {
		bus.PublishSync(context.Background(), Event{Type: EventPaymentStatusChanged, Payment: &models.Payment{}})
	})
	assert.True(t, after, "later subscribers still run after a panic")
}
