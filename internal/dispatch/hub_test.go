package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/festpay/festpay-backend/pkg/db/models"
	"github.com/festpay/festpay-backend/pkg/enums"
)

func sampleOrder() *models.Order {
	name := "walk-up"
	return &models.Order{
		ID:           uuid.New(),
		EventID:      uuid.New(),
		StallID:      uuid.New(),
		CustomerName: &name,
		PaymentType:  enums.PaymentTypeCash,
		Status:       enums.OrderStatusPending,
		TotalCents:   1200,
		Items: []models.OrderItem{
			{Name: "Bratwurst", UnitPriceCents: 600, Qty: 2, TotalCents: 1200},
		},
		CreatedAt: time.Now(),
	}
}

func newTestHub(buffer int) *Hub {
	return NewHub(buffer, 0, nil, nil)
}

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event, ok := <-ch:
		if !ok {
			t.Fatal("channel closed before event arrived")
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHubDeliversInOrder(t *testing.T) {
	hub := newTestHub(8)
	stallID := uuid.New()

	ch, cancel := hub.Subscribe(context.Background(), stallID)
	defer cancel()

	first := OrderRemovedEvent(stallID, uuid.New())
	second := OrderRemovedEvent(stallID, uuid.New())
	hub.Publish(context.Background(), first)
	hub.Publish(context.Background(), second)

	if got := recvEvent(t, ch); got.OrderID != first.OrderID {
		t.Errorf("first event order id = %s, want %s", got.OrderID, first.OrderID)
	}
	if got := recvEvent(t, ch); got.OrderID != second.OrderID {
		t.Errorf("second event order id = %s, want %s", got.OrderID, second.OrderID)
	}
}

func TestHubScopesRoomsByStall(t *testing.T) {
	hub := newTestHub(8)
	stallA := uuid.New()
	stallB := uuid.New()

	chA, cancelA := hub.Subscribe(context.Background(), stallA)
	defer cancelA()
	chB, cancelB := hub.Subscribe(context.Background(), stallB)
	defer cancelB()

	hub.Publish(context.Background(), OrderRemovedEvent(stallA, uuid.New()))

	if got := recvEvent(t, chA); got.StallID != stallA {
		t.Errorf("event stall id = %s, want %s", got.StallID, stallA)
	}
	select {
	case event := <-chB:
		t.Errorf("stall B received foreign event %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsWhenSubscriberSaturated(t *testing.T) {
	hub := newTestHub(1)
	stallID := uuid.New()

	ch, cancel := hub.Subscribe(context.Background(), stallID)
	defer cancel()

	kept := OrderRemovedEvent(stallID, uuid.New())
	dropped := OrderRemovedEvent(stallID, uuid.New())
	after := OrderRemovedEvent(stallID, uuid.New())

	hub.Publish(context.Background(), kept)
	hub.Publish(context.Background(), dropped)

	if got := recvEvent(t, ch); got.OrderID != kept.OrderID {
		t.Fatalf("buffered event order id = %s, want %s", got.OrderID, kept.OrderID)
	}

	// The saturated publish was dropped, not queued.
	hub.Publish(context.Background(), after)
	if got := recvEvent(t, ch); got.OrderID != after.OrderID {
		t.Errorf("post-drop event order id = %s, want %s", got.OrderID, after.OrderID)
	}
}

func TestHubPublishWaitsForDrainingSubscriber(t *testing.T) {
	hub := NewHub(1, 500*time.Millisecond, nil, nil)
	stallID := uuid.New()

	ch, cancel := hub.Subscribe(context.Background(), stallID)
	defer cancel()

	first := OrderRemovedEvent(stallID, uuid.New())
	second := OrderRemovedEvent(stallID, uuid.New())
	hub.Publish(context.Background(), first)

	// Drain the buffer shortly after the second publish starts waiting.
	go func() {
		time.Sleep(20 * time.Millisecond)
		<-ch
	}()

	hub.Publish(context.Background(), second)

	if got := recvEvent(t, ch); got.OrderID != second.OrderID {
		t.Errorf("drained event order id = %s, want %s", got.OrderID, second.OrderID)
	}
}

func TestHubPublishDropsAfterTimeout(t *testing.T) {
	hub := NewHub(1, 10*time.Millisecond, nil, nil)
	stallID := uuid.New()

	ch, cancel := hub.Subscribe(context.Background(), stallID)
	defer cancel()

	kept := OrderRemovedEvent(stallID, uuid.New())
	dropped := OrderRemovedEvent(stallID, uuid.New())

	hub.Publish(context.Background(), kept)
	hub.Publish(context.Background(), dropped)

	if got := recvEvent(t, ch); got.OrderID != kept.OrderID {
		t.Fatalf("buffered event order id = %s, want %s", got.OrderID, kept.OrderID)
	}
	select {
	case event := <-ch:
		t.Errorf("timed-out publish was queued anyway: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubCancelClosesStreamAndIsIdempotent(t *testing.T) {
	hub := newTestHub(4)
	stallID := uuid.New()

	ch, cancel := hub.Subscribe(context.Background(), stallID)
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after cancel")
	}

	// Publishing into the empty room must not panic or block.
	hub.Publish(context.Background(), OrderRemovedEvent(stallID, uuid.New()))
}

func TestNewOrderEventSnapshotsItems(t *testing.T) {
	order := sampleOrder()
	event := NewOrderEvent(order)

	if event.Type != EventNewOrder {
		t.Fatalf("event type = %s, want %s", event.Type, EventNewOrder)
	}
	if event.StallID != order.StallID || event.OrderID != order.ID {
		t.Fatal("event ids do not match the order")
	}
	if event.Order == nil || len(event.Order.Items) != len(order.Items) {
		t.Fatal("expected order payload with all items")
	}
	if event.Order.Items[0].Name != order.Items[0].Name {
		t.Errorf("item name = %q, want %q", event.Order.Items[0].Name, order.Items[0].Name)
	}
}
