package dispatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/festpay/festpay-backend/pkg/db/models"
)

// EventType names the order lifecycle events fanned out to stall displays.
type EventType string

const (
	EventNewOrder     EventType = "new_order"
	EventOrderRemoved EventType = "order_removed"
)

// Event is one message delivered to a stall room. Order is set for new_order;
// order_removed only carries the order id.
type Event struct {
	Type    EventType     `json:"type"`
	StallID uuid.UUID     `json:"stall_id"`
	OrderID uuid.UUID     `json:"order_id"`
	Order   *OrderPayload `json:"order,omitempty"`
}

// OrderPayload is the display-facing order snapshot.
type OrderPayload struct {
	ID           uuid.UUID     `json:"id"`
	CustomerName *string       `json:"customer_name,omitempty"`
	PaymentType  string        `json:"payment_type"`
	TotalCents   int64         `json:"total_cents"`
	Items        []ItemPayload `json:"items"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ItemPayload is one line of the display-facing order snapshot.
type ItemPayload struct {
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// NewOrderEvent builds the event emitted right after an order commits in
// PENDING state.
func NewOrderEvent(order *models.Order) Event {
	payload := &OrderPayload{
		ID:           order.ID,
		CustomerName: order.CustomerName,
		PaymentType:  string(order.PaymentType),
		TotalCents:   order.TotalCents,
		CreatedAt:    order.CreatedAt,
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, ItemPayload{
			Name:           item.Name,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return Event{
		Type:    EventNewOrder,
		StallID: order.StallID,
		OrderID: order.ID,
		Order:   payload,
	}
}

// OrderRemovedEvent builds the event emitted when an order completes and
// leaves the live view.
func OrderRemovedEvent(stallID, orderID uuid.UUID) Event {
	return Event{
		Type:    EventOrderRemoved,
		StallID: stallID,
		OrderID: orderID,
	}
}
