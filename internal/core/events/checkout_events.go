package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeCheckoutCancelled      = "checkout.cancelled"
	EventTypeCheckoutSessionCreated = "checkout.session_created"
	EventTypeOrderFinalized         = "order.finalized"
	EventTypeOrderPaymentError      = "order.payment_error"
)

var CheckoutEventTypes = []string{
	EventTypeCheckoutCancelled,
	EventTypeCheckoutSessionCreated,
	EventTypeOrderFinalized,
	EventTypeOrderPaymentError,
}

func newBase(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type CheckoutCancelledEvent struct {
	BaseEvent
	CartID int64 `json:"cart_id"`
}

func NewCheckoutCancelledEvent(cartID int64) *CheckoutCancelledEvent {
	return &CheckoutCancelledEvent{
		BaseEvent: newBase(EventTypeCheckoutCancelled, map[string]interface{}{
			"cart_id": cartID,
		}),
		CartID: cartID,
	}
}

type CheckoutSessionCreatedEvent struct {
	BaseEvent
	CartID    int64  `json:"cart_id"`
	Reference string `json:"reference"`
	SessionID string `json:"session_id"`
}

func NewCheckoutSessionCreatedEvent(cartID int64, reference, sessionID string) *CheckoutSessionCreatedEvent {
	return &CheckoutSessionCreatedEvent{
		BaseEvent: newBase(EventTypeCheckoutSessionCreated, map[string]interface{}{
			"cart_id":    cartID,
			"reference":  reference,
			"session_id": sessionID,
		}),
		CartID:    cartID,
		Reference: reference,
		SessionID: sessionID,
	}
}

type OrderFinalizedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	CartID    int64  `json:"cart_id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
}

func NewOrderFinalizedEvent(orderID, cartID int64, reference, status, amount string) *OrderFinalizedEvent {
	return &OrderFinalizedEvent{
		BaseEvent: newBase(EventTypeOrderFinalized, map[string]interface{}{
			"order_id":  orderID,
			"cart_id":   cartID,
			"reference": reference,
			"status":    status,
			"amount":    amount,
		}),
		OrderID:   orderID,
		CartID:    cartID,
		Reference: reference,
		Status:    status,
		Amount:    amount,
	}
}

type OrderPaymentErrorEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	Reference string `json:"reference"`
	Handler   string `json:"handler"`
	Reason    string `json:"reason"`
}

func NewOrderPaymentErrorEvent(orderID int64, reference, handler, reason string) *OrderPaymentErrorEvent {
	return &OrderPaymentErrorEvent{
		BaseEvent: newBase(EventTypeOrderPaymentError, map[string]interface{}{
			"order_id":  orderID,
			"reference": reference,
			"handler":   handler,
			"reason":    reason,
		}),
		OrderID:   orderID,
		Reference: reference,
		Handler:   handler,
		Reason:    reason,
	}
}
