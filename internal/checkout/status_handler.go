package checkout

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
)

// StatusHandler maps the gateway order status onto the local order status.
type StatusHandler struct {
	logger *slog.Logger
}

func NewStatusHandler(logger *slog.Logger) *StatusHandler {
	return &StatusHandler{logger: logger}
}

func (h *StatusHandler) Name() string {
	return "status"
}

func (h *StatusHandler) Handle(ctx context.Context, o *order.Order, result *gatewaytypes.OrderResult) error {
	o.GatewayStatus = result.Status

	var target string
	switch result.Status {
	case gatewaytypes.OrderStatusCaptured, gatewaytypes.OrderStatusPartiallyRefunded:
		target = order.StatusPaymentAccepted
	case gatewaytypes.OrderStatusAuthorized, gatewaytypes.OrderStatusPartiallyCaptured:
		target = order.StatusPaymentAuthorized
	case gatewaytypes.OrderStatusVerified, gatewaytypes.OrderStatusAuthenticationPending:
		return nil
	case gatewaytypes.OrderStatusRefunded:
		target = order.StatusRefunded
	case gatewaytypes.OrderStatusFailed:
		o.TransitionTo(order.StatusPaymentError, h.Name())
		return errors.NewReconciliationError("Payment failed", errors.ErrCodePaymentDeclined)
	case gatewaytypes.OrderStatusCancelled:
		o.TransitionTo(order.StatusCancelled, h.Name())
		return errors.NewReconciliationError("Payment was cancelled at the gateway", errors.ErrCodePaymentDeclined)
	default:
		h.logger.Error("unknown gateway order status",
			"order_id", o.ID,
			"gateway_status", result.Status)
		return errors.NewReconciliationError("Unknown order status", errors.ErrCodeUnknownOrderStatus)
	}

	// Orders under risk review stay there until the review is settled.
	if o.RiskDecision == order.RiskReview && target != order.StatusRefunded {
		target = order.StatusPaymentReview
	}

	if o.TransitionTo(target, h.Name()) {
		h.logger.Info("order status updated",
			"order_id", o.ID,
			"status", o.Status,
			"gateway_status", result.Status)
	}
	return nil
}
