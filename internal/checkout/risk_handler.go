package checkout

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
)

// RiskHandler records the gateway's fraud assessment.
type RiskHandler struct {
	logger *slog.Logger
}

func NewRiskHandler(logger *slog.Logger) *RiskHandler {
	return &RiskHandler{logger: logger}
}

func (h *RiskHandler) Name() string {
	return "risk"
}

func (h *RiskHandler) Handle(ctx context.Context, o *order.Order, result *gatewaytypes.OrderResult) error {
	code := result.RiskCode()

	switch code {
	case "", gatewaytypes.RiskNotChecked:
		return nil

	case gatewaytypes.RiskAccepted:
		o.RiskDecision = order.RiskAccepted
		return nil

	case gatewaytypes.RiskRejected:
		return h.reject(o, "Payment was rejected by the risk assessment")

	case gatewaytypes.RiskReviewRequired:
		switch result.ReviewDecision() {
		case gatewaytypes.ReviewAccepted:
			o.RiskDecision = order.RiskAccepted
			return nil
		case gatewaytypes.ReviewRejected:
			return h.reject(o, "Payment was rejected after risk review")
		default:
			o.RiskDecision = order.RiskReview
			o.FraudSuspect = true
			o.TransitionTo(order.StatusPaymentReview, h.Name())
			h.logger.Warn("order held for risk review",
				"order_id", o.ID,
				"reference", o.Reference)
			return nil
		}
	}

	h.logger.Error("unknown risk assessment code",
		"order_id", o.ID,
		"risk_code", code)
	return errors.NewReconciliationError("Unknown risk assessment result", errors.ErrCodeRiskRejected)
}

func (h *RiskHandler) reject(o *order.Order, message string) error {
	o.RiskDecision = order.RiskRejected
	o.FraudSuspect = true
	o.TransitionTo(order.StatusPaymentError, h.Name())
	h.logger.Warn("payment rejected by risk assessment",
		"order_id", o.ID,
		"reference", o.Reference)
	return errors.NewReconciliationError(message, errors.ErrCodeRiskRejected)
}
