package checkout

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
)

var recordedTransactionTypes = map[string]bool{
	gatewaytypes.TransactionAuthorization: true,
	gatewaytypes.TransactionCapture:       true,
	gatewaytypes.TransactionPayment:       true,
}

// PaymentHandler checks the paid amount and records the order's successful transactions.
type PaymentHandler struct {
	logger *slog.Logger
}

func NewPaymentHandler(logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{logger: logger}
}

func (h *PaymentHandler) Name() string {
	return "payment"
}

func (h *PaymentHandler) Handle(ctx context.Context, o *order.Order, result *gatewaytypes.OrderResult) error {
	if !result.Amount.Equal(o.Amount) || (!o.CartTotal.IsZero() && !result.Amount.Equal(o.CartTotal)) {
		h.logger.Error("gateway amount does not match order",
			"order_id", o.ID,
			"gateway_amount", result.Amount.StringFixed(2),
			"order_amount", o.Amount.StringFixed(2),
			"cart_total", o.CartTotal.StringFixed(2))
		return errors.NewReconciliationError("Paid amount does not match the order total", errors.ErrCodeAmountMismatch)
	}
	if result.Currency != "" && result.Currency != o.CurrencyCode {
		h.logger.Error("gateway currency does not match order",
			"order_id", o.ID,
			"gateway_currency", result.Currency,
			"order_currency", o.CurrencyCode)
		return errors.NewReconciliationError("Paid currency does not match the order currency", errors.ErrCodeAmountMismatch)
	}

	if result.Result == gatewaytypes.ResultFailure || result.Status == gatewaytypes.OrderStatusFailed {
		o.TransitionTo(order.StatusPaymentError, h.Name())
		h.logger.Warn("payment declined by gateway",
			"order_id", o.ID,
			"gateway_code", lastGatewayCode(result))
		return errors.NewReconciliationError("Payment was declined", errors.ErrCodePaymentDeclined)
	}

	for _, txn := range result.Transactions {
		if txn.Result != gatewaytypes.ResultSuccess || !recordedTransactionTypes[txn.Transaction.Type] || txn.Transaction.ID == "" {
			continue
		}
		added := o.AddPayment(order.Payment{
			TransactionID: txn.Transaction.ID,
			Type:          txn.Transaction.Type,
			Amount:        txn.Transaction.Amount,
			CurrencyCode:  txn.Transaction.Currency,
			GatewayCode:   txn.Response.GatewayCode,
		})
		if added {
			h.logger.Info("payment recorded",
				"order_id", o.ID,
				"transaction_id", txn.Transaction.ID,
				"type", txn.Transaction.Type)
		}
	}

	captured := result.TotalCapturedAmount
	if captured.IsZero() && result.Status == gatewaytypes.OrderStatusCaptured {
		captured = result.Amount
	}
	if captured.GreaterThan(o.CapturedAmount) {
		o.CapturedAmount = captured
	}
	if result.TotalAuthorizedAmount.GreaterThan(o.AuthorizedAmount) {
		o.AuthorizedAmount = result.TotalAuthorizedAmount
	}

	return nil
}

func lastGatewayCode(result *gatewaytypes.OrderResult) string {
	if len(result.Transactions) == 0 {
		return ""
	}
	return result.Transactions[len(result.Transactions)-1].Response.GatewayCode
}
