package checkout

import (
	"context"
	"errors"
	"log/slog"

	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
)

// ResponseHandler reconciles one aspect of a gateway order result into the local order.
// Handlers mutate the order in place; the processor persists it after each one.
type ResponseHandler interface {
	Name() string
	Handle(ctx context.Context, o *order.Order, result *gatewaytypes.OrderResult) error
}

// DefaultHandlers returns the reconciliation chain in its fixed order: risk, payment, status.
func DefaultHandlers(logger *slog.Logger) []ResponseHandler {
	return []ResponseHandler{
		NewRiskHandler(logger),
		NewPaymentHandler(logger),
		NewStatusHandler(logger),
	}
}

// HandlerError identifies which handler stopped the chain.
type HandlerError struct {
	Handler string
	Err     error
}

func (e *HandlerError) Error() string {
	return e.Err.Error()
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

func AsHandlerError(err error) (*HandlerError, bool) {
	var handlerErr *HandlerError
	if errors.As(err, &handlerErr) {
		return handlerErr, true
	}
	return nil, false
}
