package checkout

import (
	"context"
	"log/slog"
	"sync"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
)

// ResponseProcessor runs the handler chain against an order. Runs for the same order are
// serialized; the order is saved after every handler, including one that fails, and nothing
// already saved is rolled back.
type ResponseProcessor struct {
	store  OrderSaver
	logger *slog.Logger
	locks  *keyedMutex
}

func NewResponseProcessor(store OrderSaver, logger *slog.Logger) *ResponseProcessor {
	return &ResponseProcessor{
		store:  store,
		logger: logger,
		locks:  newKeyedMutex(),
	}
}

// Process stops at the first failing handler and returns its error wrapped in a HandlerError.
func (p *ResponseProcessor) Process(ctx context.Context, o *order.Order, result *gatewaytypes.OrderResult, handlers []ResponseHandler) error {
	unlock := p.locks.Lock(o.ID)
	defer unlock()

	// Another run may have finished while this one waited for the lock.
	if err := p.store.RefreshOrder(ctx, o); err != nil {
		return errors.NewInternalError("Failed to load order", err)
	}

	for _, h := range handlers {
		handleErr := h.Handle(ctx, o, result)

		if err := p.store.SaveOrder(ctx, o); err != nil {
			p.logger.Error("failed to save order after handler",
				"order_id", o.ID,
				"handler", h.Name(),
				"error", err)
			return errors.NewInternalError("Failed to save order", err)
		}

		if handleErr != nil {
			p.logger.Warn("response handler stopped processing",
				"order_id", o.ID,
				"handler", h.Name(),
				"status", o.Status,
				"error", handleErr)
			return &HandlerError{Handler: h.Name(), Err: handleErr}
		}
	}

	p.logger.Info("gateway response processed",
		"order_id", o.ID,
		"status", o.Status)
	return nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*refLock)}
}

func (k *keyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
