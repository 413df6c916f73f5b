package reconcile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/hosted-checkout/internal/checkout"
	"github.com/frahmantamala/hosted-checkout/internal/checkout/postgres"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
	"github.com/frahmantamala/hosted-checkout/internal/core/events"
	"github.com/frahmantamala/hosted-checkout/internal/gateway"
)

type StaleFinder interface {
	FindStale(ctx context.Context, status string, before time.Time, limit int) ([]postgres.StaleOrder, error)
}

type OrderLoader interface {
	GetByID(ctx context.Context, id int64) (*order.Order, error)
}

type OrderRetriever interface {
	RetrieveOrder(ctx context.Context, orderID string) (*gatewaytypes.OrderResult, error)
}

type Config struct {
	Interval   time.Duration
	StaleAfter time.Duration
	MaxWorkers int
	BatchSize  int
}

// Reconciler replays orders stuck in PAYMENT_WAITING through the response handlers, for
// shoppers who paid but never came back to finalize.
type Reconciler struct {
	finder    StaleFinder
	orders    OrderLoader
	gateway   OrderRetriever
	processor *checkout.ResponseProcessor
	handlers  []checkout.ResponseHandler
	events    events.Publisher
	config    Config
	logger    *slog.Logger
	now       func() time.Time

	pool     *Pool
	mu       sync.Mutex
	inflight map[int64]bool
}

func NewReconciler(
	finder StaleFinder,
	orders OrderLoader,
	gw OrderRetriever,
	processor *checkout.ResponseProcessor,
	handlers []checkout.ResponseHandler,
	publisher events.Publisher,
	config Config,
	logger *slog.Logger,
) *Reconciler {
	if config.Interval <= 0 {
		config.Interval = time.Minute
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = 15 * time.Minute
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 50
	}

	r := &Reconciler{
		finder:    finder,
		orders:    orders,
		gateway:   gw,
		processor: processor,
		handlers:  handlers,
		events:    publisher,
		config:    config,
		logger:    logger,
		now:       time.Now,
		inflight:  make(map[int64]bool),
	}
	r.pool = NewPool(config.MaxWorkers, config.BatchSize*2, r.Reconcile, logger)
	return r
}

func (r *Reconciler) Start() {
	r.pool.Start()
}

func (r *Reconciler) Stop() {
	r.pool.Shutdown()
}

// Run sweeps on every tick until ctx is cancelled, then stops the pool.
func (r *Reconciler) Run(ctx context.Context) error {
	r.Start()
	defer r.Stop()

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.logger.Info("reconcile worker running",
		"interval", r.config.Interval,
		"stale_after", r.config.StaleAfter)

	if _, err := r.Sweep(ctx); err != nil {
		r.logger.Error("reconcile sweep failed", "error", err)
	}
	for {
		select {
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error("reconcile sweep failed", "error", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// Sweep queues every stale order that is not already being reconciled and returns how many
// were queued.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	before := r.now().Add(-r.config.StaleAfter)
	stale, err := r.finder.FindStale(ctx, order.StatusPaymentWaiting, before, r.config.BatchSize)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, s := range stale {
		if !r.claim(s.ID) {
			continue
		}
		if !r.pool.Submit(Job{OrderID: s.ID, CartID: s.CartID, Reference: s.Reference}) {
			r.release(s.ID)
			continue
		}
		queued++
	}

	if queued > 0 {
		r.logger.Info("stale orders queued for reconciliation", "count", queued)
	}
	return queued, nil
}

// Reconcile replays one order. Failures are logged and left for the next sweep.
func (r *Reconciler) Reconcile(ctx context.Context, job Job) {
	defer r.release(job.OrderID)

	local, err := r.orders.GetByID(ctx, job.OrderID)
	if err != nil {
		r.logger.Error("reconcile: failed to load order", "order_id", job.OrderID, "error", err)
		return
	}
	if local.Status != order.StatusPaymentWaiting {
		return
	}

	result, err := r.gateway.RetrieveOrder(ctx, job.Reference)
	if err != nil {
		r.logger.Warn("reconcile: gateway order not available", "order_id", job.OrderID, "reference", job.Reference, "error", err)
		return
	}

	if err := r.processor.Process(ctx, local, result, r.handlers); err != nil {
		handler := ""
		if handlerErr, ok := checkout.AsHandlerError(err); ok {
			handler = handlerErr.Handler
		}
		r.logger.Warn("reconcile: order not settled", "order_id", job.OrderID, "handler", handler, "error", err)
		r.publish(ctx, events.NewOrderPaymentErrorEvent(local.ID, job.Reference, handler, err.Error()))
		return
	}

	if local.Status != order.StatusPaymentWaiting {
		r.logger.Info("reconcile: order settled", "order_id", local.ID, "status", local.Status)
		r.publish(ctx, events.NewOrderFinalizedEvent(local.ID, local.CartID, job.Reference, local.Status, gateway.Numeric(local.Amount)))
	}
}

// Drain blocks until every queued order has been reconciled or ctx is done.
func (r *Reconciler) Drain(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for r.pending() > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Reconciler) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}

func (r *Reconciler) claim(orderID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight[orderID] {
		return false
	}
	r.inflight[orderID] = true
	return true
}

func (r *Reconciler) release(orderID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, orderID)
}

func (r *Reconciler) publish(ctx context.Context, event events.Event) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(ctx, event); err != nil {
		r.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
