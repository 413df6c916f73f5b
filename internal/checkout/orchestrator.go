package checkout

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
	"github.com/frahmantamala/hosted-checkout/internal/core/events"
	"github.com/frahmantamala/hosted-checkout/internal/gateway"
)

const (
	MessageCancelled    = "Payment was cancelled."
	MessagePaymentError = "Payment Error"
)

// Orchestrator drives one request through the hosted checkout flow. It never writes to the
// client directly; the returned Outcome says what should happen next.
type Orchestrator struct {
	gateway   GatewayClient
	store     OrderStore
	processor *ResponseProcessor
	handlers  []ResponseHandler
	builder   *RequestBuilder
	events    events.Publisher
	settings  Settings
	logger    *slog.Logger
}

func NewOrchestrator(
	gw GatewayClient,
	store OrderStore,
	processor *ResponseProcessor,
	handlers []ResponseHandler,
	publisher events.Publisher,
	settings Settings,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		gateway:   gw,
		store:     store,
		processor: processor,
		handlers:  handlers,
		builder:   NewRequestBuilder(settings),
		events:    publisher,
		settings:  settings,
		logger:    logger,
	}
}

func (o *Orchestrator) Settings() Settings {
	return o.settings
}

func (o *Orchestrator) Handle(ctx context.Context, params Params, shop ShopContext) Outcome {
	phase := SelectPhase(params)
	o.logger.Debug("hosted checkout phase selected",
		"phase", phase,
		"cart_id", shop.CartID())

	switch phase {
	case PhaseCancel:
		return o.Cancel(ctx, shop)
	case PhaseCreateSession:
		return o.CreateSession(ctx, shop)
	case PhaseShowPaymentPage:
		return o.ShowPaymentPage(ctx, params, shop)
	default:
		return o.FinalizeOrder(ctx, params, shop)
	}
}

// Cancel sends the shopper back to the cart. No gateway or order state is touched.
func (o *Orchestrator) Cancel(ctx context.Context, shop ShopContext) Outcome {
	o.publish(ctx, events.NewCheckoutCancelledEvent(shop.CartID()))
	return Outcome{
		Phase:    PhaseCancel,
		Kind:     KindRedirect,
		Location: o.settings.CartURL,
		Notices:  []Notice{{Level: NoticeWarning, Message: MessageCancelled}},
	}
}

func (o *Orchestrator) CreateSession(ctx context.Context, shop ShopContext) Outcome {
	if err := requireCart(shop); err != nil {
		return o.fail(PhaseCreateSession, err, o.settings.CartURL)
	}

	if err := validateCartTotal(shop); err != nil {
		return o.fail(PhaseCreateSession, err, o.checkoutStep())
	}

	reference := o.settings.OrderReference(shop.Cart.ID)
	req := o.builder.OrderRequest(reference, shop.Cart)

	session, err := o.gateway.CreateCheckoutSession(ctx,
		req,
		o.builder.Interaction(shop),
		o.builder.Customer(shop.Customer),
		o.builder.Billing(shop.Address),
	)
	if err != nil {
		o.logger.Error("failed to create checkout session",
			"cart_id", shop.Cart.ID,
			"reference", reference,
			"error", err)
		return o.fail(PhaseCreateSession, err, o.checkoutStep())
	}

	o.logger.Info("checkout session created",
		"cart_id", shop.Cart.ID,
		"reference", reference)
	o.publish(ctx, events.NewCheckoutSessionCreatedEvent(shop.Cart.ID, reference, session.ID))

	return Outcome{
		Phase:   PhaseCreateSession,
		Kind:    KindSession,
		Session: session,
		Location: buildURL(o.settings.SelfURL, url.Values{
			"session_id":        {session.ID},
			"session_version":   {session.Version},
			"success_indicator": {session.SuccessIndicator},
		}),
	}
}

// ShowPaymentPage is a pure read: it only assembles the page data.
func (o *Orchestrator) ShowPaymentPage(ctx context.Context, params Params, shop ShopContext) Outcome {
	if err := requireCart(shop); err != nil {
		return o.fail(PhaseShowPaymentPage, err, o.settings.CartURL)
	}

	reference := o.settings.OrderReference(shop.Cart.ID)
	return Outcome{
		Phase: PhaseShowPaymentPage,
		Kind:  KindRender,
		Page: &PaymentPage{
			SessionID:        params.SessionID,
			SessionVersion:   params.SessionVersion,
			SuccessIndicator: params.SuccessIndicator,
			MerchantID:       o.gateway.MerchantID(),
			OrderID:          reference,
			Amount:           gateway.Numeric(shop.Cart.OrderTotal()),
			Currency:         shop.Cart.CurrencyCode,
			ComponentURL:     o.gateway.HostedCheckoutScriptURL(),
			CompleteURL:      buildURL(o.settings.SelfURL, url.Values{"order_id": {reference}}),
			CancelURL:        buildURL(o.settings.SelfURL, url.Values{"cancel": {"1"}}),
		},
	}
}

// FinalizeOrder fetches the gateway's view of the order, creates the local order if needed
// and reconciles it. Replaying it for the same cart converges on the same order.
func (o *Orchestrator) FinalizeOrder(ctx context.Context, params Params, shop ShopContext) Outcome {
	if err := requireCart(shop); err != nil {
		return o.fail(PhaseFinalizeOrder, err, o.settings.CartURL)
	}

	reference := o.settings.OrderReference(shop.Cart.ID)
	if params.OrderID != reference {
		o.logger.Warn("order reference does not match cart",
			"cart_id", shop.Cart.ID,
			"order_id", params.OrderID)
		return o.fail(PhaseFinalizeOrder, errors.ErrInvalidOrderReference, o.checkoutStep())
	}

	customer, err := o.store.GetCustomer(ctx, shop.Cart.CustomerID)
	if err != nil || !customer.IsValid() {
		o.logger.Warn("customer not valid for order",
			"cart_id", shop.Cart.ID,
			"customer_id", shop.Cart.CustomerID,
			"error", err)
		return o.fail(PhaseFinalizeOrder, errors.ErrInvalidCustomer, o.checkoutStep())
	}

	result, err := o.gateway.RetrieveOrder(ctx, reference)
	if err != nil {
		o.logger.Error("failed to retrieve gateway order",
			"reference", reference,
			"error", err)
		return o.fail(PhaseFinalizeOrder, err, o.checkoutStep())
	}

	local, created, err := o.store.CreateOrGetOrder(ctx, CreateOrderRequest{
		CartID:      shop.Cart.ID,
		CustomerID:  customer.ID,
		Reference:   reference,
		Status:      order.StatusPaymentWaiting,
		Amount:      result.Amount,
		CartTotal:   shop.Cart.OrderTotal(),
		PaymentCode: o.settings.PaymentCode,
		Currency:    shop.Cart.CurrencyCode,
		SecureKey:   customer.SecureKey,
	})
	if err != nil {
		o.logger.Error("failed to create order",
			"cart_id", shop.Cart.ID,
			"error", err)
		return o.fail(PhaseFinalizeOrder, err, o.checkoutStep())
	}
	if created {
		o.logger.Info("order created",
			"order_id", local.ID,
			"cart_id", local.CartID,
			"reference", reference)
	}

	if err := o.processor.Process(ctx, local, result, o.handlers); err != nil {
		handler := ""
		if handlerErr, ok := AsHandlerError(err); ok {
			handler = handlerErr.Handler
		}
		o.publish(ctx, events.NewOrderPaymentErrorEvent(local.ID, reference, handler, errorMessage(err)))

		return Outcome{
			Phase:    PhaseFinalizeOrder,
			Kind:     KindRedirect,
			Location: o.checkoutStep(),
			OrderID:  local.ID,
			Err:      err,
			Notices: []Notice{
				{Level: NoticeError, Message: MessagePaymentError},
				{Level: NoticeError, Message: errorMessage(err)},
			},
		}
	}

	o.publish(ctx, events.NewOrderFinalizedEvent(local.ID, local.CartID, reference, local.Status, gateway.Numeric(local.Amount)))

	return Outcome{
		Phase:   PhaseFinalizeOrder,
		Kind:    KindRedirect,
		OrderID: local.ID,
		Location: buildURL(o.settings.ConfirmationURL, url.Values{
			"id_cart":   {strconv.FormatInt(local.CartID, 10)},
			"id_module": {strconv.FormatInt(o.settings.ModuleID, 10)},
			"id_order":  {strconv.FormatInt(local.ID, 10)},
			"key":       {customer.SecureKey},
		}),
	}
}

func (o *Orchestrator) checkoutStep() string {
	return o.settings.CheckoutURL
}

func (o *Orchestrator) fail(phase Phase, err error, location string) Outcome {
	return Outcome{
		Phase:    phase,
		Kind:     KindRedirect,
		Location: location,
		Err:      err,
		Notices:  []Notice{{Level: NoticeError, Message: errorMessage(err)}},
	}
}

func (o *Orchestrator) publish(ctx context.Context, event events.Event) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(ctx, event); err != nil {
		o.logger.Warn("failed to publish event",
			"event_type", event.EventType(),
			"error", err)
	}
}

func requireCart(shop ShopContext) error {
	if shop.Cart == nil {
		return errors.ErrCartNotFound
	}
	if shop.Cart.IsEmpty() {
		return errors.ErrCartEmpty
	}
	return nil
}

// errorMessage is the shopper-facing text of err. Internal causes are never shown.
func errorMessage(err error) string {
	if appErr, ok := errors.IsAppError(err); ok {
		return appErr.GetDetailedMessage()
	}
	return "An unexpected error occurred"
}
