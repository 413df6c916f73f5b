package checkout

import (
	"context"
	"strconv"
	"strings"

	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/cart"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
	"github.com/shopspring/decimal"
)

// Phase is one step of the hosted checkout flow. Exactly one runs per request.
type Phase string

const (
	PhaseCancel          Phase = "cancel"
	PhaseCreateSession   Phase = "create_session"
	PhaseShowPaymentPage Phase = "show_payment_page"
	PhaseFinalizeOrder   Phase = "finalize_order"
)

// Params are the phase-identifying request parameters.
type Params struct {
	Cancel           bool
	OrderID          string
	SuccessIndicator string
	SessionID        string
	SessionVersion   string
}

func (p Params) HasOrderID() bool {
	return p.OrderID != ""
}

func (p Params) HasSuccessIndicator() bool {
	return p.SuccessIndicator != ""
}

// SelectPhase applies the phase precedence: cancel, then session creation, then the
// payment page, then order finalization.
func SelectPhase(p Params) Phase {
	switch {
	case p.Cancel:
		return PhaseCancel
	case !p.HasOrderID() && !p.HasSuccessIndicator():
		return PhaseCreateSession
	case !p.HasOrderID():
		return PhaseShowPaymentPage
	default:
		return PhaseFinalizeOrder
	}
}

// ParseCancel treats the flag as set when present, unless it is explicitly "0" or "false".
func ParseCancel(values map[string][]string) bool {
	v, ok := values["cancel"]
	if !ok {
		return false
	}
	if len(v) == 0 {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(v[0])) {
	case "0", "false":
		return false
	}
	return true
}

// ShopContext is everything the flow needs to know about the shopper's cart.
// Customer and Address may be nil for phases that do not use them.
type ShopContext struct {
	Cart     *cart.Cart
	Customer *cart.Customer
	Address  *cart.Address
	ShopName string
}

func (s ShopContext) CartID() int64 {
	if s.Cart == nil {
		return 0
	}
	return s.Cart.ID
}

// Settings are the flow's static configuration.
type Settings struct {
	OrderPrefix     string
	ModuleID        int64
	PaymentCode     string
	SelfURL         string
	CartURL         string
	CheckoutURL     string
	ConfirmationURL string
	Interaction     InteractionSettings
}

type InteractionSettings struct {
	Operation    string
	Theme        string
	ShowBilling  string
	ShowEmail    string
	ShowSummary  string
	GATrackingID string
	ShopName     string
}

// OrderReference is the merchant reference correlating a cart with its gateway order.
func (s Settings) OrderReference(cartID int64) string {
	return s.OrderPrefix + strconv.FormatInt(cartID, 10)
}

// GatewayClient is the part of the payment gateway the flow uses.
type GatewayClient interface {
	CreateCheckoutSession(ctx context.Context, order gatewaytypes.OrderRequest, interaction gatewaytypes.InteractionConfig, customer gatewaytypes.CustomerInfo, billing gatewaytypes.BillingInfo) (*gatewaytypes.CheckoutSession, error)
	RetrieveOrder(ctx context.Context, orderID string) (*gatewaytypes.OrderResult, error)
	MerchantID() string
	HostedCheckoutScriptURL() string
}

type CreateOrderRequest struct {
	CartID      int64
	CustomerID  int64
	Reference   string
	Status      string
	Amount      decimal.Decimal
	CartTotal   decimal.Decimal
	PaymentCode string
	Currency    string
	SecureKey   string
}

// OrderSaver persists the effects of the response handlers. RefreshOrder reloads o in place,
// payments and history included.
type OrderSaver interface {
	RefreshOrder(ctx context.Context, o *order.Order) error
	SaveOrder(ctx context.Context, o *order.Order) error
}

// OrderStore owns local orders and customers. CreateOrGetOrder must be safe to call
// repeatedly for the same cart: it returns the existing order instead of creating another.
type OrderStore interface {
	OrderSaver
	GetCustomer(ctx context.Context, customerID int64) (*cart.Customer, error)
	CreateOrGetOrder(ctx context.Context, req CreateOrderRequest) (o *order.Order, created bool, err error)
}
