package checkout_test

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/checkout"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/cart"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
	"github.com/frahmantamala/hosted-checkout/internal/core/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type mockGateway struct {
	mu sync.Mutex

	session     *gatewaytypes.CheckoutSession
	sessionErr  error
	result      *gatewaytypes.OrderResult
	retrieveErr error

	createCalls   int
	retrieveCalls int
	lastOrder     gatewaytypes.OrderRequest
	lastBilling   gatewaytypes.BillingInfo
	lastCustomer  gatewaytypes.CustomerInfo
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, o gatewaytypes.OrderRequest, interaction gatewaytypes.InteractionConfig, customer gatewaytypes.CustomerInfo, billing gatewaytypes.BillingInfo) (*gatewaytypes.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	m.lastOrder = o
	m.lastBilling = billing
	m.lastCustomer = customer
	if m.sessionErr != nil {
		return nil, m.sessionErr
	}
	return m.session, nil
}

func (m *mockGateway) RetrieveOrder(ctx context.Context, orderID string) (*gatewaytypes.OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrieveCalls++
	if m.retrieveErr != nil {
		return nil, m.retrieveErr
	}
	return m.result, nil
}

func (m *mockGateway) MerchantID() string {
	return "TESTMERCHANT"
}

func (m *mockGateway) HostedCheckoutScriptURL() string {
	return "https://gateway.test/checkout/version/61/checkout.js"
}

// memoryStore keeps orders the way the database would: by value, with ids assigned on save.
type memoryStore struct {
	mu sync.Mutex

	customers map[int64]*cart.Customer
	orders    map[int64]*order.Order
	nextID    int64
	nextRowID int64

	saveErr   error
	saves     int
	createErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		customers: make(map[int64]*cart.Customer),
		orders:    make(map[int64]*order.Order),
	}
}

func (s *memoryStore) GetCustomer(ctx context.Context, customerID int64) (*cart.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return nil, errors.NewNotFoundError("Customer not found", errors.ErrCodeInvalidCustomer)
	}
	cp := *c
	return &cp, nil
}

func (s *memoryStore) CreateOrGetOrder(ctx context.Context, req checkout.CreateOrderRequest) (*order.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, false, s.createErr
	}
	if o, ok := s.orders[req.CartID]; ok {
		return copyOrder(o), false, nil
	}
	s.nextID++
	o := &order.Order{
		ID:           s.nextID,
		CartID:       req.CartID,
		CustomerID:   req.CustomerID,
		Reference:    req.Reference,
		Status:       req.Status,
		Amount:       req.Amount,
		CartTotal:    req.CartTotal,
		CurrencyCode: req.Currency,
		PaymentCode:  req.PaymentCode,
		SecureKey:    req.SecureKey,
	}
	s.orders[req.CartID] = o
	return copyOrder(o), true, nil
}

func (s *memoryStore) RefreshOrder(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[o.CartID]
	if !ok {
		return nil
	}
	*o = *copyOrder(stored)
	return nil
}

func (s *memoryStore) SaveOrder(ctx context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	for i := range o.Payments {
		if o.Payments[i].ID == 0 {
			s.nextRowID++
			o.Payments[i].ID = s.nextRowID
		}
	}
	for i := range o.History {
		if o.History[i].ID == 0 {
			s.nextRowID++
			o.History[i].ID = s.nextRowID
		}
	}
	s.orders[o.CartID] = copyOrder(o)
	return nil
}

func (s *memoryStore) stored(cartID int64) *order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[cartID]
	if !ok {
		return nil
	}
	return copyOrder(o)
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func copyOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Payments = append([]order.Payment(nil), o.Payments...)
	cp.History = append([]order.History(nil), o.History...)
	return &cp
}

// recordingHandler notes its name in a shared log and can be told to fail.
type recordingHandler struct {
	name   string
	calls  *[]string
	err    error
	mutate func(o *order.Order)
}

func (h *recordingHandler) Name() string {
	return h.name
}

func (h *recordingHandler) Handle(ctx context.Context, o *order.Order, result *gatewaytypes.OrderResult) error {
	*h.calls = append(*h.calls, h.name)
	if h.mutate != nil {
		h.mutate(o)
	}
	return h.err
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func testSettings() checkout.Settings {
	return checkout.Settings{
		OrderPrefix:     "ORD-",
		ModuleID:        42,
		PaymentCode:     "hosted_checkout",
		SelfURL:         "/checkout/hosted",
		CartURL:         "/cart?action=show",
		CheckoutURL:     "/order?step=1",
		ConfirmationURL: "/order-confirmation",
		Interaction: checkout.InteractionSettings{
			Operation:   "PURCHASE",
			Theme:       "default",
			ShowBilling: "HIDE",
			ShowEmail:   "HIDE",
			ShowSummary: "SHOW",
			ShopName:    "Test Shop",
		},
	}
}

func testCustomer() *cart.Customer {
	return &cart.Customer{
		ID:        7,
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		SecureKey: "secure-key-7",
		Active:    true,
	}
}

// testShop is cart 100 owned by customer 7, totalling 49.99 USD.
func testShop() checkout.ShopContext {
	return checkout.ShopContext{
		Cart: &cart.Cart{
			ID:             100,
			CustomerID:     7,
			CurrencyCode:   "USD",
			ShippingAmount: decimal.RequireFromString("9.99"),
			Items: []cart.CartItem{
				{ID: 1, CartID: 100, SKU: "MUG-1", Name: "Mug", Quantity: 2, UnitPrice: decimal.RequireFromString("20.00")},
			},
		},
		Customer: testCustomer(),
		Address: &cart.Address{
			ID:          3,
			CustomerID:  7,
			City:        "Berlin",
			CountryISO2: "DE",
			Postcode:    "10115",
			Street:      "Invalidenstrasse 1",
		},
	}
}

func capturedResult(amount string) *gatewaytypes.OrderResult {
	return &gatewaytypes.OrderResult{
		ID:       "ORD-100",
		Amount:   decimal.RequireFromString(amount),
		Currency: "USD",
		Status:   gatewaytypes.OrderStatusCaptured,
		Result:   gatewaytypes.ResultSuccess,
	}
}
