package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/checkout"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
	"github.com/frahmantamala/hosted-checkout/internal/shopper"
	"github.com/frahmantamala/hosted-checkout/internal/transport/rest"
)

type stubOrders struct {
	order *order.Order
}

func (s *stubOrders) GetByReference(ctx context.Context, reference string) (*order.Order, error) {
	if s.order == nil || s.order.Reference != reference {
		return nil, errors.ErrOrderNotFound
	}
	return s.order, nil
}

type stubShopperService struct{}

func (stubShopperService) IssueCartToken(ctx context.Context, dto shopper.TokenDTO) (shopper.TokenResponse, error) {
	if dto.Password != "secret" {
		return shopper.TokenResponse{}, shopper.ErrInvalidCredentials
	}
	return shopper.TokenResponse{CartToken: "signed", CartID: dto.CartID}, nil
}

var _ = Describe("Router", func() {
	var (
		router *chi.Mux
		health *rest.HealthHandler
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
		orders := &stubOrders{order: &order.Order{
			ID:           1,
			CartID:       100,
			Reference:    "ORD-100",
			Status:       order.StatusPaymentAccepted,
			Amount:       decimal.RequireFromString("49.99"),
			CurrencyCode: "USD",
			SecureKey:    "secure-key-7",
		}}

		health = rest.NewHealthHandler(nil)
		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Checkout: checkout.NewHandler(nil, nil, orders, nil, logger),
			Shopper:  shopper.NewHandler(stubShopperService{}, logger),
			Health:   health,
			Tokens:   shopper.NewTokenIssuer(strings.Repeat("s", 32), 0),
		}, logger)
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("should answer ping with a trace id", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
	})

	It("should report unhealthy components", func() {
		health.AddCheck("postgres", func(ctx context.Context) error { return stderrors.New("connection refused") })

		rec := serve(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		var resp rest.HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Components["postgres"].Message).To(Equal("connection refused"))
	})

	It("should serve the openapi document", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/openapi.yml", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("/checkout/hosted"))
	})

	It("should refuse session creation without a cart token", func() {
		rec := serve(httptest.NewRequest(http.MethodPost, "/api/v1/checkout/session", nil))

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should issue a cart token cookie", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/shopper/token",
			strings.NewReader(`{"email":"a@b.c","password":"secret","cart_id":100}`))

		rec := serve(req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Set-Cookie")).To(ContainSubstring(shopper.CookieName + "=signed"))
	})

	It("should return the order view only with the secure key", func() {
		ok := serve(httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-100?key=secure-key-7", nil))
		wrong := serve(httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-100?key=guess", nil))

		Expect(ok.Code).To(Equal(http.StatusOK))
		var view order.View
		Expect(json.Unmarshal(ok.Body.Bytes(), &view)).To(Succeed())
		Expect(view.Status).To(Equal(order.StatusPaymentAccepted))
		Expect(wrong.Code).To(Equal(http.StatusNotFound))
	})
})
