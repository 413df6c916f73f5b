package checkout_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/checkout"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
)

type mockShopLoader struct {
	shop checkout.ShopContext
	err  error
}

func (m *mockShopLoader) LoadShop(ctx context.Context, cartID int64) (checkout.ShopContext, error) {
	if m.err != nil {
		return checkout.ShopContext{}, m.err
	}
	return m.shop, nil
}

type mockOrderReader struct {
	order *order.Order
}

func (m *mockOrderReader) GetByReference(ctx context.Context, reference string) (*order.Order, error) {
	if m.order == nil || m.order.Reference != reference {
		return nil, errors.ErrOrderNotFound
	}
	return m.order, nil
}

func shopperRequest(method, target string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	return req.WithContext(errors.ContextWithCartID(req.Context(), 100))
}

var _ = ginkgo.Describe("Handler", func() {
	var (
		handler  *checkout.Handler
		gw       *mockGateway
		store    *memoryStore
		shops    *mockShopLoader
		orders   *mockOrderReader
		recorder *httptest.ResponseRecorder
	)

	ginkgo.BeforeEach(func() {
		logger := testLogger()
		gw = &mockGateway{
			session: &gatewaytypes.CheckoutSession{ID: "SESSION0001", Version: "v1", SuccessIndicator: "ind-123"},
			result:  capturedResult("49.99"),
		}
		store = newMemoryStore()
		store.customers[7] = testCustomer()
		shops = &mockShopLoader{shop: testShop()}
		orders = &mockOrderReader{}

		orchestrator := checkout.NewOrchestrator(gw, store, checkout.NewResponseProcessor(store, logger),
			checkout.DefaultHandlers(logger), nil, testSettings(), logger)
		page, err := checkout.LoadPageTemplate("")
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		handler = checkout.NewHandler(orchestrator, shops, orders, page, logger)
		recorder = httptest.NewRecorder()
	})

	ginkgo.Describe("HostedCheckout", func() {
		ginkgo.It("should return the session as JSON to programmatic callers", func() {
			req := shopperRequest(http.MethodGet, "/checkout/hosted")
			req.Header.Set("X-Requested-With", "XMLHttpRequest")

			handler.HostedCheckout(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			var body checkout.SessionResponse
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body).To(gomega.Equal(checkout.SessionResponse{
				SessionID:        "SESSION0001",
				SessionVersion:   "v1",
				SuccessIndicator: "ind-123",
			}))
		})

		ginkgo.It("should redirect browsers back to itself with the session", func() {
			handler.HostedCheckout(recorder, shopperRequest(http.MethodGet, "/checkout/hosted"))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusSeeOther))
			location := recorder.Header().Get("Location")
			gomega.Expect(location).To(gomega.HavePrefix("/checkout/hosted?"))
			gomega.Expect(location).To(gomega.ContainSubstring("session_id=SESSION0001"))
			gomega.Expect(location).To(gomega.ContainSubstring("success_indicator=ind-123"))
		})

		ginkgo.It("should render the payment page", func() {
			handler.HostedCheckout(recorder, shopperRequest(http.MethodGet, "/checkout/hosted?success_indicator=ind-123&session_id=SESSION0001&session_version=v1"))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(recorder.Header().Get("Content-Type")).To(gomega.HavePrefix("text/html"))
			body := recorder.Body.String()
			gomega.Expect(body).To(gomega.ContainSubstring("checkout.js"))
			gomega.Expect(body).To(gomega.ContainSubstring("SESSION0001"))
			gomega.Expect(body).To(gomega.ContainSubstring("TESTMERCHANT"))
			gomega.Expect(gw.createCalls).To(gomega.Equal(0))
		})

		ginkgo.It("should leave the cancel notice in a flash cookie", func() {
			handler.HostedCheckout(recorder, shopperRequest(http.MethodGet, "/checkout/hosted?cancel=1"))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusSeeOther))
			gomega.Expect(recorder.Header().Get("Location")).To(gomega.Equal("/cart?action=show"))

			cookies := recorder.Result().Cookies()
			gomega.Expect(cookies).To(gomega.HaveLen(1))
			gomega.Expect(cookies[0].Name).To(gomega.Equal("checkout_notices"))
		})

		ginkgo.It("should cancel even when the other parameters are malformed", func() {
			handler.HostedCheckout(recorder, shopperRequest(http.MethodGet, "/checkout/hosted?cancel=1&order_id=ORD%20100&session_version=%3Cv%3E"))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusSeeOther))
			gomega.Expect(recorder.Header().Get("Location")).To(gomega.Equal("/cart?action=show"))
			gomega.Expect(gw.createCalls).To(gomega.Equal(0))
			gomega.Expect(gw.retrieveCalls).To(gomega.Equal(0))
		})

		ginkgo.It("should name the malformed parameter in the notice", func() {
			req := shopperRequest(http.MethodGet, "/checkout/hosted?session_id=SESSION%2F0001")
			req.Header.Set("X-Requested-With", "XMLHttpRequest")

			handler.HostedCheckout(recorder, req)

			var body checkout.RedirectResponse
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body.RedirectURL).To(gomega.Equal("/order?step=1"))
			gomega.Expect(body.Notices).To(gomega.ConsistOf(checkout.Notice{Level: checkout.NoticeError, Message: "session_id has an invalid format"}))
			gomega.Expect(gw.createCalls).To(gomega.Equal(0))
		})

		ginkgo.It("should show notices from the flash cookie on the payment page", func() {
			// Given
			first := httptest.NewRecorder()
			handler.HostedCheckout(first, shopperRequest(http.MethodGet, "/checkout/hosted?order_id=ORD-999"))
			cookie := first.Result().Cookies()[0]

			// When
			req := shopperRequest(http.MethodGet, "/checkout/hosted?success_indicator=ind-123")
			req.AddCookie(cookie)
			handler.HostedCheckout(recorder, req)

			// Then
			gomega.Expect(recorder.Body.String()).To(gomega.ContainSubstring("Invalid data (order)"))
		})

		ginkgo.It("should return the redirect and notices as JSON for a failed finalize", func() {
			req := httptest.NewRequest(http.MethodPost, "/checkout/hosted", strings.NewReader("order_id=ORD-999"))
			req = req.WithContext(errors.ContextWithCartID(req.Context(), 100))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req.Header.Set("X-Requested-With", "XMLHttpRequest")

			handler.HostedCheckout(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
			var body checkout.RedirectResponse
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &body)).To(gomega.Succeed())
			gomega.Expect(body.RedirectURL).To(gomega.Equal("/order?step=1"))
			gomega.Expect(body.Notices[0].Message).To(gomega.Equal("Invalid data (order)"))
		})

		ginkgo.It("should send a shopper without a cart to the cart view", func() {
			req := httptest.NewRequest(http.MethodGet, "/checkout/hosted", nil)

			handler.HostedCheckout(recorder, req)

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusSeeOther))
			gomega.Expect(recorder.Header().Get("Location")).To(gomega.Equal("/cart?action=show"))
		})
	})

	ginkgo.Describe("CreateSession", func() {
		ginkgo.It("should return 201 with the session", func() {
			handler.CreateSession(recorder, shopperRequest(http.MethodPost, "/api/v1/checkout/session"))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusCreated))
			gomega.Expect(recorder.Body.String()).To(gomega.ContainSubstring(`"session_id":"SESSION0001"`))
		})

		ginkgo.It("should map gateway failures to 502", func() {
			gw.sessionErr = errors.NewGatewayError("Gateway unavailable", errors.ErrCodeGatewayRequestFailed, nil)

			handler.CreateSession(recorder, shopperRequest(http.MethodPost, "/api/v1/checkout/session"))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadGateway))
		})
	})

	ginkgo.Describe("GetOrder", func() {
		var router chi.Router

		ginkgo.BeforeEach(func() {
			orders.order = &order.Order{ID: 1, CartID: 100, Reference: "ORD-100", Status: order.StatusPaymentAccepted, SecureKey: "secure-key-7"}
			router = chi.NewRouter()
			router.Get("/api/v1/orders/{reference}", handler.GetOrder)
		})

		ginkgo.It("should return the order view for the right key", func() {
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-100?key=secure-key-7", nil))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusOK))
			var view order.View
			gomega.Expect(json.Unmarshal(recorder.Body.Bytes(), &view)).To(gomega.Succeed())
			gomega.Expect(view.Status).To(gomega.Equal(order.StatusPaymentAccepted))
		})

		ginkgo.It("should hide the order behind a wrong key", func() {
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-100?key=nope", nil))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusNotFound))
		})

		ginkgo.It("should require the key", func() {
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/orders/ORD-100", nil))

			gomega.Expect(recorder.Code).To(gomega.Equal(http.StatusBadRequest))
		})
	})
})
