package gateway_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
	"github.com/frahmantamala/hosted-checkout/internal/gateway"
)

type capturedRequest struct {
	method   string
	path     string
	user     string
	password string
	body     map[string]interface{}
}

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		client   *gateway.Client
		captured capturedRequest
		status   int
		response string
		ctx      context.Context
	)

	validOrder := func() gatewaytypes.OrderRequest {
		return gatewaytypes.OrderRequest{
			ID:                        "ORD-100",
			Currency:                  "USD",
			Amount:                    "49.99",
			ItemAmount:                "40.00",
			ShippingAndHandlingAmount: "9.99",
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		response = `{}`
		captured = capturedRequest{}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured.method = r.Method
			captured.path = r.URL.Path
			captured.user, captured.password, _ = r.BasicAuth()
			if r.Body != nil {
				raw, _ := io.ReadAll(r.Body)
				if len(raw) > 0 {
					_ = json.Unmarshal(raw, &captured.body)
				}
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(response))
		}))

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		client = gateway.NewClient(gateway.Config{
			BaseURL:     server.URL + "/",
			APIVersion:  61,
			MerchantID:  "TESTMERCHANT",
			APIPassword: "secret",
			Timeout:     5 * time.Second,
		}, logger)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("CreateCheckoutSession", func() {
		It("should post a CREATE_CHECKOUT_SESSION request with merchant credentials", func() {
			// Given
			response = `{"result":"SUCCESS","session":{"id":"SESSION0001","version":"e3f1"},"successIndicator":"ind-123"}`

			// When
			session, err := client.CreateCheckoutSession(ctx, validOrder(),
				gatewaytypes.InteractionConfig{Operation: "PURCHASE", DisplayControl: gatewaytypes.DisplayControl{Shipping: "HIDE"}},
				gatewaytypes.CustomerInfo{Email: "jane@example.com"},
				gatewaytypes.BillingInfo{Address: gatewaytypes.BillingAddress{Country: "DEU"}})

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(session).To(Equal(&gatewaytypes.CheckoutSession{ID: "SESSION0001", Version: "e3f1", SuccessIndicator: "ind-123"}))

			Expect(captured.method).To(Equal(http.MethodPost))
			Expect(captured.path).To(Equal("/api/rest/version/61/merchant/TESTMERCHANT/session"))
			Expect(captured.user).To(Equal("merchant.TESTMERCHANT"))
			Expect(captured.password).To(Equal("secret"))
			Expect(captured.body["apiOperation"]).To(Equal("CREATE_CHECKOUT_SESSION"))

			order := captured.body["order"].(map[string]interface{})
			Expect(order["id"]).To(Equal("ORD-100"))
			Expect(order["amount"]).To(Equal("49.99"))
			interaction := captured.body["interaction"].(map[string]interface{})
			Expect(interaction["operation"]).To(Equal("PURCHASE"))
			Expect(interaction).NotTo(HaveKey("googleAnalytics"))
		})

		It("should surface the gateway explanation on an error result", func() {
			status = http.StatusBadRequest
			response = `{"result":"ERROR","error":{"cause":"INVALID_REQUEST","explanation":"Value '0.00' is invalid","field":"order.amount","validationType":"INVALID"}}`

			_, err := client.CreateCheckoutSession(ctx, validOrder(), gatewaytypes.InteractionConfig{}, gatewaytypes.CustomerInfo{}, gatewaytypes.BillingInfo{})

			Expect(err).To(HaveOccurred())
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(errors.ErrorTypeGateway))
			Expect(appErr.Code).To(Equal(errors.ErrCodeGatewayRejected))
			Expect(appErr.Message).To(Equal("Value '0.00' is invalid"))
		})

		It("should treat an ERROR result with a 200 status as a failure", func() {
			response = `{"result":"ERROR","error":{"cause":"SERVER_BUSY"}}`

			_, err := client.CreateCheckoutSession(ctx, validOrder(), gatewaytypes.InteractionConfig{}, gatewaytypes.CustomerInfo{}, gatewaytypes.BillingInfo{})

			Expect(errors.IsErrorType(err, errors.ErrorTypeGateway)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("SERVER_BUSY"))
		})

		It("should reject a session without a success indicator", func() {
			response = `{"result":"SUCCESS","session":{"id":"SESSION0001","version":"e3f1"}}`

			_, err := client.CreateCheckoutSession(ctx, validOrder(), gatewaytypes.InteractionConfig{}, gatewaytypes.CustomerInfo{}, gatewaytypes.BillingInfo{})

			Expect(errors.IsErrorType(err, errors.ErrorTypeGateway)).To(BeTrue())
		})

		It("should not call the gateway for an invalid order", func() {
			order := validOrder()
			order.Amount = "0.00"

			_, err := client.CreateCheckoutSession(ctx, order, gatewaytypes.InteractionConfig{}, gatewaytypes.CustomerInfo{}, gatewaytypes.BillingInfo{})

			Expect(err).To(HaveOccurred())
			Expect(captured.method).To(BeEmpty())
		})
	})

	Describe("RetrieveOrder", func() {
		It("should decode the order with risk and transactions", func() {
			// Given
			response = `{
				"id":"ORD-100","amount":49.99,"currency":"USD","status":"CAPTURED","result":"SUCCESS",
				"totalAuthorizedAmount":49.99,"totalCapturedAmount":49.99,
				"risk":{"response":{"gatewayCode":"REVIEW_REQUIRED","review":{"decision":"PENDING"}}},
				"transaction":[{"result":"SUCCESS","response":{"gatewayCode":"APPROVED"},
					"transaction":{"id":"1","type":"PAYMENT","amount":49.99,"currency":"USD"}}]
			}`

			// When
			result, err := client.RetrieveOrder(ctx, "ORD-100")

			// Then
			Expect(err).NotTo(HaveOccurred())
			Expect(captured.method).To(Equal(http.MethodGet))
			Expect(captured.path).To(Equal("/api/rest/version/61/merchant/TESTMERCHANT/order/ORD-100"))
			Expect(result.Amount.StringFixed(2)).To(Equal("49.99"))
			Expect(result.Status).To(Equal(gatewaytypes.OrderStatusCaptured))
			Expect(result.RiskCode()).To(Equal(gatewaytypes.RiskReviewRequired))
			Expect(result.ReviewDecision()).To(Equal(gatewaytypes.ReviewPending))
			Expect(result.Transactions).To(HaveLen(1))
			Expect(result.Transactions[0].Transaction.Type).To(Equal(gatewaytypes.TransactionPayment))
		})

		It("should fall back to the status code when the body explains nothing", func() {
			status = http.StatusServiceUnavailable
			response = `oops`

			_, err := client.RetrieveOrder(ctx, "ORD-100")

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Message).To(Equal("payment gateway returned status 503"))
		})

		It("should report an unreachable gateway", func() {
			server.Close()

			_, err := client.RetrieveOrder(ctx, "ORD-100")

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeGatewayRequestFailed))
		})
	})

	It("should build the hosted checkout script url", func() {
		Expect(client.HostedCheckoutScriptURL()).To(Equal(server.URL + "/checkout/version/61/checkout.js"))
		Expect(client.MerchantID()).To(Equal("TESTMERCHANT"))
	})
})
