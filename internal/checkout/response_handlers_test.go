package checkout_test

import (
	"context"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/checkout"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
	"github.com/frahmantamala/hosted-checkout/internal/core/datamodel/order"
)

func waitingOrder() *order.Order {
	return &order.Order{
		ID:           1,
		CartID:       100,
		Reference:    "ORD-100",
		Status:       order.StatusPaymentWaiting,
		Amount:       decimal.RequireFromString("49.99"),
		CartTotal:    decimal.RequireFromString("49.99"),
		CurrencyCode: "USD",
	}
}

func errorCode(err error) errors.ErrorCode {
	appErr, ok := errors.IsAppError(err)
	gomega.Expect(ok).To(gomega.BeTrue())
	return appErr.Code
}

var _ = ginkgo.Describe("Response handlers", func() {
	var (
		ctx    context.Context
		o      *order.Order
		result *gatewaytypes.OrderResult
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		o = waitingOrder()
		result = capturedResult("49.99")
	})

	ginkgo.Describe("RiskHandler", func() {
		var handler *checkout.RiskHandler

		ginkgo.BeforeEach(func() {
			handler = checkout.NewRiskHandler(testLogger())
		})

		withRisk := func(code, decision string) {
			result.Risk = &gatewaytypes.Risk{Response: gatewaytypes.RiskResponse{GatewayCode: code}}
			if decision != "" {
				result.Risk.Response.Review = &gatewaytypes.RiskReview{Decision: decision}
			}
		}

		ginkgo.It("should pass when no assessment was made", func() {
			gomega.Expect(handler.Handle(ctx, o, result)).To(gomega.Succeed())
			gomega.Expect(o.RiskDecision).To(gomega.Equal(order.RiskNotAssessed))
			gomega.Expect(o.Status).To(gomega.Equal(order.StatusPaymentWaiting))
		})

		ginkgo.It("should record an accepted assessment", func() {
			withRisk(gatewaytypes.RiskAccepted, "")

			gomega.Expect(handler.Handle(ctx, o, result)).To(gomega.Succeed())
			gomega.Expect(o.RiskDecision).To(gomega.Equal(order.RiskAccepted))
		})

		ginkgo.It("should fail and mark the order on rejection", func() {
			withRisk(gatewaytypes.RiskRejected, "")

			err := handler.Handle(ctx, o, result)

			gomega.Expect(errorCode(err)).To(gomega.Equal(errors.ErrCodeRiskRejected))
			gomega.Expect(o.Status).To(gomega.Equal(order.StatusPaymentError))
			gomega.Expect(o.FraudSuspect).To(gomega.BeTrue())
			gomega.Expect(o.History).To(gomega.HaveLen(1))
		})

		ginkgo.It("should hold the order while a review is pending", func() {
			withRisk(gatewaytypes.RiskReviewRequired, gatewaytypes.ReviewPending)

			gomega.Expect(handler.Handle(ctx, o, result)).To(gomega.Succeed())
			gomega.Expect(o.Status).To(gomega.Equal(order.StatusPaymentReview))
			gomega.Expect(o.RiskDecision).To(gomega.Equal(order.RiskReview))
		})

		ginkgo.It("should fail when the review rejected the payment", func() {
			withRisk(gatewaytypes.RiskReviewRequired, gatewaytypes.ReviewRejected)

			err := handler.Handle(ctx, o, result)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(o.Status).To(gomega.Equal(order.StatusPaymentError))
		})

		ginkgo.It("should accept a review that approved the payment", func() {
			withRisk(gatewaytypes.RiskReviewRequired, gatewaytypes.ReviewAccepted)

			gomega.Expect(handler.Handle(ctx, o, result)).To(gomega.Succeed())
			gomega.Expect(o.RiskDecision).To(gomega.Equal(order.RiskAccepted))
			gomega.Expect(o.FraudSuspect).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("PaymentHandler", func() {
		var handler *checkout.PaymentHandler

		ginkgo.BeforeEach(func() {
			handler = checkout.NewPaymentHandler(testLogger())
		})

		ginkgo.It("should record successful money movements once", func() {
			// Given
			result.TotalCapturedAmount = decimal.RequireFromString("49.99")
			result.TotalAuthorizedAmount = decimal.RequireFromString("49.99")
			result.Transactions = []gatewaytypes.Transaction{
				{Result: gatewaytypes.ResultSuccess, Transaction: gatewaytypes.TransactionDetail{ID: "1", Type: gatewaytypes.TransactionAuthorization, Amount: decimal.RequireFromString("49.99")}},
				{Result: gatewaytypes.ResultSuccess, Transaction: gatewaytypes.TransactionDetail{ID: "2", Type: gatewaytypes.TransactionCapture, Amount: decimal.RequireFromString("49.99")}},
				{Result: gatewaytypes.ResultFailure, Transaction: gatewaytypes.TransactionDetail{ID: "3", Type: gatewaytypes.TransactionCapture, Amount: decimal.RequireFromString("49.99")}},
				{Result: gatewaytypes.ResultSuccess, Transaction: gatewaytypes.TransactionDetail{ID: "4", Type: gatewaytypes.TransactionRefund, Amount: decimal.RequireFromString("1.00")}},
			}

			// When
			gomega.Expect(handler.Handle(ctx, o, result)).To(gomega.Succeed())
			gomega.Expect(handler.Handle(ctx, o, result)).To(gomega.Succeed())

			// Then
			gomega.Expect(o.Payments).To(gomega.HaveLen(2))
			gomega.Expect(o.Payments[0].TransactionID).To(gomega.Equal("1"))
			gomega.Expect(o.Payments[1].TransactionID).To(gomega.Equal("2"))
			gomega.Expect(o.CapturedAmount.Equal(decimal.RequireFromString("49.99"))).To(gomega.BeTrue())
			gomega.Expect(o.AuthorizedAmount.Equal(decimal.RequireFromString("49.99"))).To(gomega.BeTrue())
		})

		ginkgo.It("should treat a captured order without totals as fully captured", func() {
			gomega.Expect(handler.Handle(ctx, o, result)).To(gomega.Succeed())
			gomega.Expect(o.CapturedAmount.Equal(decimal.RequireFromString("49.99"))).To(gomega.BeTrue())
		})

		ginkgo.It("should fail on an amount mismatch without touching the order", func() {
			result.Amount = decimal.RequireFromString("49.98")

			err := handler.Handle(ctx, o, result)

			gomega.Expect(errorCode(err)).To(gomega.Equal(errors.ErrCodeAmountMismatch))
			gomega.Expect(o.Status).To(gomega.Equal(order.StatusPaymentWaiting))
			gomega.Expect(o.CapturedAmount.IsZero()).To(gomega.BeTrue())
		})

		ginkgo.It("should fail on a currency mismatch", func() {
			result.Currency = "EUR"

			err := handler.Handle(ctx, o, result)

			gomega.Expect(errorCode(err)).To(gomega.Equal(errors.ErrCodeAmountMismatch))
		})

		ginkgo.It("should mark a declined payment as a payment error", func() {
			result.Result = gatewaytypes.ResultFailure
			result.Status = gatewaytypes.OrderStatusFailed

			err := handler.Handle(ctx, o, result)

			gomega.Expect(errorCode(err)).To(gomega.Equal(errors.ErrCodePaymentDeclined))
			gomega.Expect(o.Status).To(gomega.Equal(order.StatusPaymentError))
		})
	})

	ginkgo.Describe("StatusHandler", func() {
		var handler *checkout.StatusHandler

		ginkgo.BeforeEach(func() {
			handler = checkout.NewStatusHandler(testLogger())
		})

		ginkgo.DescribeTable("mapping gateway statuses",
			func(gatewayStatus, expected string) {
				result.Status = gatewayStatus

				gomega.Expect(handler.Handle(ctx, o, result)).To(gomega.Succeed())
				gomega.Expect(o.Status).To(gomega.Equal(expected))
				gomega.Expect(o.GatewayStatus).To(gomega.Equal(gatewayStatus))
			},
			ginkgo.Entry("captured", gatewaytypes.OrderStatusCaptured, order.StatusPaymentAccepted),
			ginkgo.Entry("authorized", gatewaytypes.OrderStatusAuthorized, order.StatusPaymentAuthorized),
			ginkgo.Entry("partially captured", gatewaytypes.OrderStatusPartiallyCaptured, order.StatusPaymentAuthorized),
			ginkgo.Entry("authentication pending", gatewaytypes.OrderStatusAuthenticationPending, order.StatusPaymentWaiting),
			ginkgo.Entry("refunded", gatewaytypes.OrderStatusRefunded, order.StatusRefunded),
		)

		ginkgo.It("should never move an accepted order back to authorized", func() {
			o.Status = order.StatusPaymentAccepted
			result.Status = gatewaytypes.OrderStatusAuthorized

			gomega.Expect(handler.Handle(ctx, o, result)).To(gomega.Succeed())
			gomega.Expect(o.Status).To(gomega.Equal(order.StatusPaymentAccepted))
		})

		ginkgo.It("should keep an order under review in review", func() {
			o.RiskDecision = order.RiskReview

			gomega.Expect(handler.Handle(ctx, o, result)).To(gomega.Succeed())
			gomega.Expect(o.Status).To(gomega.Equal(order.StatusPaymentReview))
		})

		ginkgo.It("should fail on a cancelled gateway order", func() {
			result.Status = gatewaytypes.OrderStatusCancelled

			err := handler.Handle(ctx, o, result)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(o.Status).To(gomega.Equal(order.StatusCancelled))
		})

		ginkgo.It("should fail on an unknown status", func() {
			result.Status = "SOMETHING_NEW"

			err := handler.Handle(ctx, o, result)

			gomega.Expect(errorCode(err)).To(gomega.Equal(errors.ErrCodeUnknownOrderStatus))
			gomega.Expect(o.Status).To(gomega.Equal(order.StatusPaymentWaiting))
		})
	})
})
