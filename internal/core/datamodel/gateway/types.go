package gateway

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Order statuses reported by the gateway.
const (
	OrderStatusAuthorized            = "AUTHORIZED"
	OrderStatusCaptured              = "CAPTURED"
	OrderStatusPartiallyCaptured     = "PARTIALLY_CAPTURED"
	OrderStatusVerified              = "VERIFIED"
	OrderStatusFailed                = "FAILED"
	OrderStatusCancelled             = "CANCELLED"
	OrderStatusRefunded              = "REFUNDED"
	OrderStatusPartiallyRefunded     = "PARTIALLY_REFUNDED"
	OrderStatusAuthenticationPending = "AUTHENTICATION_INITIATED"
)

// Risk gateway codes.
const (
	RiskAccepted       = "ACCEPTED"
	RiskReviewRequired = "REVIEW_REQUIRED"
	RiskRejected       = "REJECTED"
	RiskNotChecked     = "NOT_CHECKED"
)

// Review decisions attached to a REVIEW_REQUIRED risk outcome.
const (
	ReviewPending  = "PENDING"
	ReviewAccepted = "ACCEPTED"
	ReviewRejected = "REJECTED"
)

const (
	ResultSuccess = "SUCCESS"
	ResultPending = "PENDING"
	ResultFailure = "FAILURE"
	ResultError   = "ERROR"
)

// Transaction types that move money.
const (
	TransactionAuthorization = "AUTHORIZATION"
	TransactionCapture       = "CAPTURE"
	TransactionPayment       = "PAYMENT"
	TransactionRefund        = "REFUND"
)

// OrderRequest is the order block sent when creating a checkout session.
type OrderRequest struct {
	ID                        string      `json:"id"`
	Currency                  string      `json:"currency"`
	Amount                    string      `json:"amount"`
	Items                     []OrderItem `json:"item,omitempty"`
	ItemAmount                string      `json:"itemAmount"`
	ShippingAndHandlingAmount string      `json:"shippingAndHandlingAmount"`
}

type OrderItem struct {
	Name      string `json:"name"`
	SKU       string `json:"sku,omitempty"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

func (r *OrderRequest) Validate() error {
	if r.ID == "" {
		return errors.New("order id is required")
	}
	if r.Currency == "" {
		return errors.New("currency is required")
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", r.Amount, err)
	}
	if !amount.IsPositive() {
		return errors.New("amount must be greater than 0")
	}
	return nil
}

type InteractionConfig struct {
	Operation       string           `json:"operation,omitempty"`
	Theme           string           `json:"theme,omitempty"`
	DisplayControl  DisplayControl   `json:"displayControl"`
	GoogleAnalytics *GoogleAnalytics `json:"googleAnalytics,omitempty"`
	Merchant        MerchantInfo     `json:"merchant"`
}

type DisplayControl struct {
	Shipping       string `json:"shipping,omitempty"`
	BillingAddress string `json:"billingAddress,omitempty"`
	CustomerEmail  string `json:"customerEmail,omitempty"`
	OrderSummary   string `json:"orderSummary,omitempty"`
}

type GoogleAnalytics struct {
	PropertyID string `json:"propertyId"`
}

type MerchantInfo struct {
	Name string `json:"name,omitempty"`
}

type BillingInfo struct {
	Address BillingAddress `json:"address"`
}

type BillingAddress struct {
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	PostcodeZip string `json:"postcodeZip,omitempty"`
	Street      string `json:"street,omitempty"`
	Street2     string `json:"street2,omitempty"`
}

type CustomerInfo struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// CheckoutSession is what the gateway hands back for a created hosted-checkout session.
type CheckoutSession struct {
	ID               string `json:"session_id"`
	Version          string `json:"session_version"`
	SuccessIndicator string `json:"success_indicator"`
}

// OrderResult is the gateway's authoritative view of an order.
type OrderResult struct {
	ID                    string          `json:"id"`
	Amount                decimal.Decimal `json:"amount"`
	Currency              string          `json:"currency"`
	Status                string          `json:"status"`
	Result                string          `json:"result"`
	TotalAuthorizedAmount decimal.Decimal `json:"totalAuthorizedAmount"`
	TotalCapturedAmount   decimal.Decimal `json:"totalCapturedAmount"`
	Risk                  *Risk           `json:"risk,omitempty"`
	Transactions          []Transaction   `json:"transaction,omitempty"`
}

type Risk struct {
	Response RiskResponse `json:"response"`
}

type RiskResponse struct {
	GatewayCode string      `json:"gatewayCode"`
	Review      *RiskReview `json:"review,omitempty"`
}

type RiskReview struct {
	Decision string `json:"decision"`
}

type Transaction struct {
	Result      string              `json:"result"`
	Response    TransactionResponse `json:"response"`
	Transaction TransactionDetail   `json:"transaction"`
}

type TransactionResponse struct {
	GatewayCode string `json:"gatewayCode"`
}

type TransactionDetail struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// RiskCode returns the risk gateway code, or "" when no assessment was made.
func (r *OrderResult) RiskCode() string {
	if r.Risk == nil {
		return ""
	}
	return r.Risk.Response.GatewayCode
}

func (r *OrderResult) ReviewDecision() string {
	if r.Risk == nil || r.Risk.Response.Review == nil {
		return ""
	}
	return r.Risk.Response.Review.Decision
}
