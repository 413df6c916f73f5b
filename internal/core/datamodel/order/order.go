package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses. The ranked ones only ever move forward; the terminal ones end the lifecycle.
const (
	StatusPaymentWaiting    = "PAYMENT_WAITING"
	StatusPaymentReview     = "PAYMENT_REVIEW"
	StatusPaymentAuthorized = "PAYMENT_AUTHORIZED"
	StatusPaymentAccepted   = "PAYMENT_ACCEPTED"
	StatusPaymentError      = "PAYMENT_ERROR"
	StatusCancelled         = "CANCELLED"
	StatusRefunded          = "REFUNDED"
)

var statusRank = map[string]int{
	StatusPaymentWaiting:    1,
	StatusPaymentReview:     2,
	StatusPaymentAuthorized: 3,
	StatusPaymentAccepted:   4,
	StatusPaymentError:      10,
	StatusCancelled:         10,
	StatusRefunded:          10,
}

// Risk decisions recorded on the order.
const (
	RiskNotAssessed = ""
	RiskAccepted    = "ACCEPTED"
	RiskReview      = "REVIEW_REQUIRED"
	RiskRejected    = "REJECTED"
)

type Order struct {
	ID               int64           `gorm:"primaryKey"`
	CartID           int64           `gorm:"column:cart_id;not null;uniqueIndex"`
	CustomerID       int64           `gorm:"column:customer_id;not null;index"`
	Reference        string          `gorm:"column:reference;not null;index"`
	Status           string          `gorm:"column:status;not null"`
	Amount           decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	CartTotal        decimal.Decimal `gorm:"column:cart_total;type:numeric(12,2);not null;default:0"`
	CurrencyCode     string          `gorm:"column:currency_code;size:3;not null"`
	PaymentCode      string          `gorm:"column:payment_code;not null"`
	SecureKey        string          `gorm:"column:secure_key;not null"`
	RiskDecision     string          `gorm:"column:risk_decision"`
	FraudSuspect     bool            `gorm:"column:fraud_suspect;default:false"`
	GatewayStatus    string          `gorm:"column:gateway_status"`
	AuthorizedAmount decimal.Decimal `gorm:"column:authorized_amount;type:numeric(12,2);not null;default:0"`
	CapturedAmount   decimal.Decimal `gorm:"column:captured_amount;type:numeric(12,2);not null;default:0"`
	Payments         []Payment       `gorm:"foreignKey:OrderID"`
	History          []History       `gorm:"foreignKey:OrderID"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Payment is one gateway transaction recorded against an order.
type Payment struct {
	ID            int64           `gorm:"primaryKey"`
	OrderID       int64           `gorm:"column:order_id;not null;uniqueIndex:idx_order_payments_txn"`
	TransactionID string          `gorm:"column:transaction_id;not null;uniqueIndex:idx_order_payments_txn"`
	Type          string          `gorm:"column:type;not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	CurrencyCode  string          `gorm:"column:currency_code;size:3"`
	GatewayCode   string          `gorm:"column:gateway_code"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Payment) TableName() string {
	return "order_payments"
}

type History struct {
	ID         int64     `gorm:"primaryKey"`
	OrderID    int64     `gorm:"column:order_id;not null;index"`
	FromStatus string    `gorm:"column:from_status"`
	ToStatus   string    `gorm:"column:to_status;not null"`
	Source     string    `gorm:"column:source"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (History) TableName() string {
	return "order_history"
}

func (o *Order) IsTerminal() bool {
	return statusRank[o.Status] >= 10
}

// CanTransitionTo reports whether moving to status advances the order.
func (o *Order) CanTransitionTo(status string) bool {
	if o.Status == status || o.IsTerminal() {
		return false
	}
	return statusRank[status] > statusRank[o.Status]
}

// TransitionTo moves the order forward and records the change. It returns false when the
// transition would not advance the order.
func (o *Order) TransitionTo(status, source string) bool {
	if !o.CanTransitionTo(status) {
		return false
	}
	o.History = append(o.History, History{
		OrderID:    o.ID,
		FromStatus: o.Status,
		ToStatus:   status,
		Source:     source,
	})
	o.Status = status
	return true
}

// HasTransaction reports whether the gateway transaction is already recorded.
func (o *Order) HasTransaction(transactionID string) bool {
	for _, p := range o.Payments {
		if p.TransactionID == transactionID {
			return true
		}
	}
	return false
}

func (o *Order) AddPayment(p Payment) bool {
	if o.HasTransaction(p.TransactionID) {
		return false
	}
	p.OrderID = o.ID
	o.Payments = append(o.Payments, p)
	return true
}

// View is the read model returned over the API.
type View struct {
	ID             int64  `json:"id"`
	CartID         int64  `json:"cart_id"`
	Reference      string `json:"reference"`
	Status         string `json:"status"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	CapturedAmount string `json:"captured_amount"`
	RiskDecision   string `json:"risk_decision,omitempty"`
	FraudSuspect   bool   `json:"fraud_suspect"`
	GatewayStatus  string `json:"gateway_status,omitempty"`
	PaymentCount   int    `json:"payment_count"`
}

func ToView(o *Order) View {
	return View{
		ID:             o.ID,
		CartID:         o.CartID,
		Reference:      o.Reference,
		Status:         o.Status,
		Amount:         o.Amount.StringFixed(2),
		Currency:       o.CurrencyCode,
		CapturedAmount: o.CapturedAmount.StringFixed(2),
		RiskDecision:   o.RiskDecision,
		FraudSuspect:   o.FraudSuspect,
		GatewayStatus:  o.GatewayStatus,
		PaymentCount:   len(o.Payments),
	}
}
