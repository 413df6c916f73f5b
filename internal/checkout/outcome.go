package checkout

import (
	"net/url"
	"strings"

	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
)

type OutcomeKind string

const (
	// KindRedirect sends the shopper to Location.
	KindRedirect OutcomeKind = "redirect"
	// KindSession carries a freshly created session. Programmatic callers get it as JSON,
	// browsers are redirected to Location.
	KindSession OutcomeKind = "session"
	// KindRender shows the hosted payment page.
	KindRender OutcomeKind = "render"
)

type NoticeLevel string

const (
	NoticeError   NoticeLevel = "error"
	NoticeWarning NoticeLevel = "warning"
)

type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Outcome is the structured result of one orchestrator run.
type Outcome struct {
	Phase    Phase
	Kind     OutcomeKind
	Location string
	Session  *gatewaytypes.CheckoutSession
	Page     *PaymentPage
	Notices  []Notice
	OrderID  int64
	// Err is the classified failure behind an error redirect, nil on success.
	Err error
}

// PaymentPage is the data the hosted payment page template is rendered with.
type PaymentPage struct {
	SessionID        string
	SessionVersion   string
	SuccessIndicator string
	MerchantID       string
	OrderID          string
	Amount           string
	Currency         string
	ComponentURL     string
	CompleteURL      string
	CancelURL        string
}

func (o Outcome) HasErrors() bool {
	for _, n := range o.Notices {
		if n.Level == NoticeError {
			return true
		}
	}
	return false
}

// buildURL appends params to base, keeping any query base already carries.
func buildURL(base string, params url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		return base + sep + params.Encode()
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
