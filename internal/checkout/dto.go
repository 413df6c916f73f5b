package checkout

import (
	"net/http"
	"regexp"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/core/common/validation"
	gatewaytypes "github.com/frahmantamala/hosted-checkout/internal/core/datamodel/gateway"
)

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9._\-]*$`)

// ParamsFromRequest reads the phase parameters from the query string and form body.
func ParamsFromRequest(r *http.Request) Params {
	_ = r.ParseForm()
	return Params{
		Cancel:           ParseCancel(r.Form),
		OrderID:          r.Form.Get("order_id"),
		SuccessIndicator: r.Form.Get("success_indicator"),
		SessionID:        r.Form.Get("session_id"),
		SessionVersion:   r.Form.Get("session_version"),
	}
}

func (p Params) Validate() error {
	validator := validation.NewValidator()

	validator.Field("order_id", p.OrderID).MaxLength(64).Matches(tokenPattern)
	validator.Field("success_indicator", p.SuccessIndicator).MaxLength(255).Matches(tokenPattern)
	validator.Field("session_id", p.SessionID).MaxLength(255).Matches(tokenPattern)
	validator.Field("session_version", p.SessionVersion).MaxLength(64).Matches(tokenPattern)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// validateCartTotal rejects carts the gateway would refuse to charge.
func validateCartTotal(shop ShopContext) error {
	validator := validation.NewValidator()

	validator.Field("currency", shop.Cart.CurrencyCode).Required()
	validator.Field("amount", shop.Cart.OrderTotal()).PositiveDecimal(errors.ErrCodeInvalidAmount)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// SessionResponse is the JSON shape of a created checkout session.
type SessionResponse struct {
	SessionID        string `json:"session_id"`
	SessionVersion   string `json:"session_version"`
	SuccessIndicator string `json:"success_indicator"`
}

func NewSessionResponse(s *gatewaytypes.CheckoutSession) SessionResponse {
	return SessionResponse{
		SessionID:        s.ID,
		SessionVersion:   s.Version,
		SuccessIndicator: s.SuccessIndicator,
	}
}

// RedirectResponse is what programmatic callers get instead of a 303.
type RedirectResponse struct {
	RedirectURL string   `json:"redirect_url"`
	Notices     []Notice `json:"notices,omitempty"`
}
