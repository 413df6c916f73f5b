package checkout

import (
	"encoding/base64"
	"encoding/json"
	"html/template"
	"net/http"
)

const noticeCookie = "checkout_notices"

const defaultPageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Payment</title>
<script src="{{.Page.ComponentURL}}" data-error="errorCallback" data-cancel="{{.Page.CancelURL}}" data-complete="{{.Page.CompleteURL}}"></script>
<script>
function errorCallback(error) {
	console.log(JSON.stringify(error));
	window.location.href = "{{.Page.CancelURL}}";
}
Checkout.configure({
	merchant: "{{.Page.MerchantID}}",
	session: {id: "{{.Page.SessionID}}", version: "{{.Page.SessionVersion}}"},
	order: {id: "{{.Page.OrderID}}", amount: "{{.Page.Amount}}", currency: "{{.Page.Currency}}"}
});
Checkout.showPaymentPage();
</script>
</head>
<body>
{{range .Notices}}<p class="notice notice-{{.Level}}">{{.Message}}</p>
{{end}}<p>Redirecting to the payment page...</p>
</body>
</html>
`

type pageView struct {
	Page    *PaymentPage
	Notices []Notice
}

// LoadPageTemplate parses the payment page template at path, or the built-in one when path is empty.
func LoadPageTemplate(path string) (*template.Template, error) {
	if path == "" {
		return template.New("payment_page").Parse(defaultPageTemplate)
	}
	return template.ParseFiles(path)
}

func setNotices(w http.ResponseWriter, notices []Notice) {
	if len(notices) == 0 {
		return
	}
	raw, err := json.Marshal(notices)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popNotices reads the flash notices left by a previous redirect and clears them.
func popNotices(w http.ResponseWriter, r *http.Request) []Notice {
	c, err := r.Cookie(noticeCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     noticeCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var notices []Notice
	if err := json.Unmarshal(raw, &notices); err != nil {
		return nil
	}
	return notices
}
