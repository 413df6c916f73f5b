package shopper

import (
	"net/http"

	errors "github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/transport"
	"github.com/frahmantamala/hosted-checkout/pkg/logger"
)

// CookieName is where browsers carry the cart token.
const CookieName = "cart_token"

// CartContext resolves the cart token from the Authorization header or the cart cookie and
// puts the cart id in the request context. Requests without a valid token pass through
// without a cart.
func CartContext(tokens *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				logger.From(r.Context()).Warn("ignoring invalid cart token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx := errors.ContextWithCartID(r.Context(), claims.CartID)
			ctx = logger.With(ctx, "cart_id", claims.CartID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireCart rejects API requests that carry no cart.
func RequireCart(next http.Handler) http.Handler {
	base := transport.NewBaseHandler(nil)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if errors.CartIDFromContext(r.Context()) == 0 {
			base.HandleError(w, errors.ErrInvalidToken)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFromRequest(r *http.Request) string {
	if token := (&transport.BaseHandler{}).ExtractTokenFromHeader(r); token != "" {
		return token
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
