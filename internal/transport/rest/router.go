package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/hosted-checkout/api"
	"github.com/frahmantamala/hosted-checkout/internal/checkout"
	"github.com/frahmantamala/hosted-checkout/internal/shopper"
	"github.com/frahmantamala/hosted-checkout/internal/transport"
	"github.com/frahmantamala/hosted-checkout/internal/transport/middleware"
	"github.com/frahmantamala/hosted-checkout/internal/transport/swagger"
)

type Handlers struct {
	Checkout *checkout.Handler
	Shopper  *shopper.Handler
	Health   *HealthHandler
	Tokens   *shopper.TokenIssuer
	// Validator is optional; when set, documented requests are checked against api/openapi.yml.
	Validator func(http.Handler) http.Handler
}

func RegisterAllRoutes(router chi.Router, h Handlers, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(shopper.CartContext(h.Tokens))
	if h.Validator != nil {
		router.Use(h.Validator)
	}

	base := transport.NewBaseHandler(logger)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		base.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.Document)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Get("/checkout/hosted", h.Checkout.HostedCheckout)
	router.Post("/checkout/hosted", h.Checkout.HostedCheckout)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.Health)
		r.Get("/ping", h.Health.Ping)

		r.Post("/shopper/token", h.Shopper.IssueToken)
		r.Get("/orders/{reference}", h.Checkout.GetOrder)

		r.Group(func(cr chi.Router) {
			cr.Use(shopper.RequireCart)
			cr.Post("/checkout/session", h.Checkout.CreateSession)
		})
	})
}
