package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/hosted-checkout/api"
	"github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/checkout"
	"github.com/frahmantamala/hosted-checkout/internal/shopper"
	shopperpostgres "github.com/frahmantamala/hosted-checkout/internal/shopper/postgres"
	"github.com/frahmantamala/hosted-checkout/internal/transport/middleware"
	"github.com/frahmantamala/hosted-checkout/internal/transport/rest"
	"github.com/frahmantamala/hosted-checkout/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server serving the hosted checkout and its JSON API`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	Checkout *checkoutDeps
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.Checkout.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.LoggerWrapper()

	deps, err := initCheckoutDeps(config, log)
	if err != nil {
		return nil, err
	}

	page, err := checkout.LoadPageTemplate(config.HostedCheckout.PageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment page template: %w", err)
	}

	orchestrator := checkout.NewOrchestrator(
		deps.Gateway,
		deps.Orders,
		deps.Processor,
		deps.Handlers,
		deps.Events,
		checkoutSettings(config),
		log,
	)

	tokens := shopper.NewTokenIssuer(config.Security.CartTokenSecret, config.Security.CartTokenDuration)
	shopperService := shopper.NewService(shopperpostgres.NewCustomerRepository(deps.Gorm), tokens, log)

	handlers := rest.Handlers{
		Checkout: checkout.NewHandler(orchestrator, deps.Carts, deps.Orders, page, log),
		Shopper:  shopper.NewHandler(shopperService, log),
		Health:   rest.NewHealthHandler(deps.DB),
		Tokens:   tokens,
	}

	if config.OpenAPI.ValidateRequests {
		doc, err := api.Load(context.Background())
		if err != nil {
			return nil, err
		}
		validator, err := middleware.OpenAPIValidator(doc, log)
		if err != nil {
			return nil, fmt.Errorf("failed to build openapi validator: %w", err)
		}
		handlers.Validator = validator
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, handlers, log)

	return &Dependencies{
		Config:   config,
		Checkout: deps,
		Router:   router,
		Logger:   log,
	}, nil
}
