package cmd

import (
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/hosted-checkout/internal"
	"github.com/frahmantamala/hosted-checkout/internal/checkout"
	checkoutpostgres "github.com/frahmantamala/hosted-checkout/internal/checkout/postgres"
	"github.com/frahmantamala/hosted-checkout/internal/core/events"
	"github.com/frahmantamala/hosted-checkout/internal/gateway"
)

// checkoutDeps is everything the server and the reconcile worker share.
type checkoutDeps struct {
	DB        *sqlx.DB
	Gorm      *gorm.DB
	Gateway   *gateway.Client
	Orders    *checkoutpostgres.OrderRepository
	Carts     *checkoutpostgres.CartRepository
	Stale     *checkoutpostgres.StaleOrderFinder
	Processor *checkout.ResponseProcessor
	Handlers  []checkout.ResponseHandler
	Events    *events.EventBus
}

func initCheckoutDeps(cfg *internal.Config, logger *slog.Logger) (*checkoutDeps, error) {
	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	orders := checkoutpostgres.NewOrderRepository(gormDB)

	bus := events.NewEventBus(logger)
	events.SubscribeLogger(bus, logger)

	return &checkoutDeps{
		DB:   db,
		Gorm: gormDB,
		Gateway: gateway.NewClient(gateway.Config{
			BaseURL:     cfg.Gateway.BaseURL,
			APIVersion:  cfg.Gateway.APIVersion,
			MerchantID:  cfg.Gateway.MerchantID,
			APIPassword: cfg.Gateway.APIPassword,
			Timeout:     cfg.Gateway.Timeout,
		}, logger),
		Orders:    orders,
		Carts:     checkoutpostgres.NewCartRepository(gormDB),
		Stale:     checkoutpostgres.NewStaleOrderFinder(db),
		Processor: checkout.NewResponseProcessor(orders, logger),
		Handlers:  checkout.DefaultHandlers(logger),
		Events:    bus,
	}, nil
}

func (d *checkoutDeps) Close() error {
	d.Events.Wait()
	return d.DB.Close()
}

func checkoutSettings(cfg *internal.Config) checkout.Settings {
	hc := cfg.HostedCheckout
	return checkout.Settings{
		OrderPrefix:     cfg.Checkout.OrderPrefix,
		ModuleID:        cfg.Checkout.ModuleID,
		PaymentCode:     cfg.Checkout.PaymentCode,
		SelfURL:         cfg.Checkout.SelfURL,
		CartURL:         cfg.Checkout.CartURL,
		CheckoutURL:     cfg.Checkout.CheckoutURL,
		ConfirmationURL: cfg.Checkout.ConfirmationURL,
		Interaction: checkout.InteractionSettings{
			Operation:    cfg.Gateway.Operation,
			Theme:        hc.Theme,
			ShowBilling:  hc.ShowBilling,
			ShowEmail:    hc.ShowEmail,
			ShowSummary:  hc.ShowSummary,
			GATrackingID: hc.GATrackingID,
			ShopName:     hc.ShopName,
		},
	}
}

func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	db, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// initGorm puts gorm on the same connection pool as sqlx.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}
