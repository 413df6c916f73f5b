package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"http_server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Security       SecurityConfig       `mapstructure:"security" validate:"required"`
	Observability  ObservabilityConfig  `mapstructure:"observability"`
	Gateway        GatewayConfig        `mapstructure:"gateway"`
	HostedCheckout HostedCheckoutConfig `mapstructure:"hosted_checkout"`
	Checkout       CheckoutConfig       `mapstructure:"checkout"`
	Reconcile      ReconcileConfig      `mapstructure:"reconcile"`
	OpenAPI        OpenAPIConfig        `mapstructure:"openapi"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	CartTokenSecret   string        `mapstructure:"cart_token_secret" validate:"required,min=32"`
	CartTokenDuration time.Duration `mapstructure:"cart_token_duration"`
	BCryptCost        int           `mapstructure:"bcrypt_cost" validate:"min=10,max=15"`
}

// GatewayConfig points at the payment gateway REST API.
type GatewayConfig struct {
	BaseURL     string        `mapstructure:"base_url" validate:"required,url"`
	APIVersion  int           `mapstructure:"api_version"`
	MerchantID  string        `mapstructure:"merchant_id" validate:"required"`
	APIPassword string        `mapstructure:"api_password" validate:"required"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Operation   string        `mapstructure:"operation" validate:"oneof=PURCHASE AUTHORIZE"`
}

// HostedCheckoutConfig holds display options for the gateway-hosted page.
type HostedCheckoutConfig struct {
	Theme        string `mapstructure:"theme"`
	ShowBilling  string `mapstructure:"show_billing"`
	ShowEmail    string `mapstructure:"show_email"`
	ShowSummary  string `mapstructure:"show_summary"`
	GATrackingID string `mapstructure:"ga_tracking_id"`
	ShopName     string `mapstructure:"shop_name"`
	PageTemplate string `mapstructure:"page_template"`
}

type CheckoutConfig struct {
	OrderPrefix     string `mapstructure:"order_prefix"`
	ModuleID        int64  `mapstructure:"module_id"`
	PaymentCode     string `mapstructure:"payment_code"`
	SelfURL         string `mapstructure:"self_url"`
	CartURL         string `mapstructure:"cart_url"`
	CheckoutURL     string `mapstructure:"checkout_url"`
	ConfirmationURL string `mapstructure:"confirmation_url"`
}

type ReconcileConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
	MaxWorkers int           `mapstructure:"max_workers"`
	BatchSize  int           `mapstructure:"batch_size"`
}

type OpenAPIConfig struct {
	ValidateRequests bool `mapstructure:"validate_requests"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultVal
}

// LoadConfigFromEnv builds the configuration from plain environment variables (docker deployments).
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("HTTP_PORT", 8080),
			BaseURL:           getEnv("HTTP_BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("HTTP_ALLOWED_ORIGINS", ""),
			ReadHeaderTimeout: getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DB_SOURCE", ""),
		},
		Security: SecurityConfig{
			CartTokenSecret:   getEnv("CART_TOKEN_SECRET", ""),
			CartTokenDuration: getEnvAsDuration("CART_TOKEN_DURATION", 24*time.Hour),
			BCryptCost:        getEnvAsInt("BCRYPT_COST", 12),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
		Gateway: GatewayConfig{
			BaseURL:     getEnv("GATEWAY_BASE_URL", ""),
			APIVersion:  getEnvAsInt("GATEWAY_API_VERSION", 61),
			MerchantID:  getEnv("GATEWAY_MERCHANT_ID", ""),
			APIPassword: getEnv("GATEWAY_API_PASSWORD", ""),
			Timeout:     getEnvAsDuration("GATEWAY_TIMEOUT", 30*time.Second),
			Operation:   getEnv("GATEWAY_OPERATION", "PURCHASE"),
		},
		HostedCheckout: HostedCheckoutConfig{
			Theme:        getEnv("HC_THEME", ""),
			ShowBilling:  getEnv("HC_SHOW_BILLING", "HIDE"),
			ShowEmail:    getEnv("HC_SHOW_EMAIL", "HIDE"),
			ShowSummary:  getEnv("HC_SHOW_SUMMARY", "HIDE"),
			GATrackingID: getEnv("HC_GA_TRACKING_ID", ""),
			ShopName:     getEnv("HC_SHOP_NAME", ""),
			PageTemplate: getEnv("HC_PAGE_TEMPLATE", ""),
		},
		Checkout: CheckoutConfig{
			OrderPrefix:     getEnv("CHECKOUT_ORDER_PREFIX", ""),
			ModuleID:        int64(getEnvAsInt("CHECKOUT_MODULE_ID", 1)),
			PaymentCode:     getEnv("CHECKOUT_PAYMENT_CODE", "hosted_checkout"),
			SelfURL:         getEnv("CHECKOUT_SELF_URL", "/checkout/hosted"),
			CartURL:         getEnv("CHECKOUT_CART_URL", "/cart?action=show"),
			CheckoutURL:     getEnv("CHECKOUT_STEP1_URL", "/order?step=1"),
			ConfirmationURL: getEnv("CHECKOUT_CONFIRMATION_URL", "/order-confirmation"),
		},
		Reconcile: ReconcileConfig{
			Interval:   getEnvAsDuration("RECONCILE_INTERVAL", time.Minute),
			StaleAfter: getEnvAsDuration("RECONCILE_STALE_AFTER", 15*time.Minute),
			MaxWorkers: getEnvAsInt("RECONCILE_MAX_WORKERS", 4),
			BatchSize:  getEnvAsInt("RECONCILE_BATCH_SIZE", 50),
		},
		OpenAPI: OpenAPIConfig{
			ValidateRequests: getEnvAsBool("OPENAPI_VALIDATE_REQUESTS", false),
		},
	}
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Gateway.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("gateway config: %v", err))
	}

	if err := c.Checkout.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("checkout config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.CartTokenSecret) < 32 {
		return errors.New("cart token secret must be at least 32 characters")
	}
	return nil
}

func (c *GatewayConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if c.MerchantID == "" {
		return errors.New("merchant_id is required")
	}
	if c.APIPassword == "" {
		return errors.New("api_password is required")
	}
	switch c.Operation {
	case "", "PURCHASE", "AUTHORIZE":
	default:
		return fmt.Errorf("unsupported operation %q", c.Operation)
	}
	return nil
}

func (c *CheckoutConfig) Validate() error {
	if c.PaymentCode == "" {
		return errors.New("payment_code is required")
	}
	if c.SelfURL == "" || c.CartURL == "" || c.CheckoutURL == "" || c.ConfirmationURL == "" {
		return errors.New("self_url, cart_url, checkout_url and confirmation_url are required")
	}
	return nil
}
