// Package config handles loading and managing application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environments select provider base URLs.
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"
)

// Config holds all configuration for the application. It is built once at
// startup and passed to constructors.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Payment session settings shared by every provider
	Payments PaymentsConfig

	// Per-provider credentials and endpoints
	GetNet      GetNetConfig
	NetGet      NetGetConfig
	MercadoPago MercadoPagoConfig

	// Order persistence
	Store StoreConfig

	// CatalogPath points at the YAML file with status tokens and prices.
	CatalogPath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port     string
	GinMode  string // "debug", "release", or "test"
	LogLevel string

	// PublicURL is this service's external base URL, used to build default
	// notification URLs for providers.
	PublicURL string

	// ServiceAPIKey guards the order endpoints called by the ordering backend.
	// Empty disables the check.
	ServiceAPIKey string
}

// PaymentsConfig holds settings common to all gateways.
type PaymentsConfig struct {
	DefaultProvider string
	Environment     string // "sandbox" or "production"
	Currency        string
	Timeout         time.Duration
	Expiration      time.Duration
}

// GetNetConfig holds GetNet web checkout settings.
type GetNetConfig struct {
	Login            string
	Secret           string
	SandboxURL       string
	ProductionURL    string
	RequireSignature bool
}

// NetGetConfig holds NetGet settings.
type NetGetConfig struct {
	MerchantID       string
	Secret           string
	SandboxURL       string
	ProductionURL    string
	RequireSignature bool
}

// MercadoPagoConfig holds Checkout Pro settings.
type MercadoPagoConfig struct {
	AccessToken   string
	WebhookSecret string
}

// StoreConfig selects the order store. An empty DSN uses the in-memory store.
type StoreConfig struct {
	DatabaseDSN string
}

// Load reads configuration from environment variables.
// Returns a Config struct with all settings populated.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     getEnv("PORT", "8080"),
			GinMode:  getEnv("GIN_MODE", "debug"),
			LogLevel: getEnv("LOG_LEVEL", "info"),

			PublicURL:     strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
			ServiceAPIKey: getEnv("PAYMENTS_SERVICE_API_KEY", ""),
		},
		Payments: PaymentsConfig{
			DefaultProvider: strings.ToLower(getEnv("PAYMENTS_DEFAULT_PROVIDER", "getnet")),
			Environment:     strings.ToLower(getEnv("PAYMENTS_ENV", EnvSandbox)),
			Currency:        strings.ToUpper(getEnv("PAYMENTS_CURRENCY", "CLP")),
			Timeout:         getEnvDuration("PAYMENTS_HTTP_TIMEOUT", 15*time.Second),
			Expiration:      getEnvDuration("PAYMENTS_SESSION_EXPIRATION", 10*time.Minute),
		},
		GetNet: GetNetConfig{
			Login:            getEnv("GETNET_LOGIN", ""),
			Secret:           getEnv("GETNET_SECRET", ""),
			SandboxURL:       getEnv("GETNET_SANDBOX_URL", "https://checkout.test.getnet.cl"),
			ProductionURL:    getEnv("GETNET_PRODUCTION_URL", "https://checkout.getnet.cl"),
			RequireSignature: getEnvBool("GETNET_REQUIRE_SIGNATURE", false),
		},
		NetGet: NetGetConfig{
			MerchantID:       getEnv("NETGET_MERCHANT_ID", ""),
			Secret:           getEnv("NETGET_SECRET", ""),
			SandboxURL:       getEnv("NETGET_SANDBOX_URL", ""),
			ProductionURL:    getEnv("NETGET_PRODUCTION_URL", ""),
			RequireSignature: getEnvBool("NETGET_REQUIRE_SIGNATURE", false),
		},
		MercadoPago: MercadoPagoConfig{
			AccessToken:   getEnv("MP_ACCESS_TOKEN", ""),
			WebhookSecret: getEnv("MP_WEBHOOK_SECRET", ""),
		},
		Store: StoreConfig{
			DatabaseDSN: getEnv("DATABASE_URI", ""),
		},
		CatalogPath: getEnv("CATALOG_PATH", ""),
	}
}

// Sandbox reports whether provider sandboxes are in use.
func (c *Config) Sandbox() bool {
	return c.Payments.Environment != EnvProduction
}

// GetNetBaseURL returns the GetNet endpoint for the configured environment.
func (c *Config) GetNetBaseURL() string {
	if c.Sandbox() {
		return c.GetNet.SandboxURL
	}
	return c.GetNet.ProductionURL
}

// NetGetBaseURL returns the NetGet endpoint for the configured environment.
func (c *Config) NetGetBaseURL() string {
	if c.Sandbox() {
		return c.NetGet.SandboxURL
	}
	return c.NetGet.ProductionURL
}

// Validate checks that required configuration values are set. Only the default
// provider's credentials are required; the others fail per request when used.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.Payments.Environment != EnvSandbox && c.Payments.Environment != EnvProduction {
		errs = append(errs, fmt.Errorf("PAYMENTS_ENV must be %q or %q, got %q", EnvSandbox, EnvProduction, c.Payments.Environment))
	}
	if c.Payments.Timeout <= 0 {
		errs = append(errs, errors.New("PAYMENTS_HTTP_TIMEOUT must be positive"))
	}
	if c.Payments.Expiration <= 0 {
		errs = append(errs, errors.New("PAYMENTS_SESSION_EXPIRATION must be positive"))
	}

	switch c.Payments.DefaultProvider {
	case "getnet":
		if c.GetNet.Login == "" || c.GetNet.Secret == "" {
			errs = append(errs, errors.New("GETNET_LOGIN and GETNET_SECRET are required"))
		}
		if c.GetNetBaseURL() == "" {
			errs = append(errs, errors.New("GetNet base URL is required for "+c.Payments.Environment))
		}
	case "netget":
		if c.NetGet.MerchantID == "" || c.NetGet.Secret == "" {
			errs = append(errs, errors.New("NETGET_MERCHANT_ID and NETGET_SECRET are required"))
		}
		if c.NetGetBaseURL() == "" {
			errs = append(errs, errors.New("NetGet base URL is required for "+c.Payments.Environment))
		}
	case "mercadopago":
		if c.MercadoPago.AccessToken == "" {
			errs = append(errs, errors.New("MP_ACCESS_TOKEN is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("PAYMENTS_DEFAULT_PROVIDER %q is not supported", c.Payments.DefaultProvider))
	}
	return errors.Join(errs...)
}

// getEnv retrieves an environment variable with a fallback default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30s") or whole seconds ("30").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean with a fallback.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
