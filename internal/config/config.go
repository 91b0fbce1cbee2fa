package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

// Environment variables with defaults
type ServerEnvironment struct {

	// http server settings
	Environment           string        `env:"ENVIRONMENT,default=dev"`
	Host                  string        `env:"HOST,default=0.0.0.0"`
	Port                  int           `env:"PORT,default=8080"`
	LogLevel              string        `env:"LOG_LEVEL,default=debug"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	RateLimitRPS          int32         `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst        int32         `env:"RATE_LIMIT_BURST,default=200"`

	// database settings
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS,default=4"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS,default=0"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME,default=60m"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME,default=30m"`
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT,default=5s"`
	DatabasePingTimeout time.Duration `env:"DATABASE_PING_TIMEOUT,default=10s"`

	Wallet WalletEnvironment

	// Required configuration - must be set by environment variables
	DatabaseURL    string   `env:"DATABASE_URL,required=true"`
	ActiveProfiles []string `env:"ACTIVE_PROFILES,separator=|,required=true"`
}

// WalletEnvironment holds the wallet provider settings shared by wallet-server and walletctl.
// The URL overrides are for testing against a fake provider.
type WalletEnvironment struct {
	ClassURL          string        `env:"WALLET_CLASS_URL,default=https://walletobjects.googleapis.com/walletobjects/v1/eventTicketClass"`
	ObjectURL         string        `env:"WALLET_OBJECT_URL,default=https://walletobjects.googleapis.com/walletobjects/v1/eventTicketObject"`
	SaveURLTemplate   string        `env:"WALLET_SAVE_URL_TEMPLATE,default=https://pay.google.com/gp/v/save/{token}"`
	HTTPTimeout       time.Duration `env:"WALLET_HTTP_TIMEOUT,default=20s"`
	TokenCache        bool          `env:"WALLET_TOKEN_CACHE,default=true"`
	TokenEarlyRefresh time.Duration `env:"WALLET_TOKEN_EARLY_REFRESH,default=5m"`

	// service account JWK cache settings (save link verification)
	JWKSURLTemplate    string        `env:"WALLET_JWKS_URL_TEMPLATE,default=https://www.googleapis.com/service_accounts/v1/jwk/{email}"`
	JWKCacheMinRefresh time.Duration `env:"JWK_CACHE_MIN_REFRESH,default=15m"`
	JWKCacheMaxRefresh time.Duration `env:"JWK_CACHE_MAX_REFRESH,default=24h"`
}

// CLIEnvironment is the walletctl configuration. DATABASE_URL is only checked by the commands that use it.
type CLIEnvironment struct {
	Environment    string   `env:"ENVIRONMENT,default=dev"`
	LogLevel       string   `env:"LOG_LEVEL,default=info"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	ActiveProfiles []string `env:"ACTIVE_PROFILES,separator=|"`

	Wallet WalletEnvironment
}

var validEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"prod":    true,
	"staging": true,
}

// NewServerConfig loads environment variables and returns a ServerEnvironment struct that contains the values
func NewServerConfig() (*ServerEnvironment, error) {
	var cfg ServerEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil

}

// validateConfig checks for required env variables
func validateConfig(cfg *ServerEnvironment) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}
	if !validEnvs[cfg.Environment] {
		return fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}

	// Validate database pool configuration
	if cfg.DBMaxConnections < 1 {
		return fmt.Errorf("DB_MAX_CONNECTIONS must be at least 1")
	}
	if cfg.DBMinConnections < 0 {
		return fmt.Errorf("DB_MIN_CONNECTIONS must be 0 or greater")
	}
	if cfg.DBMinConnections > cfg.DBMaxConnections {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) cannot be greater than DB_MAX_CONNECTIONS (%d)",
			cfg.DBMinConnections, cfg.DBMaxConnections)
	}

	if cfg.RateLimitRPS < 1 || cfg.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be at least 1")
	}

	if err := validateWallet(&cfg.Wallet); err != nil {
		return err
	}

	return nil
}

// NewCLIConfig loads the walletctl configuration from environment variables
func NewCLIConfig() (*CLIEnvironment, error) {
	var cfg CLIEnvironment

	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}

	if !validEnvs[cfg.Environment] {
		return nil, fmt.Errorf("invalid ENVIRONMENT: %s", cfg.Environment)
	}
	if err := validateWallet(&cfg.Wallet); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateWallet(cfg *WalletEnvironment) error {
	for name, raw := range map[string]string{
		"WALLET_CLASS_URL":  cfg.ClassURL,
		"WALLET_OBJECT_URL": cfg.ObjectURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if strings.Count(cfg.SaveURLTemplate, "{token}") != 1 {
		return fmt.Errorf("WALLET_SAVE_URL_TEMPLATE must contain {token} exactly once")
	}
	if !strings.Contains(cfg.JWKSURLTemplate, "{email}") {
		return fmt.Errorf("WALLET_JWKS_URL_TEMPLATE must contain {email}")
	}

	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("WALLET_HTTP_TIMEOUT must be positive")
	}
	if cfg.TokenEarlyRefresh < 0 {
		return fmt.Errorf("WALLET_TOKEN_EARLY_REFRESH cannot be negative")
	}
	if cfg.JWKCacheMinRefresh > cfg.JWKCacheMaxRefresh {
		return fmt.Errorf("JWK_CACHE_MIN_REFRESH (%s) cannot be greater than JWK_CACHE_MAX_REFRESH (%s)",
			cfg.JWKCacheMinRefresh, cfg.JWKCacheMaxRefresh)
	}
	return nil
}
