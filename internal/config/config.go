package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Market   Market   `mapstructure:"market"`
	Ledger   Ledger   `mapstructure:"ledger"`
	Account  Account  `mapstructure:"account"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// Market holds the configuration for the external market data providers.
type Market struct {
	QuoteBaseURL   string  `mapstructure:"quote_base_url"`
	RateBaseURL    string  `mapstructure:"rate_base_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// Ledger holds the configuration for the position/ledger engine.
type Ledger struct {
	ReportingCurrency      string `mapstructure:"reporting_currency"`
	RefreshIntervalSeconds int    `mapstructure:"refresh_interval_seconds"`
}

// Account holds the configuration for user accounts and sessions.
type Account struct {
	SignupGrant     float64 `mapstructure:"signup_grant"`
	SessionTTLHours int     `mapstructure:"session_ttl_hours"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("market.quote_base_url", "https://query1.finance.yahoo.com")
	viper.SetDefault("market.rate_base_url", "https://api.exchangerate-api.com/v4/latest")
	viper.SetDefault("market.rate_limit", 5) // requests per second
	viper.SetDefault("market.rate_limit_burst", 2)
	viper.SetDefault("market.timeout_seconds", 10)
	viper.SetDefault("ledger.reporting_currency", "INR")
	viper.SetDefault("ledger.refresh_interval_seconds", 2)
	viper.SetDefault("account.signup_grant", 100000)
	viper.SetDefault("account.session_ttl_hours", 24)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
