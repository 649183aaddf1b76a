package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	S3       S3Config
	Payment  PaymentConfig
	Orders   OrdersConfig
	Cart     CartConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
	AutoMigrate     bool
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	APIKey string
}

// S3Config holds AWS S3 configuration for product media and invoices.
type S3Config struct {
	Enabled bool
	Bucket  string
	Region  string
	Prefix  string // Path prefix within bucket (e.g., "media/")
}

// PaymentConfig holds payment gateway credentials.
type PaymentConfig struct {
	KeyID          string
	Secret         string
	BaseURL        string
	TimeoutSeconds int
}

// OrdersConfig holds order lifecycle settings.
type OrdersConfig struct {
	SurchargePercent      decimal.Decimal
	EnforceStatusGraph    bool
	StrictVariantStock    bool
	RestrictNotesToOwners bool
}

// CartConfig selects the cart ledger store.
type CartConfig struct {
	Store string // "postgres" or "redis"
}

// RedisConfig holds Redis connection settings for the cart store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTLHours int
}

// KafkaConfig holds order event publishing settings.
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

var defaults = map[string]any{
	"SERVER_HOST":                    "0.0.0.0",
	"SERVER_PORT":                    8080,
	"DB_HOST":                        "localhost",
	"DB_PORT":                        5432,
	"DB_USER":                        "postgres",
	"DB_PASSWORD":                    "",
	"DB_NAME":                        "storefront",
	"DB_MAX_CONNECTIONS":             25,
	"DB_MIN_CONNECTIONS":             5,
	"DB_MAX_CONN_LIFETIME":           300,
	"DB_AUTO_MIGRATE":                false,
	"LOG_LEVEL":                      "info",
	"LOG_FORMAT":                     "json",
	"API_KEY":                        "",
	"S3_ENABLED":                     false,
	"S3_BUCKET":                      "",
	"S3_REGION":                      "us-east-1",
	"S3_PREFIX":                      "media/",
	"PAYMENT_KEY_ID":                 "",
	"PAYMENT_SECRET":                 "",
	"PAYMENT_BASE_URL":               "https://api.razorpay.com/v1",
	"PAYMENT_TIMEOUT_SECONDS":        10,
	"ORDER_SURCHARGE_PERCENT":        "2",
	"ORDER_ENFORCE_STATUS_GRAPH":     false,
	"ORDER_STRICT_VARIANT_STOCK":     false,
	"ORDER_RESTRICT_NOTES_TO_OWNERS": false,
	"CART_STORE":                     "postgres",
	"REDIS_ADDR":                     "localhost:6379",
	"REDIS_PASSWORD":                 "",
	"REDIS_DB":                       0,
	"REDIS_CART_TTL_HOURS":           720,
	"KAFKA_ENABLED":                  false,
	"KAFKA_BROKERS":                  "localhost:9092",
	"KAFKA_ORDER_TOPIC":              "storefront.orders",
}

// Load reads configuration from environment variables, optionally layered
// over a config file. Environment variables always win.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	surcharge, err := decimal.NewFromString(v.GetString("ORDER_SURCHARGE_PERCENT"))
	if err != nil {
		return nil, fmt.Errorf("invalid ORDER_SURCHARGE_PERCENT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Database:        v.GetString("DB_NAME"),
			MaxConnections:  v.GetInt("DB_MAX_CONNECTIONS"),
			MinConnections:  v.GetInt("DB_MIN_CONNECTIONS"),
			MaxConnLifetime: v.GetInt("DB_MAX_CONN_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Auth: AuthConfig{
			APIKey: v.GetString("API_KEY"),
		},
		S3: S3Config{
			Enabled: v.GetBool("S3_ENABLED"),
			Bucket:  v.GetString("S3_BUCKET"),
			Region:  v.GetString("S3_REGION"),
			Prefix:  v.GetString("S3_PREFIX"),
		},
		Payment: PaymentConfig{
			KeyID:          v.GetString("PAYMENT_KEY_ID"),
			Secret:         v.GetString("PAYMENT_SECRET"),
			BaseURL:        v.GetString("PAYMENT_BASE_URL"),
			TimeoutSeconds: v.GetInt("PAYMENT_TIMEOUT_SECONDS"),
		},
		Orders: OrdersConfig{
			SurchargePercent:      surcharge,
			EnforceStatusGraph:    v.GetBool("ORDER_ENFORCE_STATUS_GRAPH"),
			StrictVariantStock:    v.GetBool("ORDER_STRICT_VARIANT_STOCK"),
			RestrictNotesToOwners: v.GetBool("ORDER_RESTRICT_NOTES_TO_OWNERS"),
		},
		Cart: CartConfig{
			Store: strings.ToLower(v.GetString("CART_STORE")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTLHours: v.GetInt("REDIS_CART_TTL_HOURS"),
		},
		Kafka: KafkaConfig{
			Enabled: v.GetBool("KAFKA_ENABLED"),
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_ORDER_TOPIC"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	if c.Database.MinConnections < 1 {
		return fmt.Errorf("database min connections must be at least 1")
	}

	if c.Database.MinConnections > c.Database.MaxConnections {
		return fmt.Errorf("database min connections cannot exceed max connections")
	}

	if c.Auth.APIKey == "" {
		return fmt.Errorf("API key is required")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required when S3 is enabled")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required when S3 is enabled")
		}
	}

	if c.Orders.SurchargePercent.IsNegative() {
		return fmt.Errorf("order surcharge percent cannot be negative")
	}

	if c.Payment.TimeoutSeconds < 1 {
		return fmt.Errorf("payment timeout must be at least 1 second")
	}

	switch c.Cart.Store {
	case "postgres":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis address is required when cart store is redis")
		}
	default:
		return fmt.Errorf("invalid cart store: %s (must be postgres or redis)", c.Cart.Store)
	}

	if c.Kafka.Enabled {
		var errs []error
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka brokers are required when kafka is enabled"))
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, errors.New("kafka topic is required when kafka is enabled"))
		}
		if len(errs) > 0 {
			return errors.Join(errs...)
		}
	}

	return nil
}

// Configured reports whether gateway credentials are present.
func (c *PaymentConfig) Configured() bool {
	return c.KeyID != "" && c.Secret != ""
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
