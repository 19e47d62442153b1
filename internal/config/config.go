package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type CartConfig struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	HTTPPort string `mapstructure:"HTTP_PORT"`
	GRPCPort string `mapstructure:"GRPC_PORT"`

	CatalogBackend string        `mapstructure:"CATALOG_BACKEND"`
	CatalogTimeout time.Duration `mapstructure:"CATALOG_TIMEOUT"`
	CatalogFile    string        `mapstructure:"CATALOG_FILE"`

	ContentfulBaseURL     string `mapstructure:"CONTENTFUL_BASE_URL"`
	ContentfulSpaceID     string `mapstructure:"CONTENTFUL_SPACE_ID"`
	ContentfulAccessToken string `mapstructure:"CONTENTFUL_ACCESS_TOKEN"`
	ContentfulEnvironment string `mapstructure:"CONTENTFUL_ENVIRONMENT"`
	ContentfulContentType string `mapstructure:"CONTENTFUL_CONTENT_TYPE"`

	CouchbaseConnStr string `mapstructure:"COUCHBASE_CONN_STR"`
	CouchbaseUser    string `mapstructure:"COUCHBASE_USER"`
	CouchbasePass    string `mapstructure:"COUCHBASE_PASS"`
	CouchbaseBucket  string `mapstructure:"COUCHBASE_BUCKET"`

	FirestoreProjectID  string `mapstructure:"FIRESTORE_PROJECT_ID"`
	FirestoreCollection string `mapstructure:"FIRESTORE_COLLECTION"`

	CartCookieName    string        `mapstructure:"CART_COOKIE_NAME"`
	CartCookieMaxAge  time.Duration `mapstructure:"CART_COOKIE_MAX_AGE"`
	CartCookieSecure  bool          `mapstructure:"CART_COOKIE_SECURE"`
	CartTokenMaxBytes int           `mapstructure:"CART_TOKEN_MAX_BYTES"`
	Currency          string        `mapstructure:"CURRENCY"`

	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	OtelExporterEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelServiceName      string `mapstructure:"OTEL_SERVICE_NAME"`
}

const (
	BackendContentful = "contentful"
	BackendCouchbase  = "couchbase"
	BackendFirestore  = "firestore"
	BackendFile       = "file"
)

var AppConfig CartConfig

// defaults also registers every key, which AutomaticEnv needs for Unmarshal
// to see env-only values.
var defaults = map[string]any{
	"APP_ENV":                     "prod",
	"LOG_LEVEL":                   "info",
	"HTTP_PORT":                   ":8080",
	"GRPC_PORT":                   ":50051",
	"CATALOG_BACKEND":             BackendContentful,
	"CATALOG_TIMEOUT":             "3s",
	"CATALOG_FILE":                "",
	"CONTENTFUL_BASE_URL":         "https://cdn.contentful.com",
	"CONTENTFUL_SPACE_ID":         "",
	"CONTENTFUL_ACCESS_TOKEN":     "",
	"CONTENTFUL_ENVIRONMENT":      "master",
	"CONTENTFUL_CONTENT_TYPE":     "product",
	"COUCHBASE_CONN_STR":          "",
	"COUCHBASE_USER":              "",
	"COUCHBASE_PASS":              "",
	"COUCHBASE_BUCKET":            "",
	"FIRESTORE_PROJECT_ID":        "",
	"FIRESTORE_COLLECTION":        "products",
	"CART_COOKIE_NAME":            "cart",
	"CART_COOKIE_MAX_AGE":         "720h",
	"CART_COOKIE_SECURE":          false,
	"CART_TOKEN_MAX_BYTES":        4096,
	"CURRENCY":                    "usd",
	"RABBITMQ_URL":                "",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"OTEL_SERVICE_NAME":           "service-storefront",
}

func LoadConfig() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := Load(viper.GetViper(), logger)
	if err != nil {
		logger.Fatal("Unable to load config", zap.Error(err))
	}
	AppConfig = cfg
}

// Load reads .env from the working directory, if present, overlaid by the
// process environment.
func Load(v *viper.Viper, logger *zap.Logger) (CartConfig, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AddConfigPath(".")
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return CartConfig{}, fmt.Errorf("read .env: %w", err)
		}
		logger.Warn(".env file not found, reading from environment variables")
	}

	var cfg CartConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return CartConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.CatalogBackend = strings.ToLower(strings.TrimSpace(cfg.CatalogBackend))

	if err := cfg.Validate(); err != nil {
		return CartConfig{}, err
	}
	return cfg, nil
}

func (c CartConfig) Validate() error {
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be positive, got %s", c.CatalogTimeout)
	}
	if c.CartTokenMaxBytes <= 0 {
		return fmt.Errorf("CART_TOKEN_MAX_BYTES must be positive, got %d", c.CartTokenMaxBytes)
	}

	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	switch c.CatalogBackend {
	case BackendContentful:
		require("CONTENTFUL_SPACE_ID", c.ContentfulSpaceID)
		require("CONTENTFUL_ACCESS_TOKEN", c.ContentfulAccessToken)
	case BackendCouchbase:
		require("COUCHBASE_CONN_STR", c.CouchbaseConnStr)
		require("COUCHBASE_BUCKET", c.CouchbaseBucket)
	case BackendFirestore:
		require("FIRESTORE_PROJECT_ID", c.FirestoreProjectID)
	case BackendFile:
		require("CATALOG_FILE", c.CatalogFile)
	default:
		return fmt.Errorf("unknown CATALOG_BACKEND %q", c.CatalogBackend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("catalog backend %s needs %s", c.CatalogBackend, strings.Join(missing, ", "))
	}
	return nil
}
