package config

import (
	"fmt"
	"os"
	"petrent/pkg/client"
	"petrent/pkg/logger"
	"petrent/pkg/sanitizer"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout       time.Duration
	IdempotencyTTL       time.Duration
	IdempotencyStorePath string
	MaxRequestSize       int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	OmisePublicKey       string
	OmiseSecretKey       string
	PaymentCurrency      string
	GatewayTimeout       time.Duration
	RefundMaxAttempts    int
	RefundBackoffInitial time.Duration
	RefundBackoffMax     time.Duration

	JWTSecret         string
	AuthRequired      bool
	IdentityCacheSize int
	IdentityCacheTTL  time.Duration

	EventsEnabled       bool
	BookingEventsTopic  string
	RefundTopic         string
	RefundDLQTopic      string
	RefundConsumerGroup string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout:       getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL:       getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		IdempotencyStorePath: getEnvStr(EnvIdempotencyStorePath, ""),
		MaxRequestSize:       getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		OmisePublicKey:       getEnvStr(EnvOmisePublicKey, ""),
		OmiseSecretKey:       getEnvStr(EnvOmiseSecretKey, ""),
		PaymentCurrency:      sanitizer.NormalizeCurrency(getEnvStr(EnvPaymentCurrency, DefaultPaymentCurrency)),
		GatewayTimeout:       getEnvDuration(EnvGatewayTimeout, DefaultGatewayTimeout),
		RefundMaxAttempts:    getEnvNum(EnvRefundMaxAttempts, DefaultRefundMaxAttempts),
		RefundBackoffInitial: getEnvDuration(EnvRefundBackoffInitial, DefaultRefundBackoffInitial),
		RefundBackoffMax:     getEnvDuration(EnvRefundBackoffMax, DefaultRefundBackoffMax),

		JWTSecret:         getEnvStr(EnvJWTSecret, ""),
		AuthRequired:      getEnvBool(EnvAuthRequired, DefaultAuthRequired),
		IdentityCacheSize: getEnvNum(EnvIdentityCacheSize, DefaultIdentityCacheSize),
		IdentityCacheTTL:  getEnvDuration(EnvIdentityCacheTTL, DefaultIdentityCacheTTL),

		EventsEnabled:       getEnvBool(EnvEventsEnabled, DefaultEventsEnabled),
		BookingEventsTopic:  getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),
		RefundTopic:         getEnvStr(EnvRefundTopic, DefaultRefundTopic),
		RefundDLQTopic:      getEnvStr(EnvRefundDLQTopic, DefaultRefundDLQTopic),
		RefundConsumerGroup: getEnvStr(EnvRefundConsumerGroup, DefaultRefundConsumerGroup),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}

	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if !regexp.MustCompile(`^[a-z]{3}$`).MatchString(cfg.PaymentCurrency) {
		errors = append(errors, fmt.Sprintf("PaymentCurrency must be a 3-letter ISO code, got: %s", cfg.PaymentCurrency))
	}
	if cfg.GatewayTimeout < MinGatewayTimeout || cfg.GatewayTimeout > MaxGatewayTimeout {
		errors = append(errors, fmt.Sprintf("GatewayTimeout must be between %s and %s, got: %s", MinGatewayTimeout, MaxGatewayTimeout, cfg.GatewayTimeout))
	}
	if cfg.RefundMaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("RefundMaxAttempts must be at least 1, got: %d", cfg.RefundMaxAttempts))
	}
	if cfg.RefundBackoffInitial < 0 {
		errors = append(errors, fmt.Sprintf("RefundBackoffInitial cannot be negative, got: %s", cfg.RefundBackoffInitial))
	}
	if cfg.RefundBackoffMax < cfg.RefundBackoffInitial {
		errors = append(errors, fmt.Sprintf("RefundBackoffMax (%s) must be >= RefundBackoffInitial (%s)", cfg.RefundBackoffMax, cfg.RefundBackoffInitial))
	}

	if cfg.AuthRequired && cfg.JWTSecret == "" {
		errors = append(errors, "JWTSecret cannot be empty when AuthRequired is set")
	}
	if cfg.IdentityCacheSize <= 0 {
		errors = append(errors, fmt.Sprintf("IdentityCacheSize must be positive, got: %d", cfg.IdentityCacheSize))
	}
	if cfg.IdentityCacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdentityCacheTTL must be positive, got: %s", cfg.IdentityCacheTTL))
	}

	if cfg.EventsEnabled {
		if cfg.BookingEventsTopic == "" {
			errors = append(errors, "BookingEventsTopic cannot be empty when events are enabled")
		}
		if cfg.RefundTopic == "" {
			errors = append(errors, "RefundTopic cannot be empty when events are enabled")
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"idempotency_store_path", cfg.IdempotencyStorePath,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"omise_keys_set", cfg.OmisePublicKey != "" && cfg.OmiseSecretKey != "",
		"payment_currency", cfg.PaymentCurrency,
		"gateway_timeout", cfg.GatewayTimeout,
		"refund_max_attempts", cfg.RefundMaxAttempts,
		"refund_backoff_initial", cfg.RefundBackoffInitial,
		"refund_backoff_max", cfg.RefundBackoffMax,
		"jwt_secret_set", cfg.JWTSecret != "",
		"auth_required", cfg.AuthRequired,
		"identity_cache_size", cfg.IdentityCacheSize,
		"identity_cache_ttl", cfg.IdentityCacheTTL,
		"events_enabled", cfg.EventsEnabled,
		"booking_events_topic", cfg.BookingEventsTopic,
		"refund_topic", cfg.RefundTopic,
		"refund_dlq_topic", cfg.RefundDLQTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}
