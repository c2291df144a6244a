package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
	"tripshare/pkg/client"
	"tripshare/pkg/logger"
)

const (
	minAdminSecretLength = 16

	sweepResponseMargin = 30 * time.Second
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	AdminSecret string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	PaymentGateway  string
	StripeSecretKey string
	PaymentCurrency string

	CaptureGracePeriod      time.Duration
	TripTimezone            string
	TripLocation            *time.Location
	SweepTripConcurrency    int
	SweepCaptureConcurrency int
	SweepTimeout            time.Duration

	TripLockTTL        time.Duration
	TripLockAttempts   int
	TripLockRetryDelay time.Duration

	KafkaEnabled       bool
	NotifyTimeout      time.Duration
	BookingEventsTopic string
	AdminAlertsTopic   string
	EventsDLQTopic     string
	NotifierGroupID    string
	AdminEmail         string

	BookingsServiceURL string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		AdminSecret: getEnvStr(EnvAdminSecret, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		PaymentGateway:  getEnvStr(EnvPaymentGateway, DefaultPaymentGateway),
		StripeSecretKey: getEnvStr(EnvStripeSecretKey, ""),
		PaymentCurrency: getEnvStr(EnvPaymentCurrency, DefaultPaymentCurrency),

		CaptureGracePeriod:      getEnvDuration(EnvCaptureGracePeriod, DefaultCaptureGracePeriod),
		TripTimezone:            getEnvStr(EnvTripTimezone, DefaultTripTimezone),
		SweepTripConcurrency:    getEnvNum(EnvSweepTripConcurrency, DefaultSweepTripConcurrency),
		SweepCaptureConcurrency: getEnvNum(EnvSweepCaptureConcurrency, DefaultSweepCaptureConcurrency),
		SweepTimeout:            getEnvDuration(EnvSweepTimeout, DefaultSweepTimeout),

		TripLockTTL:        getEnvDuration(EnvTripLockTTL, DefaultTripLockTTL),
		TripLockAttempts:   getEnvNum(EnvTripLockAttempts, DefaultTripLockAttempts),
		TripLockRetryDelay: getEnvDuration(EnvTripLockRetryDelay, DefaultTripLockRetryDelay),

		KafkaEnabled:       getEnvBool(EnvKafkaEnabled, DefaultKafkaEnabled),
		NotifyTimeout:      getEnvDuration(EnvNotifyTimeout, DefaultNotifyTimeout),
		BookingEventsTopic: getEnvStr(EnvBookingEventsTopic, DefaultBookingEventsTopic),
		AdminAlertsTopic:   getEnvStr(EnvAdminAlertsTopic, DefaultAdminAlertsTopic),
		EventsDLQTopic:     getEnvStr(EnvEventsDLQTopic, DefaultEventsDLQTopic),
		NotifierGroupID:    getEnvStr(EnvNotifierGroupID, DefaultNotifierGroupID),
		AdminEmail:         getEnvStr(EnvAdminEmail, DefaultAdminEmail),

		BookingsServiceURL: getEnvStr(EnvBookingsServiceURL, DefaultBookingsServiceURL),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if loc, err := time.LoadLocation(cfg.TripTimezone); err == nil {
		cfg.TripLocation = loc
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

	if cfg.AdminSecret != "" && len(cfg.AdminSecret) < minAdminSecretLength {
		errors = append(errors, fmt.Sprintf("AdminSecret must be at least %d characters", minAdminSecretLength))
	}

	switch cfg.PaymentGateway {
	case GatewayStripe:
		if cfg.StripeSecretKey == "" {
			errors = append(errors, "StripeSecretKey is required when PaymentGateway is 'stripe'")
		}
	case GatewayMock:
	default:
		errors = append(errors, fmt.Sprintf("PaymentGateway must be one of [stripe, mock], got: %s", cfg.PaymentGateway))
	}
	if !regexp.MustCompile(`^[a-z]{3}$`).MatchString(cfg.PaymentCurrency) {
		errors = append(errors, fmt.Sprintf("PaymentCurrency must be a lowercase ISO 4217 code, got: %s", cfg.PaymentCurrency))
	}

	if cfg.TripLocation == nil {
		errors = append(errors, fmt.Sprintf("TripTimezone must be a valid IANA time zone, got: %s", cfg.TripTimezone))
	}

	positiveDurations := []struct {
		name  string
		value time.Duration
	}{
		{"MongoConnTimeout", cfg.MongoConnTimeout},
		{"RateLimitWindow", cfg.RateLimitWindow},
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"CaptureGracePeriod", cfg.CaptureGracePeriod},
		{"SweepTimeout", cfg.SweepTimeout},
		{"TripLockTTL", cfg.TripLockTTL},
		{"TripLockRetryDelay", cfg.TripLockRetryDelay},
		{"NotifyTimeout", cfg.NotifyTimeout},
	}
	for _, d := range positiveDurations {
		if d.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", d.name, d.value))
		}
	}

	positiveNumbers := []struct {
		name  string
		value int
	}{
		{"RateLimitRequests", cfg.RateLimitRequests},
		{"MaxRequestSize", cfg.MaxRequestSize},
		{"SweepTripConcurrency", cfg.SweepTripConcurrency},
		{"SweepCaptureConcurrency", cfg.SweepCaptureConcurrency},
		{"TripLockAttempts", cfg.TripLockAttempts},
	}
	for _, n := range positiveNumbers {
		if n.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %d", n.name, n.value))
		}
	}

	if cfg.KafkaEnabled && (cfg.BookingEventsTopic == "" || cfg.AdminAlertsTopic == "") {
		errors = append(errors, "BookingEventsTopic and AdminAlertsTopic are required when Kafka is enabled")
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

// RequireAdminSecret fails startup of the services that guard admin
// operations when no secret is configured.
func (cfg *Config) RequireAdminSecret() {
	if cfg.AdminSecret == "" {
		cfg.Log.Fatal("Configuration validation failed", "error", EnvAdminSecret+" must be set")
	}
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"admin_secret_set", cfg.AdminSecret != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"payment_gateway", cfg.PaymentGateway,
		"stripe_key_set", cfg.StripeSecretKey != "",
		"payment_currency", cfg.PaymentCurrency,
		"capture_grace_period", cfg.CaptureGracePeriod,
		"trip_timezone", cfg.TripTimezone,
		"sweep_trip_concurrency", cfg.SweepTripConcurrency,
		"sweep_capture_concurrency", cfg.SweepCaptureConcurrency,
		"sweep_timeout", cfg.SweepTimeout,
		"trip_lock_ttl", cfg.TripLockTTL,
		"trip_lock_attempts", cfg.TripLockAttempts,
		"trip_lock_retry_delay", cfg.TripLockRetryDelay,
		"kafka_enabled", cfg.KafkaEnabled,
		"notify_timeout", cfg.NotifyTimeout,
		"booking_events_topic", cfg.BookingEventsTopic,
		"admin_alerts_topic", cfg.AdminAlertsTopic,
		"bookings_service_url", cfg.BookingsServiceURL,
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
	cfg.Client.GracefulShutdown(cfg.Log)
}

// SweepRequestTimeout bounds one auto-capture call end to end. It leaves
// room past SweepTimeout for the report to be written and read.
func (cfg *Config) SweepRequestTimeout() time.Duration {
	return cfg.SweepTimeout + sweepResponseMargin
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
