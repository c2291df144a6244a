package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "tripshare"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	GatewayStripe = "stripe"
	GatewayMock   = "mock"

	DefaultPaymentGateway  = GatewayMock
	DefaultPaymentCurrency = "usd"

	DefaultCaptureGracePeriod      = 24 * time.Hour
	DefaultTripTimezone            = "UTC"
	DefaultSweepTripConcurrency    = 4
	DefaultSweepCaptureConcurrency = 4
	DefaultSweepTimeout            = 5 * time.Minute

	DefaultTripLockTTL        = 30 * time.Second
	DefaultTripLockAttempts   = 5
	DefaultTripLockRetryDelay = 100 * time.Millisecond

	DefaultKafkaEnabled       = false
	DefaultNotifyTimeout      = 2 * time.Second
	DefaultBookingEventsTopic = "booking-events"
	DefaultAdminAlertsTopic   = "booking-admin-alerts"
	DefaultEventsDLQTopic     = "booking-events-dlq"
	DefaultNotifierGroupID    = "tripshare-notifier"
	DefaultAdminEmail         = "ops@tripshare.local"

	DefaultBookingsServiceURL = "http://localhost:8080"
)
