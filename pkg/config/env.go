package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvAdminSecret = "ADMIN_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvPaymentGateway  = "PAYMENT_GATEWAY"
	EnvStripeSecretKey = "STRIPE_SECRET_KEY"
	EnvPaymentCurrency = "PAYMENT_CURRENCY"

	EnvCaptureGracePeriod      = "CAPTURE_GRACE_PERIOD"
	EnvTripTimezone            = "TRIP_TIMEZONE"
	EnvSweepTripConcurrency    = "SWEEP_TRIP_CONCURRENCY"
	EnvSweepCaptureConcurrency = "SWEEP_CAPTURE_CONCURRENCY"
	EnvSweepTimeout            = "SWEEP_TIMEOUT"

	EnvTripLockTTL        = "TRIP_LOCK_TTL"
	EnvTripLockAttempts   = "TRIP_LOCK_ATTEMPTS"
	EnvTripLockRetryDelay = "TRIP_LOCK_RETRY_DELAY"

	EnvKafkaEnabled       = "KAFKA_ENABLED"
	EnvNotifyTimeout      = "NOTIFY_TIMEOUT"
	EnvBookingEventsTopic = "BOOKING_EVENTS_TOPIC"
	EnvAdminAlertsTopic   = "ADMIN_ALERTS_TOPIC"
	EnvEventsDLQTopic     = "EVENTS_DLQ_TOPIC"
	EnvNotifierGroupID    = "NOTIFIER_GROUP_ID"
	EnvAdminEmail         = "ADMIN_EMAIL"

	EnvBookingsServiceURL = "BOOKINGS_SERVICE_URL"
)
