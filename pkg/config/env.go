package config

const (
	EnvFile = "ENV_FILE"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvStoreBackend      = "STORE_BACKEND"
	EnvStrictPersistence = "STRICT_PERSISTENCE"

	EnvCatalogSpacesFile     = "CATALOG_SPACES_FILE"
	EnvCatalogRequestersFile = "CATALOG_REQUESTERS_FILE"

	EnvTimezone           = "TIMEZONE"
	EnvCompletionInterval = "COMPLETION_INTERVAL"

	EnvEventsEnabled   = "EVENTS_ENABLED"
	EnvEventsTopic     = "EVENTS_TOPIC"
	EnvEventsDLQTopic  = "EVENTS_DLQ_TOPIC"
	EnvCommandsEnabled = "COMMANDS_ENABLED"
	EnvCommandsTopic   = "COMMANDS_TOPIC"
	EnvCommandsDLQ     = "COMMANDS_DLQ_TOPIC"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvRateLimitBurst    = "RATE_LIMIT_BURST"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
