package config

import "time"

const (
	StoreBackendMongo  = "mongo"
	StoreBackendMemory = "memory"
)

const (
	DefaultEnvFile = ".env"

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "reservatec"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultStoreBackend      = StoreBackendMongo
	DefaultStrictPersistence = false

	DefaultCatalogSpacesFile     = "data/spaces.json"
	DefaultCatalogRequestersFile = "data/requesters.json"

	DefaultTimezone           = "UTC"
	DefaultCompletionInterval = 1 * time.Minute

	DefaultEventsEnabled   = false
	DefaultEventsTopic     = "reservations.events"
	DefaultEventsDLQTopic  = "reservations.events.dlq"
	DefaultCommandsEnabled = false
	DefaultCommandsTopic   = "reservations.commands"
	DefaultCommandsDLQ     = "reservations.commands.dlq"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute
	DefaultRateLimitBurst    = 10

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
	MinPaginationLimit     = 10
)
