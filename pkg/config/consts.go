package config

const EnvPrefix = "BIDHAUS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "BIDHAUS_APP_ENV"
	EnvPort     = "BIDHAUS_APP_PORT"
	EnvLogLevel = "BIDHAUS_LOG_LEVEL"

	EnvDBDSN      = "BIDHAUS_DB_DSN"
	EnvDBHost     = "BIDHAUS_DB_HOST"
	EnvDBPort     = "BIDHAUS_DB_PORT"
	EnvDBUser     = "BIDHAUS_DB_USER"
	EnvDBPassword = "BIDHAUS_DB_PASSWORD"
	EnvDBName     = "BIDHAUS_DB_NAME"
	EnvDBSSLMode  = "BIDHAUS_DB_SSLMODE"

	EnvRedisURL = "BIDHAUS_REDIS_URL"

	EnvJWTSecret  = "BIDHAUS_JWT_SECRET"
	EnvJWTIssuer  = "BIDHAUS_JWT_ISSUER"
	EnvJWTExpMins = "BIDHAUS_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "BIDHAUS_GCP_PROJECT_ID"

	EnvPubSubAuctionTopic      = "BIDHAUS_PUBSUB_AUCTION_TOPIC"
	EnvPubSubAuctionSub        = "BIDHAUS_PUBSUB_AUCTION_SUBSCRIPTION"
	EnvPubSubNotificationTopic = "BIDHAUS_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubNotificationSub   = "BIDHAUS_PUBSUB_NOTIFICATION_SUBSCRIPTION"

	EnvAntiSnipeWindow = "BIDHAUS_AUCTION_ANTI_SNIPE_WINDOW"
	EnvMaxExtension    = "BIDHAUS_AUCTION_MAX_EXTENSION"
	EnvClockSweepEvery = "BIDHAUS_CLOCK_SWEEP_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
