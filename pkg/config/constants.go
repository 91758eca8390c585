package config

const EnvPrefix = "RELEASEDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
)

const (
	EnvAppEnv             = "RELEASEDESK_APP_ENV"
	EnvPort               = "RELEASEDESK_APP_PORT"
	EnvLogLevel           = "RELEASEDESK_LOG_LEVEL"
	EnvCORSOrigins        = "RELEASEDESK_CORS_ORIGINS"
	EnvStoreDriver        = "RELEASEDESK_STORE_DRIVER"
	EnvSQLiteDSN          = "RELEASEDESK_SQLITE_DSN"
	EnvRedisURL           = "RELEASEDESK_REDIS_URL"
	EnvISRCCountryCode    = "RELEASEDESK_ISRC_COUNTRY_CODE"
	EnvISRCRegistrantCode = "RELEASEDESK_ISRC_REGISTRANT_CODE"
	EnvIntakeMaxAudioMB   = "RELEASEDESK_INTAKE_MAX_AUDIO_MB"
	EnvIntakeMinArtworkPx = "RELEASEDESK_INTAKE_MIN_ARTWORK_PX"
	EnvIntakeProbeTimeout = "RELEASEDESK_INTAKE_PROBE_TIMEOUT"
	EnvWizardSessionTTL   = "RELEASEDESK_WIZARD_SESSION_TTL"
	EnvExportTimezone     = "RELEASEDESK_EXPORT_TIMEZONE"
)
