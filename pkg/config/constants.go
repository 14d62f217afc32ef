package config

const EnvPrefix = "SHOPLY"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv            = "SHOPLY_APP_ENV"
	EnvPort              = "SHOPLY_APP_PORT"
	EnvDBDSN             = "SHOPLY_DB_DSN"
	EnvDBHost            = "SHOPLY_DB_HOST"
	EnvDBUser            = "SHOPLY_DB_USER"
	EnvDBName            = "SHOPLY_DB_NAME"
	EnvRedisURL          = "SHOPLY_REDIS_URL"
	EnvJWTAccessSecret   = "SHOPLY_JWT_ACCESS_SECRET"
	EnvJWTRefreshSecret  = "SHOPLY_JWT_REFRESH_SECRET"
	EnvJWTIssuer         = "SHOPLY_JWT_ISSUER"
	EnvJWTAccessTTLMins  = "SHOPLY_JWT_ACCESS_TTL_MINUTES"
	EnvJWTRefreshTTLMins = "SHOPLY_JWT_REFRESH_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
