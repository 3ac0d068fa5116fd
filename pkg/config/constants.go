package config

// EnvPrefix is the envconfig prefix shared by every binary.
const EnvPrefix = "WORKSHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "WORKSHOP_APP_ENV"
	EnvPort       = "WORKSHOP_APP_PORT"
	EnvDBDSN      = "WORKSHOP_DB_DSN"
	EnvDBHost     = "WORKSHOP_DB_HOST"
	EnvDBUser     = "WORKSHOP_DB_USER"
	EnvDBName     = "WORKSHOP_DB_NAME"
	EnvRedisURL   = "WORKSHOP_REDIS_URL"
	EnvJWTSecret  = "WORKSHOP_JWT_SECRET"
	EnvJWTIssuer  = "WORKSHOP_JWT_ISSUER"
	EnvJWTExpMins = "WORKSHOP_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
