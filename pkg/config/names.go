package config

// EnvPrefix is passed to envconfig; individual fields carry explicit names so
// the prefix only matters for fields without tags.
const EnvPrefix = "BIRRFLOW"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags.
const (
	EnvAppEnv                 = "BIRRFLOW_APP_ENV"
	EnvPort                   = "BIRRFLOW_APP_PORT"
	EnvDBDSN                  = "BIRRFLOW_DB_DSN"
	EnvDBHost                 = "BIRRFLOW_DB_HOST"
	EnvDBUser                 = "BIRRFLOW_DB_USER"
	EnvDBName                 = "BIRRFLOW_DB_NAME"
	EnvRedisURL               = "BIRRFLOW_REDIS_URL"
	EnvJWTSecret              = "BIRRFLOW_JWT_SECRET"
	EnvJWTIssuer              = "BIRRFLOW_JWT_ISSUER"
	EnvJWTExpMins             = "BIRRFLOW_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "BIRRFLOW_REFRESH_TOKEN_TTL_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
