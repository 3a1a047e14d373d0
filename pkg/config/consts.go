package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "UNEEDS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN    = "UNEEDS_DB_DSN"
	EnvDBDriver = "UNEEDS_DB_DRIVER"
	EnvDBHost   = "UNEEDS_DB_HOST"
	EnvDBUser   = "UNEEDS_DB_USER"
	EnvDBName   = "UNEEDS_DB_NAME"
)

const (
	EnvAppEnv                = "UNEEDS_APP_ENV"
	EnvPort                  = "UNEEDS_APP_PORT"
	EnvRedisURL              = "UNEEDS_REDIS_URL"
	EnvJWTSecret             = "UNEEDS_JWT_SECRET"
	EnvJWTIssuer             = "UNEEDS_JWT_ISSUER"
	EnvEscrowFeeRate         = "UNEEDS_ESCROW_FEE_RATE"
	EnvEscrowHelperShare     = "UNEEDS_ESCROW_HELPER_SHARE"
	EnvEscrowPlatformAccount = "UNEEDS_ESCROW_PLATFORM_ACCOUNT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
