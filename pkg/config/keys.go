package config

// EnvPrefix is handed to envconfig; every field carries an explicit key so the
// prefix only matters for untagged fields.
const EnvPrefix = "ZEPZEP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv           = "ZEPZEP_APP_ENV"
	EnvPort             = "ZEPZEP_APP_PORT"
	EnvDBDSN            = "ZEPZEP_DB_DSN"
	EnvDBHost           = "ZEPZEP_DB_HOST"
	EnvDBUser           = "ZEPZEP_DB_USER"
	EnvDBName           = "ZEPZEP_DB_NAME"
	EnvDBPassword       = "ZEPZEP_DB_PASSWORD"
	EnvUseSQLite        = "ZEPZEP_USE_SQLITE"
	EnvRedisURL         = "ZEPZEP_REDIS_URL"
	EnvJWTSecret        = "ZEPZEP_JWT_SECRET"
	EnvJWTIssuer        = "ZEPZEP_JWT_ISSUER"
	EnvOrderDeliveryFee = "ZEPZEP_ORDER_DELIVERY_FEE"
	EnvLedgerMaxCAS     = "ZEPZEP_LEDGER_MAX_CAS_ATTEMPTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
