package config

// EnvPrefix is empty because every field carries an explicit FESTPAY_ envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv = "FESTPAY_APP_ENV"
	EnvDBDSN  = "FESTPAY_DB_DSN"
	EnvDBHost = "FESTPAY_DB_HOST"
	EnvDBUser = "FESTPAY_DB_USER"
	EnvDBName = "FESTPAY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
