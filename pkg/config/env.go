package config

// Environment variable names shared by Load and the tests.
const (
	EnvPrefix = "SHOPFRONT"

	EnvAppEnv       = "SHOPFRONT_APP_ENV"
	EnvLogLevel     = "SHOPFRONT_LOG_LEVEL"
	EnvStoreBaseURL = "SHOPFRONT_STORE_BASE_URL"
	EnvStoreTimeout = "SHOPFRONT_STORE_TIMEOUT"
	EnvUserKeyParam = "SHOPFRONT_USER_KEY_PARAM"
	EnvUserKey      = "SHOPFRONT_USER_KEY"
	EnvStubPort     = "SHOPFRONT_STUB_PORT"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
