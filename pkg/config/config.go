package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Dispatch      DispatchConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FESTPAY_APP_ENV" required:"true"`
	Port         string `envconfig:"FESTPAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FESTPAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FESTPAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FESTPAY_DB_DSN"`
	Driver string `envconfig:"FESTPAY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FESTPAY_DB_HOST"`
	LegacyPort     int    `envconfig:"FESTPAY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FESTPAY_DB_USER"`
	LegacyPassword string `envconfig:"FESTPAY_DB_PASSWORD"`
	LegacyName     string `envconfig:"FESTPAY_DB_NAME"`
	LegacySSLMode  string `envconfig:"FESTPAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FESTPAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FESTPAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FESTPAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FESTPAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FESTPAY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FESTPAY_REDIS_ADDR"`
	Password     string        `envconfig:"FESTPAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"FESTPAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FESTPAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FESTPAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FESTPAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FESTPAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FESTPAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FESTPAY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FESTPAY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FESTPAY_JWT_EXPIRATION_MINUTES" required:"true"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FESTPAY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FESTPAY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FESTPAY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FESTPAY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FESTPAY_ARGON_KEY_LEN" default:"32"`

	PinLength          int `envconfig:"FESTPAY_WALLET_PIN_LENGTH" default:"4"`
	TempPasswordLength int `envconfig:"FESTPAY_TEMP_PASSWORD_LENGTH" default:"10"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FESTPAY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentityLimit int           `envconfig:"FESTPAY_AUTH_RATE_LIMIT_LOGIN_IDENTITY_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FESTPAY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type DispatchConfig struct {
	SubscriberBuffer int           `envconfig:"FESTPAY_DISPATCH_SUBSCRIBER_BUFFER" default:"32"`
	StreamHeartbeat  time.Duration `envconfig:"FESTPAY_DISPATCH_STREAM_HEARTBEAT" default:"25s"`
	PublishTimeout   time.Duration `envconfig:"FESTPAY_DISPATCH_PUBLISH_TIMEOUT" default:"50ms"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FESTPAY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
