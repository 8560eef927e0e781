package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Orders        OrdersConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DULCEMOCKA_APP_ENV" default:"dev"`
	Port         string `envconfig:"DULCEMOCKA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"DULCEMOCKA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DULCEMOCKA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"DULCEMOCKA_DB_DSN" required:"true"`

	MaxOpenConns    int           `envconfig:"DULCEMOCKA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DULCEMOCKA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DULCEMOCKA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DULCEMOCKA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DULCEMOCKA_REDIS_URL"`
	Address      string        `envconfig:"DULCEMOCKA_REDIS_ADDR"`
	Password     string        `envconfig:"DULCEMOCKA_REDIS_PASSWORD"`
	DB           int           `envconfig:"DULCEMOCKA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DULCEMOCKA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DULCEMOCKA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DULCEMOCKA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DULCEMOCKA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DULCEMOCKA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"DULCEMOCKA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"DULCEMOCKA_JWT_ISSUER" default:"dulcemocka"`
	ExpirationMinutes      int    `envconfig:"DULCEMOCKA_JWT_EXPIRATION_MINUTES" default:"30"`
	RefreshTokenTTLMinutes int    `envconfig:"DULCEMOCKA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"DULCEMOCKA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DULCEMOCKA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DULCEMOCKA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DULCEMOCKA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DULCEMOCKA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"DULCEMOCKA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"DULCEMOCKA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"DULCEMOCKA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"DULCEMOCKA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"DULCEMOCKA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"DULCEMOCKA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type OrdersConfig struct {
	NumberPrefix string `envconfig:"DULCEMOCKA_ORDER_NUMBER_PREFIX" default:"DSM"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DULCEMOCKA_AUTO_MIGRATE" default:"false"`
}
