package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "SHOPSTREAM"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SHOPSTREAM_DB_DSN"
	EnvDBHost = "SHOPSTREAM_DB_HOST"
	EnvDBUser = "SHOPSTREAM_DB_USER"
	EnvDBName = "SHOPSTREAM_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Analytics     AnalyticsConfig
	Cron          CronConfig
	Payments      PaymentsConfig
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
	Env          string `envconfig:"SHOPSTREAM_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPSTREAM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPSTREAM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPSTREAM_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPSTREAM_DB_DSN"`
	Driver string `envconfig:"SHOPSTREAM_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPSTREAM_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPSTREAM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPSTREAM_DB_USER"`
	LegacyPassword string `envconfig:"SHOPSTREAM_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPSTREAM_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPSTREAM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPSTREAM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPSTREAM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPSTREAM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPSTREAM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPSTREAM_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPSTREAM_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPSTREAM_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPSTREAM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPSTREAM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPSTREAM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPSTREAM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPSTREAM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPSTREAM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPSTREAM_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPSTREAM_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHOPSTREAM_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// Expiration returns the configured access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPSTREAM_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPSTREAM_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPSTREAM_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPSTREAM_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPSTREAM_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"SHOPSTREAM_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"SHOPSTREAM_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"SHOPSTREAM_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	SignupWindow     time.Duration `envconfig:"SHOPSTREAM_AUTH_RATE_LIMIT_SIGNUP_WINDOW" default:"5m"`
	SignupEmailLimit int           `envconfig:"SHOPSTREAM_AUTH_RATE_LIMIT_SIGNUP_EMAIL_LIMIT" default:"3"`
	SignupIPLimit    int           `envconfig:"SHOPSTREAM_AUTH_RATE_LIMIT_SIGNUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPSTREAM_AUTO_MIGRATE" default:"false"`
}

type AnalyticsConfig struct {
	SessionWindow time.Duration `envconfig:"SHOPSTREAM_ANALYTICS_SESSION_WINDOW" default:"1h"`
	PruneInterval time.Duration `envconfig:"SHOPSTREAM_ANALYTICS_PRUNE_INTERVAL" default:"30m"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"SHOPSTREAM_CRON_INTERVAL" default:"30m"`
	LockKey           string        `envconfig:"SHOPSTREAM_CRON_LOCK_KEY" default:"cron:leader"`
	LockTTL           time.Duration `envconfig:"SHOPSTREAM_CRON_LOCK_TTL" default:"45m"`
	ActivityRetention time.Duration `envconfig:"SHOPSTREAM_CRON_ACTIVITY_RETENTION" default:"2160h"`
}

type PaymentsConfig struct {
	MerchantName  string `envconfig:"SHOPSTREAM_PAYMENTS_MERCHANT_NAME" default:"ShopStream"`
	UPIID         string `envconfig:"SHOPSTREAM_PAYMENTS_UPI_ID"`
	SigningSecret string `envconfig:"SHOPSTREAM_PAYMENTS_SIGNING_SECRET"`
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
