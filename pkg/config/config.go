package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Ledger        LedgerConfig
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
	if err := cfg.Ledger.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BIRRFLOW_APP_ENV" required:"true"`
	Port         string `envconfig:"BIRRFLOW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BIRRFLOW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BIRRFLOW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BIRRFLOW_DB_DSN"`
	Driver string `envconfig:"BIRRFLOW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BIRRFLOW_DB_HOST"`
	LegacyPort     int    `envconfig:"BIRRFLOW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BIRRFLOW_DB_USER"`
	LegacyPassword string `envconfig:"BIRRFLOW_DB_PASSWORD"`
	LegacyName     string `envconfig:"BIRRFLOW_DB_NAME"`
	LegacySSLMode  string `envconfig:"BIRRFLOW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BIRRFLOW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BIRRFLOW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BIRRFLOW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BIRRFLOW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BIRRFLOW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BIRRFLOW_REDIS_ADDR"`
	Password     string        `envconfig:"BIRRFLOW_REDIS_PASSWORD"`
	DB           int           `envconfig:"BIRRFLOW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BIRRFLOW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BIRRFLOW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BIRRFLOW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BIRRFLOW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BIRRFLOW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BIRRFLOW_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BIRRFLOW_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BIRRFLOW_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"BIRRFLOW_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BIRRFLOW_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BIRRFLOW_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BIRRFLOW_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BIRRFLOW_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BIRRFLOW_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"BIRRFLOW_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"BIRRFLOW_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"BIRRFLOW_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// LedgerConfig tunes wallet provisioning and the transfer engine.
type LedgerConfig struct {
	InitialBalance     string `envconfig:"BIRRFLOW_LEDGER_INITIAL_BALANCE" default:"1000.00"`
	DefaultCurrency    string `envconfig:"BIRRFLOW_LEDGER_DEFAULT_CURRENCY" default:"ETB"`
	ReferenceAttempts  int    `envconfig:"BIRRFLOW_LEDGER_REFERENCE_ATTEMPTS" default:"5"`
	TransientAttempts  int    `envconfig:"BIRRFLOW_LEDGER_TRANSIENT_ATTEMPTS" default:"3"`
	TransientBackoffMS int    `envconfig:"BIRRFLOW_LEDGER_TRANSIENT_BACKOFF_MS" default:"25"`
}

// InitialBalanceDecimal parses the configured starting balance.
func (l LedgerConfig) InitialBalanceDecimal() (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(l.InitialBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing initial balance %q: %w", l.InitialBalance, err)
	}
	return amount, nil
}

// TransientBackoff returns the base backoff between transient retries.
func (l LedgerConfig) TransientBackoff() time.Duration {
	if l.TransientBackoffMS <= 0 {
		return 0
	}
	return time.Duration(l.TransientBackoffMS) * time.Millisecond
}

func (l LedgerConfig) validate() error {
	amount, err := l.InitialBalanceDecimal()
	if err != nil {
		return err
	}
	if amount.IsNegative() {
		return fmt.Errorf("initial balance must not be negative")
	}
	if n := len(l.DefaultCurrency); n == 0 || n > 3 {
		return fmt.Errorf("default currency must be 1-3 characters")
	}
	if l.ReferenceAttempts <= 0 {
		return fmt.Errorf("reference attempts must be positive")
	}
	if l.TransientAttempts <= 0 {
		return fmt.Errorf("transient attempts must be positive")
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BIRRFLOW_AUTO_MIGRATE" default:"false"`
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
