package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "AGRONOND"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "AGRONOND_APP_ENV"
	EnvDBDSN  = "AGRONOND_DB_DSN"
	EnvDBHost = "AGRONOND_DB_HOST"
	EnvDBUser = "AGRONOND_DB_USER"
	EnvDBName = "AGRONOND_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	OTP           OTPConfig
	AuthRateLimit AuthRateLimitConfig
	Commission    CommissionConfig
	Features      FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Commission.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"AGRONOND_APP_ENV" required:"true"`
	Port         string `envconfig:"AGRONOND_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"AGRONOND_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"AGRONOND_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"AGRONOND_DB_DSN"`
	Driver string `envconfig:"AGRONOND_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"AGRONOND_DB_HOST"`
	LegacyPort     int    `envconfig:"AGRONOND_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"AGRONOND_DB_USER"`
	LegacyPassword string `envconfig:"AGRONOND_DB_PASSWORD"`
	LegacyName     string `envconfig:"AGRONOND_DB_NAME"`
	LegacySSLMode  string `envconfig:"AGRONOND_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"AGRONOND_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"AGRONOND_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"AGRONOND_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"AGRONOND_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"AGRONOND_REDIS_URL" required:"true"`
	Address      string        `envconfig:"AGRONOND_REDIS_ADDR"`
	Password     string        `envconfig:"AGRONOND_REDIS_PASSWORD"`
	DB           int           `envconfig:"AGRONOND_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"AGRONOND_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"AGRONOND_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"AGRONOND_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"AGRONOND_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"AGRONOND_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"AGRONOND_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"AGRONOND_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"AGRONOND_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"AGRONOND_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the server-side session lifetime.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"AGRONOND_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"AGRONOND_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"AGRONOND_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"AGRONOND_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"AGRONOND_ARGON_KEY_LEN" default:"32"`
}

type OTPConfig struct {
	TTL            time.Duration `envconfig:"AGRONOND_OTP_TTL" default:"5m"`
	Digits         int           `envconfig:"AGRONOND_OTP_DIGITS" default:"6"`
	RequestWindow  time.Duration `envconfig:"AGRONOND_OTP_RATE_WINDOW" default:"1m"`
	PerPhoneLimit  int           `envconfig:"AGRONOND_OTP_PHONE_LIMIT" default:"3"`
	PerIPLimit     int           `envconfig:"AGRONOND_OTP_IP_LIMIT" default:"20"`
	MaxVerifyTries int           `envconfig:"AGRONOND_OTP_MAX_VERIFY_TRIES" default:"5"`
}

// AuthRateLimitConfig throttles the staff login surface at the edge.
// OTP request limits live in OTPConfig and are enforced in the auth
// service itself.
type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"AGRONOND_LOGIN_RATE_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"AGRONOND_LOGIN_IP_LIMIT" default:"20"`
	LoginPhoneLimit int           `envconfig:"AGRONOND_LOGIN_PHONE_LIMIT" default:"5"`
}

// CommissionConfig carries the market's current commission percentages.
// These feed new computations only; historical records keep the rates
// snapshotted at sale time.
type CommissionConfig struct {
	FarmerRate string `envconfig:"AGRONOND_COMMISSION_FARMER_RATE" default:"0.04"`
	TraderRate string `envconfig:"AGRONOND_COMMISSION_TRADER_RATE" default:"0.09"`
}

func (c CommissionConfig) validate() error {
	if _, err := decimal.NewFromString(c.FarmerRate); err != nil {
		return fmt.Errorf("invalid farmer commission rate %q: %w", c.FarmerRate, err)
	}
	if _, err := decimal.NewFromString(c.TraderRate); err != nil {
		return fmt.Errorf("invalid trader commission rate %q: %w", c.TraderRate, err)
	}
	return nil
}

// FarmerRateDecimal parses the configured farmer rate. Load validated it.
func (c CommissionConfig) FarmerRateDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(c.FarmerRate)
	return d
}

// TraderRateDecimal parses the configured trader rate. Load validated it.
func (c CommissionConfig) TraderRateDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(c.TraderRate)
	return d
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AGRONOND_AUTO_MIGRATE" default:"false"`
	// ExposeOTP returns the generated code in the response body so dev
	// environments without an SMS gateway can complete login.
	ExposeOTP bool `envconfig:"AGRONOND_EXPOSE_OTP" default:"false"`
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
