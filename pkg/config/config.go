package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Escrow       EscrowConfig
	FeatureFlags FeatureFlagsConfig
	Idempotency  IdempotencyConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Escrow.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"UNEEDS_APP_ENV" required:"true"`
	Port         string `envconfig:"UNEEDS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"UNEEDS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"UNEEDS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"UNEEDS_DB_DSN"`
	Driver string `envconfig:"UNEEDS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"UNEEDS_DB_HOST"`
	LegacyPort     int    `envconfig:"UNEEDS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"UNEEDS_DB_USER"`
	LegacyPassword string `envconfig:"UNEEDS_DB_PASSWORD"`
	LegacyName     string `envconfig:"UNEEDS_DB_NAME"`
	LegacySSLMode  string `envconfig:"UNEEDS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"UNEEDS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"UNEEDS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"UNEEDS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"UNEEDS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"UNEEDS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"UNEEDS_REDIS_ADDR"`
	Password     string        `envconfig:"UNEEDS_REDIS_PASSWORD"`
	DB           int           `envconfig:"UNEEDS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"UNEEDS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"UNEEDS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"UNEEDS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"UNEEDS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"UNEEDS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig configures verification of access tokens minted by the campus
// identity provider. The backend never mints end-user tokens itself.
type JWTConfig struct {
	Secret string `envconfig:"UNEEDS_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"UNEEDS_JWT_ISSUER" required:"true"`
}

// EscrowConfig carries the marketplace fee policy and the platform revenue
// account credited with the 20% service-charge share.
type EscrowConfig struct {
	FeeRate           string `envconfig:"UNEEDS_ESCROW_FEE_RATE" default:"0.10"`
	HelperShare       string `envconfig:"UNEEDS_ESCROW_HELPER_SHARE" default:"0.80"`
	PlatformAccountID string `envconfig:"UNEEDS_ESCROW_PLATFORM_ACCOUNT_ID" required:"true"`
}

// FeeRateDecimal returns the validated service-charge rate.
func (e EscrowConfig) FeeRateDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(e.FeeRate)
	return d
}

// HelperShareDecimal returns the validated helper share of the service charge.
func (e EscrowConfig) HelperShareDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(e.HelperShare)
	return d
}

// PlatformAccountUUID returns the validated platform account id.
func (e EscrowConfig) PlatformAccountUUID() uuid.UUID {
	id, _ := uuid.Parse(e.PlatformAccountID)
	return id
}

func (e EscrowConfig) validate() error {
	rate, err := decimal.NewFromString(e.FeeRate)
	if err != nil {
		return fmt.Errorf("invalid escrow fee rate %q: %w", e.FeeRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("escrow fee rate %q out of range [0,1]", e.FeeRate)
	}
	share, err := decimal.NewFromString(e.HelperShare)
	if err != nil {
		return fmt.Errorf("invalid escrow helper share %q: %w", e.HelperShare, err)
	}
	if share.IsNegative() || share.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("escrow helper share %q out of range [0,1]", e.HelperShare)
	}
	if _, err := uuid.Parse(e.PlatformAccountID); err != nil {
		return fmt.Errorf("invalid escrow platform account id %q: %w", e.PlatformAccountID, err)
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"UNEEDS_AUTO_MIGRATE" default:"false"`
}

type IdempotencyConfig struct {
	DefaultTTL  time.Duration `envconfig:"UNEEDS_IDEMPOTENCY_DEFAULT_TTL" default:"24h"`
	CriticalTTL time.Duration `envconfig:"UNEEDS_IDEMPOTENCY_CRITICAL_TTL" default:"168h"`
}

func (db *DBConfig) ensureDSN() error {
	if strings.EqualFold(db.Driver, "sqlite") {
		if db.DSN == "" {
			return fmt.Errorf("%s is required when %s=sqlite", EnvDBDSN, EnvDBDriver)
		}
		return nil
	}
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
