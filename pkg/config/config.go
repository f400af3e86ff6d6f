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
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	Ledger       LedgerConfig
	TrustScore   TrustScoreConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	HTTP         HTTPConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.Orders.Fee(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ZEPZEP_APP_ENV" required:"true"`
	Port         string `envconfig:"ZEPZEP_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"ZEPZEP_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"ZEPZEP_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"ZEPZEP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ZEPZEP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ZEPZEP_DB_DSN"`
	Driver string `envconfig:"ZEPZEP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZEPZEP_DB_HOST"`
	LegacyPort     int    `envconfig:"ZEPZEP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZEPZEP_DB_USER"`
	LegacyPassword string `envconfig:"ZEPZEP_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZEPZEP_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZEPZEP_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"ZEPZEP_SQLITE_PATH" default:"zepzep.db"`

	MaxOpenConns    int           `envconfig:"ZEPZEP_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"ZEPZEP_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"ZEPZEP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZEPZEP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional: without a URL or address the API runs without
// idempotency replay and the cron worker refuses to start.
type RedisConfig struct {
	URL          string        `envconfig:"ZEPZEP_REDIS_URL"`
	Address      string        `envconfig:"ZEPZEP_REDIS_ADDR"`
	Password     string        `envconfig:"ZEPZEP_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZEPZEP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZEPZEP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZEPZEP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZEPZEP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZEPZEP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZEPZEP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"ZEPZEP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ZEPZEP_JWT_ISSUER" default:"zepzep"`
	ExpirationMinutes int    `envconfig:"ZEPZEP_JWT_EXPIRATION_MINUTES" default:"10080"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ZEPZEP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ZEPZEP_AUTO_MIGRATE" default:"false"`
}

type OrdersConfig struct {
	DeliveryFee       string        `envconfig:"ZEPZEP_ORDER_DELIVERY_FEE" default:"20"`
	PlacementTimeout  time.Duration `envconfig:"ZEPZEP_ORDER_PLACEMENT_TIMEOUT" default:"10s"`
	EstimatedDelivery string        `envconfig:"ZEPZEP_ORDER_ESTIMATED_DELIVERY" default:"25-40 minutes"`
}

// Fee parses the configured delivery fee. Negative fees are rejected.
func (o OrdersConfig) Fee() (decimal.Decimal, error) {
	raw := strings.TrimSpace(o.DeliveryFee)
	if raw == "" {
		return decimal.Zero, nil
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", EnvOrderDeliveryFee, raw, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", EnvOrderDeliveryFee)
	}
	return fee, nil
}

type LedgerConfig struct {
	MaxCASAttempts int `envconfig:"ZEPZEP_LEDGER_MAX_CAS_ATTEMPTS" default:"3"`
}

type TrustScoreConfig struct {
	RefreshInterval time.Duration `envconfig:"ZEPZEP_TRUST_SCORE_REFRESH_INTERVAL" default:"24h"`
	RefreshBatch    int           `envconfig:"ZEPZEP_TRUST_SCORE_REFRESH_BATCH" default:"200"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"ZEPZEP_GCP_PROJECT_ID"`
}

// PubSubConfig names the topics outbox events are published to. Blank
// loyalty or users topics fall back to the orders topic.
type PubSubConfig struct {
	OrdersTopic  string `envconfig:"ZEPZEP_PUBSUB_ORDERS_TOPIC" default:"zepzep-order-events"`
	LoyaltyTopic string `envconfig:"ZEPZEP_PUBSUB_LOYALTY_TOPIC"`
	UsersTopic   string `envconfig:"ZEPZEP_PUBSUB_USERS_TOPIC"`
}

type OutboxConfig struct {
	BatchSize        int `envconfig:"ZEPZEP_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS   int `envconfig:"ZEPZEP_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts      int `envconfig:"ZEPZEP_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays    int `envconfig:"ZEPZEP_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays int `envconfig:"ZEPZEP_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
}

type HTTPConfig struct {
	CORSOrigins      []string      `envconfig:"ZEPZEP_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ReadTimeout      time.Duration `envconfig:"ZEPZEP_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout     time.Duration `envconfig:"ZEPZEP_HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout  time.Duration `envconfig:"ZEPZEP_HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
	OrderRateLimit   int           `envconfig:"ZEPZEP_ORDER_RATE_LIMIT" default:"30"`
	OrderRateWindow  time.Duration `envconfig:"ZEPZEP_ORDER_RATE_WINDOW" default:"1m"`
	RedeemRateLimit  int           `envconfig:"ZEPZEP_REDEEM_RATE_LIMIT" default:"10"`
	RedeemRateWindow time.Duration `envconfig:"ZEPZEP_REDEEM_RATE_WINDOW" default:"1m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
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
