package config

import (
	"fmt"
	"net/url"
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
	FeatureFlags  FeatureFlagsConfig
	GCS           GCSConfig
	Media         MediaConfig
	Import        ImportConfig
	Export        ExportConfig
	Orders        OrdersConfig
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
	Env          string `envconfig:"TRAITEUR_APP_ENV" required:"true"`
	Port         string `envconfig:"TRAITEUR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRAITEUR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRAITEUR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TRAITEUR_DB_DSN"`
	Driver string `envconfig:"TRAITEUR_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TRAITEUR_DB_HOST"`
	Port     int    `envconfig:"TRAITEUR_DB_PORT" default:"5432"`
	User     string `envconfig:"TRAITEUR_DB_USER"`
	Password string `envconfig:"TRAITEUR_DB_PASSWORD"`
	Name     string `envconfig:"TRAITEUR_DB_NAME"`
	SSLMode  string `envconfig:"TRAITEUR_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRAITEUR_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRAITEUR_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRAITEUR_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRAITEUR_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if strings.EqualFold(d.Driver, "sqlite") {
		// sqlite runs off a file path; an empty DSN means in-memory.
		d.DSN = "file::memory:?cache=shared"
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("database DSN or host/user/name settings are required")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User),
		url.QueryEscape(d.Password),
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"TRAITEUR_REDIS_URL"`
	Address      string        `envconfig:"TRAITEUR_REDIS_ADDR"`
	Password     string        `envconfig:"TRAITEUR_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRAITEUR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRAITEUR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRAITEUR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRAITEUR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRAITEUR_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRAITEUR_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TRAITEUR_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRAITEUR_JWT_ISSUER" default:"traiteur-backend"`
	ExpirationMinutes int    `envconfig:"TRAITEUR_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TRAITEUR_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TRAITEUR_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TRAITEUR_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TRAITEUR_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TRAITEUR_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"TRAITEUR_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"TRAITEUR_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"TRAITEUR_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TRAITEUR_AUTO_MIGRATE" default:"false"`
}

type GCSConfig struct {
	BucketName      string `envconfig:"TRAITEUR_GCS_BUCKET_NAME" required:"true"`
	CredentialsJSON string `envconfig:"TRAITEUR_GCP_CREDENTIALS_JSON"`
}

type MediaConfig struct {
	MaxUploadMB     int `envconfig:"TRAITEUR_MAX_UPLOAD_MB" default:"20"`
	ImageWidth      int `envconfig:"TRAITEUR_MEDIA_IMAGE_WIDTH" default:"120"`
	ImageJPGQuality int `envconfig:"TRAITEUR_MEDIA_IMAGE_QUALITY" default:"85"`
}

type ImportConfig struct {
	ClearBatchSize int `envconfig:"TRAITEUR_IMPORT_CLEAR_BATCH_SIZE" default:"200"`
	MaxClearLoops  int `envconfig:"TRAITEUR_IMPORT_MAX_CLEAR_LOOPS" default:"100"`
	InsertBatch    int `envconfig:"TRAITEUR_IMPORT_INSERT_BATCH" default:"200"`
}

type ExportConfig struct {
	LogoObject string `envconfig:"TRAITEUR_EXPORT_LOGO_OBJECT" default:"data/logo.jpg"`
}

type OrdersConfig struct {
	TxMaxAttempts int `envconfig:"TRAITEUR_ORDERS_TX_MAX_ATTEMPTS" default:"3"`
}
