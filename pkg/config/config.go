package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "ABIBALL"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "ABIBALL_APP_ENV"
	EnvDBDSN  = "ABIBALL_DB_DSN"
	EnvDBHost = "ABIBALL_DB_HOST"
	EnvDBUser = "ABIBALL_DB_USER"
	EnvDBName = "ABIBALL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	SMTP          SMTPConfig
	Password      PasswordConfig
	Tickets       TicketsConfig
	AuthRateLimit AuthRateLimitConfig
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
	Env          string `envconfig:"ABIBALL_APP_ENV" required:"true"`
	Port         string `envconfig:"ABIBALL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ABIBALL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ABIBALL_LOG_WARN_STACK" default:"false"`
	BaseURL      string `envconfig:"ABIBALL_BASE_URL" default:"http://localhost:8080"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ABIBALL_DB_DSN"`
	Driver string `envconfig:"ABIBALL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ABIBALL_DB_HOST"`
	LegacyPort     int    `envconfig:"ABIBALL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ABIBALL_DB_USER"`
	LegacyPassword string `envconfig:"ABIBALL_DB_PASSWORD"`
	LegacyName     string `envconfig:"ABIBALL_DB_NAME"`
	LegacySSLMode  string `envconfig:"ABIBALL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ABIBALL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ABIBALL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ABIBALL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ABIBALL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ABIBALL_REDIS_URL"`
	Address      string        `envconfig:"ABIBALL_REDIS_ADDR"`
	Password     string        `envconfig:"ABIBALL_REDIS_PASSWORD"`
	DB           int           `envconfig:"ABIBALL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ABIBALL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ABIBALL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ABIBALL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ABIBALL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ABIBALL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ABIBALL_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ABIBALL_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ABIBALL_JWT_EXPIRATION_MINUTES" default:"720"`
}

type SMTPConfig struct {
	Host     string `envconfig:"ABIBALL_SMTP_HOST"`
	Port     int    `envconfig:"ABIBALL_SMTP_PORT" default:"587"`
	User     string `envconfig:"ABIBALL_SMTP_USER"`
	Password string `envconfig:"ABIBALL_SMTP_PASSWORD"`
	From     string `envconfig:"ABIBALL_SMTP_FROM"`
	FromName string `envconfig:"ABIBALL_SMTP_FROM_NAME" default:"Abiball Orga"`
}

// Enabled reports whether outbound mail is configured at all.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

// PasswordConfig tunes the Argon2id parameters used for user and event
// password hashes.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ABIBALL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ABIBALL_ARGON_TIME" default:"2"`
	ArgonParallelism int `envconfig:"ABIBALL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ABIBALL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ABIBALL_ARGON_KEY_LEN" default:"32"`
}

type TicketsConfig struct {
	DefaultMaxTickets     int     `envconfig:"ABIBALL_DEFAULT_MAX_TICKETS" default:"200"`
	DefaultTicketPrice    float64 `envconfig:"ABIBALL_DEFAULT_TICKET_PRICE" default:"50.0"`
	DefaultTicketsPerUser int     `envconfig:"ABIBALL_DEFAULT_TICKETS_PER_USER" default:"10"`
	AllowUserDownload     bool    `envconfig:"ABIBALL_ALLOW_USER_TICKET_DOWNLOAD" default:"true"`

	EventAccessTTL time.Duration `envconfig:"ABIBALL_EVENT_ACCESS_TTL" default:"12h"`
}

// AuthRateLimitConfig throttles the login surface. Zero values disable the
// corresponding limit.
type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ABIBALL_LOGIN_RATE_WINDOW" default:"5m"`
	LoginIPLimit       int           `envconfig:"ABIBALL_LOGIN_RATE_IP_LIMIT" default:"20"`
	LoginUsernameLimit int           `envconfig:"ABIBALL_LOGIN_RATE_USERNAME_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ABIBALL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ABIBALL_AUTO_MIGRATE" default:"false"`
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
