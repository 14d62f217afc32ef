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
	OTP           OTPConfig
	SMTP          SMTPConfig
	Uploads       UploadsConfig
	LogSink       LogSinkConfig
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
	Env          string `envconfig:"SHOPLY_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPLY_DB_DSN"`
	Driver string `envconfig:"SHOPLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPLY_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPLY_DB_USER"`
	LegacyPassword string `envconfig:"SHOPLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPLY_REDIS_URL" required:"true"`
	Password     string        `envconfig:"SHOPLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	AccessSecret       string `envconfig:"SHOPLY_JWT_ACCESS_SECRET" required:"true"`
	RefreshSecret      string `envconfig:"SHOPLY_JWT_REFRESH_SECRET" required:"true"`
	Issuer             string `envconfig:"SHOPLY_JWT_ISSUER" required:"true"`
	AccessTTLMinutes   int    `envconfig:"SHOPLY_JWT_ACCESS_TTL_MINUTES" default:"15"`
	RefreshTTLMinutes  int    `envconfig:"SHOPLY_JWT_REFRESH_TTL_MINUTES" default:"43200"`
	CookieDomain       string `envconfig:"SHOPLY_JWT_COOKIE_DOMAIN"`
	CookieSecure       bool   `envconfig:"SHOPLY_JWT_COOKIE_SECURE" default:"true"`
}

// AccessTokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.AccessTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.AccessTTLMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token lifetime configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPLY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPLY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPLY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPLY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPLY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SHOPLY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SHOPLY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SHOPLY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SHOPLY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SHOPLY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SHOPLY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type OTPConfig struct {
	TTL    time.Duration `envconfig:"SHOPLY_OTP_TTL" default:"5m"`
	Digits int           `envconfig:"SHOPLY_OTP_DIGITS" default:"6"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SHOPLY_SMTP_HOST"`
	Port     int    `envconfig:"SHOPLY_SMTP_PORT" default:"587"`
	Username string `envconfig:"SHOPLY_SMTP_USERNAME"`
	Password string `envconfig:"SHOPLY_SMTP_PASSWORD"`
	From     string `envconfig:"SHOPLY_SMTP_FROM"`
}

// Enabled reports whether outbound mail is configured. Dev environments
// commonly leave SMTP unset and read OTP codes from the logs.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type UploadsConfig struct {
	Dir         string `envconfig:"SHOPLY_UPLOADS_DIR" default:"upload"`
	MaxUploadMB int    `envconfig:"SHOPLY_MAX_UPLOAD_MB" default:"10"`
	MaxImages   int    `envconfig:"SHOPLY_UPLOADS_MAX_IMAGES" default:"4"`
}

type LogSinkConfig struct {
	Enabled    bool `envconfig:"SHOPLY_LOG_SINK_ENABLED" default:"true"`
	BufferSize int  `envconfig:"SHOPLY_LOG_SINK_BUFFER" default:"256"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHOPLY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHOPLY_AUTO_MIGRATE" default:"false"`
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
