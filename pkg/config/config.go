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
	Razorpay      RazorpayConfig
	SMTP          SMTPConfig
	Uploads       UploadsConfig
	Shipping      ShippingConfig
	Frontend      FrontendConfig
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
	Env          string `envconfig:"VELORA_APP_ENV" required:"true"`
	Port         string `envconfig:"VELORA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VELORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VELORA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VELORA_DB_DSN"`
	Driver string `envconfig:"VELORA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"VELORA_DB_HOST"`
	Port     int    `envconfig:"VELORA_DB_PORT" default:"5432"`
	User     string `envconfig:"VELORA_DB_USER"`
	Password string `envconfig:"VELORA_DB_PASSWORD"`
	Name     string `envconfig:"VELORA_DB_NAME"`
	SSLMode  string `envconfig:"VELORA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VELORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VELORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VELORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VELORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	AutoMigrate     bool          `envconfig:"VELORA_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VELORA_REDIS_URL" required:"true"`
	Password     string        `envconfig:"VELORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VELORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VELORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VELORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VELORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VELORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VELORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VELORA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VELORA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VELORA_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VELORA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VELORA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VELORA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VELORA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VELORA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"VELORA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"VELORA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"VELORA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"VELORA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"VELORA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"VELORA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type RazorpayConfig struct {
	KeyID      string `envconfig:"VELORA_RAZORPAY_KEY_ID"`
	KeySecret  string `envconfig:"VELORA_RAZORPAY_KEY_SECRET"`
	BaseURL    string `envconfig:"VELORA_RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	SuccessURL string `envconfig:"VELORA_RAZORPAY_SUCCESS_URL"`
	FailureURL string `envconfig:"VELORA_RAZORPAY_FAILURE_URL"`
}

type SMTPConfig struct {
	Host     string `envconfig:"VELORA_SMTP_HOST"`
	Port     int    `envconfig:"VELORA_SMTP_PORT" default:"587"`
	Username string `envconfig:"VELORA_SMTP_USERNAME"`
	Password string `envconfig:"VELORA_SMTP_PASSWORD"`
	From     string `envconfig:"VELORA_SMTP_FROM"`
}

type UploadsConfig struct {
	Root        string `envconfig:"VELORA_UPLOADS_ROOT" default:"uploads"`
	MaxUploadMB int    `envconfig:"VELORA_MAX_UPLOAD_MB" default:"10"`
	ImageWidth  int    `envconfig:"VELORA_UPLOAD_IMAGE_MAX_WIDTH" default:"1920"`
	ImageHeight int    `envconfig:"VELORA_UPLOAD_IMAGE_MAX_HEIGHT" default:"1080"`
	JPEGQuality int    `envconfig:"VELORA_UPLOAD_JPEG_QUALITY" default:"85"`
}

type ShippingConfig struct {
	FallbackCODCents     int `envconfig:"VELORA_SHIPPING_FALLBACK_COD_CENTS" default:"599"`
	FallbackPrepaidCents int `envconfig:"VELORA_SHIPPING_FALLBACK_PREPAID_CENTS" default:"0"`
}

type FrontendConfig struct {
	BaseURL        string `envconfig:"VELORA_FRONTEND_BASE_URL" default:"http://localhost:3000"`
	AllowedOrigins string `envconfig:"VELORA_CORS_ALLOWED_ORIGINS" default:"*"`
}

// Origins splits the configured CORS origin list.
func (f FrontendConfig) Origins() []string {
	parts := strings.Split(f.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
