package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// ErrConfig marks startup-fatal configuration problems. The process must not
// serve requests when Load returns an error wrapping it.
var ErrConfig = errors.New("invalid configuration")

const minJWTSecretLen = 32

type Config struct {
	AppName  string `env:"AUTH_APP_NAME" envDefault:"authapp"`
	AppEnv   string `env:"AUTH_APP_ENV" envDefault:"local"`
	HTTPHost string `env:"AUTH_HTTP_HOST" envDefault:"0.0.0.0"`
	HTTPPort string `env:"AUTH_HTTP_PORT" envDefault:"8080"`

	DBHost     string `env:"AUTH_DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"AUTH_DB_PORT" envDefault:"5432"`
	DBUser     string `env:"AUTH_DB_USER" envDefault:"app"`
	DBPassword string `env:"AUTH_DB_PASSWORD" envDefault:"app_password"`
	DBName     string `env:"AUTH_DB_NAME" envDefault:"authdb"`
	DBSSLMode  string `env:"AUTH_DB_SSLMODE" envDefault:"disable"`

	JWTSecret   string        `env:"AUTH_JWT_SECRET"`
	JWTIssuer   string        `env:"AUTH_JWT_ISSUER" envDefault:"authapp"`
	JWTAudience string        `env:"AUTH_JWT_AUDIENCE" envDefault:"frontend"`
	AccessTTL   time.Duration `env:"AUTH_JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL  time.Duration `env:"AUTH_JWT_REFRESH_TTL" envDefault:"168h"`

	OtpTTL         time.Duration `env:"AUTH_OTP_TTL" envDefault:"5m"`
	OtpResendEvery time.Duration `env:"AUTH_OTP_RESEND_EVERY" envDefault:"3m"`
	ResetTTL       time.Duration `env:"AUTH_RESET_TTL" envDefault:"15m"`
	ResetEvery     time.Duration `env:"AUTH_RESET_EVERY" envDefault:"3m"`

	SweepPendingEvery time.Duration `env:"AUTH_SWEEP_PENDING_EVERY" envDefault:"10m"`
	SweepResetEvery   time.Duration `env:"AUTH_SWEEP_RESET_EVERY" envDefault:"5m"`
	SweepRefreshEvery time.Duration `env:"AUTH_SWEEP_REFRESH_EVERY" envDefault:"5m"`

	SMTPHost string `env:"AUTH_SMTP_HOST" envDefault:"localhost"`
	SMTPPort string `env:"AUTH_SMTP_PORT" envDefault:"25"`
	SMTPFrom string `env:"AUTH_SMTP_FROM" envDefault:"no-reply@authapp.local"`

	FrontendBaseURL string `env:"AUTH_FRONTEND_BASE_URL" envDefault:"http://localhost"`

	NATSURL               string `env:"NATS_URL"`
	NATSVerifySubject     string `env:"NATS_SUBJECT_VERIFY_JWT" envDefault:"auth.verifyJWT"`
	NATSUserCreateSubject string `env:"NATS_SUBJECT_USER_CREATE" envDefault:"user.created"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces invariants the service cannot run without. The signing
// secret must be present and at least 32 bytes.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < minJWTSecretLen {
		return fmt.Errorf("%w: AUTH_JWT_SECRET must be at least %d bytes", ErrConfig, minJWTSecretLen)
	}
	return nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
