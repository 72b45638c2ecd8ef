package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const EnvProduction = "production"

type ServerConfig struct {
	Port            int           `yaml:"port"`
	Environment     string        `yaml:"environment"`
	AppURL          string        `yaml:"app_url"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// TrustedProxies may set X-Forwarded-For; empty means the peer address
	// is the client address.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type DatabaseConfig struct {
	DSN         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type EmailConfig struct {
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
	// DryRun logs messages instead of sending them. Refused in production.
	DryRun bool `yaml:"dry_run"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	Issuer     string        `yaml:"issuer"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	SignupTTL  time.Duration `yaml:"signup_ttl"`
	OTPTTL     time.Duration `yaml:"otp_ttl"`
	ResetTTL   time.Duration `yaml:"reset_ttl"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Email     EmailConfig     `yaml:"email"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// IsProduction reports whether cookies must be Secure and secrets enforced.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, EnvProduction)
}

// LoadDefaults fills in development defaults. The session, OTP and reset
// lifetimes are part of the public contract and should not normally change.
func (c *Config) LoadDefaults() {
	c.Server.Port = 8080
	c.Server.Environment = "development"
	c.Server.AppURL = "http://localhost:8080"
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Database.AutoMigrate = true
	c.Email.SMTPPort = 587
	c.Email.FromEmail = "noreply@example.com"
	c.Auth.Issuer = "authflow"
	c.Auth.SessionTTL = 7 * 24 * time.Hour
	c.Auth.SignupTTL = time.Hour
	c.Auth.OTPTTL = 10 * time.Minute
	c.Auth.ResetTTL = time.Hour
	c.RateLimit.Limit = 10
	c.RateLimit.Window = time.Minute
}

// Load builds a Config from defaults, the optional YAML file at path, the
// optional dotenv file and finally AUTHFLOW_* environment variables.
// Missing files are not an error; malformed ones are.
func Load(path, envFile string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load env file %s: %w", envFile, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("AUTHFLOW_ENV", &c.Server.Environment)
	str("AUTHFLOW_APP_URL", &c.Server.AppURL)
	str("AUTHFLOW_DATABASE_URL", &c.Database.DSN)
	str("AUTHFLOW_SMTP_HOST", &c.Email.SMTPHost)
	str("AUTHFLOW_SMTP_USER", &c.Email.SMTPUser)
	str("AUTHFLOW_SMTP_PASSWORD", &c.Email.SMTPPassword)
	str("AUTHFLOW_FROM_EMAIL", &c.Email.FromEmail)
	str("AUTHFLOW_JWT_SECRET", &c.Auth.JWTSecret)
	str("AUTHFLOW_REDIS_ADDR", &c.Redis.Addr)
	str("AUTHFLOW_REDIS_PASSWORD", &c.Redis.Password)

	if err := num("AUTHFLOW_PORT", &c.Server.Port); err != nil {
		return err
	}
	if err := num("AUTHFLOW_SMTP_PORT", &c.Email.SMTPPort); err != nil {
		return err
	}
	if err := num("AUTHFLOW_REDIS_DB", &c.Redis.DB); err != nil {
		return err
	}
	if err := num("AUTHFLOW_RATE_LIMIT", &c.RateLimit.Limit); err != nil {
		return err
	}
	if err := dur("AUTHFLOW_RATE_WINDOW", &c.RateLimit.Window); err != nil {
		return err
	}
	return boolean("AUTHFLOW_AUTO_MIGRATE", &c.Database.AutoMigrate)
}

// Validate rejects settings that would make the service insecure or unusable.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Auth.SessionTTL <= 0 || c.Auth.SignupTTL <= 0 || c.Auth.OTPTTL <= 0 || c.Auth.ResetTTL <= 0 {
		return errors.New("auth token lifetimes must be positive")
	}
	if c.IsProduction() {
		if c.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is required in production")
		}
		if c.Email.DryRun {
			return errors.New("email.dry_run is not allowed in production")
		}
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "dev-only-secret"
	}
	return nil
}
