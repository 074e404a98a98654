package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Lockout      LockoutConfig
	Verification VerificationConfig
	Argon2       Argon2Config
	SMS          SMSConfig
	Admin        AdminConfig
	RateLimit    RateLimitConfig
	Webhook      WebhookConfig
	TOTPIssuer   string
	DevMode      bool
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	// Redis connection URL for the delivery queue. Empty disables queued
	// delivery; codes are then logged instead.
	URL string
}

// LockoutConfig has no defaults: the operator must state the policy
// explicitly or the service refuses to start.
type LockoutConfig struct {
	MaxAttempts     int
	LockDuration    time.Duration
	RelockOnAttempt bool
	RequireVerified bool
}

// VerificationConfig has no defaults either; code shapes are part of the
// security posture.
type VerificationConfig struct {
	EmailCodeLength int
	SMSCodeLength   int
	// CodeMaxAge bounds how long an unconsumed code stays live; 0 keeps
	// codes until reissued or consumed.
	CodeMaxAge time.Duration
}

type Argon2Config struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

type SMSConfig struct {
	APIURL    string
	AuthID    string
	AuthToken string
	From      string
	Template  string
}

type AdminConfig struct {
	Secret string
}

type RateLimitConfig struct {
	PerIP     string // "100-M"; empty disables
	PerIPAuth string // stricter limit for credential endpoints
}

type WebhookConfig struct {
	URL       string
	AuthToken string // sent as Authorization header when set
}

func Load() (*Config, error) {
	viper.AutomaticEnv()
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		viper.SetConfigFile(p)
		_ = viper.ReadInConfig()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Lockout: LockoutConfig{
			MaxAttempts:     viper.GetInt("LOCKOUT_MAX_ATTEMPTS"),
			LockDuration:    time.Duration(viper.GetInt64("LOCKOUT_LOCK_SECONDS")) * time.Second,
			RelockOnAttempt: viper.GetBool("LOCKOUT_RELOCK_ON_ATTEMPT"),
			RequireVerified: viper.GetBool("LOGIN_REQUIRE_VERIFIED"),
		},
		Verification: VerificationConfig{
			EmailCodeLength: viper.GetInt("EMAIL_CODE_LENGTH"),
			SMSCodeLength:   viper.GetInt("SMS_CODE_LENGTH"),
			CodeMaxAge:      time.Duration(viper.GetInt64("CODE_MAX_AGE_SECONDS")) * time.Second,
		},
		Argon2: Argon2Config{
			Memory:      uint32(viper.GetInt("ARGON2_MEMORY")),
			Iterations:  uint32(viper.GetInt("ARGON2_ITERATIONS")),
			Parallelism: uint8(viper.GetInt("ARGON2_PARALLELISM")),
		},
		SMS: SMSConfig{
			APIURL:    os.Getenv("SMS_API_URL"),
			AuthID:    os.Getenv("SMS_AUTH_ID"),
			AuthToken: os.Getenv("SMS_AUTH_TOKEN"),
			From:      os.Getenv("SMS_FROM"),
			Template:  os.Getenv("SMS_TEMPLATE"),
		},
		Admin: AdminConfig{
			Secret: os.Getenv("KYP_ADMIN_SECRET"),
		},
		RateLimit: RateLimitConfig{
			PerIP:     os.Getenv("RATE_LIMIT_IP"),
			PerIPAuth: os.Getenv("RATE_LIMIT_IP_AUTH"),
		},
		Webhook: WebhookConfig{
			URL:       os.Getenv("WEBHOOK_URL"),
			AuthToken: os.Getenv("WEBHOOK_AUTH_TOKEN"),
		},
		TOTPIssuer: getEnvOrDefault("TOTP_ISSUER", "know-your-people"),
		DevMode:    viper.GetBool("DEV_MODE"),
	}

	if cfg.Lockout.MaxAttempts <= 0 {
		return nil, fmt.Errorf("LOCKOUT_MAX_ATTEMPTS must be a positive integer")
	}
	if cfg.Lockout.LockDuration <= 0 {
		return nil, fmt.Errorf("LOCKOUT_LOCK_SECONDS must be a positive integer")
	}
	if cfg.Verification.EmailCodeLength <= 0 {
		return nil, fmt.Errorf("EMAIL_CODE_LENGTH must be a positive integer")
	}
	if cfg.Verification.SMSCodeLength <= 0 {
		return nil, fmt.Errorf("SMS_CODE_LENGTH must be a positive integer")
	}

	if cfg.Argon2.Memory == 0 {
		cfg.Argon2.Memory = 64 * 1024
	}
	if cfg.Argon2.Iterations == 0 {
		cfg.Argon2.Iterations = 3
	}
	if cfg.Argon2.Parallelism == 0 {
		cfg.Argon2.Parallelism = 2
	}
	return cfg, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
