package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"

	DefaultPath = "config/config.yml"
)

type AppConfig struct {
	Port        int    `yaml:"port" env:"PORT"`
	GinMode     string `yaml:"gin_mode" env:"GIN_MODE"`
	Environment string `yaml:"environment" env:"APP_ENV"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type TokenConfig struct {
	IdentitySecret string `yaml:"identity_secret" env:"IDENTITY_TOKEN_SECRET"`
	SessionSecret  string `yaml:"session_secret" env:"SESSION_TOKEN_SECRET"`
	Issuer         string `yaml:"issuer" env:"TOKEN_ISSUER"`
}

type OTPConfig struct {
	TTL           string `yaml:"ttl" env:"OTP_TTL"`
	Length        int    `yaml:"length" env:"OTP_LENGTH"`
	MaxAttempts   int    `yaml:"max_attempts" env:"OTP_MAX_ATTEMPTS"`
	AttemptWindow string `yaml:"attempt_window" env:"OTP_ATTEMPT_WINDOW"`
}

type TwilioConfig struct {
	AccountSID       string `yaml:"account_sid" env:"TWILIO_ACCOUNT_SID"`
	AuthToken        string `yaml:"auth_token" env:"TWILIO_AUTH_TOKEN"`
	VerifyServiceSID string `yaml:"verify_service_sid" env:"TWILIO_VERIFY_SERVICE_SID"`
}

type SMTPConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

type CasbinConfig struct {
	ModelPath string `yaml:"model_path" env:"CASBIN_MODEL_PATH"`
}

type DiagnosticsConfig struct {
	BufferSize int `yaml:"buffer_size" env:"DIAGNOSTICS_BUFFER_SIZE"`
}

type ConfigFile struct {
	App         AppConfig         `yaml:"app"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Tokens      TokenConfig       `yaml:"tokens"`
	OTP         OTPConfig         `yaml:"otp"`
	Twilio      TwilioConfig      `yaml:"twilio"`
	SMTP        SMTPConfig        `yaml:"smtp"`
	Casbin      CasbinConfig      `yaml:"casbin"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// Config is built once at startup and passed to constructors
type Config struct {
	Port        string
	GinMode     string
	Environment string
	LogLevel    string

	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IdentitySecret string
	SessionSecret  string
	TokenIssuer    string

	OTPTTL           time.Duration
	OTPLength        int
	OTPMaxAttempts   int
	OTPAttemptWindow time.Duration

	TwilioSID        string
	TwilioToken      string
	TwilioServiceSID string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	CasbinModelPath       string
	DiagnosticsBufferSize int

	// GeneratedSecrets names the token secrets replaced by random values
	// because they were unset outside production.
	GeneratedSecrets []string
}

// Defaults returns the file values used when nothing is configured
func Defaults() ConfigFile {
	return ConfigFile{
		App: AppConfig{
			Port:        8080,
			GinMode:     "release",
			Environment: EnvDevelopment,
			LogLevel:    "info",
		},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Tokens: TokenConfig{Issuer: "lendauth"},
		OTP: OTPConfig{
			TTL:           "2m",
			Length:        6,
			MaxAttempts:   5,
			AttemptWindow: "10m",
		},
		SMTP:        SMTPConfig{Port: 587},
		Diagnostics: DiagnosticsConfig{BufferSize: 256},
	}
}

// Load reads the YAML file at path (optional), overlays environment
// variables and validates the result
func Load(path string) (*Config, error) {
	file := Defaults()
	if err := loadConfigFile(path, &file); err != nil {
		return nil, err
	}

	if err := env.Parse(&file); err != nil {
		return nil, fmt.Errorf("could not parse environment: %w", err)
	}

	cfg, err := fromFile(&file)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotenv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotenv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("could not load %s: %w", p, err)
		}
	}
	return nil
}

func loadConfigFile(path string, into *ConfigFile) error {
	if path == "" {
		return nil
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read config file at %s: %w", path, err)
	}

	if err := yaml.Unmarshal(bytes, into); err != nil {
		return fmt.Errorf("could not parse config yaml: %w", err)
	}
	return nil
}

func fromFile(f *ConfigFile) (*Config, error) {
	otpTTL, err := time.ParseDuration(f.OTP.TTL)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP TTL: %w", err)
	}

	attemptWindow, err := time.ParseDuration(f.OTP.AttemptWindow)
	if err != nil {
		return nil, fmt.Errorf("invalid OTP attempt window: %w", err)
	}

	return &Config{
		Port:                  fmt.Sprintf("%d", f.App.Port),
		GinMode:               f.App.GinMode,
		Environment:           f.App.Environment,
		LogLevel:              f.App.LogLevel,
		DSN:                   f.Database.DSN,
		RedisAddr:             f.Redis.Addr,
		RedisPassword:         f.Redis.Password,
		RedisDB:               f.Redis.DB,
		IdentitySecret:        f.Tokens.IdentitySecret,
		SessionSecret:         f.Tokens.SessionSecret,
		TokenIssuer:           f.Tokens.Issuer,
		OTPTTL:                otpTTL,
		OTPLength:             f.OTP.Length,
		OTPMaxAttempts:        f.OTP.MaxAttempts,
		OTPAttemptWindow:      attemptWindow,
		TwilioSID:             f.Twilio.AccountSID,
		TwilioToken:           f.Twilio.AuthToken,
		TwilioServiceSID:      f.Twilio.VerifyServiceSID,
		SMTPHost:              f.SMTP.Host,
		SMTPPort:              f.SMTP.Port,
		SMTPUsername:          f.SMTP.Username,
		SMTPPassword:          f.SMTP.Password,
		SMTPFrom:              f.SMTP.From,
		CasbinModelPath:       f.Casbin.ModelPath,
		DiagnosticsBufferSize: f.Diagnostics.BufferSize,
	}, nil
}

// IsProduction reports whether cookies must be Secure and secrets mandatory
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Validate enforces the secret policy. In production an unset secret or
// delivery channel is a startup failure. Elsewhere a missing secret is
// replaced by a random per-process value, so tokens never verify against a
// known default.
func (c *Config) Validate() error {
	if c.OTPLength < 4 || c.OTPLength > 8 {
		return fmt.Errorf("otp length must be between 4 and 8, got %d", c.OTPLength)
	}
	if c.OTPTTL <= 0 {
		return errors.New("otp TTL must be positive")
	}

	for _, s := range []struct {
		name  string
		value *string
	}{
		{"IDENTITY_TOKEN_SECRET", &c.IdentitySecret},
		{"SESSION_TOKEN_SECRET", &c.SessionSecret},
	} {
		if *s.value != "" {
			continue
		}
		if c.IsProduction() {
			return fmt.Errorf("%s must be set in production", s.name)
		}
		generated, err := randomSecret()
		if err != nil {
			return fmt.Errorf("failed to generate %s: %w", s.name, err)
		}
		*s.value = generated
		c.GeneratedSecrets = append(c.GeneratedSecrets, s.name)
	}

	if c.IdentitySecret == c.SessionSecret {
		return errors.New("identity and session token secrets must differ")
	}

	if c.IsProduction() {
		return c.validateChannels()
	}
	return nil
}

// validateChannels rejects a production config that would fall back to the
// log-only delivery channels
func (c *Config) validateChannels() error {
	var missing []string
	for _, v := range []struct {
		name  string
		value string
	}{
		{"SMTP_HOST", c.SMTPHost},
		{"SMTP_FROM", c.SMTPFrom},
		{"TWILIO_ACCOUNT_SID", c.TwilioSID},
		{"TWILIO_AUTH_TOKEN", c.TwilioToken},
		{"TWILIO_VERIFY_SERVICE_SID", c.TwilioServiceSID},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s must be set in production", strings.Join(missing, ", "))
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
