package config

import (
	"os"
	"testing"

	"github.com/you/lendauth/internal/config"
)

const (
	TestIdentitySecret = "test-identity-secret-for-e2e"
	TestSessionSecret  = "test-session-secret-for-e2e"
)

// SetupTestEnvironment sets the environment variables the e2e suite runs with
func SetupTestEnvironment(t *testing.T) {
	t.Helper()

	testEnvVars := map[string]string{
		"GIN_MODE":              "test",
		"APP_ENV":               config.EnvDevelopment,
		"IDENTITY_TOKEN_SECRET": TestIdentitySecret,
		"SESSION_TOKEN_SECRET":  TestSessionSecret,
		"TOKEN_ISSUER":          "lendauth-test",
		"OTP_TTL":               "2m",
		"OTP_LENGTH":            "6",
		"OTP_MAX_ATTEMPTS":      "5",
		"OTP_ATTEMPT_WINDOW":    "10m",
	}
	for key, value := range testEnvVars {
		t.Setenv(key, value)
	}
	// unset channels fall back to log-only delivery
	for _, key := range []string{"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_VERIFY_SERVICE_SID", "SMTP_HOST", "SMTP_FROM"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// LoadTestConfig loads configuration specifically for e2e testing
func LoadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	SetupTestEnvironment(t)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Failed to load test configuration: %v", err)
	}
	if len(cfg.GeneratedSecrets) > 0 {
		t.Fatalf("test secrets were not applied: %v", cfg.GeneratedSecrets)
	}
	return cfg
}
