package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the duration of the test
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearSecrets(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "IDENTITY_TOKEN_SECRET", "SESSION_TOKEN_SECRET", "OTP_TTL", "PORT",
		"SMTP_HOST", "SMTP_FROM", "TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_VERIFY_SERVICE_SID",
	} {
		unsetEnv(t, k)
	}
}

func TestLoad_FileWithEnvOverlay(t *testing.T) {
	clearSecrets(t)
	path := writeFile(t, "config.yml", `
app:
  port: 9090
  environment: production
tokens:
  identity_secret: file-identity-secret
  session_secret: file-session-secret
otp:
  ttl: 3m
smtp:
  host: smtp.example.com
  from: no-reply@example.com
twilio:
  account_sid: AC123
  auth_token: twilio-token
  verify_service_sid: VA123
`)
	t.Setenv("SESSION_TOKEN_SECRET", "env-session-secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "file-identity-secret", cfg.IdentitySecret)
	assert.Equal(t, "env-session-secret", cfg.SessionSecret, "environment should override the file")
	assert.Equal(t, 3*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 6, cfg.OTPLength, "unset values keep their defaults")
	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
	assert.Equal(t, "VA123", cfg.TwilioServiceSID)
	assert.Empty(t, cfg.GeneratedSecrets)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearSecrets(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 6, cfg.OTPLength)
	assert.Equal(t, 2*time.Minute, cfg.OTPTTL)
	assert.ElementsMatch(t, []string{"IDENTITY_TOKEN_SECRET", "SESSION_TOKEN_SECRET"}, cfg.GeneratedSecrets)
	assert.NotEmpty(t, cfg.IdentitySecret)
	assert.NotEqual(t, cfg.IdentitySecret, cfg.SessionSecret)
}

func TestValidate_ProductionRequiresSecrets(t *testing.T) {
	clearSecrets(t)
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("IDENTITY_TOKEN_SECRET", "only-one-secret")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TOKEN_SECRET")
}

func TestValidate_ProductionRequiresDeliveryChannels(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		missing []string
	}{
		{
			name:    "nothing configured",
			env:     map[string]string{},
			missing: []string{"SMTP_HOST", "SMTP_FROM", "TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_VERIFY_SERVICE_SID"},
		},
		{
			name: "smtp only",
			env: map[string]string{
				"SMTP_HOST": "smtp.example.com",
				"SMTP_FROM": "no-reply@example.com",
			},
			missing: []string{"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_VERIFY_SERVICE_SID"},
		},
		{
			name: "twilio without smtp sender",
			env: map[string]string{
				"SMTP_HOST":                 "smtp.example.com",
				"TWILIO_ACCOUNT_SID":        "AC123",
				"TWILIO_AUTH_TOKEN":         "twilio-token",
				"TWILIO_VERIFY_SERVICE_SID": "VA123",
			},
			missing: []string{"SMTP_FROM"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearSecrets(t)
			t.Setenv("APP_ENV", EnvProduction)
			t.Setenv("IDENTITY_TOKEN_SECRET", "identity-secret")
			t.Setenv("SESSION_TOKEN_SECRET", "session-secret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			require.Error(t, err)
			for _, name := range tt.missing {
				assert.Contains(t, err.Error(), name)
			}
		})
	}
}

func TestValidate_DevelopmentAllowsLogChannels(t *testing.T) {
	clearSecrets(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.SMTPHost)
	assert.Empty(t, cfg.TwilioSID)
}

func TestValidate_SecretsMustDiffer(t *testing.T) {
	clearSecrets(t)
	t.Setenv("IDENTITY_TOKEN_SECRET", "same")
	t.Setenv("SESSION_TOKEN_SECRET", "same")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearSecrets(t)
	t.Setenv("OTP_TTL", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid OTP TTL")
}

func TestLoadDotenv(t *testing.T) {
	clearSecrets(t)
	path := writeFile(t, ".env", "IDENTITY_TOKEN_SECRET=dotenv-identity\nSESSION_TOKEN_SECRET=dotenv-session\n")
	t.Setenv("PORT", "7070")

	require.NoError(t, LoadDotenv(path, filepath.Join(t.TempDir(), "missing.env")))
	t.Cleanup(func() {
		os.Unsetenv("IDENTITY_TOKEN_SECRET")
		os.Unsetenv("SESSION_TOKEN_SECRET")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dotenv-identity", cfg.IdentitySecret)
	assert.Equal(t, "dotenv-session", cfg.SessionSecret)
	assert.Equal(t, "7070", cfg.Port)
}
