package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Development_AcceptsDefaultSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "development",
		"JWT_SECRET":  "change-this-to-a-secure-secret",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "change-this-to-a-secure-secret", cfg.JWTSecret)
}

func TestLoad_Production_RejectsDefaultSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "change-this-to-a-secure-secret",
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be explicitly set")
}

func TestLoad_Production_RejectsShortSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "short-but-not-default-secret",
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be at least 32 characters")
}

func TestLoad_Production_AcceptsStrongSecret(t *testing.T) {
	strongSecret := "this-is-a-very-secure-secret-key-for-production-use-1234"
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  strongSecret,
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, strongSecret, cfg.JWTSecret)
}

func TestLoad_Defaults(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "development",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "chow-server", cfg.KafkaGroupID)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoad_InvalidPort(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":    "development",
		"CHOW_HTTP_PORT": "0",
	})

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP port")
}

func TestPostgresDSN(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":       "development",
		"POSTGRES_HOST":     "db.internal",
		"POSTGRES_PORT":     "5433",
		"POSTGRES_USER":     "app",
		"POSTGRES_PASSWORD": "pw",
		"CHOW_DB_NAME":      "chow_test",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "postgres://app:pw@db.internal:5433/chow_test?sslmode=disable", cfg.PostgresDSN())
}
