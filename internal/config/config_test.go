package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENV", "HOST", "FRONTEND_URL", "ALLOWED_ORIGINS", "MOCK_MODE",
		"MONGODB_URI", "MONGO_URI", "MONGODB_DATABASE", "POSTGRES_URI", "REDIS_URI",
		"JWT_SECRET", "CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY", "CLOUDINARY_API_SECRET",
		"TEXT_ANALYTICS_ENDPOINT", "TEXT_ANALYTICS_KEY", "TELEMETRY_CONNECTION_STRING",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "lifetrack", cfg.MongoDatabase)
	assert.False(t, cfg.MockMode)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
	require.NoError(t, cfg.Validate())
}

func TestLoadAllowedOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALLOWED_ORIGINS", " https://app.example.com , https://www.example.com ")

	cfg := Load()
	assert.Equal(t, []string{"https://app.example.com", "https://www.example.com"}, cfg.AllowedOrigins)
}

func TestLoadAllowedHost(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("HOST", "https://api.lifetrack.app:8443/base")

	cfg := Load()
	assert.Equal(t, "api.lifetrack.app", cfg.AllowedHost, "scheme, port, and path must be stripped")

	// Development never pins the host.
	clearEnv(t)
	t.Setenv("HOST", "https://api.lifetrack.app")
	assert.Empty(t, Load().AllowedHost)

	// Production without HOST leaves the check off.
	clearEnv(t)
	t.Setenv("ENV", "production")
	assert.Empty(t, Load().AllowedHost)
}

func TestResolveModesWithoutCredentials(t *testing.T) {
	clearEnv(t)

	modes := Load().ResolveModes()
	assert.Equal(t, ModeMock, modes.Entries)
	assert.Equal(t, ModeMock, modes.Users)
	assert.Equal(t, ModeMock, modes.Cache)
	assert.Equal(t, ModeMock, modes.Blobs)
	assert.Equal(t, ModeMock, modes.Sentiment)
	assert.Equal(t, ModeMock, modes.Telemetry)
}

func TestResolveModesWithCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/lifetrack")
	t.Setenv("REDIS_URI", "redis://localhost:6379/0")
	t.Setenv("TEXT_ANALYTICS_ENDPOINT", "https://analytics.example.com")
	t.Setenv("TEXT_ANALYTICS_KEY", "key")

	modes := Load().ResolveModes()
	assert.Equal(t, ModeLive, modes.Entries)
	assert.Equal(t, ModeLive, modes.Cache)
	assert.Equal(t, ModeLive, modes.Sentiment)
	// No postgres or cloudinary credentials: those stay mock.
	assert.Equal(t, ModeMock, modes.Users)
	assert.Equal(t, ModeMock, modes.Blobs)
}

func TestMockModeForcesEverything(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/lifetrack")
	t.Setenv("MOCK_MODE", "true")

	modes := Load().ResolveModes()
	assert.Equal(t, ModeMock, modes.Entries)
}

func TestValidateRejectsBadValues(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	cfg.Environment = "staging"
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.Port = "not-a-port"
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.JWTSecret = "short"
	assert.Error(t, cfg.Validate())
}
