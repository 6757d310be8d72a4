package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
	assert.Equal(t, "portal_session", cfg.Session.CookieName)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, []string{".pdf", ".jpg", ".jpeg", ".png"}, cfg.Uploads.AllowedExtensions)
	assert.True(t, cfg.Reports.CacheEnabled)
	assert.Equal(t, 1, cfg.Reports.WarmWorkers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", EnvProduction)
	t.Setenv("API_PREFIX", "/api/")
	t.Setenv("SESSION_STORE", "Postgres")
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://portal.example.gov, https://admin.example.gov")
	t.Setenv("DEFAULT_PHONE_REGION", "gb")
	t.Setenv("UPLOADS_MAX_FILE_SIZE", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, SessionStorePostgres, cfg.Session.Store)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, []string{"https://portal.example.gov", "https://admin.example.gov"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "GB", cfg.Profile.DefaultPhoneRegion)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxFileSizeBytes)
}
