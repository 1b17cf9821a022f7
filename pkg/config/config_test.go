package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "memory", cfg.ViewCache.Driver)
	assert.Equal(t, 15*time.Second, cfg.ViewCache.Window)
	assert.Equal(t, int64(50<<20), cfg.Media.MaxBytes)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 180, cfg.Activity.RetentionDays)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("VIEW_CACHE_DRIVER", "redis")
	t.Setenv("VIEW_DEDUP_WINDOW", "1m")
	t.Setenv("MEDIA_MAX_BYTES", "1024")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.ViewCache.Driver)
	assert.Equal(t, time.Minute, cfg.ViewCache.Window)
	assert.Equal(t, int64(1024), cfg.Media.MaxBytes)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{}},
		{"bad window", map[string]string{"JWT_SECRET": "s", "VIEW_DEDUP_WINDOW": "soon"}},
		{"zero window", map[string]string{"JWT_SECRET": "s", "VIEW_DEDUP_WINDOW": "0s"}},
		{"unknown storage driver", map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "s3"}},
		{"bunny without credentials", map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "bunny"}},
		{"bad media limit", map[string]string{"JWT_SECRET": "s", "MEDIA_MAX_BYTES": "lots"}},
		{"negative retention", map[string]string{"JWT_SECRET": "s", "ACTIVITY_RETENTION_DAYS": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
