package config_test

import (
	"testing"
	"time"

	"bloom/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("SECRET", "")

	cfg, err := config.Load()
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, config.ErrMissingSecret)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRET", "s3cr3t")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cr3t", cfg.Secret)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.VerifyTimeout)
	assert.True(t, cfg.NonceReplayGuard)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.S3Enabled())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("SECRET", "s3cr3t")
	t.Setenv("DB_DRIVER", "mysql")

	_, err := config.Load()
	assert.Error(t, err)
}
