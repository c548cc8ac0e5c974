package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("AUTH_SESSION_TTL", "2h")
	t.Setenv("AUTH_SIGNIN_LIMIT", "not-a-number")
	t.Setenv("REDIS_HOST", "cache")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 5, cfg.Auth.SignInLimit)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, "*/15 * * * *", cfg.Tasks.StatsCron)
}

func TestLoadRejectsBadBcryptCost(t *testing.T) {
	t.Setenv("AUTH_SECRET", "s3cret")
	t.Setenv("AUTH_BCRYPT_COST", "2")

	_, err := Load()
	require.Error(t, err)
}
