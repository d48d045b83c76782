package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_STORE", "")
	t.Setenv("TICKET_UNIQUE_NUMBERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SessionStoreMemory, cfg.Session.Store)
	assert.Equal(t, "ticket_session", cfg.Session.CookieName)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL())
	assert.False(t, cfg.Ticket.UniqueNumbers)
	assert.False(t, cfg.UsesRedis())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, cfg.App.Name, cfg.Logger.Service)
	assert.Equal(t, "json", cfg.Logger.Encoding)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_STORE", "Redis")
	t.Setenv("SESSION_TTL_MINUTES", "15")
	t.Setenv("TICKET_UNIQUE_NUMBERS", "true")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_HOST", "127.0.0.1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SessionStoreRedis, cfg.Session.Store)
	assert.Equal(t, 15*time.Minute, cfg.Session.TTL())
	assert.True(t, cfg.UsesRedis())
	assert.Equal(t, "127.0.0.1:9090", cfg.App.Addr())
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("SESSION_STORE", "memcached")
	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")
	_, err := Load()
	require.Error(t, err)
}
