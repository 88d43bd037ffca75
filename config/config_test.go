package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lopushok9/whatbird/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whatbird.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	t.Setenv("WHATBIRD_JWT_SECRET", "s3cret")

	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":9000", c.Server.Addr)
	assert.Equal(t, "development", c.Server.Environment)
	assert.False(t, c.Production())
	assert.Equal(t, "What Bird", c.Auth.AppName)
	assert.Equal(t, 5*time.Minute, c.Auth.ChallengeWindow)
	assert.Equal(t, 30*time.Second, c.Auth.ClockSkew)
	assert.Equal(t, time.Hour, c.JWT.AccessTTL)
	assert.Equal(t, 168*time.Hour, c.JWT.RefreshTTL)
	assert.Equal(t, DriverMemory, c.Store.Driver)
	assert.Equal(t, "whatbird", c.Events.TopicPrefix)
	assert.Empty(t, c.Redis.URL)
}

func TestFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":8080"
  environment: production
  cookie_domain: whatbird.example
jwt:
  secret: from-file
  access_ttl: 15m
store:
  driver: bbolt
  path: /var/lib/whatbird/auth.db
redis:
  url: redis://localhost:6379/0
`)
	t.Setenv("WHATBIRD_SERVER_ADDR", ":7070")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", c.Server.Addr, "environment overrides the file")
	assert.True(t, c.Production())
	assert.Equal(t, "whatbird.example", c.Server.CookieDomain)
	assert.Equal(t, "from-file", c.JWT.Secret)
	assert.Equal(t, 15*time.Minute, c.JWT.AccessTTL)
	assert.Equal(t, DriverBolt, c.Store.Driver)
	assert.Equal(t, "/var/lib/whatbird/auth.db", c.Store.Path)
	assert.Equal(t, "redis://localhost:6379/0", c.Redis.URL)
}

func TestLegacySecretVariable(t *testing.T) {
	t.Setenv("WHATBIRD_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "legacy")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "legacy", c.JWT.Secret)

	t.Setenv("WHATBIRD_JWT_SECRET", "preferred")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "preferred", c.JWT.Secret)
}

func TestMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "config file not found")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: Server{Addr: ":9000"},
			Auth:   Auth{ChallengeWindow: 5 * time.Minute, ClockSkew: 30 * time.Second},
			JWT:    JWT{Secret: "s", AccessTTL: time.Hour, RefreshTTL: time.Hour},
			Store:  Store{Driver: DriverMemory},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "empty secret", mutate: func(c *Config) { c.JWT.Secret = "" }},
		{name: "zero access ttl", mutate: func(c *Config) { c.JWT.AccessTTL = 0 }},
		{name: "negative refresh ttl", mutate: func(c *Config) { c.JWT.RefreshTTL = -time.Second }},
		{name: "zero window", mutate: func(c *Config) { c.Auth.ChallengeWindow = 0 }},
		{name: "negative skew", mutate: func(c *Config) { c.Auth.ClockSkew = -time.Second }},
		{name: "no addr", mutate: func(c *Config) { c.Server.Addr = "" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }},
		{name: "bbolt without path", mutate: func(c *Config) { c.Store.Driver = DriverBolt }},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Driver = DriverPostgres }},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Equal(t, core.KindConfig, core.KindOf(err))
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := Log{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("dropped")
	logger.Warn("kept", "k", "v")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}
