package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultPGDatabase, cfg.Postgres.Database)
	assert.Equal(t, 60*time.Second, cfg.Poll.Interval())
	assert.Equal(t, time.Hour, cfg.FollowUp.Interval())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[server]
addr = ":9090"

[postgres]
host = "db.internal"
password = "secret"

[poll]
interval_seconds = 30
workers = 8

[mail]
system_sender = "notify@omnibox.example"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 30*time.Second, cfg.Poll.Interval())
	assert.Equal(t, 8, cfg.Poll.Workers)
	assert.Equal(t, "notify@omnibox.example", cfg.Mail.SystemSender)
	// untouched sections keep their defaults
	assert.Equal(t, DefaultPGUser, cfg.Postgres.User)
	assert.Equal(t, DefaultFetchLimit, cfg.Poll.FetchLimit)
}

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{
		Host: "localhost", Port: 5432, User: "u", Password: "p",
		Database: "omnibox", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@localhost:5432/omnibox?sslmode=disable", cfg.DSN())
}
