package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/", cfg.Prefix)
	assert.Equal(t, "0.0.0.0", cfg.Gateway.Host)
	assert.Equal(t, 3000, cfg.Gateway.Port)
	assert.Equal(t, 5*time.Second, cfg.RetryInitial())
	assert.Equal(t, 300*time.Second, cfg.RetryMax())
	assert.Equal(t, time.Hour, cfg.DedupTTL())
	assert.Equal(t, time.Minute, cfg.DedupSweep())
	assert.Equal(t, time.Minute, cfg.DownloadTimeout())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"prefix": "!",
		"data_dir": "/var/lib/botfleet",
		"owner": {"conversation_id": "owner-42"},
		"gateway": {"host": "127.0.0.1", "port": 8080},
		"retry": {"initial_seconds": 2, "max_seconds": 30},
		"download": {"resolver_url": "https://resolver.example.com", "timeout_seconds": 15},
		"schedule": {"auto_greet": "0 8 * * *", "auto_restart": "0 4 * * *"}
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "!", cfg.Prefix)
	assert.Equal(t, "owner-42", cfg.Owner.ConversationID)
	assert.Equal(t, "127.0.0.1:8080", cfg.GatewayAddr())
	assert.Equal(t, 2*time.Second, cfg.RetryInitial())
	assert.Equal(t, 30*time.Second, cfg.RetryMax())
	assert.Equal(t, "https://resolver.example.com", cfg.Download.ResolverURL)
	assert.Equal(t, "0 8 * * *", cfg.Schedule.AutoGreet)

	assert.Equal(t, filepath.Join("/var/lib/botfleet", "accounts.json"), cfg.AccountsPath())
	assert.Equal(t, filepath.Join("/var/lib/botfleet", "identities.json"), cfg.IdentitiesPath())
	assert.Equal(t, filepath.Join("/var/lib/botfleet", "url_status.json"), cfg.URLStatusPath())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"prefix": "!", "gateway": {"port": 8080}}`)

	t.Setenv("BOTFLEET_PREFIX", "$")
	t.Setenv("BOTFLEET_GATEWAY_PORT", "9090")
	t.Setenv("BOTFLEET_OWNER_CONVERSATION_ID", "env-owner")
	t.Setenv("BOTFLEET_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "$", cfg.Prefix)
	assert.Equal(t, 9090, cfg.Gateway.Port)
	assert.Equal(t, "env-owner", cfg.Owner.ConversationID)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestLoadConfig_MalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"prefix": `)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestSaveConfig_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := DefaultConfig()
	cfg.Prefix = "%"
	cfg.Owner.ConversationID = "owner-1"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "%", loaded.Prefix)
	assert.Equal(t, "owner-1", loaded.Owner.ConversationID)
}
