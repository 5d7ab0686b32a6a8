package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitlink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
transport:
  mode: http
db:
  path: /var/lib/gitlink/gitlink.db
github:
  client_id: from-file
  poll_interval: 2s
`), 0o600))

	t.Setenv("GITLINK_GITHUB_CLIENT_ID", "from-env")
	t.Setenv("GITLINK_SERVER_PORT", "9090")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "http", cfg.Transport.Mode)
	require.Equal(t, "/var/lib/gitlink/gitlink.db", cfg.DB.Path)
	require.Equal(t, "from-env", cfg.GitHub.ClientID)
	require.Equal(t, 2*time.Second, cfg.GitHub.PollInterval)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 180, cfg.GitHub.MaxAttempts)
}

func TestLoad_UsesConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gitlink.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600))
	t.Setenv("GITLINK_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [oops"), 0o600))
	_, err = LoadFile(bad)
	require.ErrorContains(t, err, "parse config file")
}

func TestLoadFile_InvalidEnv(t *testing.T) {
	cases := map[string]string{
		"GITLINK_SERVER_PORT":          "eighty",
		"GITLINK_GITHUB_POLL_INTERVAL": "soon",
		"GITLINK_GITHUB_MAX_ATTEMPTS":  "0",
		"GITLINK_TRANSPORT_MODE":       "carrier-pigeon",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadFile("")
			require.Error(t, err)
		})
	}
}
