package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TASKMIND_CONFIG", "TASKMIND_ADDR", "TASKMIND_DB_PATH", "TASKMIND_API_URL",
		"TASKMIND_REQUEST_TIMEOUT", "TASKMIND_REFRESH_INTERVAL", "TASKMIND_STATIC_DIR",
	} {
		t.Setenv(key, "")
	}
	// t.Setenv cannot unset; restore the prefix variable by hand.
	if old, ok := os.LookupEnv("TASKMIND_TODO_PREFIX"); ok {
		require.NoError(t, os.Unsetenv("TASKMIND_TODO_PREFIX"))
		t.Cleanup(func() { _ = os.Setenv("TASKMIND_TODO_PREFIX", old) })
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "taskmind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9000"
api_url: "https://file.example.com/"
todo_path_prefix: ""
request_timeout: 3s
refresh_interval: 0s
`), 0o600))

	t.Setenv("TASKMIND_API_URL", "https://env.example.com")

	cfg, err := Load([]string{"-config", path, "-addr", ":9100"})
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Addr)
	assert.Equal(t, "https://env.example.com", cfg.APIURL)
	assert.Equal(t, "", cfg.TodoPathPrefix)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval)
	assert.Equal(t, "data/taskmind.db", cfg.DBPath)
}

func TestLoad_NormalizesPrefixAndURL(t *testing.T) {
	clearEnv(t)

	cfg, err := Load([]string{"-api", "http://localhost:5000/", "-todo-prefix", "api/todo/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.APIURL)
	assert.Equal(t, "/api/todo", cfg.TodoPathPrefix)
}

func TestLoad_RejectsInvalidURL(t *testing.T) {
	clearEnv(t)

	_, err := Load([]string{"-api", "localhost:5000"})
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
