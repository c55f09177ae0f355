package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, EngineChi, cfg.HTTP.Engine)
	assert.Equal(t, "/api", cfg.HTTP.BasePath)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 20, cfg.List.PageSize)
	assert.Equal(t, 5*time.Minute, cfg.Preview.CacheTTL)
	assert.True(t, cfg.Activity.Enabled)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messmass.yaml")
	body := []byte("http:\n  engine: fiber\n  base_path: /admin/api\ndatabase:\n  driver: sqlite\n  dsn: /tmp/a.db\nlist:\n  page_size: 50\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))
	t.Setenv("MESSMASS_HTTP_ADDR", ":9090")
	t.Setenv("MESSMASS_DATABASE_DSN", "/tmp/b.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, EngineFiber, cfg.HTTP.Engine)
	assert.Equal(t, "/admin/api", cfg.HTTP.BasePath)
	assert.Equal(t, ":9090", cfg.HTTP.Addr, "env overrides defaults")
	assert.Equal(t, "/tmp/b.db", cfg.Database.DSN, "env overrides the file")
	assert.Equal(t, 50, cfg.List.PageSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("MESSMASS_HTTP_ENGINE", "gin")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "http.base_path", EnvKey("MESSMASS_HTTP_BASE_PATH"))
	assert.Equal(t, "list.max_page_size", EnvKey("MESSMASS_LIST_MAX_PAGE_SIZE"))
	assert.Equal(t, "log.level", EnvKey("MESSMASS_LOG_LEVEL"))
}

func TestValidateListBounds(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.List.MaxPageSize = 5
	assert.Error(t, cfg.Validate())
}
