package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heysubinoy/adrakdb/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultAddr, cfg.Addr)
	assert.Equal(t, config.DefaultDataDir, cfg.DataDir)
	assert.Equal(t, config.DefaultEngine, cfg.Engine)
	assert.Equal(t, config.DefaultPool, cfg.Pool)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adrak.yaml")
	contents := `
addr: "0.0.0.0:5000"
data_dir: "/var/lib/adrak"
engine: "bolt"
pool: "stealing"
pool_size: 8
max_uncompacted_bytes: 2097152
log_level: "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:5000", cfg.Addr)
	assert.Equal(t, "/var/lib/adrak", cfg.DataDir)
	assert.Equal(t, "bolt", cfg.Engine)
	assert.Equal(t, "stealing", cfg.Pool)
	assert.Equal(t, 8, cfg.PoolSize)
	assert.Equal(t, int64(2097152), cfg.MaxUncompactedBytes)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adrak.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: \"log\"\n"), 0644))

	t.Setenv("ADRAK_ENGINE", "bolt")
	t.Setenv("ADRAK_POOL_SIZE", "16")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "bolt", cfg.Engine)
	assert.Equal(t, 16, cfg.PoolSize)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	base := func() *config.Config {
		cfg, err := config.Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Engine = "sled"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Pool = "rayon"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.PoolSize = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Addr = ""
	assert.Error(t, cfg.Validate())
}
