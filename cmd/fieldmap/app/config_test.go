package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmap/pkg/catalogs"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/storage/backends"
)

// chdir runs the test in an empty directory so no stray map.json, .env
// or .fieldmap.yaml is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, backends.File, cfg.Storage.Backend)
	assert.Equal(t, constants.DefaultStatePath, cfg.Storage.Path)
	assert.Equal(t, "localhost:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, constants.CollectedKey, cfg.Storage.CollectedKey)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.MetricsEnabled)
	assert.Equal(t, catalogs.SourceEmbedded, cfg.CatalogSource().Kind)

	overlay, ok := cfg.DescriptionsSource()
	require.True(t, ok)
	assert.Equal(t, catalogs.Embedded(constants.DefaultDescriptionsFile), overlay)
}

func TestLoadConfigFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog: https://example.com/map.json
descriptions: none
area: "Valley IV:Power Plateau"
auto_reload: 30s
storage:
  backend: redis
  redis:
    addr: redis.internal:6379
    db: 2
server:
  port: 9090
  auth_enabled: true
  api_key: secret
  cors_origins: ["https://a.example"]
log:
  level: debug
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, catalogs.FromURL("https://example.com/map.json"), cfg.CatalogSource())
	_, ok := cfg.DescriptionsSource()
	assert.False(t, ok)
	assert.Equal(t, "Valley IV:Power Plateau", cfg.Area)
	assert.Equal(t, 30*time.Second, cfg.AutoReload)
	assert.Equal(t, backends.Redis, cfg.Storage.Backend)
	assert.Equal(t, "redis.internal:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, constants.DefaultRedisPrefix, cfg.Storage.Redis.Prefix)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.AuthEnabled)
	assert.Equal(t, "secret", cfg.Server.APIKey)
	assert.Equal(t, []string{"https://a.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigEnv(t *testing.T) {
	chdir(t)
	t.Setenv("FIELDMAP_STORAGE_BACKEND", "memory")
	t.Setenv("FIELDMAP_SERVER_PORT", "7070")
	t.Setenv("FIELDMAP_AREA", "Jingyu Valley:Wuling City")
	t.Setenv("FIELDMAP_STORAGE_COLLECTED_KEY", "profile2_collected")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, backends.Memory, cfg.Storage.Backend)
	assert.Equal(t, "profile2_collected", cfg.Storage.CollectedKey)
	assert.Equal(t, constants.VisibilityKey, cfg.Storage.VisibilityKey)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "Jingyu Valley:Wuling City", cfg.Area)
}

func TestLoadConfigDotEnv(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FIELDMAP_SERVER_HOST=0.0.0.0\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("FIELDMAP_SERVER_HOST") })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := chdir(t)

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("FIELDMAP_AUTO_RELOAD", "-1s")
	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLocalCatalogFile(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.DefaultCatalogFile), []byte("{}"), 0o600))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, catalogs.FromFile(constants.DefaultCatalogFile), cfg.CatalogSource())
	_, ok := cfg.DescriptionsSource()
	assert.False(t, ok, "no descriptions.json next to the catalog")

	require.NoError(t, os.WriteFile(filepath.Join(dir, constants.DefaultDescriptionsFile), []byte("{}"), 0o600))
	overlay, ok := cfg.DescriptionsSource()
	require.True(t, ok)
	assert.Equal(t, catalogs.SourceFile, overlay.Kind)
}
