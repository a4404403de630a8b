package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("WORKSPACE_IDLE_TTL", "")
	t.Setenv("UPLOAD_MAX_BYTES", "not-a-number")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("AUTH_COOKIE_SECURE", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, int64(32<<20), cfg.UploadMaxBytes)
	assert.Equal(t, 2*time.Hour, cfg.WorkspaceIdleTTL)
	assert.False(t, cfg.AuthCookieSecure)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("WORKSPACE_SWEEP_INTERVAL", "30s")

	cfg := Load()
	assert.True(t, cfg.AuthCookieSecure)
	assert.Equal(t, 30*time.Second, cfg.WorkspaceSweepInterval)
}

func TestCollectionConfigDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigName("collection")
	v.SetConfigType("yml")
	v.AddConfigPath(t.TempDir())

	holder, err := newCollectionConfigHolder(v, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultCollectionConfig(), holder.Get())
	assert.Equal(t, ';', holder.Get().Export.SeparatorRune())
}

func TestCollectionConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "collection.yml")
	content := `collection:
  topN:
    dashboard: 15
  export:
    defaultPrefix: CAMPAIGN
  headerAliases:
    account_id: ["Cuenta"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(path)

	holder, err := newCollectionConfigHolder(v, false)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, 15, cfg.TopN.Dashboard)
	assert.Equal(t, 10, cfg.TopN.Summary)
	assert.Equal(t, "CAMPAIGN", cfg.Export.DefaultPrefix)
	assert.Equal(t, ";", cfg.Export.Separator)
	assert.Equal(t, []string{"Cuenta"}, cfg.HeaderAliases["account_id"])
}

func TestCollectionConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "collection.yml")
	require.NoError(t, os.WriteFile(path, []byte("collection:\n  export:\n    separator: \";;\"\n"), 0o600))

	v := viper.New()
	v.SetConfigFile(path)

	_, err := newCollectionConfigHolder(v, false)
	assert.Error(t, err)
}
