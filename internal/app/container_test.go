package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/puremath/internal/domain"
)

func writeConfig(t *testing.T, dir, backend, historyPath string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`config_format_version: "1"
log_file: %s
cache:
  path: %s
history:
  backend: %s
  path: %s
`, filepath.Join(dir, "puremath.log"), filepath.Join(dir, "cache.json"), backend, historyPath)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestBuildContainerWiresStores(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, domain.HistoryBackendSQLite, filepath.Join(dir, "questions.db"))

	c, err := BuildContainer(context.Background(), Options{ConfigPath: cfgPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, filepath.Join(dir, "cache.json"), c.CacheStore.Path())
	assert.Equal(t, filepath.Join(dir, "questions.db"), c.HistoryStore.Path())
	assert.NotNil(t, c.Renderer)
	assert.NotNil(t, c.Telegram)
	assert.NotNil(t, c.DoctorService)
	assert.FileExists(t, filepath.Join(dir, "puremath.log"))
}

func TestBuildContainerFallsBackToJSONLog(t *testing.T) {
	dir := t.TempDir()
	// a directory where the database file should be cannot be opened
	blocked := filepath.Join(dir, "questions.db")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "taken"), 0o755))
	cfgPath := writeConfig(t, dir, domain.HistoryBackendSQLite, blocked)

	c, err := BuildContainer(context.Background(), Options{ConfigPath: cfgPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, filepath.Join(dir, "questions.json"), c.HistoryStore.Path())
}

func TestServeRefusesMissingSecrets(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, domain.HistoryBackendJSON, filepath.Join(dir, "questions.json"))
	t.Setenv(domain.EnvTelegramToken, "")
	t.Setenv(domain.EnvModelAPIKey, "")

	c, err := BuildContainer(context.Background(), Options{ConfigPath: cfgPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	err = c.Serve(context.Background())
	require.ErrorIs(t, err, domain.ErrMissingSecret)
}
