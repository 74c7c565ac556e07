package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, c.Store.MaxSessions)
	assert.Equal(t, 24*time.Hour, c.TTL())
	assert.Equal(t, 5*time.Minute, c.SweepInterval())
	assert.Equal(t, 10*time.Second, c.SearchTimeout())
	assert.Equal(t, 5, c.Research.MaxSubQuestions)
	assert.Equal(t, 500, c.Research.PreviewChars)
	assert.True(t, c.Observability.Metrics.Enabled)
	assert.Equal(t, "info", c.Observability.Logging.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ODS_STORE_MAX_SESSIONS", "7")
	t.Setenv("ODS_RESEARCH_PREVIEW_CHARS", "64")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, c.Store.MaxSessions)
	assert.Equal(t, 64, c.Research.PreviewChars)
}

func TestLoad_APIKeyFallback(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "from-env")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Search.APIKey)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opendeepsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  max_sessions: 42
search:
  timeout_seconds: 3
`), 0o644))
	t.Setenv("CONFIG_PATH", path)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 42, c.Store.MaxSessions)
	assert.Equal(t, 3*time.Second, c.SearchTimeout())
	// Untouched keys keep their defaults.
	assert.Equal(t, 5, c.Research.MaxSubQuestions)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadAspectTemplates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aspects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
aspects:
  - "History of %s?"
  - "Who uses %s?"
`), 0o644))

	got, err := LoadAspectTemplates(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"History of %s?", "Who uses %s?"}, got)
}

func TestLoadAspectTemplates_EmptyPath(t *testing.T) {
	got, err := LoadAspectTemplates("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadAspectTemplates_RejectsBadPlaceholder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aspects.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
aspects:
  - "No placeholder here?"
`), 0o644))

	_, err := LoadAspectTemplates(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")
}
