package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, path string, maxSessions string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("store:\n  max_sessions: "+maxSessions+"\n"), 0o644))
}

func TestWatcher_NotifiesOnRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opendeepsearch.yaml")
	writeConfig(t, path, "10")
	t.Setenv("CONFIG_PATH", path)

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond
	defer w.Stop()

	reloaded := make(chan int, 1)
	w.OnChange(func(c *Config) error {
		select {
		case reloaded <- c.Store.MaxSessions:
		default:
		}
		return nil
	})
	require.NoError(t, w.Start())

	writeConfig(t, path, "42")

	select {
	case got := <-reloaded:
		assert.Equal(t, 42, got)
	case <-time.After(5 * time.Second):
		t.Fatal("change handler was not invoked after rewrite")
	}
}

func TestWatcher_BrokenFileKeepsPreviousConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opendeepsearch.yaml")
	writeConfig(t, path, "10")
	t.Setenv("CONFIG_PATH", path)

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond
	defer w.Stop()

	reloaded := make(chan int, 2)
	w.OnChange(func(c *Config) error {
		reloaded <- c.Store.MaxSessions
		return nil
	})
	require.NoError(t, w.Start())

	// An unparseable rewrite never reaches the handlers; the next valid
	// rewrite does.
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o644))
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, path, "77")

	select {
	case got := <-reloaded:
		assert.Equal(t, 77, got)
	case <-time.After(5 * time.Second):
		t.Fatal("change handler was not invoked after recovery")
	}
}

func TestNewWatcher_EmptyPath(t *testing.T) {
	_, err := NewWatcher("", zap.NewNop())
	assert.Error(t, err)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "opendeepsearch.yaml")
	writeConfig(t, path, "10")

	w, err := NewWatcher(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, w.Start())

	w.Stop()
	w.Stop()
}
