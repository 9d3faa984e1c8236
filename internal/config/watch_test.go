package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
calendars:
  - US Holidays
isy:
  base_url: http://isy.local
`)

	reloaded := make(chan *Config, 1)
	w := NewWatcher(path, dir, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	// Give the watcher time to establish the directory watch.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte(`
calendars:
  - US Holidays
auth_code: 4/abc123
isy:
  base_url: http://isy.local
`), 0o600))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "4/abc123", cfg.AuthCode)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}

	cancel()
	<-done
}

func TestWatcherIgnoresInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
calendars:
  - US Holidays
isy:
  base_url: http://isy.local
`)

	reloaded := make(chan *Config, 1)
	w := NewWatcher(path, dir, func(cfg *Config) { reloaded <- cfg })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)

	// Empty calendars fails validation; the callback must not fire.
	require.NoError(t, os.WriteFile(path, []byte(`
calendars: []
isy:
  base_url: http://isy.local
`), 0o600))

	select {
	case <-reloaded:
		t.Fatal("callback fired for invalid config")
	case <-time.After(1 * time.Second):
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
calendars:
  - US Holidays
isy:
  base_url: http://isy.local
`)

	reloaded := make(chan *Config, 1)
	w := NewWatcher(path, dir, func(cfg *Config) { reloaded <- cfg })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o600))

	select {
	case <-reloaded:
		t.Fatal("callback fired for unrelated file")
	case <-time.After(1 * time.Second):
	}
}
