package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "studyloop.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default().Routine, cfg.Routine)
	require.Equal(t, 90, cfg.Routine.MaxStudyBlockMins)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "studyloop.yaml")

	cfg := Default()
	cfg.Routine.MaxStudyBlockMins = 60
	cfg.Timetable["monday"] = []Class{{Start: "09:00", End: "10:30", Subject: "CS101", Type: "lecture", Room: "A1"}}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 60, loaded.Routine.MaxStudyBlockMins)
	require.Len(t, loaded.Timetable["monday"], 1)
	require.Equal(t, "CS101", loaded.Timetable["monday"][0].Subject)
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "studyloop.yaml")

	cfg := Default()
	require.NoError(t, cfg.Save(path))

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, func(c *Config) { reloaded <- c })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	cfg.Routine.MaxStudyBlockMins = 45
	require.NoError(t, cfg.Save(path))
	require.NoError(t, os.Chtimes(path, time.Now(), time.Now()))

	select {
	case got := <-reloaded:
		require.Equal(t, 45, got.Routine.MaxStudyBlockMins)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
