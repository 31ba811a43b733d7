package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeDebugConfig(t *testing.T, dir string) {
	t.Helper()
	cfgDir := filepath.Join(dir, ".studyloop")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	data := []byte(`{"logging":{"debug_mode":true,"level":"debug"}}`)
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.json"), data, 0644))
}

func resetLoggerState() {
	loggersMu.Lock()
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()
	configMu.Lock()
	config = loggingConfig{}
	configMu.Unlock()
	logsDir = ""
	workspace = ""
}

func TestInitializeCreatesLogsDirWhenDebugEnabled(t *testing.T) {
	defer resetLoggerState()
	dir := t.TempDir()
	writeDebugConfig(t, dir)

	require.NoError(t, Initialize(dir))
	defer CloseAll()

	info, err := os.Stat(filepath.Join(dir, ".studyloop", "logs"))
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestInitializeIsNoOpWithoutConfig(t *testing.T) {
	defer resetLoggerState()
	dir := t.TempDir()

	require.NoError(t, Initialize(dir))
	_, err := os.Stat(filepath.Join(dir, ".studyloop", "logs"))
	require.True(t, os.IsNotExist(err))
}

func TestGetWritesCategorizedFile(t *testing.T) {
	defer resetLoggerState()
	dir := t.TempDir()
	writeDebugConfig(t, dir)
	require.NoError(t, Initialize(dir))
	defer CloseAll()

	Get(CategoryPlanner).Info("placed task %s", "abc123")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(dir, ".studyloop", "logs"))
	require.NoError(t, err)
	found := false
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".log" {
			found = true
		}
	}
	require.True(t, found, "expected at least one category log file")
}

func TestCategoryDisabledIsNoOp(t *testing.T) {
	defer resetLoggerState()
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, ".studyloop")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	data := []byte(`{"logging":{"debug_mode":true,"level":"debug","categories":{"planner":false}}}`)
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, "config.json"), data, 0644))
	require.NoError(t, Initialize(dir))
	defer CloseAll()

	l := Get(CategoryPlanner)
	require.Nil(t, l.logger, "disabled category should yield a no-op logger")
}

func TestStartTimerStop(t *testing.T) {
	defer resetLoggerState()
	timer := StartTimer(CategoryStore, "noop")
	d := timer.Stop()
	require.GreaterOrEqual(t, d.Nanoseconds(), int64(0))
}
