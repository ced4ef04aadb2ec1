package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesDebugToFile(t *testing.T) {
	dir := t.TempDir()
	logger, cleanup, err := New(Options{Level: "error", Dir: dir})
	require.NoError(t, err)

	logger.Debug("threshold computed")
	cleanup()

	content, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "threshold computed")
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_CleanupClosesLogFile(t *testing.T) {
	dir := t.TempDir()
	logger, cleanup, err := New(Options{Dir: dir})
	require.NoError(t, err)
	logger.Info("first run")
	cleanup()

	// a second logger appends to the same file once the first released it
	logger, cleanup, err = New(Options{Dir: dir})
	require.NoError(t, err)
	logger.Info("second run")
	cleanup()

	content, err := os.ReadFile(filepath.Join(dir, LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "first run")
	assert.Contains(t, string(content), "second run")
}

func TestNew_CleanupWithoutFile(t *testing.T) {
	logger, cleanup, err := New(Options{Level: "warn"})
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	logger.Warn("console only")
	assert.NotPanics(t, cleanup)
}
