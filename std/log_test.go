package std

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, closer, err := NewLogger("spcat", LogConfig{Path: path, Debug: true})
	require.NoError(t, err)

	log.WithField("bytes", 13).Debug("copied")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"app":"spcat"`)
	assert.Contains(t, string(b), `"bytes":13`)
	assert.Contains(t, string(b), `"msg":"copied"`)
}

func TestNewLoggerLevels(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	log, _, err := NewLogger("spcat", LogConfig{})
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.Logger.GetLevel())

	log, _, err = NewLogger("spcat", LogConfig{Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, logrus.ErrorLevel, log.Logger.GetLevel())

	log, _, err = NewLogger("spcat", LogConfig{Debug: true, Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.Logger.GetLevel())
}

func TestNewLoggerBadPath(t *testing.T) {
	_, _, err := NewLogger("spcat", LogConfig{Path: filepath.Join(t.TempDir(), "missing", "app.log")})
	assert.Error(t, err)
}
