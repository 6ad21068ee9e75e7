package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kerasty/smart-encoder/internal/config"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogFile = ""
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	defer l.Close()
	l.Info("test message")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(dir, "smart-encoder.log")
	l, err := NewLogger(&cfg)
	require.NoError(t, err)

	l.Info("to file")
	require.NoError(t, l.Close())

	b, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	require.Contains(t, string(b), "to file")
}

func TestNewLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "not-a-level"
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	defer l.Close()

	require.True(t, l.IsInfo())
}

func TestLogger_Named(t *testing.T) {
	cfg := config.DefaultConfig()
	l, err := NewLogger(&cfg)
	require.NoError(t, err)
	defer l.Close()

	sub := l.Named("probe")
	require.Equal(t, "smart-encoder.probe", sub.Name())
}
