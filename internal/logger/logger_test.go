package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/config"
)

func TestNewWritesToRotatedFile(t *testing.T) {
	dir := t.TempDir()
	log, err := New("production", config.Log{Dir: dir, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	require.NoError(t, err)

	log.Info("shipment created", zap.String("tracking_number", "PKG-20260301-ABCDEFGH"))
	_ = log.Sync()

	raw, err := os.ReadFile(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "PKG-20260301-ABCDEFGH")
}

func TestNewWithoutDir(t *testing.T) {
	log, err := New("local", config.Log{})
	require.NoError(t, err)
	assert.NotNil(t, log)
}
