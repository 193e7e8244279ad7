package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnvUpFindsParentFile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "cmd", "server")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("PARCEL_DOTENV_PROBE=from-file\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Cleanup(func() { _ = os.Unsetenv("PARCEL_DOTENV_PROBE") })

	got := LoadDotEnvUp(4)
	assert.Equal(t, "from-file", os.Getenv("PARCEL_DOTENV_PROBE"))
	assert.Equal(t, ".env", filepath.Base(got))
}

func TestLoadDotEnvUpKeepsExistingEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("PARCEL_DOTENV_KEEP=file\n"), 0o600))
	t.Setenv("PARCEL_DOTENV_KEEP", "env")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	LoadDotEnvUp(0)
	assert.Equal(t, "env", os.Getenv("PARCEL_DOTENV_KEEP"))
}
