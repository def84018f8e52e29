package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromValue(t *testing.T) {
	secret, err := Load(Source{Name: "api key", Value: "  token  "})
	require.NoError(t, err)
	assert.Equal(t, "token", secret)
}

func TestLoadFromFileTakesPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("file-token\n"), 0o600))

	secret, err := Load(Source{Name: "api key", Value: "inline", File: path})
	require.NoError(t, err)
	assert.Equal(t, "file-token", secret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(Source{Name: "api key", File: filepath.Join(t.TempDir(), "absent")})
	assert.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

	_, err := Load(Source{Name: "api key", File: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestLoadNotConfigured(t *testing.T) {
	_, err := Load(Source{Name: "smtp password"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp password is not configured")
}
