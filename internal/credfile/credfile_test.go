package credfile

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaterializeRoundTrip(t *testing.T) {
	plaintext := []byte(`{"type":"service_account","project_id":"demo"}`)
	encoded := base64.StdEncoding.EncodeToString(plaintext)

	f, err := Materialize(encoded, "key.json")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	got, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Equal(t, plaintext, got, "decoded file must be byte-identical to the original plaintext")

	info, err := os.Stat(f.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMaterializeMalformedBase64(t *testing.T) {
	f, err := Materialize("not!!valid@@base64", "key.json")
	assert.Error(t, err)
	assert.Nil(t, f)
}

func TestMaterializeEmptySecret(t *testing.T) {
	f, err := Materialize("", "key.json")
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	got, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCloseRemovesFile(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("secret"))

	f, err := Materialize(encoded, "key.json")
	require.NoError(t, err)

	path := f.Path()
	dir := filepath.Dir(path)

	require.NoError(t, f.Close())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "credential file should be gone after Close")
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "credential dir should be gone after Close")

	// Close is idempotent.
	assert.NoError(t, f.Close())
}
