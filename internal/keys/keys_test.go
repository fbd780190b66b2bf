package keys

import (
	"crypto/sha256"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestName_Versioned(t *testing.T) {
	p := writeArtifact(t, t.TempDir(), "svc-1.0.jar", "bytes")
	key, err := NewNamer("sfn.lambda").Name(p, "java8", true)
	require.NoError(t, err)
	assert.Equal(t, "sfn.lambda/java8/svc-1.0.jar", key)
}

func TestName_ContentAddressed(t *testing.T) {
	dir := t.TempDir()
	p := writeArtifact(t, dir, "svc.jar", "version one")

	key, err := NewNamer("sfn.lambda").Name(p, "java8", false)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("version one"))
	want := "sfn.lambda/java8/svc.jar-" + base64.RawURLEncoding.EncodeToString(sum[:])
	assert.Equal(t, want, key)
	assert.Equal(t, 2, strings.Count(key, "/"))
}

func TestName_DeterministicAndContentSensitive(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	pa := writeArtifact(t, a, "hello.py", "print('a')")
	pb := writeArtifact(t, b, "hello.py", "print('b')")
	n := NewNamer("sfn.lambda")

	k1, err := n.Name(pa, "python", false)
	require.NoError(t, err)
	k2, err := n.Name(pa, "python", false)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := n.Name(pb, "python", false)
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3, "same basename, different content")
}

func TestName_MissingFile(t *testing.T) {
	_, err := NewNamer("sfn.lambda").Name(filepath.Join(t.TempDir(), "gone.jar"), "java8", false)
	assert.Error(t, err)
}
