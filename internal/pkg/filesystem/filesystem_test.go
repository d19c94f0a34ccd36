package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
	assert.NoFileExists(t, path+".tmp")
}

func TestExpandPath(t *testing.T) {
	home := UserHomeDir()
	assert.Equal(t, filepath.Join(home, ".puremath", "cache.json"), ExpandPath("~/.puremath/cache.json"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, "/tmp/x", ExpandPath("/tmp/x"))
	assert.Equal(t, filepath.Join(home, ".puremath"), AppDir())
}
