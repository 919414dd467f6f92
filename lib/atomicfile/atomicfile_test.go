package atomicfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listDir(t *testing.T, dir string) []string {
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, ent := range ents {
		names = append(names, ent.Name())
	}
	return names
}

func TestCommit(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	name := filepath.Join(dir, "out.apk")
	require.NoError(t, os.WriteFile(name, []byte("old"), 0644))
	f, err := New(name)
	require.NoError(t, err)
	_, err = f.Write([]byte("new"))
	require.NoError(t, err)
	// not visible until committed
	blob, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "old", string(blob))
	require.NoError(t, f.Commit())
	require.NoError(t, f.Close())
	blob, err = os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "new", string(blob))
	assert.Equal(t, []string{"out.apk"}, listDir(t, dir))
}

func TestCloseDiscards(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	f, err := New(filepath.Join(dir, "out.apk"))
	require.NoError(t, err)
	_, err = f.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Empty(t, listDir(t, dir))
	_, err = f.Write([]byte("more"))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.Error(t, f.Commit())
}
