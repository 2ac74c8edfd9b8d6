package fsutil

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_RoundTrip(t *testing.T) {
	var fsys FileSystem = OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "bundles", "run1")

	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	name := filepath.Join(dir, "S1.json")
	require.NoError(t, fsys.WriteFile(name, []byte(`{"sample":"S1"}`), 0o644))

	assert.True(t, fsys.Exists(name))
	assert.False(t, fsys.Exists(filepath.Join(dir, "S2.json")))
	data, err := fsys.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, `{"sample":"S1"}`, string(data))
}

func TestMemoryFileSystem_WriteRequiresDir(t *testing.T) {
	m := NewMemoryFileSystem()
	err := m.WriteFile("/out/S1.json", []byte("x"), 0o644)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	require.NoError(t, m.MkdirAll("/out", 0o755))
	require.NoError(t, m.WriteFile("/out/S1.json", []byte("x"), 0o644))
	assert.True(t, m.Exists("/out"))
	assert.True(t, m.Exists("/out/S1.json"))
}

func TestMemoryFileSystem_ReadCopies(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.MkdirAll("/out", 0o755))
	src := []byte("abc")
	require.NoError(t, m.WriteFile("/out/a", src, 0o644))
	src[0] = 'z'

	data, err := m.ReadFile("/out/a")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
	data[1] = 'z'

	again, _ := m.ReadFile("/out/a")
	assert.Equal(t, "abc", string(again))

	_, err = m.ReadFile("/out/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMemoryFileSystem_MkdirOverFile(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.MkdirAll("/out", 0o755))
	require.NoError(t, m.WriteFile("/out/a", nil, 0o644))
	assert.ErrorIs(t, m.MkdirAll("/out/a/b", 0o755), fs.ErrExist)
}

func TestMemoryFileSystem_Files(t *testing.T) {
	m := NewMemoryFileSystem()
	require.NoError(t, m.MkdirAll("/out/nested", 0o755))
	require.NoError(t, m.MkdirAll("/other", 0o755))
	for _, name := range []string{"/out/b.json", "/out/a.json", "/out/nested/c.json", "/other/d.json"} {
		require.NoError(t, m.WriteFile(name, nil, 0o644))
	}
	assert.Equal(t, []string{"/out/a.json", "/out/b.json", "/out/nested/c.json"}, m.Files("/out"))
}
