package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapping(t *testing.T) {
	dir := t.TempDir()

	t.Run("OpenAndRead", func(t *testing.T) {
		path := filepath.Join(dir, "blob.bin")
		content := []byte("hello mapped world")
		require.NoError(t, os.WriteFile(path, content, 0o644))

		m, err := Open(path)
		require.NoError(t, err)
		defer m.Close()

		assert.Equal(t, len(content), m.Size())
		assert.Equal(t, content, m.Bytes())

		buf := make([]byte, 5)
		n, err := m.ReadAt(buf, 6)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, []byte("mappe"), buf)
	})

	t.Run("EmptyFile", func(t *testing.T) {
		path := filepath.Join(dir, "empty.bin")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		m, err := Open(path)
		require.NoError(t, err)
		assert.Equal(t, 0, m.Size())
		require.NoError(t, m.Close())
	})

	t.Run("CloseIdempotent", func(t *testing.T) {
		path := filepath.Join(dir, "close.bin")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		m, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, m.Close())
		require.NoError(t, m.Close())
		assert.Nil(t, m.Bytes())

		_, err = m.ReadAt(make([]byte, 1), 0)
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := Open(filepath.Join(dir, "nope.bin"))
		assert.Error(t, err)
	})
}
