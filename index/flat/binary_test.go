package flat

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/docidx/index"
	"github.com/hupe1980/docidx/persistence"
)

func buildIndex(t *testing.T) *Flat {
	t.Helper()

	f, err := New(WithDimension(3))
	require.NoError(t, err)

	require.NoError(t, f.Add(
		[]int64{100, 200, 300, 400},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
			{1, 1, 1},
		},
	))
	return f
}

func TestWriteToRead(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		f := buildIndex(t)

		var buf bytes.Buffer
		n, err := f.WriteTo(&buf)
		require.NoError(t, err)
		assert.Equal(t, int64(buf.Len()), n)
		assert.Equal(t, persistence.HeaderSize+4*8+4*3*4, buf.Len())

		got, err := Read(&buf)
		require.NoError(t, err)
		assert.Equal(t, 4, got.Count())
		assert.Equal(t, 3, got.Dimension())
		assert.Equal(t, index.ModeWritable, got.Mode())

		results, err := got.Search([]float32{0, 0, 1}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, int64(300), results[0].ID)
		assert.InDelta(t, 0.0, results[0].Distance, 1e-6)
	})

	t.Run("tombstones compacted on write", func(t *testing.T) {
		f := buildIndex(t)
		require.NoError(t, f.Remove([]int64{200}))

		var buf bytes.Buffer
		_, err := f.WriteTo(&buf)
		require.NoError(t, err)
		assert.Equal(t, persistence.HeaderSize+3*8+3*3*4, buf.Len())

		got, err := Read(&buf)
		require.NoError(t, err)
		assert.Equal(t, 3, got.Count())

		results, err := got.Search([]float32{0, 1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.NotEqual(t, int64(200), results[0].ID)
	})

	t.Run("loaded index is writable", func(t *testing.T) {
		f := buildIndex(t)

		var buf bytes.Buffer
		_, err := f.WriteTo(&buf)
		require.NoError(t, err)

		got, err := Read(&buf)
		require.NoError(t, err)

		require.NoError(t, got.Add([]int64{500}, [][]float32{{2, 2, 2}}))
		assert.Equal(t, 5, got.Count())
	})

	t.Run("corrupt payload fails checksum", func(t *testing.T) {
		f := buildIndex(t)

		var buf bytes.Buffer
		_, err := f.WriteTo(&buf)
		require.NoError(t, err)

		data := buf.Bytes()
		data[len(data)-1] ^= 0xFF

		_, err = Read(bytes.NewReader(data))

		var sumErr *persistence.ChecksumMismatchError
		require.ErrorAs(t, err, &sumErr)
	})

	t.Run("bad magic", func(t *testing.T) {
		f := buildIndex(t)

		var buf bytes.Buffer
		_, err := f.WriteTo(&buf)
		require.NoError(t, err)

		data := buf.Bytes()
		data[0] ^= 0xFF

		_, err = Read(bytes.NewReader(data))
		require.ErrorIs(t, err, persistence.ErrInvalidMagic)
	})
}

func TestSaveLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "indexes", "sample", "indexer.vec")

	f := buildIndex(t)
	require.NoError(t, f.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Count())
	assert.Equal(t, 3, got.Dimension())
}

func TestOpenMapped(t *testing.T) {
	t.Run("search over mapping", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "indexer.vec")

		f := buildIndex(t)
		require.NoError(t, f.SaveToFile(path))

		m, err := OpenMapped(path)
		require.NoError(t, err)
		defer m.Close()

		assert.Equal(t, index.ModeReadOnlyMapped, m.Mode())
		assert.Equal(t, 4, m.Count())
		assert.Equal(t, 3, m.Dimension())

		results, err := m.Search([]float32{1, 1, 1}, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, int64(400), results[0].ID)
		assert.InDelta(t, 0.0, results[0].Distance, 1e-6)
	})

	t.Run("mutations rejected", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "indexer.vec")

		f := buildIndex(t)
		require.NoError(t, f.SaveToFile(path))

		m, err := OpenMapped(path)
		require.NoError(t, err)
		defer m.Close()

		err = m.Add([]int64{999}, [][]float32{{0, 0, 0}})
		require.ErrorIs(t, err, index.ErrReadOnly)

		err = m.Remove([]int64{100})
		require.ErrorIs(t, err, index.ErrReadOnly)
	})

	t.Run("truncated artifact", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "indexer.vec")

		f := buildIndex(t)

		var buf bytes.Buffer
		_, err := f.WriteTo(&buf)
		require.NoError(t, err)

		// Cut the file shorter than the header claims.
		require.NoError(t, os.WriteFile(path, buf.Bytes()[:persistence.HeaderSize+8], 0o644))

		_, err = OpenMapped(path)
		require.Error(t, err)
	})
}
