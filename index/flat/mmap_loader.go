package flat

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/docidx/index"
	"github.com/hupe1980/docidx/internal/mmap"
	"github.com/hupe1980/docidx/persistence"
)

func init() {
	index.RegisterMappedLoader(persistence.IndexTypeFlatL2, func(m *mmap.Mapping) (index.Index, error) {
		return fromMapping(m)
	})
}

// OpenMapped opens a file artifact in read-only memory-mapped mode. The
// vector rows alias the mapping; only the id table is materialized. The
// returned index rejects Add and Remove and must be closed to release the
// mapping.
func OpenMapped(filename string) (*Flat, error) {
	m, err := mmap.Open(filename)
	if err != nil {
		return nil, err
	}

	f, err := fromMapping(m)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return f, nil
}

// fromMapping parses a mapped artifact. Validation is structural only; the
// payload checksum is not verified because that would page in the entire
// vector section and defeat the point of mapping.
func fromMapping(m *mmap.Mapping) (*Flat, error) {
	sr := persistence.NewSliceReader(m.Bytes())

	header, err := sr.ReadFileHeader()
	if err != nil {
		return nil, err
	}
	if header.IndexType != persistence.IndexTypeFlatL2 {
		return nil, fmt.Errorf("flat: unexpected index type %d", header.IndexType)
	}
	if header.RowCount > maxRows {
		return nil, fmt.Errorf("flat: implausible row count %d", header.RowCount)
	}
	if header.Dimension == 0 {
		return nil, fmt.Errorf("flat: invalid dimension %d", header.Dimension)
	}

	n := int(header.RowCount)
	dim := int(header.Dimension)

	want := persistence.HeaderSize + n*8 + n*dim*4
	if m.Size() < want {
		return nil, fmt.Errorf("flat: truncated artifact: %d bytes, need %d", m.Size(), want)
	}

	ids, err := sr.ReadInt64SliceCopy(n)
	if err != nil {
		return nil, err
	}

	vecs, err := sr.ReadFloat32SliceView(n * dim)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]int, n)
	for row, id := range ids {
		if _, ok := byID[id]; ok {
			return nil, fmt.Errorf("flat: corrupt artifact, duplicate id %d", id)
		}
		byID[id] = row
	}

	return &Flat{
		mode:    index.ModeReadOnlyMapped,
		dim:     dim,
		ids:     ids,
		vecs:    vecs,
		byID:    byID,
		deleted: roaring.New(),
		mapping: m,
	}, nil
}
