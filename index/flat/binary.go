package flat

import (
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/docidx/index"
	"github.com/hupe1980/docidx/persistence"
)

// maxRows bounds deserialization so a corrupt header cannot trigger an
// absurd allocation.
const maxRows = 100_000_000

func init() {
	index.RegisterBlobLoader(persistence.IndexTypeFlatL2, func(r io.Reader) (index.Index, error) {
		return Read(r)
	})
}

// WriteTo serializes the index in the binary artifact format. Tombstoned
// rows are compacted away: the artifact contains live rows only, in
// insertion order. Implements io.WriterTo.
func (f *Flat) WriteTo(w io.Writer) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	liveIDs := make([]int64, 0, len(f.byID))
	liveRows := make([]int, 0, len(f.byID))
	for row, id := range f.ids {
		if f.deleted.Contains(uint32(row)) {
			continue
		}
		liveIDs = append(liveIDs, id)
		liveRows = append(liveRows, row)
	}

	// The checksum lives in the header, so the payload is hashed in a
	// first pass over the resident data before anything is written.
	crc := persistence.NewChecksumWriter(io.Discard)
	if err := f.writePayload(crc, liveIDs, liveRows); err != nil {
		return 0, err
	}

	header := persistence.FileHeader{
		IndexType:  persistence.IndexTypeFlatL2,
		RowCount:   uint64(len(liveIDs)),
		Dimension:  uint32(f.dim),
		Checksum:   crc.Sum(),
		DataOffset: persistence.HeaderSize,
	}

	cw := &countingWriter{w: w}
	bw := persistence.NewBinaryWriter(cw)
	if err := bw.WriteHeader(&header); err != nil {
		return cw.n, err
	}
	if err := f.writePayload(cw, liveIDs, liveRows); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

func (f *Flat) writePayload(w io.Writer, liveIDs []int64, liveRows []int) error {
	bw := persistence.NewBinaryWriter(w)
	if err := bw.WriteInt64Slice(liveIDs); err != nil {
		return err
	}
	for _, row := range liveRows {
		if err := bw.WriteFloat32Slice(f.row(row)); err != nil {
			return err
		}
	}
	return nil
}

// Read deserializes an index from a stream written by WriteTo. The payload
// checksum is verified; the returned index is writable.
func Read(r io.Reader) (*Flat, error) {
	header, err := persistence.NewBinaryReader(r).ReadHeader()
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

	cr := persistence.NewChecksumReader(r)
	br := persistence.NewBinaryReader(cr)

	ids, err := br.ReadInt64Slice(n)
	if err != nil {
		return nil, err
	}

	vecs := make([]float32, n*dim)
	if err := br.ReadFloat32SliceInto(vecs); err != nil {
		return nil, err
	}

	if err := cr.Verify(header.Checksum); err != nil {
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
		mode:    index.ModeWritable,
		dim:     dim,
		ids:     ids,
		vecs:    vecs,
		byID:    byID,
		deleted: roaring.New(),
	}, nil
}

// SaveToFile writes the self-contained file artifact atomically.
func (f *Flat) SaveToFile(filename string) error {
	return persistence.SaveToFile(filename, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}

// LoadFromFile fully deserializes an index from a file artifact.
func LoadFromFile(filename string) (*Flat, error) {
	var f *Flat
	err := persistence.LoadFromFile(filename, func(r io.Reader) error {
		var readErr error
		f, readErr = Read(r)
		return readErr
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
