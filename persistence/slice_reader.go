package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unsafe"
)

// SliceReader provides bounds-checked reads from a byte slice. It is used by
// mmap loaders to parse mapped artifacts without intermediate allocations.
type SliceReader struct {
	b   []byte
	off int
}

func NewSliceReader(b []byte) *SliceReader {
	return &SliceReader{b: b}
}

// Offset returns the number of bytes consumed so far.
func (r *SliceReader) Offset() int {
	return r.off
}

// ReadBytes returns the next n bytes as a view into the backing slice.
func (r *SliceReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.b) {
		return nil, fmt.Errorf("persistence: out of bounds read (%d bytes at %d, len=%d)", n, r.off, len(r.b))
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out, nil
}

// ReadFileHeader reads and validates the artifact header.
func (r *SliceReader) ReadFileHeader() (*FileHeader, error) {
	b, err := r.ReadBytes(HeaderSize)
	if err != nil {
		return nil, err
	}
	var h FileHeader
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if h.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, h.Version)
	}
	return &h, nil
}

// ReadInt64SliceCopy reads n int64 values into a fresh slice.
func (r *SliceReader) ReadInt64SliceCopy(n int) ([]int64, error) {
	if n == 0 {
		return nil, nil
	}
	bb, err := r.ReadBytes(n * 8)
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), n*8), bb)
	return out, nil
}

// ReadFloat32SliceView returns n float32 values as a zero-copy view into the
// backing slice. The view is valid only while the backing memory is.
func (r *SliceReader) ReadFloat32SliceView(n int) ([]float32, error) {
	if n == 0 {
		return nil, nil
	}
	bb, err := r.ReadBytes(n * 4)
	if err != nil {
		return nil, err
	}
	if uintptr(unsafe.Pointer(&bb[0]))%4 != 0 {
		return nil, fmt.Errorf("persistence: unaligned vector section")
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&bb[0])), n), nil
}
