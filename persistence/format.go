package persistence

import "errors"

const (
	// MagicNumber identifies docidx binary index files (ASCII: "DIX0").
	MagicNumber = 0x44495830
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000

	// IndexTypeFlatL2 is the identifier-mapped flat squared-L2 index.
	IndexTypeFlatL2 = 1
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
)

// FileHeader is the 64-byte header at the start of every index artifact.
// The layout is fixed little-endian so the same bytes serve both the
// fully-deserialized read path and the memory-mapped read path.
//
// Sections follow the header in order: ids (RowCount int64), vectors
// (RowCount * Dimension float32). Both sections are naturally aligned
// because the header is 64 bytes and ids are 8 bytes wide.
type FileHeader struct {
	Magic     uint32
	Version   uint32
	IndexType uint8
	Padding1  [3]byte
	RowCount  uint64 // live records; tombstones are compacted on write
	Dimension uint32
	Checksum  uint32 // CRC32 (IEEE) of the payload after the header
	DataOffset uint64
	Reserved  [28]byte
}

// HeaderSize is the encoded size of FileHeader.
const HeaderSize = 64
