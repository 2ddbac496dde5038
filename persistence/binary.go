// Package persistence provides binary serialization and loading for vector
// indexes: a self-contained, mmap-openable file format and a compressed raw
// blob format for opaque byte stores.
package persistence

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unsafe"
)

// BinaryWriter writes index sections in the fixed little-endian format.
type BinaryWriter struct {
	w         io.Writer
	byteOrder binary.ByteOrder
}

// NewBinaryWriter creates a new binary writer.
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{
		w:         w,
		byteOrder: binary.LittleEndian,
	}
}

// WriteHeader writes the file header, stamping magic and version.
func (bw *BinaryWriter) WriteHeader(header *FileHeader) error {
	header.Magic = MagicNumber
	header.Version = Version
	return binary.Write(bw.w, bw.byteOrder, header)
}

// WriteFloat32Slice writes a float32 slice as raw bytes without copying.
func (bw *BinaryWriter) WriteFloat32Slice(vec []float32) error {
	if len(vec) == 0 {
		return nil
	}
	if err := validateAlignment(unsafe.Pointer(&vec[0]), 4); err != nil {
		return err
	}
	byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&vec[0])), len(vec)*4)
	_, err := bw.w.Write(byteSlice)
	return err
}

// WriteInt64Slice writes an int64 slice as raw bytes without copying.
func (bw *BinaryWriter) WriteInt64Slice(slice []int64) error {
	if len(slice) == 0 {
		return nil
	}
	if err := validateAlignment(unsafe.Pointer(&slice[0]), 8); err != nil {
		return err
	}
	byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&slice[0])), len(slice)*8)
	_, err := bw.w.Write(byteSlice)
	return err
}

// BinaryReader reads index sections written by BinaryWriter.
type BinaryReader struct {
	r         io.Reader
	byteOrder binary.ByteOrder
}

// NewBinaryReader creates a new binary reader.
func NewBinaryReader(r io.Reader) *BinaryReader {
	return &BinaryReader{
		r:         r,
		byteOrder: binary.LittleEndian,
	}
}

// ReadHeader reads and validates the file header.
func (br *BinaryReader) ReadHeader() (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(br.r, br.byteOrder, &header); err != nil {
		return nil, err
	}
	if header.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, header.Version)
	}
	return &header, nil
}

// ReadFloat32SliceInto fills vec from the stream.
func (br *BinaryReader) ReadFloat32SliceInto(vec []float32) error {
	if len(vec) == 0 {
		return nil
	}
	byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&vec[0])), len(vec)*4)
	_, err := io.ReadFull(br.r, byteSlice)
	return err
}

// ReadInt64Slice reads an int64 slice of the given length.
func (br *BinaryReader) ReadInt64Slice(count int) ([]int64, error) {
	if count == 0 {
		return nil, nil
	}
	slice := make([]int64, count)
	byteSlice := unsafe.Slice((*byte)(unsafe.Pointer(&slice[0])), count*8)
	if _, err := io.ReadFull(br.r, byteSlice); err != nil {
		return nil, err
	}
	return slice, nil
}

func validateAlignment(p unsafe.Pointer, align uintptr) error {
	if uintptr(p)%align != 0 {
		return fmt.Errorf("persistence: unaligned slice at address 0x%x", uintptr(p))
	}
	return nil
}

// SaveToFile writes an artifact atomically: the content goes to a temp file
// in the target directory, which is then renamed over the destination.
func SaveToFile(filename string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(filename)
	base := filepath.Base(filename)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	_ = tmp.Chmod(0o644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, filename); err != nil {
		return err
	}

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}

	tmpName = ""
	return nil
}

// LoadFromFile reads an artifact through a buffered reader.
func LoadFromFile(filename string, readFunc func(io.Reader) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return readFunc(bufio.NewReaderSize(f, 256*1024))
}
