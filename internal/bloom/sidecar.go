package bloom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/golang/snappy"
)

// SidecarName is the well-known filter filename inside a partition
// directory, next to the partition's parquet file.
const SidecarName = "plays.bloom"

// sidecarMagic identifies the sidecar format.
var sidecarMagic = [4]byte{'G', 'B', 'F', '1'}

// Serialize encodes the filter as:
//
//	4 bytes: magic "GBF1"
//	8 bytes: numBits (uint64, little-endian)
//	8 bytes: numHashes (uint64, little-endian)
//	8 bytes: count (uint64, little-endian)
//	remaining: snappy-compressed bit array
func (f *Filter) Serialize() ([]byte, error) {
	bitData := make([]byte, len(f.bits)*8)
	for i, word := range f.bits {
		binary.LittleEndian.PutUint64(bitData[i*8:(i+1)*8], word)
	}
	compressed := snappy.Encode(nil, bitData)

	buf := make([]byte, 28+len(compressed))
	copy(buf[0:4], sidecarMagic[:])
	binary.LittleEndian.PutUint64(buf[4:12], f.numBits)
	binary.LittleEndian.PutUint64(buf[12:20], f.numHashes)
	binary.LittleEndian.PutUint64(buf[20:28], f.count)
	copy(buf[28:], compressed)
	return buf, nil
}

// Deserialize reconstructs a filter from serialized sidecar bytes.
func Deserialize(data []byte) (*Filter, error) {
	if len(data) < 28 {
		return nil, errors.New("bloom: sidecar data too short")
	}
	if [4]byte(data[0:4]) != sidecarMagic {
		return nil, errors.New("bloom: bad sidecar magic")
	}

	numBits := binary.LittleEndian.Uint64(data[4:12])
	numHashes := binary.LittleEndian.Uint64(data[12:20])
	count := binary.LittleEndian.Uint64(data[20:28])
	if numBits == 0 || numHashes == 0 {
		return nil, errors.New("bloom: invalid sidecar parameters")
	}

	bitData, err := snappy.Decode(nil, data[28:])
	if err != nil {
		return nil, fmt.Errorf("bloom: snappy decompress failed: %w", err)
	}

	numWords := (numBits + 63) / 64
	if uint64(len(bitData)) < numWords*8 {
		return nil, fmt.Errorf("bloom: decompressed data too short: expected %d bytes, got %d", numWords*8, len(bitData))
	}

	bits := make([]uint64, numWords)
	for i := range bits {
		bits[i] = binary.LittleEndian.Uint64(bitData[i*8 : (i+1)*8])
	}

	return &Filter{
		bits:      bits,
		numBits:   numBits,
		numHashes: numHashes,
		count:     count,
	}, nil
}

// WriteSidecar writes the filter next to a partition file.
func (f *Filter) WriteSidecar(path string) error {
	data, err := f.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("bloom: failed to write sidecar %s: %w", path, err)
	}
	return nil
}

// ReadSidecar loads a filter from a partition sidecar. The ok result is
// false when the sidecar is absent or unreadable; pruning is a hint, so
// callers fall back to scanning the partition.
func ReadSidecar(path string) (*Filter, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	f, err := Deserialize(data)
	if err != nil {
		return nil, false
	}
	return f, true
}
