package streams

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Little-endian decoding of raw bytes. The float variants reinterpret the
// integer bit pattern, so NaN payloads survive the round trip.

func ToUint16LE(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }
func ToInt16LE(b []byte) int16   { return int16(binary.LittleEndian.Uint16(b)) }
func ToUint32LE(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func ToInt32LE(b []byte) int32   { return int32(binary.LittleEndian.Uint32(b)) }
func ToUint64LE(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }
func ToInt64LE(b []byte) int64   { return int64(binary.LittleEndian.Uint64(b)) }

func ToFloat32LE(b []byte) float32 { return math.Float32frombits(ToUint32LE(b)) }
func ToFloat64LE(b []byte) float64 { return math.Float64frombits(ToUint64LE(b)) }

func ToUint16BE(b []byte) uint16 { return binary.BigEndian.Uint16(b) }
func ToUint32BE(b []byte) uint32 { return binary.BigEndian.Uint32(b) }

// BinaryReader reads typed values from a Stream at absolute offsets without
// disturbing the stream position.
type BinaryReader struct {
	s Stream
}

func NewBinaryReader(s Stream) *BinaryReader { return &BinaryReader{s: s} }

// PeekBytes reads count bytes at offset, restoring the stream position
// afterwards. A short read is an error here: directory structures are
// fixed-size, so running off the end means the input is truncated.
func (r *BinaryReader) PeekBytes(offset int64, count int) ([]byte, error) {
	saved := r.s.Position()
	defer r.s.SetPosition(saved)

	if err := r.s.SetPosition(offset); err != nil {
		return nil, err
	}
	buf := make([]byte, count)
	n, err := r.s.Read(buf, 0, count)
	if err != nil {
		return nil, err
	}
	if n < count {
		return nil, fmt.Errorf("streams: short read at offset %d: got %d of %d bytes", offset, n, count)
	}
	return buf, nil
}

func (r *BinaryReader) PeekUint16LE(offset int64) (uint16, error) {
	b, err := r.PeekBytes(offset, 2)
	if err != nil {
		return 0, err
	}
	return ToUint16LE(b), nil
}

func (r *BinaryReader) PeekInt32LE(offset int64) (int32, error) {
	b, err := r.PeekBytes(offset, 4)
	if err != nil {
		return 0, err
	}
	return ToInt32LE(b), nil
}

func (r *BinaryReader) PeekUint32LE(offset int64) (uint32, error) {
	b, err := r.PeekBytes(offset, 4)
	if err != nil {
		return 0, err
	}
	return ToUint32LE(b), nil
}

func (r *BinaryReader) PeekUint32BE(offset int64) (uint32, error) {
	b, err := r.PeekBytes(offset, 4)
	if err != nil {
		return 0, err
	}
	return ToUint32BE(b), nil
}

func (r *BinaryReader) PeekFloat32LE(offset int64) (float32, error) {
	b, err := r.PeekBytes(offset, 4)
	if err != nil {
		return 0, err
	}
	return ToFloat32LE(b), nil
}
