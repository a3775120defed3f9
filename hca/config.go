package hca

import (
	"encoding/binary"
	"math"
)

// SampleConverter writes one clamped [-1, 1] sample into buf at cursor and
// returns the advanced cursor.
type SampleConverter func(sample float32, buf []byte, cursor int) int

// SampleFormat names the built-in converters.
type SampleFormat int

const (
	// SampleFormatInt16 emits signed 16-bit little-endian PCM.
	SampleFormatInt16 SampleFormat = iota
	// SampleFormatFloat32 emits IEEE-754 32-bit little-endian samples.
	SampleFormatFloat32
)

func (f SampleFormat) bytesPerSample() uint32 {
	if f == SampleFormatFloat32 {
		return 4
	}
	return 2
}

func (f SampleFormat) bitsPerSample() uint16 {
	return uint16(f.bytesPerSample() * 8)
}

func (f SampleFormat) converter() SampleConverter {
	if f == SampleFormatFloat32 {
		return ConvertFloat32LE
	}
	return ConvertInt16LE
}

// ConvertInt16LE is the default sample converter.
func ConvertInt16LE(sample float32, buf []byte, cursor int) int {
	v := int32(sample * 32768)
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	binary.LittleEndian.PutUint16(buf[cursor:], uint16(int16(v)))
	return cursor + 2
}

// ConvertFloat32LE writes the sample bit pattern unscaled.
func ConvertFloat32LE(sample float32, buf []byte, cursor int) int {
	binary.LittleEndian.PutUint32(buf[cursor:], math.Float32bits(sample))
	return cursor + 4
}

// BlockCache stores decoded PCM blocks by block index. Implementations own
// the stored buffers; the default keeps every block for the life of the
// decoder. Under a bounded policy an evicted block is decoded again, and its
// overlap-add starts from the tail of whichever block was decoded last, so
// the re-decoded PCM can differ from the first decode.
type BlockCache interface {
	Get(blockIndex uint32) ([]byte, bool)
	Put(blockIndex uint32, pcm []byte)
}

type mapBlockCache struct {
	blocks map[uint32][]byte
}

func newMapBlockCache() *mapBlockCache {
	return &mapBlockCache{blocks: make(map[uint32][]byte)}
}

func (c *mapBlockCache) Get(blockIndex uint32) ([]byte, bool) {
	b, ok := c.blocks[blockIndex]
	return b, ok
}

func (c *mapBlockCache) Put(blockIndex uint32, pcm []byte) {
	c.blocks[blockIndex] = pcm
}

// DecoderConfig tunes a Decoder. The zero value decodes without looping and
// without a WAVE header; NewDecoderConfig returns the common defaults.
type DecoderConfig struct {
	// Cipher supplies key material. The cipher type comes from the stream
	// descriptor unless ForceCipherType is set.
	Cipher          CipherConfig
	ForceCipherType bool

	// LoopEnabled plays the stream's loop region LoopCount times in the
	// logical output. LoopCount must be at least 1 when looping is in
	// effect.
	LoopEnabled bool
	LoopCount   uint32

	// SoftLoop suppresses the smpl chunk. For a stream without a loop
	// chunk it also marks the whole stream as the loop region in the
	// data-size accounting; a stream with a loop chunk keeps its own range.
	SoftLoop bool

	// WaveHeaderEnabled prepends the synthesized RIFF/WAVE header to the
	// logical output.
	WaveHeaderEnabled bool

	// SampleFormat selects a built-in converter; Converter overrides it
	// when non-nil and must agree with BytesPerSample.
	SampleFormat   SampleFormat
	Converter      SampleConverter
	BytesPerSample uint32
}

// NewDecoderConfig returns the defaults: 16-bit PCM, WAVE header on,
// looping off.
func NewDecoderConfig() DecoderConfig {
	return DecoderConfig{
		WaveHeaderEnabled: true,
		SampleFormat:      SampleFormatInt16,
	}
}

func (c *DecoderConfig) converter() SampleConverter {
	if c.Converter != nil {
		return c.Converter
	}
	return c.SampleFormat.converter()
}

func (c *DecoderConfig) bytesPerSample() uint32 {
	if c.Converter != nil && c.BytesPerSample != 0 {
		return c.BytesPerSample
	}
	return c.SampleFormat.bytesPerSample()
}
