// Package hca decodes CRI HCA (High-Compression Audio) streams. The
// decoder presents the decoded waveform as a random-access byte stream
// with an optional synthesized WAVE header and virtual looping.
package hca

import (
	"github.com/nicks96432/libcgss/streams"
)

const (
	version101 = 0x0101
	version102 = 0x0102
	version103 = 0x0103
	version200 = 0x0200
	version300 = 0x0300

	minBlockSize = 0x08
	maxBlockSize = 0xFFFF

	minChannels   = 1
	maxChannels   = 16
	minSampleRate = 1
	maxSampleRate = 0x7FFFFF

	subframesPerBlock  = 8
	samplesPerSubframe = 0x80
	samplesPerBlock    = subframesPerBlock * samplesPerSubframe

	// Chunk tags are matched with the high bit of every byte cleared, so
	// both plain and "masked" headers are recognized.
	tagMask = 0x7F7F7F7F

	tagHCA  = 0x48434100 // "HCA\0"
	tagFmt  = 0x666D7400 // "fmt\0"
	tagComp = 0x636F6D70 // "comp"
	tagDec  = 0x64656300 // "dec\0"
	tagVbr  = 0x76627200 // "vbr\0"
	tagAth  = 0x61746800 // "ath\0"
	tagLoop = 0x6C6F6F70 // "loop"
	tagCiph = 0x63697068 // "ciph"
	tagRva  = 0x72766100 // "rva\0"
	tagComm = 0x636F6D6D // "comm"
)

// Info is the parsed stream descriptor: everything the block decoder and
// the wave reader need, pulled from the header chunks.
type Info struct {
	Version    uint16
	HeaderSize uint16

	ChannelCount   uint32
	SamplingRate   uint32
	BlockCount     uint32
	EncoderDelay   uint16
	EncoderPadding uint16

	BlockSize        uint16
	MinResolution    uint8
	MaxResolution    uint8
	TrackCount       uint8
	ChannelConfig    uint8
	TotalBandCount   uint8
	BaseBandCount    uint8
	StereoBandCount  uint8
	BandsPerHfrGroup uint8
	MsStereo         uint8

	VbrMaxBlockSize uint16
	VbrNoiseLevel   uint16

	AthType uint16

	LoopExists    bool
	LoopStart     uint32
	LoopEnd       uint32
	LoopPlayCount uint16
	LoopPadding   uint16

	CipherType uint16

	RvaVolume float32

	Comment string

	// DataOffset is the byte offset of the first compressed block; it
	// equals the header size.
	DataOffset uint32

	// HfrGroupCount is derived from the band layout at parse time.
	HfrGroupCount uint32
}

// IsHCAFile reports whether the stream starts with a plausible HCA header.
// The stream position is restored before returning.
func IsHCAFile(s streams.Stream) bool {
	r := streams.NewBinaryReader(s)
	b, err := r.PeekBytes(0, 8)
	if err != nil {
		return false
	}
	if streams.ToUint32BE(b)&tagMask != tagHCA {
		return false
	}
	headerSize := uint16(b[6])<<8 | uint16(b[7])
	return headerSize >= 8
}

func ceilDiv(a, b uint32) uint32 {
	if b < 1 {
		return 0
	}
	r := a / b
	if a%b != 0 {
		r++
	}
	return r
}
