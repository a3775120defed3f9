package hca

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/nicks96432/libcgss/streams"
)

func TestReadInfo_ParsesFixture(t *testing.T) {
	s := streams.NewMemoryStream(buildTestStream())
	info, err := ReadInfo(s)
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}

	if info.Version != version200 {
		t.Errorf("Version = 0x%04X", info.Version)
	}
	if info.ChannelCount != fixtureChannels {
		t.Errorf("ChannelCount = %d", info.ChannelCount)
	}
	if info.SamplingRate != fixtureRate {
		t.Errorf("SamplingRate = %d", info.SamplingRate)
	}
	if info.BlockCount != fixtureBlockCount {
		t.Errorf("BlockCount = %d", info.BlockCount)
	}
	if info.BlockSize != fixtureBlockSize {
		t.Errorf("BlockSize = %d", info.BlockSize)
	}
	if info.DataOffset != fixtureHeaderSize {
		t.Errorf("DataOffset = %d", info.DataOffset)
	}
	if info.AthType != 0 {
		t.Errorf("AthType = %d for v2.0", info.AthType)
	}
	if info.CipherType != 0 {
		t.Errorf("CipherType = %d", info.CipherType)
	}
	if info.LoopExists {
		t.Error("LoopExists should be false")
	}
	if info.RvaVolume != 1.0 {
		t.Errorf("RvaVolume = %v, want default 1.0", info.RvaVolume)
	}
	if info.HfrGroupCount != 0 {
		t.Errorf("HfrGroupCount = %d", info.HfrGroupCount)
	}
	if s.Position() != fixtureHeaderSize {
		t.Errorf("stream left at %d, want %d", s.Position(), fixtureHeaderSize)
	}
}

func TestReadInfo_BadSignature(t *testing.T) {
	data := buildTestStream()
	data[0] = 'X'
	_, err := ReadInfo(streams.NewMemoryStream(data))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestReadInfo_HeaderChecksum(t *testing.T) {
	data := buildTestStream()
	data[20] ^= 0x40
	_, err := ReadInfo(streams.NewMemoryStream(data))
	if !errors.Is(err, ErrChecksum) {
		t.Errorf("err = %v, want ErrChecksum", err)
	}
}

func TestReadInfo_TruncatedStream(t *testing.T) {
	data := buildTestHeader()
	_, err := ReadInfo(streams.NewMemoryStream(data[:10]))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
}

// patchHeader rewrites one byte of a fixture header and fixes the CRC.
func patchHeader(t *testing.T, offset int, value byte) []byte {
	t.Helper()
	h := buildTestHeader()
	h[offset] = value
	return appendCRC(h[:len(h)-2])
}

func TestReadInfo_RejectsBadChannelCount(t *testing.T) {
	// fmt chunk channel count lives right after the chunk tag.
	h := patchHeader(t, 12, 0)
	_, err := ReadInfo(streams.NewMemoryStream(h))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestReadInfo_RejectsResolutionRange(t *testing.T) {
	// v2.0 headers must carry the fixed 1..15 resolution range.
	h := patchHeader(t, 30, 2)
	_, err := ReadInfo(streams.NewMemoryStream(h))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestIsHCAFile(t *testing.T) {
	if !IsHCAFile(streams.NewMemoryStream(buildTestStream())) {
		t.Error("IsHCAFile rejected a valid stream")
	}
	if IsHCAFile(streams.NewMemoryStream([]byte("RIFF1234"))) {
		t.Error("IsHCAFile accepted a WAV header")
	}
	if IsHCAFile(streams.NewMemoryStream([]byte{1, 2})) {
		t.Error("IsHCAFile accepted a short stream")
	}
}

func TestParseHeader_LoopChunkValidation(t *testing.T) {
	// Rebuild the fixture with a loop chunk whose end exceeds the block
	// count; the parser must reject it.
	h := buildTestHeader()
	h = h[:len(h)-2] // drop CRC
	h = h[:len(h)-6] // drop ciph chunk

	h = append(h, "loop"...)
	h = binary.BigEndian.AppendUint32(h, 0)                 // loop start
	h = binary.BigEndian.AppendUint32(h, fixtureBlockCount) // loop end, out of range
	h = binary.BigEndian.AppendUint16(h, 0x80)              // play count
	h = binary.BigEndian.AppendUint16(h, 0x400)             // padding
	h = appendCRC(h)
	// Fix the recorded header size.
	binary.BigEndian.PutUint16(h[6:], uint16(len(h)))
	h = appendCRC(h[:len(h)-2])

	_, err := ReadInfo(streams.NewMemoryStream(h))
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("err = %v, want ErrInvalidFormat", err)
	}
}
