package hca

import (
	"encoding/binary"
	"errors"
	"testing"
)

// loopDecoder builds a decoder by hand so the loop math can be pinned to
// round numbers: 44-byte header, 1024-byte blocks, loop over blocks 2..4
// of 6, repeated twice.
func loopDecoder(loopCount uint32) *Decoder {
	cfg := NewDecoderConfig()
	cfg.LoopEnabled = true
	cfg.LoopCount = loopCount
	cfg.SoftLoop = true // keep the header at 44 bytes

	return &Decoder{
		info: &Info{
			ChannelCount: 1,
			SamplingRate: 48000,
			BlockCount:   6,
			LoopExists:   true,
			LoopStart:    2,
			LoopEnd:      4,
		},
		config:        cfg,
		waveBlockSize: 1024,
	}
}

func TestLoop_Length(t *testing.T) {
	d := loopDecoder(2)
	length, err := d.Length()
	if err != nil {
		t.Fatalf("Length: %v", err)
	}
	// header + (before + after) blocks + loop region replayed twice.
	if want := int64(44 + (1+1)*1024 + 3*2*1024); length != want {
		t.Errorf("Length = %d, want %d", length, want)
	}
}

func TestLoop_MappingIdempotentBeforeFold(t *testing.T) {
	d := loopDecoder(2)
	threshold := int64(44 + (1+3)*1024)
	for _, p := range []int64{0, 43, 44, 44 + 1024, threshold} {
		got, err := d.mapLoopedPosition(p)
		if err != nil {
			t.Fatalf("map(%d): %v", p, err)
		}
		if got != p {
			t.Errorf("map(%d) = %d, want unchanged", p, got)
		}
	}
}

func TestLoop_MappingFolds(t *testing.T) {
	d := loopDecoder(2)
	tests := []struct {
		p, want int64
	}{
		// One byte past the first pass: one repetition folded out, header
		// subtracted, so the result addresses audio bytes.
		{44 + 4*1024 + 1, 1025},
		// Exactly two loop spans consumed.
		{44 + 7*1024, 1024},
		// Last byte of the stream.
		{44 + 8*1024 - 1, 2047},
	}
	for _, tt := range tests {
		got, err := d.mapLoopedPosition(tt.p)
		if err != nil {
			t.Fatalf("map(%d): %v", tt.p, err)
		}
		if got != tt.want {
			t.Errorf("map(%d) = %d, want %d", tt.p, got, tt.want)
		}
	}
}

func TestLoop_MappingClampsToLoopCount(t *testing.T) {
	d := loopDecoder(2)
	// Far past the end: the fold count must clamp at LoopCount.
	got, err := d.mapLoopedPosition(44 + 100*1024)
	if err != nil {
		t.Fatalf("map: %v", err)
	}
	want := int64(44+100*1024) - 2*3*1024 - 44
	if got != want {
		t.Errorf("map = %d, want %d", got, want)
	}
}

func TestLoop_ZeroLoopCountIsInvalid(t *testing.T) {
	d := loopDecoder(0)
	if _, err := d.Length(); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Length err = %v, want ErrInvalidArgument", err)
	}
	if _, err := d.mapLoopedPosition(44 + 5*1024); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("map err = %v, want ErrInvalidArgument", err)
	}
}

func TestLoop_DisabledIsPassthrough(t *testing.T) {
	d := loopDecoder(2)
	d.config.LoopEnabled = false

	for _, p := range []int64{0, 44 + 7*1024, 1 << 30} {
		got, err := d.mapLoopedPosition(p)
		if err != nil || got != p {
			t.Errorf("map(%d) = %d, %v; want passthrough", p, got, err)
		}
	}
	length, err := d.Length()
	if err != nil {
		t.Fatalf("Length: %v", err)
	}
	if want := int64(44 + 6*1024); length != want {
		t.Errorf("Length = %d, want %d", length, want)
	}
}

func TestLoop_EdgeGeometry(t *testing.T) {
	d := loopDecoder(1)
	d.info.LoopStart = 0
	before, in, after := d.loopGeometry()
	if before != 0 {
		t.Errorf("before = %d, want 0 when loop starts at block 0", before)
	}
	if in != 5 {
		t.Errorf("in = %d, want 5", in)
	}
	if after != 1 {
		t.Errorf("after = %d", after)
	}

	d.info.LoopStart = 2
	d.info.LoopEnd = d.info.BlockCount - 1
	_, _, after = d.loopGeometry()
	if after != 0 {
		t.Errorf("after = %d, want 0 when loop ends at the last block", after)
	}
}

func TestLoop_SmplChunkEmitted(t *testing.T) {
	d := loopDecoder(2)
	d.config.SoftLoop = false
	d.info.EncoderPadding = 128

	if d.WaveHeaderSize() != 44+68 {
		t.Fatalf("WaveHeaderSize = %d, want 112", d.WaveHeaderSize())
	}
	header := d.generateWaveHeader()
	if string(header[36:40]) != "smpl" {
		t.Fatalf("smpl tag missing, got %q", header[36:40])
	}

	le := binary.LittleEndian
	if got := le.Uint32(header[36+8:]); got != 0 { // manufacturer
		t.Errorf("manufacturer = %d", got)
	}
	if got := le.Uint32(header[36+16:]); got != 20833 { // 1e9 / 48000, truncated
		t.Errorf("samplePeriod = %d", got)
	}
	loopStartOff := 36 + 4 + 12*4
	if got := le.Uint32(header[loopStartOff:]); got != 2*samplesPerBlock+128 {
		t.Errorf("smpl loopStart = %d, want %d", got, 2*samplesPerBlock+128)
	}
	if got := le.Uint32(header[loopStartOff+4:]); got != 4*samplesPerBlock {
		t.Errorf("smpl loopEnd = %d, want %d", got, 4*samplesPerBlock)
	}
	if string(header[104:108]) != "data" {
		t.Errorf("data tag at %q", header[104:108])
	}
}
