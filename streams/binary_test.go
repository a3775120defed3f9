package streams

import (
	"math"
	"testing"
)

func TestToIntLE(t *testing.T) {
	b := []byte{0x78, 0x56, 0x34, 0x12, 0xEF, 0xCD, 0xAB, 0x89}

	if got := ToUint16LE(b); got != 0x5678 {
		t.Errorf("ToUint16LE = 0x%04X", got)
	}
	if got := ToUint32LE(b); got != 0x12345678 {
		t.Errorf("ToUint32LE = 0x%08X", got)
	}
	if got := ToUint64LE(b); got != 0x89ABCDEF12345678 {
		t.Errorf("ToUint64LE = 0x%016X", got)
	}
	if got := ToInt32LE([]byte{0xFF, 0xFF, 0xFF, 0xFF}); got != -1 {
		t.Errorf("ToInt32LE = %d, want -1", got)
	}
	if got := ToUint32BE(b); got != 0x78563412 {
		t.Errorf("ToUint32BE = 0x%08X", got)
	}
}

func TestToFloat32LE_PreservesBitPattern(t *testing.T) {
	// A NaN with a distinctive payload must survive decoding untouched.
	const nanBits = uint32(0x7FC12345)
	b := []byte{0x45, 0x23, 0xC1, 0x7F}

	f := ToFloat32LE(b)
	if !math.IsNaN(float64(f)) {
		t.Fatal("expected NaN")
	}
	if got := math.Float32bits(f); got != nanBits {
		t.Errorf("bit pattern = 0x%08X, want 0x%08X", got, nanBits)
	}
}

func TestToFloat64LE(t *testing.T) {
	bits := math.Float64bits(1.5)
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(bits >> (8 * i))
	}
	if got := ToFloat64LE(b); got != 1.5 {
		t.Errorf("ToFloat64LE = %v, want 1.5", got)
	}
}

func TestBinaryReader_PeekKeepsPosition(t *testing.T) {
	m := NewMemoryStream([]byte{0, 0, 0, 0, 0x44, 0x33, 0x22, 0x11})
	m.SetPosition(3)

	r := NewBinaryReader(m)
	v, err := r.PeekUint32LE(4)
	if err != nil {
		t.Fatalf("PeekUint32LE: %v", err)
	}
	if v != 0x11223344 {
		t.Errorf("PeekUint32LE = 0x%08X", v)
	}
	if m.Position() != 3 {
		t.Errorf("position changed to %d", m.Position())
	}
}

func TestBinaryReader_ShortPeekFails(t *testing.T) {
	r := NewBinaryReader(NewMemoryStream([]byte{1, 2}))
	if _, err := r.PeekUint32LE(0); err == nil {
		t.Error("expected error for truncated peek")
	}
}
