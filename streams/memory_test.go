package streams

import (
	"bytes"
	"testing"
)

func TestMemoryStream_ReadAdvancesPosition(t *testing.T) {
	m := NewMemoryStream([]byte{1, 2, 3, 4, 5})
	buf := make([]byte, 3)

	n, err := m.Read(buf, 0, 3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 3 || !bytes.Equal(buf, []byte{1, 2, 3}) {
		t.Errorf("Read = %d %v, want 3 [1 2 3]", n, buf)
	}
	if m.Position() != 3 {
		t.Errorf("Position = %d, want 3", m.Position())
	}
}

func TestMemoryStream_ShortReadAtEnd(t *testing.T) {
	m := NewMemoryStream([]byte{1, 2})
	buf := make([]byte, 4)

	n, err := m.Read(buf, 0, 4)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 2 {
		t.Errorf("Read = %d, want 2", n)
	}

	n, err = m.Read(buf, 0, 4)
	if err != nil || n != 0 {
		t.Errorf("Read past end = %d, %v; want 0, nil", n, err)
	}
}

func TestMemoryStream_ReadIntoOffset(t *testing.T) {
	m := NewMemoryStream([]byte{9, 8})
	buf := make([]byte, 4)

	n, err := m.Read(buf, 2, 10)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 2 || !bytes.Equal(buf, []byte{0, 0, 9, 8}) {
		t.Errorf("Read = %d %v", n, buf)
	}
}

func TestMemoryStream_NilBuffer(t *testing.T) {
	m := NewMemoryStream([]byte{1})
	if _, err := m.Read(nil, 0, 1); err == nil {
		t.Error("Read(nil) should fail")
	}
}

func TestMemoryStream_Seek(t *testing.T) {
	m := NewMemoryStream(make([]byte, 10))

	tests := []struct {
		offset int64
		origin SeekOrigin
		want   int64
	}{
		{4, SeekBegin, 4},
		{2, SeekCurrent, 6},
		{-1, SeekEnd, 9},
	}
	for _, tt := range tests {
		got, err := m.Seek(tt.offset, tt.origin)
		if err != nil {
			t.Fatalf("Seek(%d, %d): %v", tt.offset, tt.origin, err)
		}
		if got != tt.want {
			t.Errorf("Seek(%d, %d) = %d, want %d", tt.offset, tt.origin, got, tt.want)
		}
	}

	if _, err := m.Seek(-20, SeekBegin); err == nil {
		t.Error("negative seek should fail")
	}
}

func TestMemoryStream_SetPositionRoundTrip(t *testing.T) {
	m := NewMemoryStream(make([]byte, 4))
	if err := m.SetPosition(99); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if m.Position() != 99 {
		t.Errorf("Position = %d, want 99", m.Position())
	}
}
