package hca

import (
	"bytes"
	"errors"
	"testing"
)

func allBytes() []byte {
	b := make([]byte, 256)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestCipher_Type0Identity(t *testing.T) {
	c, err := NewCipher(CipherConfig{Type: CipherTypeNone})
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}

	buf := allBytes()
	c.Decrypt(buf)
	if !bytes.Equal(buf, allBytes()) {
		t.Error("type 0 decrypt is not the identity")
	}
}

func TestCipher_Type1FixedPoints(t *testing.T) {
	c, err := NewCipher(CipherConfig{Type: CipherTypeStatic})
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	if c.decryptTable[0] != 0 {
		t.Errorf("decrypt[0] = 0x%02X, want 0", c.decryptTable[0])
	}
	if c.decryptTable[0xFF] != 0xFF {
		t.Errorf("decrypt[0xFF] = 0x%02X, want 0xFF", c.decryptTable[0xFF])
	}
}

func TestCipher_EncryptInvertsDecrypt(t *testing.T) {
	configs := []CipherConfig{
		{Type: CipherTypeStatic},
		{Type: CipherTypeKeyed, Key1: 0x30DBE1AB, Key2: 0xCC554639},
		{Type: CipherTypeKeyed, Key1: 0, Key2: 0x01395C51},
	}
	for _, cfg := range configs {
		c, err := NewCipher(cfg)
		if err != nil {
			t.Fatalf("NewCipher(%+v): %v", cfg, err)
		}

		for i := 0; i < 256; i++ {
			if got := c.encryptTable[c.decryptTable[i]]; got != byte(i) {
				t.Fatalf("type %d: encrypt[decrypt[%d]] = %d", cfg.Type, i, got)
			}
		}

		buf := allBytes()
		c.Decrypt(buf)
		c.Encrypt(buf)
		if !bytes.Equal(buf, allBytes()) {
			t.Errorf("type %d: Encrypt(Decrypt(x)) != x", cfg.Type)
		}
	}
}

func TestCipher_TablesArePermutations(t *testing.T) {
	c, err := NewCipher(CipherConfig{Type: CipherTypeKeyed, Key1: 0xDEADBEEF, Key2: 0x12345678})
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	var seen [256]bool
	for _, v := range c.decryptTable {
		if seen[v] {
			t.Fatalf("decrypt table repeats value 0x%02X", v)
		}
		seen[v] = true
	}
}

func TestCipher_KeyedWithZeroKeyFallsBackToIdentity(t *testing.T) {
	c, err := NewCipher(CipherConfig{Type: CipherTypeKeyed})
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	buf := allBytes()
	c.Decrypt(buf)
	if !bytes.Equal(buf, allBytes()) {
		t.Error("keyed cipher with zero key should behave as type 0")
	}
}

func TestCipher_UnknownType(t *testing.T) {
	if _, err := NewCipher(CipherConfig{Type: 7}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v, want ErrUnsupported", err)
	}
}

func TestMixKey(t *testing.T) {
	if got := MixKey(0x1234, 0); got != 0x1234 {
		t.Errorf("MixKey with zero modifier = 0x%X", got)
	}
	const key = uint64(0x0030DBE1AB)
	const mod = uint16(0x5A3B)
	want := key * ((uint64(mod) << 16) | (uint64(^mod) + 2))
	if got := MixKey(key, mod); got != want {
		t.Errorf("MixKey = 0x%X, want 0x%X", got, want)
	}
}
