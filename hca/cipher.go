package hca

import "fmt"

// CipherType selects how block bytes are descrambled.
type CipherType uint16

const (
	// CipherTypeNone passes bytes through unchanged.
	CipherTypeNone CipherType = 0
	// CipherTypeStatic uses a fixed table shared by all streams.
	CipherTypeStatic CipherType = 1
	// CipherTypeKeyed derives the table from a 64-bit key pair.
	CipherTypeKeyed CipherType = 56
)

// CipherConfig carries the key material for keyed streams. KeyModifier is
// the value an enclosing AFS2 archive stores in the high half of its
// alignment word; when non-zero it is mixed into the key before table
// derivation.
type CipherConfig struct {
	Type        CipherType
	Key1        uint32
	Key2        uint32
	KeyModifier uint16
}

// Cipher holds the byte-substitution tables for one stream. Decryption and
// encryption are independent per byte; the encrypt table is the inverse
// permutation of the decrypt table.
type Cipher struct {
	decryptTable [256]byte
	encryptTable [256]byte
}

// MixKey folds an AFS2 key modifier into a base key the way the archive
// format prescribes.
func MixKey(key uint64, modifier uint16) uint64 {
	if modifier == 0 {
		return key
	}
	return key * ((uint64(modifier) << 16) | (uint64(^modifier) + 2))
}

// NewCipher builds the substitution tables for the given configuration.
func NewCipher(cfg CipherConfig) (*Cipher, error) {
	c := &Cipher{}

	key := uint64(cfg.Key1) | uint64(cfg.Key2)<<32
	key = MixKey(key, cfg.KeyModifier)

	typ := cfg.Type
	if typ == CipherTypeKeyed && key == 0 {
		typ = CipherTypeNone
	}

	switch typ {
	case CipherTypeNone:
		c.init0()
	case CipherTypeStatic:
		c.init1()
	case CipherTypeKeyed:
		c.init56(key)
	default:
		return nil, fmt.Errorf("%w: cipher type %d", ErrUnsupported, cfg.Type)
	}

	c.initEncryptTable()
	return c, nil
}

// Decrypt maps buf through the decrypt table in place.
func (c *Cipher) Decrypt(buf []byte) {
	for i, b := range buf {
		buf[i] = c.decryptTable[b]
	}
}

// Encrypt maps buf through the inverse table in place.
func (c *Cipher) Encrypt(buf []byte) {
	for i, b := range buf {
		buf[i] = c.encryptTable[b]
	}
}

func (c *Cipher) init0() {
	for i := 0; i < 256; i++ {
		c.decryptTable[i] = byte(i)
	}
}

// init1 fills the interior 254 entries by iterating v = v*13 + 11 over the
// byte field, skipping 0 and 0xFF, which map to themselves.
func (c *Cipher) init1() {
	const mul = 13
	const add = 11
	v := 0
	for i := 1; i < 255; i++ {
		v = (v*mul + add) & 0xFF
		if v == 0 || v == 0xFF {
			v = (v*mul + add) & 0xFF
		}
		c.decryptTable[i] = byte(v)
	}
	c.decryptTable[0] = 0
	c.decryptTable[0xFF] = 0xFF
}

func (c *Cipher) init56(key uint64) {
	var kc [8]byte
	var seed [16]byte
	var base [256]byte
	var rowTable, colTable [16]byte

	if key != 0 {
		key--
	}
	for i := 0; i < 7; i++ {
		kc[i] = byte(key)
		key >>= 8
	}

	seed[0x00] = kc[1]
	seed[0x01] = kc[1] ^ kc[6]
	seed[0x02] = kc[2] ^ kc[3]
	seed[0x03] = kc[2]
	seed[0x04] = kc[2] ^ kc[1]
	seed[0x05] = kc[3] ^ kc[4]
	seed[0x06] = kc[3]
	seed[0x07] = kc[3] ^ kc[2]
	seed[0x08] = kc[4] ^ kc[5]
	seed[0x09] = kc[4]
	seed[0x0A] = kc[4] ^ kc[3]
	seed[0x0B] = kc[5] ^ kc[6]
	seed[0x0C] = kc[5]
	seed[0x0D] = kc[5] ^ kc[4]
	seed[0x0E] = kc[6] ^ kc[1]
	seed[0x0F] = kc[6]

	init56CreateTable(&rowTable, kc[0])
	for r := 0; r < 16; r++ {
		init56CreateTable(&colTable, seed[r])
		nb := rowTable[r] << 4
		for col := 0; col < 16; col++ {
			base[r*16+col] = nb | colTable[col]
		}
	}

	x := byte(0)
	pos := 1
	for i := 0; i < 256; i++ {
		x += 17
		if base[x] != 0 && base[x] != 0xFF {
			c.decryptTable[pos] = base[x]
			pos++
		}
	}
	c.decryptTable[0] = 0
	c.decryptTable[0xFF] = 0xFF
}

func init56CreateTable(table *[16]byte, key byte) {
	mul := ((key & 1) << 3) | 5
	add := (key & 0xE) | 1
	key >>= 4
	for i := 0; i < 16; i++ {
		key = (key*mul + add) & 0xF
		table[i] = key
	}
}

func (c *Cipher) initEncryptTable() {
	for i := 0; i < 256; i++ {
		c.encryptTable[c.decryptTable[i]] = byte(i)
	}
}
