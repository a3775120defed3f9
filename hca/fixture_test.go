package hca

import "encoding/binary"

// Test fixtures: a minimal version-2.0 stream with two discrete channels
// and silent blocks. Every scalefactor field is zero, so the decoded PCM
// is exactly zero regardless of transform details, which makes end-to-end
// expectations byte-exact.

const (
	fixtureChannels   = 2
	fixtureRate       = 44100
	fixtureBlockCount = 4
	fixtureBlockSize  = 16
	fixtureHeaderSize = 48
)

func appendCRC(b []byte) []byte {
	crc := checksum(b)
	return append(b, byte(crc>>8), byte(crc))
}

// buildTestHeader assembles the header chunks: HCA, fmt, comp, ciph and the
// trailing checksum.
func buildTestHeader() []byte {
	h := make([]byte, 0, fixtureHeaderSize)

	h = append(h, "HCA\x00"...)
	h = binary.BigEndian.AppendUint16(h, version200)
	h = binary.BigEndian.AppendUint16(h, fixtureHeaderSize)

	h = append(h, "fmt\x00"...)
	h = append(h, fixtureChannels)
	h = append(h, byte(fixtureRate>>16), byte(fixtureRate>>8), byte(fixtureRate&0xff)) // 24-bit rate
	h = binary.BigEndian.AppendUint32(h, fixtureBlockCount)
	h = binary.BigEndian.AppendUint16(h, 0) // encoder delay
	h = binary.BigEndian.AppendUint16(h, 0) // encoder padding

	h = append(h, "comp"...)
	h = binary.BigEndian.AppendUint16(h, fixtureBlockSize)
	h = append(h,
		1,    // min resolution
		15,   // max resolution
		1,    // track count
		0,    // channel config
		8,    // total bands
		8,    // base bands
		0,    // stereo bands
		0,    // bands per HFR group
		0, 0, // MS stereo, reserved
	)

	h = append(h, "ciph"...)
	h = binary.BigEndian.AppendUint16(h, 0)

	return appendCRC(h)
}

// buildSilentBlock returns one valid block: sync word, all-zero fields and
// a correct checksum.
func buildSilentBlock() []byte {
	b := make([]byte, fixtureBlockSize-2)
	b[0] = 0xFF
	b[1] = 0xFF
	return appendCRC(b)
}

func buildTestStream() []byte {
	data := buildTestHeader()
	for i := 0; i < fixtureBlockCount; i++ {
		data = append(data, buildSilentBlock()...)
	}
	return data
}
