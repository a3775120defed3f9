// Package acb reads CRI AFS2 audio archives: a flat container that keys
// payload blobs (usually HCA streams) by a 16-bit cue id.
package acb

import (
	"errors"
	"fmt"

	"github.com/nicks96432/libcgss/streams"
)

// ErrInvalidFormat is returned when the input is not a well-formed AFS2
// archive.
var ErrInvalidFormat = errors.New("acb: invalid AFS2 archive")

var afs2Signature = [4]byte{'A', 'F', 'S', '2'}

// FileRecord locates one payload inside the host stream. Offsets are
// absolute; OffsetAligned is OffsetRaw rounded up to the archive's byte
// alignment, and Size counts the payload bytes starting there.
type FileRecord struct {
	CueID         uint16
	OffsetRaw     int64
	OffsetAligned int64
	Size          int64
}

// Archive is a parsed AFS2 directory. It is immutable after construction
// and optionally owns the underlying stream.
type Archive struct {
	stream     streams.Stream
	offset     int64
	fileName   string
	ownsStream bool

	version        uint32
	byteAlignment  uint32
	hcaKeyModifier uint16
	files          map[uint16]FileRecord
}

// IsAFS2Archive reports whether the stream carries the AFS2 signature at
// offset. The stream position is restored before returning.
func IsAFS2Archive(s streams.Stream, offset int64) bool {
	r := streams.NewBinaryReader(s)
	sig, err := r.PeekBytes(offset, 4)
	if err != nil {
		return false
	}
	for i := range afs2Signature {
		if sig[i] != afs2Signature[i] {
			return false
		}
	}
	return true
}

// NewArchive parses the directory found at offset. When ownsStream is set
// the archive closes the stream on Close; otherwise the caller keeps
// managing its lifetime.
func NewArchive(s streams.Stream, offset int64, fileName string, ownsStream bool) (*Archive, error) {
	a := &Archive{
		stream:     s,
		offset:     offset,
		fileName:   fileName,
		ownsStream: ownsStream,
		files:      make(map[uint16]FileRecord),
	}
	if err := a.initialize(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Archive) initialize() error {
	if !IsAFS2Archive(a.stream, a.offset) {
		return fmt.Errorf("%w: bad signature", ErrInvalidFormat)
	}

	r := streams.NewBinaryReader(a.stream)
	offset := a.offset

	version, err := r.PeekUint32LE(offset + 4)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	a.version = version

	fileCount, err := r.PeekInt32LE(offset + 8)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if fileCount < 0 || fileCount > 0xFFFF {
		return fmt.Errorf("%w: file count %d exceeds maximum", ErrInvalidFormat, fileCount)
	}

	alignmentWord, err := r.PeekUint32LE(offset + 12)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	a.byteAlignment = alignmentWord & 0xFFFF
	a.hcaKeyModifier = uint16(alignmentWord >> 16)
	if a.byteAlignment == 0 {
		return fmt.Errorf("%w: zero byte alignment", ErrInvalidFormat)
	}

	offsetFieldSize := int64((version >> 8) & 0xFF)
	if offsetFieldSize < 1 || offsetFieldSize > 4 {
		return fmt.Errorf("%w: offset field size %d", ErrInvalidFormat, offsetFieldSize)
	}

	// The offset table has one trailing sentinel entry past the last file;
	// make sure the whole table is actually inside the stream before
	// walking it.
	offsetTableBase := int64(0x10) + 2*int64(fileCount)
	if fileCount > 0 {
		tableEnd := offset + offsetTableBase + (int64(fileCount)+1)*offsetFieldSize
		if tableEnd > a.stream.Length() {
			return fmt.Errorf("%w: directory extends past end of stream", ErrInvalidFormat)
		}
	}

	prevCueID := -1
	for i := int64(0); i < int64(fileCount); i++ {
		cueID, err := r.PeekUint16LE(offset + 0x10 + 2*i)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}

		raw, err := a.peekOffsetField(r, offset+offsetTableBase+i*offsetFieldSize, offsetFieldSize)
		if err != nil {
			return err
		}
		raw += offset

		rec := FileRecord{
			CueID:         cueID,
			OffsetRaw:     raw,
			OffsetAligned: roundUpToAlignment(raw, int64(a.byteAlignment)),
		}

		if i == int64(fileCount)-1 {
			end, err := a.peekOffsetField(r, offset+offsetTableBase+(i+1)*offsetFieldSize, offsetFieldSize)
			if err != nil {
				return err
			}
			rec.Size = end + offset - rec.OffsetAligned
		}

		if prevCueID >= 0 {
			prev := a.files[uint16(prevCueID)]
			prev.Size = rec.OffsetRaw - prev.OffsetAligned
			a.files[uint16(prevCueID)] = prev
		}

		a.files[rec.CueID] = rec
		prevCueID = int(rec.CueID)
	}

	return nil
}

// peekOffsetField reads one entry of the offset table. Entries are 1 to 4
// bytes wide, little-endian, zero-extended.
func (a *Archive) peekOffsetField(r *streams.BinaryReader, offset, size int64) (int64, error) {
	b, err := r.PeekBytes(offset, int(size))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	var v int64
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | int64(b[i])
	}
	return v, nil
}

func roundUpToAlignment(v, alignment int64) int64 {
	return (v + alignment - 1) / alignment * alignment
}

// Files returns the directory keyed by cue id. Callers must not modify the
// returned map.
func (a *Archive) Files() map[uint16]FileRecord { return a.files }

func (a *Archive) Version() uint32        { return a.version }
func (a *Archive) ByteAlignment() uint32  { return a.byteAlignment }
func (a *Archive) HcaKeyModifier() uint16 { return a.hcaKeyModifier }
func (a *Archive) FileName() string       { return a.fileName }
func (a *Archive) Stream() streams.Stream { return a.stream }

// ReadEntry copies the payload bytes of the given cue id out of the host
// stream.
func (a *Archive) ReadEntry(cueID uint16) ([]byte, error) {
	rec, ok := a.files[cueID]
	if !ok {
		return nil, fmt.Errorf("acb: cue id %d not present in archive", cueID)
	}
	r := streams.NewBinaryReader(a.stream)
	data, err := r.PeekBytes(rec.OffsetAligned, int(rec.Size))
	if err != nil {
		return nil, fmt.Errorf("acb: reading cue id %d: %w", cueID, err)
	}
	return data, nil
}

// Close releases the underlying stream if the archive owns it.
func (a *Archive) Close() error {
	if a.ownsStream && a.stream != nil {
		return a.stream.Close()
	}
	return nil
}
