package streams

// MemoryStream is a Stream over an in-memory byte slice.
type MemoryStream struct {
	data []byte
	pos  int64
}

// NewMemoryStream wraps data without copying it.
func NewMemoryStream(data []byte) *MemoryStream {
	return &MemoryStream{data: data}
}

func (m *MemoryStream) Read(buffer []byte, offset, count int) (int, error) {
	count, err := clampReadArgs(buffer, offset, count)
	if err != nil {
		return 0, err
	}
	if m.pos >= int64(len(m.data)) {
		return 0, nil
	}
	n := copy(buffer[offset:offset+count], m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemoryStream) Seek(offset int64, origin SeekOrigin) (int64, error) {
	var base int64
	switch origin {
	case SeekBegin:
		base = 0
	case SeekCurrent:
		base = m.pos
	case SeekEnd:
		base = int64(len(m.data))
	default:
		return m.pos, ErrInvalidArgument
	}
	p := base + offset
	if p < 0 {
		return m.pos, ErrInvalidArgument
	}
	m.pos = p
	return p, nil
}

func (m *MemoryStream) Position() int64 { return m.pos }

func (m *MemoryStream) SetPosition(v int64) error {
	if v < 0 {
		return ErrInvalidArgument
	}
	m.pos = v
	return nil
}

func (m *MemoryStream) Length() int64 { return int64(len(m.data)) }

func (m *MemoryStream) Close() error { return nil }
