package streams

import (
	"io"
	"os"
)

// FileStream is a Stream over an opened file.
type FileStream struct {
	f    *os.File
	size int64
}

// OpenFileStream opens path for reading.
func OpenFileStream(path string) (*FileStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileStream{f: f, size: st.Size()}, nil
}

func (s *FileStream) Read(buffer []byte, offset, count int) (int, error) {
	count, err := clampReadArgs(buffer, offset, count)
	if err != nil {
		return 0, err
	}
	n, err := io.ReadFull(s.f, buffer[offset:offset+count])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return n, nil
	}
	return n, err
}

func (s *FileStream) Seek(offset int64, origin SeekOrigin) (int64, error) {
	var whence int
	switch origin {
	case SeekBegin:
		whence = io.SeekStart
	case SeekCurrent:
		whence = io.SeekCurrent
	case SeekEnd:
		whence = io.SeekEnd
	default:
		return 0, ErrInvalidArgument
	}
	return s.f.Seek(offset, whence)
}

func (s *FileStream) Position() int64 {
	p, _ := s.f.Seek(0, io.SeekCurrent)
	return p
}

func (s *FileStream) SetPosition(v int64) error {
	_, err := s.f.Seek(v, io.SeekStart)
	return err
}

func (s *FileStream) Length() int64 { return s.size }

func (s *FileStream) Close() error { return s.f.Close() }
