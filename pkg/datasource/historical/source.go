package historical

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"unsafe"

	"golang.org/x/exp/mmap"

	"github.com/peter-kozarec/rewind/pkg/datasource"
)

var (
	ErrTruncated = errors.New("file size is not a multiple of the record size")
	ErrNotOpen   = errors.New("record file is not open")
)

// Source reads fixed width records of type T from a memory mapped file. T must be a plain value
// type with the exact in-memory layout of the records on disk, as written by Writer.
type Source[T any] struct {
	path       string
	recordSize int
	reader     *mmap.ReaderAt
	bufferPool *sync.Pool
}

func NewSource[T any](path string) *Source[T] {
	recordSize := int(unsafe.Sizeof(*new(T)))
	return &Source[T]{
		path:       path,
		recordSize: recordSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, recordSize)
				return &buffer
			},
		},
	}
}

// Open maps the file and refuses files that end in a partial record.
func (s *Source[T]) Open() error {
	if s.recordSize == 0 {
		return fmt.Errorf("record type of %q has zero size", s.path)
	}

	reader, err := mmap.Open(s.path)
	if err != nil {
		return fmt.Errorf("unable to open data source %q: %w", s.path, err)
	}
	if reader.Len()%s.recordSize != 0 {
		_ = reader.Close()
		return fmt.Errorf("%w: %q holds %d bytes", ErrTruncated, s.path, reader.Len())
	}

	s.reader = reader
	return nil
}

func (s *Source[T]) Close() error {
	if s.reader == nil {
		return nil
	}
	err := s.reader.Close()
	s.reader = nil
	return err
}

// Read decodes the record at index into data. Indexes past the last record return
// datasource.ErrEof.
func (s *Source[T]) Read(index int64, data *T) error {
	if s.reader == nil {
		return ErrNotOpen
	}
	if index < 0 {
		return fmt.Errorf("negative record index %d", index)
	}

	buffer := s.bufferPool.Get().(*[]byte)
	defer s.bufferPool.Put(buffer)

	n, err := s.reader.ReadAt(*buffer, index*int64(s.recordSize))
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("unable to read record %d: %w", index, err)
	}
	if n < s.recordSize {
		return datasource.ErrEof
	}

	*data = *(*T)(unsafe.Pointer(&(*buffer)[0])) // #nosec G103
	return nil
}

// EntryCount is the number of whole records in the mapped file.
func (s *Source[T]) EntryCount() (int64, error) {
	if s.reader == nil {
		return 0, ErrNotOpen
	}
	return int64(s.reader.Len() / s.recordSize), nil
}
