package historical

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/peter-kozarec/rewind/pkg/common"
)

// Writer appends ticks to a binary tick file in the layout read by Source.
type Writer struct {
	file *os.File
	buf  *bufio.Writer
	last int64
	n    int64
}

func Create(path string) (*Writer, error) {
	file, err := os.Create(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("unable to create %q: %w", path, err)
	}
	return &Writer{
		file: file,
		buf:  bufio.NewWriter(file),
	}, nil
}

func (w *Writer) Write(tick common.Tick) error {
	b := FromModelTick(tick)
	if w.n > 0 && b.TimeStamp < w.last {
		return fmt.Errorf("tick at %d precedes previous tick at %d", b.TimeStamp, w.last)
	}
	if err := binary.Write(w.buf, binary.LittleEndian, b); err != nil {
		return fmt.Errorf("unable to write tick: %w", err)
	}
	w.last = b.TimeStamp
	w.n++
	return nil
}

func (w *Writer) Count() int64 { return w.n }

func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("unable to flush: %w", err)
	}
	return w.file.Close()
}
