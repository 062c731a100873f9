package waveform

import (
	"bufio"
	"fmt"
	"hash/crc32"
	"math"
	"os"
)

// Writer builds a waveform file. Files are immutable once closed.
type Writer struct {
	file   *os.File
	writer *bufio.Writer
	names  map[string]struct{}
	nextID int64
}

func Create(filename string) (*Writer, error) {

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return nil, fmt.Errorf("create waveform file: %w", err)
	}

	w := &Writer{
		file:   f,
		writer: bufio.NewWriterSize(f, 1024*1024),
		names:  map[string]struct{}{},
	}

	if _, err := w.writer.WriteString(Magic); err != nil {
		f.Close()
		return nil, fmt.Errorf("write magic: %w", err)
	}

	return w, nil
}

func (w *Writer) Put(name string, waveform Waveform) error {

	if w.file == nil {
		return fmt.Errorf("waveform file is closed")
	}

	if len(name) > math.MaxUint16 {
		return fmt.Errorf("name too long: %d bytes", len(name))
	}

	if _, exists := w.names[name]; exists {
		return fmt.Errorf("key '%s' already exists", name)
	}

	if err := waveform.validate(); err != nil {
		return fmt.Errorf("'%s': %w", name, err)
	}

	payload := encodePayload(name, waveform)
	h := header{
		op:     OpInsert,
		id:     w.nextID,
		length: uint32(len(payload)),
		crc:    crc32.Checksum(payload, crcTable),
	}

	if _, err := w.writer.Write(h.encode()); err != nil {
		return err
	}
	if _, err := w.writer.Write(payload); err != nil {
		return err
	}

	w.names[name] = struct{}{}
	w.nextID++

	return nil
}

func (w *Writer) Len() int {
	return len(w.names)
}

// Close flushes and fsyncs the file.
func (w *Writer) Close() error {

	if w.file == nil {
		return nil
	}
	defer func() {
		w.file = nil
	}()

	if err := w.writer.Flush(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
