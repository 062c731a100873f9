package waveform

import (
	"bufio"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/google/btree"
)

// Store is a read-only, name-keyed view over a waveform file.
// Every record is validated when the file is opened; payloads are read on
// demand.
type Store struct {
	filename string
	file     *os.File
	index    *btree.BTreeG[*entry]
}

type entry struct {
	name   string
	offset int64
	length uint32
	crc    uint32
}

func Open(filename string) (*Store, error) {

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open waveform file: %w", err)
	}

	s := &Store{
		filename: filename,
		file:     f,
		index: btree.NewG(32, func(a, b *entry) bool {
			return a.name < b.name
		}),
	}

	err = s.load()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}

	return s, nil
}

func (s *Store) load() error {

	reader := bufio.NewReaderSize(s.file, 1024*1024)

	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(reader, magic); err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != Magic {
		return fmt.Errorf("not a waveform file, magic %q", magic)
	}

	offset := int64(len(Magic))
	raw := make([]byte, headerSize)
	for {
		_, err := io.ReadFull(reader, raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("truncated header at byte %d", offset)
		}
		if err != nil {
			return err
		}
		offset += headerSize

		h := decodeHeader(raw)
		if h.op != OpInsert {
			return fmt.Errorf("record %d: unsupported op %d", h.id, h.op)
		}

		payload := make([]byte, h.length)
		if _, err := io.ReadFull(reader, payload); err != nil {
			return fmt.Errorf("record %d: truncated payload: %w", h.id, err)
		}

		if actual := crc32.Checksum(payload, crcTable); actual != h.crc {
			return fmt.Errorf("record %d: corrupted, expected crc %x, got %x", h.id, h.crc, actual)
		}

		name, err := decodeName(payload)
		if err != nil {
			return fmt.Errorf("record %d: %w", h.id, err)
		}

		e := &entry{
			name:   name,
			offset: offset,
			length: h.length,
			crc:    h.crc,
		}
		if s.index.Has(e) {
			return fmt.Errorf("record %d: key '%s' already exists", h.id, name)
		}
		s.index.ReplaceOrInsert(e)

		offset += int64(h.length)
	}

	return nil
}

// Get returns a copy of the waveform stored under name. A missing name is
// reported with found=false and a nil error.
func (s *Store) Get(name string) (w Waveform, found bool, err error) {

	if s.file == nil {
		return Waveform{}, false, fmt.Errorf("store %s is closed", s.filename)
	}

	e, found := s.index.Get(&entry{name: name})
	if !found {
		return Waveform{}, false, nil
	}

	payload := make([]byte, e.length)
	if _, err := s.file.ReadAt(payload, e.offset); err != nil {
		return Waveform{}, false, fmt.Errorf("read '%s': %w", name, err)
	}
	if crc32.Checksum(payload, crcTable) != e.crc {
		return Waveform{}, false, fmt.Errorf("read '%s': corrupted record", name)
	}

	_, w, err = decodePayload(payload)
	if err != nil {
		return Waveform{}, false, err
	}

	return w, true, nil
}

func (s *Store) Has(name string) bool {
	return s.index.Has(&entry{name: name})
}

// Names traverses keys in ascending order until f returns false.
func (s *Store) Names(f func(name string) bool) {
	s.index.Ascend(func(e *entry) bool {
		return f(e.name)
	})
}

func (s *Store) Len() int {
	return s.index.Len()
}

func (s *Store) Filename() string {
	return s.filename
}

func (s *Store) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
