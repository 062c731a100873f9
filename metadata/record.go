package metadata

import (
	"errors"
	"fmt"
)

// Sentinel marks a field that does not apply to a noise record.
const Sentinel = -1

var ErrPoolExhausted = errors.New("pool exhausted")

type Record struct {
	Name      string
	PStart    int
	SStart    int
	Magnitude float64
}

func NoiseRecord(name string) Record {
	return Record{
		Name:      name,
		PStart:    Sentinel,
		SStart:    Sentinel,
		Magnitude: Sentinel,
	}
}

// Pool hands out records front to back, each one exactly once.
type Pool struct {
	Kind    string
	records []Record
	cursor  int
}

func NewPool(kind string, records []Record) *Pool {
	return &Pool{
		Kind:    kind,
		records: records,
	}
}

func (p *Pool) Pop() (Record, error) {
	if p.cursor >= len(p.records) {
		return Record{}, fmt.Errorf("%s: %w after %d records", p.Kind, ErrPoolExhausted, len(p.records))
	}

	r := p.records[p.cursor]
	p.cursor++

	return r, nil
}

// Len is the size of the pool when it was loaded.
func (p *Pool) Len() int {
	return len(p.records)
}

func (p *Pool) Remaining() int {
	return len(p.records) - p.cursor
}
