package dataset

import (
	"fmt"

	"github.com/fulldump/waveset/waveform"
)

const (
	TypeNoise  int8 = 0
	TypeSignal int8 = 1
)

type Event struct {
	Type      int8
	Name      string
	Waveform  waveform.Waveform
	PStart    int
	SStart    int
	Magnitude float64
}

// Dataset keeps events as parallel sequences in draw order. Append is the
// only way in, so all sequences always have the same length.
type Dataset struct {
	Names     []string
	Types     []int8
	Waveforms []waveform.Waveform
	PStart    []int
	SStart    []int
	Magnitude []float64
}

func New(capacity int) *Dataset {
	return &Dataset{
		Names:     make([]string, 0, capacity),
		Types:     make([]int8, 0, capacity),
		Waveforms: make([]waveform.Waveform, 0, capacity),
		PStart:    make([]int, 0, capacity),
		SStart:    make([]int, 0, capacity),
		Magnitude: make([]float64, 0, capacity),
	}
}

func (d *Dataset) Append(e Event) {
	d.Names = append(d.Names, e.Name)
	d.Types = append(d.Types, e.Type)
	d.Waveforms = append(d.Waveforms, e.Waveform)
	d.PStart = append(d.PStart, e.PStart)
	d.SStart = append(d.SStart, e.SStart)
	d.Magnitude = append(d.Magnitude, e.Magnitude)
}

func (d *Dataset) Len() int {
	return len(d.Types)
}

func (d *Dataset) Event(i int) Event {
	return Event{
		Type:      d.Types[i],
		Name:      d.Names[i],
		Waveform:  d.Waveforms[i],
		PStart:    d.PStart[i],
		SStart:    d.SStart[i],
		Magnitude: d.Magnitude[i],
	}
}

// Count returns how many events of type t the dataset holds.
func (d *Dataset) Count(t int8) int {
	n := 0
	for _, v := range d.Types {
		if v == t {
			n++
		}
	}
	return n
}

// Slice shares the backing arrays with d.
func (d *Dataset) Slice(from, to int) *Dataset {
	return &Dataset{
		Names:     d.Names[from:to],
		Types:     d.Types[from:to],
		Waveforms: d.Waveforms[from:to],
		PStart:    d.PStart[from:to],
		SStart:    d.SStart[from:to],
		Magnitude: d.Magnitude[from:to],
	}
}

// Split cuts the dataset in the first n events and the rest, without
// reordering.
func (d *Dataset) Split(n int) (head, tail *Dataset, err error) {

	if n < 0 || n > d.Len() {
		return nil, nil, fmt.Errorf("split at %d out of range, dataset has %d events", n, d.Len())
	}

	return d.Slice(0, n), d.Slice(n, d.Len()), nil
}

// Shape returns the common waveform shape, or an error naming the first
// event that does not match event 0. An empty dataset has no shape.
func (d *Dataset) Shape() (channels, samples int, err error) {

	if d.Len() == 0 {
		return 0, 0, nil
	}

	first := d.Waveforms[0]
	for i, w := range d.Waveforms {
		if !w.SameShape(first) {
			return 0, 0, fmt.Errorf("event %d '%s' has shape %v, expected %v", i, d.Names[i], w.Shape(), first.Shape())
		}
	}

	return first.Channels, first.Samples, nil
}
