package waveform

import (
	"fmt"
)

// Waveform is a multi-channel time series stored channel-major:
// Data[c*Samples+i] is sample i of channel c.
type Waveform struct {
	Channels int
	Samples  int
	Data     []float32
}

func New(channels, samples int) Waveform {
	return Waveform{
		Channels: channels,
		Samples:  samples,
		Data:     make([]float32, channels*samples),
	}
}

func (w Waveform) Channel(c int) []float32 {
	return w.Data[c*w.Samples : (c+1)*w.Samples]
}

func (w Waveform) Clone() Waveform {
	data := make([]float32, len(w.Data))
	copy(data, w.Data)
	return Waveform{
		Channels: w.Channels,
		Samples:  w.Samples,
		Data:     data,
	}
}

// Project returns a single channel copy of channel c.
func (w Waveform) Project(c int) (Waveform, error) {

	if c < 0 || c >= w.Channels {
		return Waveform{}, fmt.Errorf("channel %d out of range, waveform has %d", c, w.Channels)
	}

	p := New(1, w.Samples)
	copy(p.Data, w.Channel(c))

	return p, nil
}

func (w Waveform) SameShape(o Waveform) bool {
	return w.Channels == o.Channels && w.Samples == o.Samples
}

func (w Waveform) Shape() []int {
	return []int{w.Channels, w.Samples}
}

func (w Waveform) validate() error {
	if w.Channels <= 0 || w.Samples <= 0 {
		return fmt.Errorf("invalid shape %dx%d", w.Channels, w.Samples)
	}
	if len(w.Data) != w.Channels*w.Samples {
		return fmt.Errorf("shape %dx%d needs %d samples, got %d", w.Channels, w.Samples, w.Channels*w.Samples, len(w.Data))
	}
	return nil
}
