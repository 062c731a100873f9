package waveform

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

func Environment(f func(filename string)) {
	filename := filepath.Join(os.TempDir(), "test_"+uuid.New().String()+".waves")
	defer os.Remove(filename)
	f(filename)
}

// ramp returns a waveform where every sample encodes its position:
// channel*1000 + sample + offset.
func ramp(channels, samples int, offset float32) Waveform {
	w := New(channels, samples)
	for c := 0; c < channels; c++ {
		for i, ch := 0, w.Channel(c); i < samples; i++ {
			ch[i] = float32(c*1000+i) + offset
		}
	}
	return w
}

func writeStore(filename string, items map[string]Waveform) {
	w, err := Create(filename)
	if err != nil {
		panic(err)
	}
	for name, waveform := range items {
		if err := w.Put(name, waveform); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
}
