package waveform

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// ImportItem is one json document of an import stream, data holds one array
// per channel:
//
//	{"name":"B921.PB_20080721233837_EV","data":[[0.1,0.2],[0.3,0.4],[0.5,0.6]]}
type ImportItem struct {
	Name string      `json:"name"`
	Data [][]float32 `json:"data"`
}

func (i *ImportItem) Waveform() (Waveform, error) {

	if len(i.Data) == 0 {
		return Waveform{}, fmt.Errorf("no channels")
	}

	samples := len(i.Data[0])
	w := New(len(i.Data), samples)
	for c, channel := range i.Data {
		if len(channel) != samples {
			return Waveform{}, fmt.Errorf("channel %d has %d samples, expected %d", c, len(channel), samples)
		}
		copy(w.Channel(c), channel)
	}

	return w, nil
}

// Import copies a stream of json documents into w and returns how many
// waveforms were written.
func Import(r io.Reader, w *Writer) (int, error) {

	decoder := jsontext.NewDecoder(r)

	n := 0
	for {
		item := &ImportItem{}
		err := json.UnmarshalDecode(decoder, item)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return n, fmt.Errorf("decode item %d: %w", n, err)
		}

		if item.Name == "" {
			return n, fmt.Errorf("item %d: name is required", n)
		}

		waveform, err := item.Waveform()
		if err != nil {
			return n, fmt.Errorf("item %d '%s': %w", n, item.Name, err)
		}

		err = w.Put(item.Name, waveform)
		if err != nil {
			return n, err
		}
		n++
	}

	return n, nil
}
