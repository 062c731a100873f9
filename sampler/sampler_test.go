package sampler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	. "github.com/fulldump/biff"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/fulldump/waveset/dataset"
	"github.com/fulldump/waveset/metadata"
	"github.com/fulldump/waveset/metrics"
	"github.com/fulldump/waveset/waveform"
)

type memoryStore map[string]waveform.Waveform

func (m memoryStore) Get(name string) (waveform.Waveform, bool, error) {
	w, found := m[name]
	if !found {
		return waveform.Waveform{}, false, nil
	}
	return w.Clone(), true, nil
}

type brokenStore struct{}

func (brokenStore) Get(name string) (waveform.Waveform, bool, error) {
	return waveform.Waveform{}, false, errors.New("disk on fire")
}

// scripted replays a fixed sequence of coin flips.
type scripted []int

func (s *scripted) IntN(n int) int {
	v := (*s)[0]
	*s = (*s)[1:]
	return v
}

func always(v, n int) *scripted {
	s := make(scripted, n)
	for i := range s {
		s[i] = v
	}
	return &s
}

func alternate(n int) *scripted {
	s := make(scripted, n)
	for i := range s {
		s[i] = i % 2
	}
	return &s
}

func fixture(signals, noises int) (signal, noise *metadata.Pool, signalStore, noiseStore memoryStore) {

	signalStore = memoryStore{}
	records := []metadata.Record{}
	for i := 0; i < signals; i++ {
		name := fmt.Sprintf("S%03d_EV", i)
		records = append(records, metadata.Record{Name: name, PStart: 100 + i, SStart: 200 + i, Magnitude: float64(i) / 10})
		w := waveform.New(3, 8)
		w.Data[0] = float32(i)
		signalStore[name] = w
	}
	signal = metadata.NewPool(metadata.KindSignal, records)

	noiseStore = memoryStore{}
	records = []metadata.Record{}
	for i := 0; i < noises; i++ {
		name := fmt.Sprintf("N%03d_NO", i)
		records = append(records, metadata.NoiseRecord(name))
		noiseStore[name] = waveform.New(3, 8)
	}
	noise = metadata.NewPool(metadata.KindNoise, records)

	return
}

func TestSample_ExactCount(t *testing.T) {

	for _, seed := range []uint64{0, 1, 42, 1234567} {
		signal, noise, signalStore, noiseStore := fixture(50, 50)

		ds, stats, err := New(signal, noise, signalStore, noiseStore, NewRand(seed), nil).Sample(30)
		AssertNil(err)

		AssertEqual(ds.Len(), 30)
		AssertEqual(len(ds.Waveforms), 30)
		AssertEqual(len(ds.PStart), 30)
		AssertEqual(len(ds.SStart), 30)
		AssertEqual(len(ds.Magnitude), 30)
		AssertEqual(stats.Draws, 30)
		AssertEqual(stats.Misses(), 0)
		AssertEqual(signal.Remaining()+noise.Remaining(), 70)
	}
}

func TestSample_Deterministic(t *testing.T) {

	run := func(seed uint64) *dataset.Dataset {
		signal, noise, signalStore, noiseStore := fixture(40, 40)
		ds, _, err := New(signal, noise, signalStore, noiseStore, NewRand(seed), nil).Sample(40)
		AssertNil(err)
		return ds
	}

	first := run(7)
	second := run(7)

	AssertEqual(first.Types, second.Types)
	AssertEqual(first.Names, second.Names)
	AssertEqual(first.Magnitude, second.Magnitude)
}

func TestSample_FieldsFollowType(t *testing.T) {

	signal, noise, signalStore, noiseStore := fixture(30, 30)

	ds, _, err := New(signal, noise, signalStore, noiseStore, NewRand(3), nil).Sample(30)
	AssertNil(err)

	nextSignal := 0
	for i := 0; i < ds.Len(); i++ {
		e := ds.Event(i)
		if e.Type == dataset.TypeNoise {
			AssertEqual(e.PStart, -1)
			AssertEqual(e.SStart, -1)
			AssertEqual(e.Magnitude, -1.0)
			continue
		}
		// signal records come out verbatim and in file order
		AssertEqual(e.Name, fmt.Sprintf("S%03d_EV", nextSignal))
		AssertEqual(e.PStart, 100+nextSignal)
		AssertEqual(e.SStart, 200+nextSignal)
		AssertEqual(e.Magnitude, float64(nextSignal)/10)
		AssertEqual(e.Waveform.Data[0], float32(nextSignal))
		nextSignal++
	}
}

func TestSample_MissingWaveformIsSkipped(t *testing.T) {

	signal := metadata.NewPool(metadata.KindSignal, []metadata.Record{
		{Name: "A", PStart: 1, SStart: 2, Magnitude: 0.1},
		{Name: "B", PStart: 3, SStart: 4, Magnitude: 0.2},
		{Name: "C", PStart: 5, SStart: 6, Magnitude: 0.3},
	})
	noise := metadata.NewPool(metadata.KindNoise, nil)
	signalStore := memoryStore{
		"A": waveform.New(3, 4),
		"C": waveform.New(3, 4),
	}

	m := metrics.New()
	ds, stats, err := New(signal, noise, signalStore, memoryStore{}, always(1, 3), &Options{Metrics: m}).Sample(2)
	AssertNil(err)

	AssertEqual(ds.Names, []string{"A", "C"})
	AssertEqual(ds.PStart, []int{1, 5})
	AssertEqual(ds.SStart, []int{2, 6})
	AssertEqual(ds.Magnitude, []float64{0.1, 0.3})
	AssertEqual(len(ds.Waveforms), 2)

	AssertEqual(stats.Draws, 3)
	AssertEqual(stats.SignalMisses, 1)
	AssertEqual(stats.MissedNames, []string{"B"})
	AssertEqual(signal.Remaining(), 0)

	AssertEqual(testutil.ToFloat64(m.StoreMisses.WithLabelValues("signal")), 1.0)
	AssertEqual(testutil.ToFloat64(m.Events.WithLabelValues("signal")), 2.0)
}

func TestSample_PoolExhausted(t *testing.T) {

	signal, noise, signalStore, noiseStore := fixture(3, 3)

	ds, _, err := New(signal, noise, signalStore, noiseStore, NewRand(1), nil).Sample(7)
	AssertNil(ds)
	AssertTrue(errors.Is(err, metadata.ErrPoolExhausted))
}

func TestSample_HugeRequest(t *testing.T) {

	signal, noise, signalStore, noiseStore := fixture(3, 3)

	ds, stats, err := New(signal, noise, signalStore, noiseStore, NewRand(1), nil).Sample(1 << 40)
	AssertNil(ds)
	AssertTrue(errors.Is(err, metadata.ErrPoolExhausted))
	AssertTrue(stats.Draws <= 7)
}

func TestSample_ExhaustsChosenPool(t *testing.T) {

	signal, noise, signalStore, noiseStore := fixture(1, 10)

	_, _, err := New(signal, noise, signalStore, noiseStore, always(1, 2), nil).Sample(2)
	AssertTrue(errors.Is(err, metadata.ErrPoolExhausted))
	AssertEqual(noise.Remaining(), 10)
}

func TestSample_StoreFailureIsFatal(t *testing.T) {

	signal, noise, _, noiseStore := fixture(3, 3)

	_, _, err := New(signal, noise, brokenStore{}, noiseStore, always(1, 1), nil).Sample(1)
	AssertNotNil(err)
	AssertTrue(strings.Contains(err.Error(), "disk on fire"))
}

func TestSample_Project(t *testing.T) {

	signal, noise, signalStore, noiseStore := fixture(10, 10)

	options := &Options{Project: true, Channel: 0}
	ds, _, err := New(signal, noise, signalStore, noiseStore, NewRand(9), options).Sample(10)
	AssertNil(err)

	channels, samples, err := ds.Shape()
	AssertNil(err)
	AssertEqual(channels, 1)
	AssertEqual(samples, 8)
}

func TestSample_ProjectOutOfRange(t *testing.T) {

	signal, noise, signalStore, noiseStore := fixture(10, 10)

	options := &Options{Project: true, Channel: 3}
	_, _, err := New(signal, noise, signalStore, noiseStore, NewRand(9), options).Sample(1)
	AssertNotNil(err)
}

func TestSample_HeadroomWarning(t *testing.T) {

	run := func(n int) string {
		buf := &bytes.Buffer{}
		logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
		signal, noise, signalStore, noiseStore := fixture(15, 15)
		_, _, err := New(signal, noise, signalStore, noiseStore, alternate(n), &Options{Logger: logger}).Sample(n)
		AssertNil(err)
		return buf.String()
	}

	AssertFalse(strings.Contains(run(21), "headroom")) // 21 == 0.7*30
	AssertTrue(strings.Contains(run(22), "headroom"))
}
