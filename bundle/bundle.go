// Package bundle writes a sampled dataset as two NumPy archives: the train
// prefix and the test suffix of the draw order.
//
// Every archive holds five aligned arrays with fixed dtypes:
//
//	waveforms.npy  float32  (n, channels, samples)
//	type.npy       int8     (n,)
//	p_start.npy    int16    (n,)
//	s_start.npy    int16    (n,)
//	mag.npy        float16  (n,)
//
// The narrowing is part of the contract with the trainer. Arrival indices
// outside int16 wrap around and magnitudes are rounded to half precision.
package bundle

import (
	"archive/zip"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/x448/float16"

	"github.com/fulldump/waveset/dataset"
	"github.com/fulldump/waveset/metrics"
)

const (
	TrainSuffix = "_train.npz"
	TestSuffix  = "_test.npz"
)

type Options struct {
	// RunID identifies the run in the manifest, a random uuid when empty.
	RunID string
	Seed  uint64

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

type Bundle struct {
	Name   string `json:"name"`
	Events int    `json:"events"`
	Signal int    `json:"signal"`
	Noise  int    `json:"noise"`
}

type Result struct {
	RunID    string
	Train    Bundle
	Test     Bundle
	Manifest string
}

func Names(prefix string) (train, test string) {
	return prefix + TrainSuffix, prefix + TestSuffix
}

// Write stores the first train events of ds in <prefix>_train.npz and the
// rest in <prefix>_test.npz. Nothing is written if the waveforms do not
// stack.
func Write(prefix string, ds *dataset.Dataset, train int, options *Options) (*Result, error) {

	if options == nil {
		options = &Options{}
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	channels, samples, err := ds.Shape()
	if err != nil {
		return nil, fmt.Errorf("stack waveforms: %w", err)
	}

	head, tail, err := ds.Split(train)
	if err != nil {
		return nil, err
	}

	runID := options.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	trainName, testName := Names(prefix)
	result := &Result{
		RunID:    runID,
		Train:    summary(trainName, head),
		Test:     summary(testName, tail),
		Manifest: prefix + ManifestSuffix,
	}

	pending := []struct {
		name string
		ds   *dataset.Dataset
	}{
		{trainName, head},
		{testName, tail},
	}

	temporary := []string{}
	defer func() {
		for _, t := range temporary {
			os.Remove(t)
		}
	}()

	for _, p := range pending {
		tmp, err := writeArchive(p.name, arrays(p.ds, channels, samples))
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", p.name, err)
		}
		temporary = append(temporary, tmp)
	}

	// Both archives are complete, publish them
	published := []string{}
	for i, p := range pending {
		if err := os.Rename(temporary[i], p.name); err != nil {
			unpublish(published)
			return nil, fmt.Errorf("publish %s: %w", p.name, err)
		}
		published = append(published, p.name)
	}
	temporary = nil

	err = writeManifest(result, options.Seed, channels, samples)
	if err != nil {
		unpublish(published)
		return nil, err
	}

	for _, b := range []Bundle{result.Train, result.Test} {
		options.Metrics.SetBundleEvents(b.Name, b.Events)
		logger.Info("bundle written",
			"name", b.Name,
			"events", b.Events,
			"signal", b.Signal,
			"noise", b.Noise,
		)
	}

	return result, nil
}

// unpublish removes bundles of a run that failed halfway.
func unpublish(names []string) {
	for _, name := range names {
		os.Remove(name)
	}
}

func summary(name string, ds *dataset.Dataset) Bundle {
	return Bundle{
		Name:   name,
		Events: ds.Len(),
		Signal: ds.Count(dataset.TypeSignal),
		Noise:  ds.Count(dataset.TypeNoise),
	}
}

func arrays(ds *dataset.Dataset, channels, samples int) []*array {

	n := ds.Len()

	waveforms := make([]float32, 0, n*channels*samples)
	for _, w := range ds.Waveforms {
		waveforms = append(waveforms, w.Data...)
	}

	types := make([]int8, n)
	copy(types, ds.Types)

	pStart := make([]int16, n)
	sStart := make([]int16, n)
	mag := make([]uint16, n)
	for i := 0; i < n; i++ {
		pStart[i] = int16(ds.PStart[i])
		sStart[i] = int16(ds.SStart[i])
		mag[i] = halfBits(ds.Magnitude[i])
	}

	return []*array{
		{name: "waveforms", descr: DtypeFloat32, shape: []int{n, channels, samples}, data: waveforms},
		{name: "type", descr: DtypeInt8, shape: []int{n}, data: types},
		{name: "p_start", descr: DtypeInt16, shape: []int{n}, data: pStart},
		{name: "s_start", descr: DtypeInt16, shape: []int{n}, data: sStart},
		{name: "mag", descr: DtypeFloat16, shape: []int{n}, data: mag},
	}
}

// halfBits rounds v to the nearest binary16, ties to even, as numpy does
// with float64 input. Going through float32 alone rounds twice.
func halfBits(v float64) uint16 {

	h := float16.Fromfloat32(float32(v))
	if h.IsNaN() || float64(float32(v)) == v {
		return h.Bits()
	}

	bits := h.Bits()
	sign := bits & 0x8000
	if h.IsInf(0) {
		// float32 may have rounded up to the overflow threshold
		if math.Abs(v) < 65520 {
			return sign | maxHalf
		}
		return bits
	}

	// Both roundings are to nearest, so the exact answer is h or a neighbour
	best, bestDist := bits, math.Abs(float64(h.Float32())-v)
	magnitude := bits &^ 0x8000
	for _, m := range []uint16{magnitude - 1, magnitude + 1} {
		if m > maxHalf {
			continue
		}
		d := math.Abs(float64(float16.Frombits(sign|m).Float32()) - v)
		if d < bestDist || (d == bestDist && m&1 == 0) {
			best, bestDist = sign|m, d
		}
	}

	return best
}

// writeArchive writes a npz next to filename and returns the temporary name.
func writeArchive(filename string, arrays []*array) (string, error) {

	f, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".*.tmp")
	if err != nil {
		return "", err
	}

	err = func() error {
		z := zip.NewWriter(f)
		for _, a := range arrays {
			entry, err := z.CreateHeader(&zip.FileHeader{
				Name:   a.name + ".npy",
				Method: zip.Store,
			})
			if err != nil {
				return err
			}
			if err := a.writeTo(entry); err != nil {
				return fmt.Errorf("%s: %w", a.name, err)
			}
		}
		if err := z.Close(); err != nil {
			return err
		}
		return f.Sync()
	}()

	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}
