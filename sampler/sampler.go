// Package sampler builds a dataset by interleaving picks from a signal pool
// and a noise pool.
//
// Every draw flips a coin to choose a pool, pops that pool's front record and
// resolves its waveform in the matching store. Records whose waveform is
// missing are discarded and never retried. The coin is the only source of
// randomness, so a seed plus the pool order fully determine the result.
package sampler

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/fulldump/waveset/dataset"
	"github.com/fulldump/waveset/metadata"
	"github.com/fulldump/waveset/metrics"
	"github.com/fulldump/waveset/waveform"
)

// HeadroomFraction is the share of the combined pools a run can ask for
// before the sampler warns that misses may exhaust a pool.
const HeadroomFraction = 0.7

// Resolver looks up waveforms by name. A missing name is found=false with a
// nil error; errors mean the store itself failed.
type Resolver interface {
	Get(name string) (waveform.Waveform, bool, error)
}

// Coin decides which pool the next draw pops from, *rand.Rand satisfies it.
type Coin interface {
	IntN(n int) int
}

func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

type Options struct {
	Project bool
	Channel int

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

type Stats struct {
	Draws        int
	NoiseMisses  int
	SignalMisses int
	MissedNames  []string
}

func (s *Stats) Misses() int {
	return s.NoiseMisses + s.SignalMisses
}

type Sampler struct {
	pools   [2]*metadata.Pool
	stores  [2]Resolver
	coin    Coin
	options *Options
	logger  *slog.Logger
}

func New(signal, noise *metadata.Pool, signalStore, noiseStore Resolver, coin Coin, options *Options) *Sampler {

	if options == nil {
		options = &Options{}
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sampler{
		coin:    coin,
		options: options,
		logger:  logger,
	}
	s.pools[dataset.TypeNoise] = noise
	s.pools[dataset.TypeSignal] = signal
	s.stores[dataset.TypeNoise] = noiseStore
	s.stores[dataset.TypeSignal] = signalStore

	return s
}

func kind(t int8) string {
	if t == dataset.TypeSignal {
		return metadata.KindSignal
	}
	return metadata.KindNoise
}

// Sample draws until the dataset holds n events. Running out of records in
// the pool the coin picks is fatal, whatever is left in the other one.
func (s *Sampler) Sample(n int) (*dataset.Dataset, *Stats, error) {

	if n < 0 {
		return nil, nil, fmt.Errorf("requested %d events", n)
	}

	available := s.pools[dataset.TypeSignal].Len() + s.pools[dataset.TypeNoise].Len()
	if float64(n) > HeadroomFraction*float64(available) {
		s.logger.Warn("requested events leave little headroom for store misses",
			"requested", n,
			"available", available,
			"headroom_fraction", HeadroomFraction,
		)
	}

	// The pools bound what can be drawn, n alone may not fit in memory
	ds := dataset.New(min(n, available))
	stats := &Stats{}

	for ds.Len() < n {
		t := int8(s.coin.IntN(2))
		stats.Draws++

		record, err := s.pools[t].Pop()
		if err != nil {
			return nil, stats, fmt.Errorf("draw %d: %w", stats.Draws, err)
		}

		w, found, err := s.stores[t].Get(record.Name)
		if err != nil {
			return nil, stats, fmt.Errorf("draw %d: resolve %s '%s': %w", stats.Draws, kind(t), record.Name, err)
		}

		if !found {
			if t == dataset.TypeSignal {
				stats.SignalMisses++
			} else {
				stats.NoiseMisses++
			}
			stats.MissedNames = append(stats.MissedNames, record.Name)
			s.options.Metrics.RecordMiss(kind(t))
			s.logger.Debug("waveform not found", "name", record.Name, "type", t)
			continue
		}

		if s.options.Project {
			w, err = w.Project(s.options.Channel)
			if err != nil {
				return nil, stats, fmt.Errorf("project '%s': %w", record.Name, err)
			}
		}

		ds.Append(dataset.Event{
			Type:      t,
			Name:      record.Name,
			Waveform:  w,
			PStart:    record.PStart,
			SStart:    record.SStart,
			Magnitude: record.Magnitude,
		})
		s.options.Metrics.RecordEvent(kind(t))

		s.logger.Debug("picked",
			"name", record.Name,
			"type", t,
			"p_start", record.PStart,
			"s_start", record.SStart,
			"mag", record.Magnitude,
		)
	}

	for _, t := range []int8{dataset.TypeNoise, dataset.TypeSignal} {
		s.options.Metrics.SetPoolRemaining(kind(t), s.pools[t].Remaining())
	}

	s.logger.Info("sampling complete",
		"events", ds.Len(),
		"signal", ds.Count(dataset.TypeSignal),
		"noise", ds.Count(dataset.TypeNoise),
		"draws", stats.Draws,
		"misses", stats.Misses(),
	)

	return ds, stats, nil
}
