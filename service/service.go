package service

import (
	"fmt"
	"log/slog"

	"github.com/fulldump/waveset/bundle"
	"github.com/fulldump/waveset/configuration"
	"github.com/fulldump/waveset/dataset"
	"github.com/fulldump/waveset/metadata"
	"github.com/fulldump/waveset/metrics"
	"github.com/fulldump/waveset/sampler"
	"github.com/fulldump/waveset/waveform"
)

type Service struct {
	config  *configuration.Configuration
	logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Report gathers what a run tolerated and what it produced.
type Report struct {
	Signal   *metadata.Report
	Noise    *metadata.Report
	Sampling *sampler.Stats
	Bundles  *bundle.Result
}

func NewService(c *configuration.Configuration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		config:  c,
		logger:  logger,
		Metrics: metrics.New(),
	}
}

// Run loads both tables, samples train+test events and writes the bundles.
// A failed run leaves no bundle under its final name, except when only the
// metrics dump that follows the bundles fails.
func (s *Service) Run() (*Report, error) {

	c := s.config
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	filter, err := metadata.ParseFilter(c.Filter)
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	options := &metadata.Options{
		Separator:          c.Separator,
		PColumn:            c.PColumn,
		SColumn:            c.SColumn,
		MagColumn:          c.MagColumn,
		SkipContinuation:   c.SkipContinuation,
		ContinuationMarker: c.ContinuationMarker,
		Filter:             filter,
		Logger:             s.logger,
	}

	report := &Report{}

	signal, signalReport, err := metadata.LoadSignal(c.SignalCsv, options)
	if err != nil {
		return nil, err
	}
	report.Signal = signalReport
	s.Metrics.RecordLoad(signalReport)

	noise, noiseReport, err := metadata.LoadNoise(c.NoiseCsv, options)
	if err != nil {
		return nil, err
	}
	report.Noise = noiseReport
	s.Metrics.RecordLoad(noiseReport)

	ds, stats, err := s.sample(signal, noise)
	report.Sampling = stats
	if err != nil {
		return report, err
	}

	result, err := bundle.Write(c.Prefix, ds, c.Train, &bundle.Options{
		Seed:    uint64(c.Seed),
		Logger:  s.logger,
		Metrics: s.Metrics,
	})
	if err != nil {
		return report, err
	}
	report.Bundles = result

	s.logger.Info("run complete",
		"run_id", result.RunID,
		"train", result.Train.Name,
		"test", result.Test.Name,
		"manifest", result.Manifest,
		"signal_malformed", signalReport.Malformed,
		"signal_filtered", signalReport.Filtered,
		"signal_misses", stats.SignalMisses,
		"noise_misses", stats.NoiseMisses,
	)

	if c.MetricsFile != "" {
		err = s.Metrics.WriteToTextfile(c.MetricsFile)
		if err != nil {
			return report, fmt.Errorf("write metrics: %w", err)
		}
	}

	return report, nil
}

// sample holds both waveform stores open for the duration of the draws.
func (s *Service) sample(signal, noise *metadata.Pool) (*dataset.Dataset, *sampler.Stats, error) {

	c := s.config

	signalStore, err := waveform.Open(c.SignalStore)
	if err != nil {
		return nil, nil, fmt.Errorf("signal store: %w", err)
	}
	defer signalStore.Close()

	noiseStore, err := waveform.Open(c.NoiseStore)
	if err != nil {
		return nil, nil, fmt.Errorf("noise store: %w", err)
	}
	defer noiseStore.Close()

	s.logger.Info("waveform stores opened",
		"signal", signalStore.Filename(),
		"signal_waveforms", signalStore.Len(),
		"noise", noiseStore.Filename(),
		"noise_waveforms", noiseStore.Len(),
	)

	smp := sampler.New(signal, noise, signalStore, noiseStore, sampler.NewRand(uint64(c.Seed)), &sampler.Options{
		Project: c.Project,
		Channel: c.Channel,
		Logger:  s.logger,
		Metrics: s.Metrics,
	})

	return smp.Sample(c.Total())
}
