package configuration

import (
	"errors"
	"fmt"
)

type Configuration struct {
	SignalCsv   string `usage:"signal metadata table"`
	NoiseCsv    string `usage:"noise metadata table"`
	SignalStore string `usage:"signal waveform store"`
	NoiseStore  string `usage:"noise waveform store"`

	Prefix string `usage:"output name prefix"`
	Train  int    `usage:"number of train events"`
	Test   int    `usage:"number of test events"`
	Seed   int64  `usage:"random seed"`

	Project bool `usage:"keep only one channel of every waveform"`
	Channel int  `usage:"channel kept when project is enabled"`

	Separator          string `usage:"metadata column separator"`
	SkipContinuation   bool   `usage:"skip signal rows starting with the continuation marker"`
	ContinuationMarker string `usage:"leading marker of continuation rows"`
	PColumn            int    `usage:"p arrival column in the signal table"`
	SColumn            int    `usage:"s arrival column in the signal table"`
	MagColumn          int    `usage:"magnitude column in the signal table"`
	Filter             string `usage:"json query applied to signal records, example: {\"magnitude\":{\"$gt\":2}}"`

	MetricsFile string `usage:"write prometheus metrics to this file at the end of the run"`
	LogFormat   string `usage:"log format: text | json"`
	LogLevel    string `usage:"log level: debug | info | warn | error"`

	Version    bool `usage:"show version and exit"`
	ShowConfig bool `usage:"print config"`
}

func Default() *Configuration {
	return &Configuration{
		SignalCsv:          "chunk2.csv",
		NoiseCsv:           "chunk1.csv",
		SignalStore:        "chunk2.waves",
		NoiseStore:         "chunk1.waves",
		Prefix:             "selected_events",
		Train:              8,
		Test:               2,
		Seed:               0,
		Project:            false,
		Channel:            2,
		Separator:          ",",
		SkipContinuation:   false,
		ContinuationMarker: " ",
		PColumn:            6,
		SColumn:            10,
		MagColumn:          23,
		LogFormat:          "text",
		LogLevel:           "info",
	}
}

func (c *Configuration) Total() int {
	return c.Train + c.Test
}

func (c *Configuration) Validate() error {

	if c.SignalCsv == "" || c.NoiseCsv == "" {
		return errors.New("metadata tables are required")
	}

	if c.SignalStore == "" || c.NoiseStore == "" {
		return errors.New("waveform stores are required")
	}

	if c.Prefix == "" {
		return errors.New("prefix is required")
	}

	if c.Train < 0 || c.Test < 0 {
		return fmt.Errorf("counts must not be negative, train=%d test=%d", c.Train, c.Test)
	}

	if c.Total() == 0 {
		return errors.New("nothing to pick, train and test are both zero")
	}

	if c.Channel < 0 {
		return fmt.Errorf("channel must not be negative, got %d", c.Channel)
	}

	if c.Separator == "" {
		return errors.New("separator is required")
	}

	if c.PColumn < 0 || c.SColumn < 0 || c.MagColumn < 0 {
		return errors.New("columns must not be negative")
	}

	return nil
}
