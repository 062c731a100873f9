package metadata

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/SierraSoftworks/connor"
	"github.com/go-json-experiment/json"
)

const (
	KindSignal = "signal"
	KindNoise  = "noise"
)

type Options struct {
	Separator string

	// Zero-indexed positions of the numeric columns in the signal table.
	PColumn   int
	SColumn   int
	MagColumn int

	SkipContinuation   bool
	ContinuationMarker string

	// Filter is a connor query matched against every parsed signal record,
	// see Record.document for the available fields.
	Filter map[string]interface{}

	Logger *slog.Logger
}

func DefaultOptions() *Options {
	return &Options{
		Separator:          ",",
		PColumn:            6,
		SColumn:            10,
		MagColumn:          23,
		ContinuationMarker: " ",
	}
}

type Report struct {
	Filename  string
	Kind      string
	Rows      int
	Loaded    int
	Malformed int
	Filtered  int
}

// ParseFilter decodes a json query. An empty string means no filter.
func ParseFilter(query string) (map[string]interface{}, error) {

	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	filter := map[string]interface{}{}
	err := json.Unmarshal([]byte(query), &filter)
	if err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}

	return filter, nil
}

func Load(signalFilename, noiseFilename string, options *Options) (signal, noise *Pool, err error) {

	signal, _, err = LoadSignal(signalFilename, options)
	if err != nil {
		return nil, nil, err
	}

	noise, _, err = LoadNoise(noiseFilename, options)
	if err != nil {
		return nil, nil, err
	}

	return signal, noise, nil
}

func LoadSignal(filename string, options *Options) (*Pool, *Report, error) {
	return load(filename, KindSignal, options)
}

func LoadNoise(filename string, options *Options) (*Pool, *Report, error) {
	return load(filename, KindNoise, options)
}

func load(filename, kind string, options *Options) (*Pool, *Report, error) {

	if options == nil {
		options = DefaultOptions()
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s table: %w", kind, err)
	}
	defer f.Close()

	report := &Report{
		Filename: filename,
		Kind:     kind,
	}

	var records []Record
	if kind == KindSignal {
		records, err = parseSignal(f, options, report)
	} else {
		records, err = parseNoise(f, options, report)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s table %s: %w", kind, filename, err)
	}

	report.Loaded = len(records)

	logger.Info("metadata loaded",
		"kind", kind,
		"file", filename,
		"rows", report.Rows,
		"loaded", report.Loaded,
		"malformed", report.Malformed,
		"filtered", report.Filtered,
	)

	return NewPool(kind, records), report, nil
}

// eachRow calls f for every non blank line after the header, untrimmed.
func eachRow(r io.Reader, f func(line string)) error {

	scanner := bufio.NewScanner(r)
	const maxCapacity = 16 * 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	header := true
	for scanner.Scan() {
		if header {
			header = false
			continue
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		f(line)
	}

	return scanner.Err()
}

func parseSignal(r io.Reader, options *Options, report *Report) ([]Record, error) {

	records := []Record{}

	err := eachRow(r, func(line string) {
		report.Rows++

		if options.SkipContinuation && options.ContinuationMarker != "" &&
			strings.HasPrefix(line, options.ContinuationMarker) {
			report.Malformed++
			return
		}

		record, err := parseSignalRow(strings.TrimSpace(line), options)
		if err != nil {
			report.Malformed++
			return
		}

		if len(options.Filter) > 0 {
			match, err := connor.Match(options.Filter, record.document())
			if err != nil || !match {
				report.Filtered++
				return
			}
		}

		records = append(records, record)
	})

	return records, err
}

func parseSignalRow(line string, options *Options) (Record, error) {

	row := strings.Split(line, options.Separator)

	pStart, err := parseColumn(row, options.PColumn)
	if err != nil {
		return Record{}, err
	}
	sStart, err := parseColumn(row, options.SColumn)
	if err != nil {
		return Record{}, err
	}
	magnitude, err := parseColumn(row, options.MagColumn)
	if err != nil {
		return Record{}, err
	}

	return Record{
		Name:      row[len(row)-1],
		PStart:    int(pStart),
		SStart:    int(sStart),
		Magnitude: magnitude,
	}, nil
}

func parseColumn(row []string, i int) (float64, error) {

	if i >= len(row) {
		return 0, fmt.Errorf("column %d out of range, row has %d", i, len(row))
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("column %d is not finite: %v", i, value)
	}

	return value, nil
}

func parseNoise(r io.Reader, options *Options, report *Report) ([]Record, error) {

	records := []Record{}

	err := eachRow(r, func(line string) {
		report.Rows++
		row := strings.Split(strings.TrimSpace(line), options.Separator)
		records = append(records, NoiseRecord(row[len(row)-1]))
	})

	return records, err
}

func (r Record) document() map[string]interface{} {
	return map[string]interface{}{
		"name":      r.Name,
		"p_start":   float64(r.PStart),
		"s_start":   float64(r.SStart),
		"magnitude": r.Magnitude,
	}
}
