package bundle

import (
	"fmt"
	"os"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

const ManifestSuffix = ".json"

type Manifest struct {
	RunID    string            `json:"run_id"`
	Seed     uint64            `json:"seed"`
	Channels int               `json:"channels"`
	Samples  int               `json:"samples"`
	Dtypes   map[string]string `json:"dtypes"`
	Bundles  []Bundle          `json:"bundles"`
}

func writeManifest(result *Result, seed uint64, channels, samples int) error {

	m := &Manifest{
		RunID:    result.RunID,
		Seed:     seed,
		Channels: channels,
		Samples:  samples,
		Dtypes: map[string]string{
			"waveforms": DtypeFloat32,
			"type":      DtypeInt8,
			"p_start":   DtypeInt16,
			"s_start":   DtypeInt16,
			"mag":       DtypeFloat16,
		},
		Bundles: []Bundle{result.Train, result.Test},
	}

	data, err := json.Marshal(m, json.Deterministic(true), jsontext.WithIndent("    "))
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	err = os.WriteFile(result.Manifest, append(data, '\n'), 0666)
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

func ReadManifest(filename string) (*Manifest, error) {

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	m := &Manifest{}
	err = json.Unmarshal(data, m)
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	return m, nil
}
