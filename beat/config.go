// Package beat implements the real-time beat-detection engine: multi-band
// weighted spectral flux over live spectral frames, robust adaptive
// thresholding, multi-method voting, and a one-way tempo lock that
// switches beat emission from signal analysis to a predicted clock.
package beat

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SensitivityMode selects a preset for the threshold multiplier and the
// minimum beat separation
type SensitivityMode string

const (
	SensitivityLow    SensitivityMode = "low"
	SensitivityMedium SensitivityMode = "medium"
	SensitivityHigh   SensitivityMode = "high"
)

// nominalSampleRate anchors the default band boundaries in Hz
const nominalSampleRate = 44100.0

// Band is a named contiguous range of frequency bins with a weight and a
// bass classification. Low is inclusive, High exclusive.
type Band struct {
	Name   string  `yaml:"name" json:"name"`
	Low    int     `yaml:"low" json:"low"`
	High   int     `yaml:"high" json:"high"`
	Weight float64 `yaml:"weight" json:"weight"`
	Bass   bool    `yaml:"bass" json:"bass"`
}

// Config is the engine's immutable parameter set. Build one with
// DefaultConfig and adjust fields, or load from YAML with LoadConfig;
// it is never mutated after a session starts.
type Config struct {
	// FFTSize is the spectral resolution; bins per frame = FFTSize/2.
	FFTSize int `yaml:"fftSize" json:"fft_size"`

	// Bands are the six analysis bands. Empty means DefaultBands(FFTSize).
	Bands []Band `yaml:"bands" json:"bands"`

	// MinBeatSeparation is the floor on inter-beat spacing in seconds
	// while unlocked.
	MinBeatSeparation float64 `yaml:"minBeatSeparation" json:"min_beat_separation"`

	// EnergyThreshold is the adaptive-threshold multiplier k.
	EnergyThreshold float64 `yaml:"energyThreshold" json:"energy_threshold"`

	// HistorySize is the capacity of each history buffer in samples.
	HistorySize int `yaml:"historySize" json:"history_size"`

	UseOnsetDetection bool `yaml:"useOnsetDetection" json:"use_onset_detection"`
	UseEnergySpikes   bool `yaml:"useEnergySpikes" json:"use_energy_spikes"`

	// SensitivityMode, when set, overrides EnergyThreshold and
	// MinBeatSeparation with preset values.
	SensitivityMode SensitivityMode `yaml:"sensitivityMode" json:"sensitivity_mode"`

	// BPMSyncEnabled allows the one-way transition to schedule-driven
	// beat emission once a tempo is established.
	BPMSyncEnabled bool `yaml:"bpmSyncEnabled" json:"bpm_sync_enabled"`

	// BeatsToAnalyze is the number of confirmed beats required before a
	// lock attempt. Minimum 3.
	BeatsToAnalyze int `yaml:"beatsToAnalyze" json:"beats_to_analyze"`
}

// DefaultConfig returns the medium-sensitivity configuration
func DefaultConfig() *Config {
	cfg := &Config{
		FFTSize:           2048,
		MinBeatSeparation: 0.25,
		EnergyThreshold:   1.5,
		HistorySize:       60,
		UseOnsetDetection: true,
		UseEnergySpikes:   true,
		SensitivityMode:   SensitivityMedium,
		BPMSyncEnabled:    true,
		BeatsToAnalyze:    8,
	}
	cfg.Bands = DefaultBands(cfg.FFTSize)
	return cfg
}

// DefaultBands returns the six standard analysis bands for the given FFT
// size, with bin ranges derived from Hz boundaries at a nominal 44.1 kHz
// sample rate. Kicks and snares carry the clearest beat signal, so the
// weighting favors bass and mid over highs.
func DefaultBands(fftSize int) []Band {
	edges := []struct {
		name    string
		low, hi float64 // Hz
		weight  float64
		bass    bool
	}{
		{"sub-bass", 20, 60, 2.0, true},
		{"bass", 60, 250, 2.0, true},
		{"low-mid", 250, 500, 1.4, false},
		{"mid", 500, 2000, 1.4, false},
		{"high-mid", 2000, 4000, 0.8, false},
		{"high", 4000, 8000, 0.5, false},
	}

	bins := fftSize / 2
	binHz := nominalSampleRate / float64(fftSize)

	bands := make([]Band, 0, len(edges))
	for _, e := range edges {
		low := int(e.low / binHz)
		high := int(e.hi / binHz)
		if low >= bins {
			break
		}
		if high > bins {
			high = bins
		}
		if high <= low {
			high = low + 1
		}
		bands = append(bands, Band{
			Name:   e.name,
			Low:    low,
			High:   high,
			Weight: e.weight,
			Bass:   e.bass,
		})
	}
	return bands
}

// sensitivityPresets maps each mode to its threshold multiplier and
// minimum beat separation
var sensitivityPresets = map[SensitivityMode]struct {
	k          float64
	separation float64
}{
	SensitivityLow:    {k: 2.0, separation: 0.35},
	SensitivityMedium: {k: 1.5, separation: 0.25},
	SensitivityHigh:   {k: 1.1, separation: 0.18},
}

// normalized returns a copy with the sensitivity preset applied and
// default bands filled in. The receiver is left untouched.
func (c *Config) normalized() *Config {
	out := *c
	out.Bands = make([]Band, len(c.Bands))
	copy(out.Bands, c.Bands)

	if len(out.Bands) == 0 {
		out.Bands = DefaultBands(out.FFTSize)
	}
	if preset, ok := sensitivityPresets[out.SensitivityMode]; ok {
		out.EnergyThreshold = preset.k
		out.MinBeatSeparation = preset.separation
	}
	return &out
}

// Validate checks the configuration for a startable session
func (c *Config) Validate() error {
	if c.FFTSize < 32 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fftSize must be a power of two >= 32, got %d", c.FFTSize)
	}
	if c.MinBeatSeparation <= 0 {
		return fmt.Errorf("minBeatSeparation must be positive, got %g", c.MinBeatSeparation)
	}
	if c.EnergyThreshold <= 0 {
		return fmt.Errorf("energyThreshold must be positive, got %g", c.EnergyThreshold)
	}
	if c.HistorySize < 10 {
		return fmt.Errorf("historySize must be at least 10, got %d", c.HistorySize)
	}
	if c.BeatsToAnalyze < 3 {
		return fmt.Errorf("beatsToAnalyze must be at least 3, got %d", c.BeatsToAnalyze)
	}
	if c.SensitivityMode != "" {
		if _, ok := sensitivityPresets[c.SensitivityMode]; !ok {
			return fmt.Errorf("unknown sensitivity mode %q", c.SensitivityMode)
		}
	}
	if len(c.Bands) == 0 {
		return fmt.Errorf("no analysis bands configured")
	}

	bins := c.FFTSize / 2
	bass := false
	for i, b := range c.Bands {
		if b.Low < 0 || b.High > bins || b.Low >= b.High {
			return fmt.Errorf("band %d (%s): invalid bin range [%d, %d) for %d bins", i, b.Name, b.Low, b.High, bins)
		}
		if b.Weight < 0 {
			return fmt.Errorf("band %d (%s): negative weight %g", i, b.Name, b.Weight)
		}
		if b.Bass {
			bass = true
		}
	}
	if !bass {
		return fmt.Errorf("at least one band must be bass-classified")
	}
	return nil
}

// LoadConfig reads a YAML configuration file, merging it over the
// defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	// Band defaults depend on the final FFT size, so they are filled in
	// after the file is merged.
	cfg.Bands = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Bands) == 0 {
		cfg.Bands = DefaultBands(cfg.FFTSize)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
