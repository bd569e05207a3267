package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// Config. It is a convenience wrapper around LoadFromReader.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Unknown fields are rejected so typos fail loudly.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found. Zero numeric values are
// allowed everywhere a downstream default exists.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Model.VocabSize < 0 {
		errs = append(errs, fmt.Errorf("model.vocab_size %d must not be negative", cfg.Model.VocabSize))
	}
	if cfg.Model.FrameDuration < 0 {
		errs = append(errs, fmt.Errorf("model.frame_duration %.3f must not be negative", cfg.Model.FrameDuration))
	}

	if cfg.Decoder.BeamWidth < 0 {
		errs = append(errs, fmt.Errorf("decoder.beam_width %d must not be negative", cfg.Decoder.BeamWidth))
	}
	if cfg.Decoder.LMWeight < 0 {
		errs = append(errs, fmt.Errorf("decoder.lm_weight %.2f must not be negative", cfg.Decoder.LMWeight))
	}

	vadFields := []struct {
		name  string
		value float64
	}{
		{"vad.energy_threshold", cfg.VAD.EnergyThreshold},
		{"vad.window_duration", cfg.VAD.WindowDuration},
		{"vad.min_speech", cfg.VAD.MinSpeech},
		{"vad.min_silence", cfg.VAD.MinSilence},
		{"vad.max_segment", cfg.VAD.MaxSegment},
		{"vad.merge_gap", cfg.VAD.MergeGap},
	}
	for _, f := range vadFields {
		if f.value < 0 {
			errs = append(errs, fmt.Errorf("%s %.3f must not be negative", f.name, f.value))
		}
	}

	thresholdFields := []struct {
		name  string
		value float64
	}{
		{"terms.phonetic_threshold", cfg.Terms.PhoneticThreshold},
		{"terms.fuzzy_threshold", cfg.Terms.FuzzyThreshold},
	}
	for _, f := range thresholdFields {
		if f.value < 0 || f.value > 1 {
			errs = append(errs, fmt.Errorf("%s %.2f is out of range [0, 1]", f.name, f.value))
		}
	}

	seen := make(map[Format]bool, len(cfg.Output.Formats))
	for i, f := range cfg.Output.Formats {
		if !f.IsValid() {
			errs = append(errs, fmt.Errorf("output.formats[%d] %q is invalid; valid values: txt, json, vtt, srt", i, f))
			continue
		}
		if seen[f] {
			errs = append(errs, fmt.Errorf("output.formats[%d] %q is a duplicate", i, f))
		}
		seen[f] = true
	}

	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d must not be negative", cfg.Workers))
	}

	return errors.Join(errs...)
}
