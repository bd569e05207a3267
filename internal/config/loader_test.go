package config

import (
	"strings"
	"testing"
)

const validYAML = `
model:
  vocab_path: vocab.json
  vocab_size: 1024
  blank_token: "<pad>"
  frame_duration: 0.02
decoder:
  lm_path: medical.arpa
  beam_width: 48
  lm_weight: 1.5
vad:
  energy_threshold: 0.015
  min_silence: 0.5
terms:
  path: drugs.txt
  phonetic_threshold: 0.7
  fuzzy_threshold: 0.85
output:
  formats: [txt, srt]
log_level: debug
workers: 4
`

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Model.VocabSize != 1024 || cfg.Model.BlankToken != "<pad>" {
		t.Errorf("model block = %+v", cfg.Model)
	}
	if cfg.Decoder.BeamWidth != 48 || cfg.Decoder.LMPath != "medical.arpa" {
		t.Errorf("decoder block = %+v", cfg.Decoder)
	}
	if cfg.LogLevel != LogDebug {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	if len(cfg.Output.Formats) != 2 || cfg.Output.Formats[1] != FormatSRT {
		t.Errorf("formats = %v", cfg.Output.Formats)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader("modle:\n  vocab_size: 4\n")); err == nil {
		t.Fatal("expected error for misspelled field")
	}
}

func TestLoadFromReader_Empty(t *testing.T) {
	// An empty document is a decode error in yaml.v3; an empty mapping is fine.
	cfg, err := LoadFromReader(strings.NewReader("{}\n"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Workers != 0 || cfg.LogLevel != "" {
		t.Errorf("zero config altered: %+v", cfg)
	}
}

func TestValidate_CollectsAllFailures(t *testing.T) {
	cfg := &Config{
		LogLevel: "loud",
		Decoder:  DecoderConfig{BeamWidth: -1},
		Terms:    TermsConfig{PhoneticThreshold: 1.5},
		Output:   OutputConfig{Formats: []Format{"txt", "pdf", "txt"}},
		Workers:  -2,
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"log_level", "beam_width", "phonetic_threshold", "pdf", "duplicate", "workers"} {
		if !strings.Contains(msg, want) {
			t.Errorf("joined error missing %q:\n%s", want, msg)
		}
	}
}

func TestValidate_ZeroConfigOK(t *testing.T) {
	if err := Validate(&Config{}); err != nil {
		t.Fatalf("zero config rejected: %v", err)
	}
}

func TestSpeechConfigMapping(t *testing.T) {
	cfg := &Config{VAD: VADConfig{EnergyThreshold: 0.02, MinSilence: 0.6}}
	vc := cfg.SpeechConfig()
	if vc.EnergyThreshold != 0.02 || vc.MinSilenceDuration != 0.6 {
		t.Errorf("SpeechConfig = %+v", vc)
	}
	if vc.WindowDuration != 0 {
		t.Errorf("unset field not left to downstream defaults: %+v", vc)
	}
}

func TestBeamConfigMapping(t *testing.T) {
	cfg := &Config{Decoder: DecoderConfig{BeamWidth: 16, LMWeight: 2.0}}
	bc := cfg.BeamConfig()
	if bc.BeamWidth != 16 || bc.LMWeight != 2.0 {
		t.Errorf("BeamConfig = %+v", bc)
	}
}

func TestLogLevelSlog(t *testing.T) {
	if LogWarn.Slog().String() != "WARN" {
		t.Errorf("LogWarn.Slog() = %v", LogWarn.Slog())
	}
	if LogLevel("").Slog().String() != "INFO" {
		t.Errorf("unset level maps to %v, want INFO", LogLevel("").Slog())
	}
}
