// Package config provides the YAML configuration schema and loader for the
// transcription binaries.
package config

import (
	"log/slog"

	"github.com/yinkev/medasr-go/audio"
	"github.com/yinkev/medasr-go/decoder"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog maps l onto the corresponding slog level. Unset maps to info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Format names a supported output format.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatJSON Format = "json"
	FormatVTT  Format = "vtt"
	FormatSRT  Format = "srt"
)

// IsValid reports whether f is a recognised output format.
func (f Format) IsValid() bool {
	switch f {
	case FormatTXT, FormatJSON, FormatVTT, FormatSRT:
		return true
	}
	return false
}

// Config is the root configuration structure, typically loaded from a YAML
// file using Load or LoadFromReader.
type Config struct {
	Model    ModelConfig   `yaml:"model"`
	Decoder  DecoderConfig `yaml:"decoder"`
	VAD      VADConfig     `yaml:"vad"`
	Terms    TermsConfig   `yaml:"terms"`
	Output   OutputConfig  `yaml:"output"`
	LogLevel LogLevel      `yaml:"log_level"`

	// Workers bounds batch segment decode parallelism. 0 means sequential.
	Workers int `yaml:"workers"`
}

// ModelConfig pairs an acoustic model with its vocabulary.
type ModelConfig struct {
	// Command is the external inference command and its arguments. The
	// process reads PCM16LE on stdin and prints JSON logits on stdout.
	Command []string `yaml:"command"`

	// VocabPath is the JSON token-id map produced alongside the model.
	VocabPath string `yaml:"vocab_path"`

	// VocabSize is the model's output vocabulary size. Vocabulary entries
	// beyond it are dropped.
	VocabSize int `yaml:"vocab_size"`

	// BlankToken is the tokenizer's CTC blank token, e.g. "<pad>".
	BlankToken string `yaml:"blank_token"`

	// FrameDuration is seconds of audio per model output frame. Default 0.02.
	FrameDuration float64 `yaml:"frame_duration"`
}

// DecoderConfig exposes the beam search knobs.
type DecoderConfig struct {
	// LMPath is an ARPA n-gram language model. Empty selects acoustic-only
	// decoding.
	LMPath string `yaml:"lm_path"`

	BeamWidth            int     `yaml:"beam_width"`
	LMWeight             float64 `yaml:"lm_weight"`
	WordInsertionPenalty float64 `yaml:"word_insertion_penalty"`
}

// VADConfig exposes the voice activity detection knobs, all in seconds except
// the threshold.
type VADConfig struct {
	EnergyThreshold float64 `yaml:"energy_threshold"`
	WindowDuration  float64 `yaml:"window_duration"`
	MinSpeech       float64 `yaml:"min_speech"`
	MinSilence      float64 `yaml:"min_silence"`
	MaxSegment      float64 `yaml:"max_segment"`
	MergeGap        float64 `yaml:"merge_gap"`
}

// TermsConfig enables domain-term correction when Path is set.
type TermsConfig struct {
	// Path is a term list file, one canonical spelling per line.
	Path string `yaml:"path"`

	PhoneticThreshold float64 `yaml:"phonetic_threshold"`
	FuzzyThreshold    float64 `yaml:"fuzzy_threshold"`
}

// OutputConfig selects which artifacts a transcription job writes.
type OutputConfig struct {
	Formats []Format `yaml:"formats"`
}

// BeamConfig converts the YAML decoder block into the decoder package's
// config, leaving zero fields to that package's defaulting.
func (c *Config) BeamConfig() decoder.Config {
	return decoder.Config{
		BeamWidth:            c.Decoder.BeamWidth,
		LMWeight:             c.Decoder.LMWeight,
		WordInsertionPenalty: c.Decoder.WordInsertionPenalty,
	}
}

// SpeechConfig converts the YAML vad block into the audio package's config,
// leaving zero fields to that package's defaulting.
func (c *Config) SpeechConfig() audio.VADConfig {
	return audio.VADConfig{
		EnergyThreshold:    c.VAD.EnergyThreshold,
		WindowDuration:     c.VAD.WindowDuration,
		MinSpeechDuration:  c.VAD.MinSpeech,
		MinSilenceDuration: c.VAD.MinSilence,
		MaxSegmentDuration: c.VAD.MaxSegment,
		MergeGap:           c.VAD.MergeGap,
	}
}
