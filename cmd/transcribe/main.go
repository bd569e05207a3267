// Command transcribe runs batch transcription of a 16kHz mono WAV file and
// writes the transcript in one or more output formats.
//
// Configuration errors exit 1 with a diagnostic. A missing language model is
// a warning, not an error: decoding proceeds acoustic-only. Per-segment
// decode failures are reported as a summary count alongside the otherwise
// complete output and do not change the exit code.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yinkev/medasr-go"
	"github.com/yinkev/medasr-go/acoustic"
	"github.com/yinkev/medasr-go/internal/config"
	"github.com/yinkev/medasr-go/internal/observe"
	"github.com/yinkev/medasr-go/language"
	"github.com/yinkev/medasr-go/segment"
	"github.com/yinkev/medasr-go/terms"
	"github.com/yinkev/medasr-go/vocab"
)

func main() {
	wavPath := flag.String("wav", "", "path to input WAV file (16kHz mono 16-bit)")
	configPath := flag.String("config", "", "path to YAML configuration file")
	vocabPath := flag.String("vocab", "", "path to vocabulary JSON (overrides config)")
	lmPath := flag.String("lm", "", "path to ARPA language model (overrides config)")
	termsPath := flag.String("terms", "", "path to domain term list (overrides config)")
	modelCmd := flag.String("model-cmd", "", "inference command reading PCM16LE on stdin (overrides config)")
	vocabSize := flag.Int("vocab-size", 0, "model output vocabulary size (overrides config)")
	blankToken := flag.String("blank", "", "tokenizer blank token, e.g. <pad> (overrides config)")
	beam := flag.Int("beam", 0, "beam width (overrides config)")
	lmWeight := flag.Float64("lm-weight", 0, "language model weight (overrides config)")
	outBase := flag.String("out", "", "output base path (default: input path without extension)")
	writeTXT := flag.Bool("txt", false, "write plain text output")
	writeJSON := flag.Bool("json", false, "write JSON output")
	writeVTT := flag.Bool("vtt", false, "write WebVTT output")
	writeSRT := flag.Bool("srt", false, "write SubRip output")
	workers := flag.Int("workers", 0, "parallel segment decodes, 0 = sequential (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	if *wavPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: transcribe -wav AUDIO [-config CONFIG] [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := &config.Config{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	applyOverrides(cfg, *vocabPath, *lmPath, *termsPath, *modelCmd, *vocabSize, *blankToken, *beam, *lmWeight, *workers, *logLevel)

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel.Slog(),
	})))

	tr, err := buildTranscriber(cfg)
	if err != nil {
		slog.Error("configuration failed", "err", err)
		os.Exit(1)
	}

	res, err := tr.TranscribeFile(context.Background(), *wavPath)
	if err != nil {
		slog.Error("transcription failed", "wav", *wavPath, "err", err)
		os.Exit(1)
	}

	if len(res.Failures) > 0 {
		slog.Warn("some segments failed to decode",
			"failed", len(res.Failures), "succeeded", len(res.Segments))
		for _, f := range res.Failures {
			slog.Debug("segment failure", "err", f)
		}
	}

	base := *outBase
	if base == "" {
		base = strings.TrimSuffix(*wavPath, filepath.Ext(*wavPath))
	}
	formats := selectFormats(cfg, *writeTXT, *writeJSON, *writeVTT, *writeSRT)

	for _, f := range formats {
		path := base + "." + string(f)
		if err := writeArtifact(path, f, res.Segments); err != nil {
			slog.Error("write output", "path", path, "err", err)
			os.Exit(1)
		}
		slog.Info("wrote output", "path", path, "segments", len(res.Segments))
	}
}

// applyOverrides layers non-zero flag values over the loaded config.
func applyOverrides(cfg *config.Config, vocabPath, lmPath, termsPath, modelCmd string, vocabSize int, blankToken string, beam int, lmWeight float64, workers int, logLevel string) {
	if vocabPath != "" {
		cfg.Model.VocabPath = vocabPath
	}
	if lmPath != "" {
		cfg.Decoder.LMPath = lmPath
	}
	if termsPath != "" {
		cfg.Terms.Path = termsPath
	}
	if modelCmd != "" {
		cfg.Model.Command = strings.Fields(modelCmd)
	}
	if vocabSize > 0 {
		cfg.Model.VocabSize = vocabSize
	}
	if blankToken != "" {
		cfg.Model.BlankToken = blankToken
	}
	if beam > 0 {
		cfg.Decoder.BeamWidth = beam
	}
	if lmWeight > 0 {
		cfg.Decoder.LMWeight = lmWeight
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if logLevel != "" {
		cfg.LogLevel = config.LogLevel(logLevel)
	}
}

// buildTranscriber assembles the pipeline from the effective config.
func buildTranscriber(cfg *config.Config) (*medasr.Transcriber, error) {
	if cfg.Model.VocabPath == "" {
		return nil, fmt.Errorf("no vocabulary configured (set -vocab or model.vocab_path)")
	}
	voc, err := vocab.LoadFile(cfg.Model.VocabPath)
	if err != nil {
		return nil, err
	}

	model, err := acoustic.NewCommandModel(cfg.Model.Command, cfg.Model.VocabSize, cfg.Model.BlankToken, cfg.Model.FrameDuration)
	if err != nil {
		return nil, err
	}

	opts := []medasr.Option{
		medasr.WithDecoderConfig(cfg.BeamConfig()),
		medasr.WithVADConfig(cfg.SpeechConfig()),
		medasr.WithWorkers(cfg.Workers),
		medasr.WithMetrics(observe.DefaultMetrics()),
	}

	if cfg.Decoder.LMPath != "" {
		lm, err := language.LoadARPAFile(cfg.Decoder.LMPath)
		if err != nil {
			return nil, fmt.Errorf("load language model: %w", err)
		}
		opts = append(opts, medasr.WithLanguageModel(lm))
	} else {
		slog.Warn("language model disabled, acoustic-only decode")
	}

	if cfg.Terms.Path != "" {
		var termOpts []terms.Option
		if cfg.Terms.PhoneticThreshold > 0 {
			termOpts = append(termOpts, terms.WithPhoneticThreshold(cfg.Terms.PhoneticThreshold))
		}
		if cfg.Terms.FuzzyThreshold > 0 {
			termOpts = append(termOpts, terms.WithFuzzyThreshold(cfg.Terms.FuzzyThreshold))
		}
		corrector, err := terms.LoadFile(cfg.Terms.Path, termOpts...)
		if err != nil {
			return nil, fmt.Errorf("load term list: %w", err)
		}
		opts = append(opts, medasr.WithCorrector(corrector))
	}

	return medasr.New(model, voc, opts...)
}

// selectFormats resolves the output format set: explicit flags win, then the
// config file, then plain text.
func selectFormats(cfg *config.Config, txt, json, vtt, srt bool) []config.Format {
	var formats []config.Format
	if txt {
		formats = append(formats, config.FormatTXT)
	}
	if json {
		formats = append(formats, config.FormatJSON)
	}
	if vtt {
		formats = append(formats, config.FormatVTT)
	}
	if srt {
		formats = append(formats, config.FormatSRT)
	}
	if len(formats) == 0 {
		formats = cfg.Output.Formats
	}
	if len(formats) == 0 {
		formats = []config.Format{config.FormatTXT}
	}
	return formats
}

func writeArtifact(path string, format config.Format, segs []segment.Segment) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	var werr error
	switch format {
	case config.FormatTXT:
		werr = segment.WriteTXT(f, segs)
	case config.FormatJSON:
		werr = segment.WriteJSON(f, segs)
	case config.FormatVTT:
		werr = segment.WriteVTT(f, segs)
	case config.FormatSRT:
		werr = segment.WriteSRT(f, segs)
	default:
		werr = fmt.Errorf("unknown format %q", format)
	}

	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return werr
}
