// Command stream transcribes a live PCM16LE audio stream from stdin, emitting
// one JSON event per line on stdout. Logs go to stderr so the event stream
// stays machine-readable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yinkev/medasr-go"
	"github.com/yinkev/medasr-go/acoustic"
	"github.com/yinkev/medasr-go/decoder"
	"github.com/yinkev/medasr-go/internal/config"
	"github.com/yinkev/medasr-go/internal/observe"
	"github.com/yinkev/medasr-go/language"
	"github.com/yinkev/medasr-go/stream"
	"github.com/yinkev/medasr-go/terms"
	"github.com/yinkev/medasr-go/vocab"
)

func main() {
	modelCmd := flag.String("model-cmd", "", "inference command reading PCM16LE on stdin")
	vocabPath := flag.String("vocab", "", "path to vocabulary JSON")
	vocabSize := flag.Int("vocab-size", 0, "model output vocabulary size")
	blankToken := flag.String("blank", "<pad>", "tokenizer blank token")
	frameDur := flag.Float64("frame-duration", acoustic.DefaultFrameDuration, "seconds of audio per model frame")
	lmPath := flag.String("lm", "", "path to ARPA language model")
	termsPath := flag.String("terms", "", "path to domain term list")
	chunkSeconds := flag.Float64("chunk-s", 5.0, "decode window length in seconds")
	overlap := flag.Float64("overlap", 0.5, "window overlap fraction [0, 0.9)")
	sampleRate := flag.Int("sample-rate", 16000, "input sample rate")
	beam := flag.Int("beam", 0, "beam width (0 = default)")
	lmWeight := flag.Float64("lm-weight", 0, "language model weight (0 = default)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.LogLevel(*logLevel).Slog(),
	})))

	if *vocabPath == "" || *modelCmd == "" || *vocabSize <= 0 {
		fmt.Fprintln(os.Stderr, "Usage: stream -model-cmd CMD -vocab VOCAB -vocab-size N [options] < audio.pcm")
		flag.PrintDefaults()
		os.Exit(1)
	}

	session, err := buildSession(*modelCmd, *vocabPath, *vocabSize, *blankToken, *frameDur,
		*lmPath, *termsPath, *beam, *lmWeight, *chunkSeconds, *overlap, *sampleRate)
	if err != nil {
		slog.Error("configuration failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := session.Run(ctx, os.Stdin, stream.NewJSONLSink(os.Stdout)); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("session cancelled")
			return
		}
		slog.Error("session failed", "err", err)
		os.Exit(1)
	}
}

func buildSession(modelCmd, vocabPath string, vocabSize int, blankToken string, frameDur float64,
	lmPath, termsPath string, beam int, lmWeight, chunkSeconds, overlap float64, sampleRate int) (*stream.Session, error) {

	voc, err := vocab.LoadFile(vocabPath)
	if err != nil {
		return nil, err
	}
	model, err := acoustic.NewCommandModel(strings.Fields(modelCmd), vocabSize, blankToken, frameDur)
	if err != nil {
		return nil, err
	}

	opts := []medasr.Option{
		medasr.WithDecoderConfig(decoder.Config{BeamWidth: beam, LMWeight: lmWeight}),
		medasr.WithMetrics(observe.DefaultMetrics()),
	}

	if lmPath != "" {
		lm, err := language.LoadARPAFile(lmPath)
		if err != nil {
			return nil, fmt.Errorf("load language model: %w", err)
		}
		opts = append(opts, medasr.WithLanguageModel(lm))
	} else {
		slog.Warn("language model disabled, acoustic-only decode")
	}

	if termsPath != "" {
		corrector, err := terms.LoadFile(termsPath)
		if err != nil {
			return nil, fmt.Errorf("load term list: %w", err)
		}
		opts = append(opts, medasr.WithCorrector(corrector))
	}

	tr, err := medasr.New(model, voc, opts...)
	if err != nil {
		return nil, err
	}

	return tr.StreamSession(stream.Config{
		ChunkSeconds: chunkSeconds,
		Overlap:      overlap,
		SampleRate:   sampleRate,
	}), nil
}
