package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/yinkev/medasr-go/acoustic"
	"github.com/yinkev/medasr-go/audio"
	"github.com/yinkev/medasr-go/decoder"
	"github.com/yinkev/medasr-go/internal/observe"
	"github.com/yinkev/medasr-go/segment"
	"github.com/yinkev/medasr-go/vocab"
)

// Config holds the chunking parameters of a streaming session.
type Config struct {
	// ChunkSeconds is the decode window length. Default 5.0.
	ChunkSeconds float64

	// Overlap is the fraction of each window re-decoded at the start of the
	// next one, in [0, 0.9). Overlapped text is not confirmed until the next
	// window decodes it with more context. Default 0.5.
	Overlap float64

	// SampleRate of the incoming PCM16LE stream. Default 16000.
	SampleRate int
}

// DefaultConfig returns the documented default chunking parameters.
func DefaultConfig() Config {
	return Config{ChunkSeconds: 5.0, Overlap: 0.5, SampleRate: audio.SampleRate}
}

func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.ChunkSeconds <= 0 {
		cfg.ChunkSeconds = def.ChunkSeconds
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	return cfg
}

// Session decodes a live PCM16LE stream chunk by chunk, in strict arrival
// order. One decode completes before the next chunk's result is emitted, so
// event order matches audio order. Results are returned through the sink
// only; a cancelled session leaves no shared state behind.
type Session struct {
	Model     acoustic.Model
	Labels    []string
	LM        decoder.LanguageModel
	Decoder   decoder.Config
	Restorer  *decoder.Restorer
	Corrector segment.Corrector
	Metrics   *observe.Metrics
	Config    Config
}

// Run reads PCM16LE from r until EOF, emitting events to sink. Chunk-level
// decode failures produce an ErrorEvent and the session continues; read
// errors and context cancellation end the session with an error.
func (s *Session) Run(ctx context.Context, r io.Reader, sink Sink) error {
	if s.Model == nil {
		return fmt.Errorf("stream: session has no acoustic model")
	}
	cfg := s.Config.withDefaults()
	if cfg.Overlap < 0 || cfg.Overlap >= 0.9 {
		return fmt.Errorf("stream: overlap %.2f is out of range [0, 0.9)", cfg.Overlap)
	}

	chunkSamples := int(cfg.ChunkSeconds * float64(cfg.SampleRate))
	stepSamples := int(float64(chunkSamples) * (1 - cfg.Overlap))
	if stepSamples < 1 {
		stepSamples = 1
	}

	if err := sink.Emit(NewStatusEvent(StateReady)); err != nil {
		return err
	}

	var (
		window   []float64
		consumed int // total samples read from r
		buf      = make([]byte, chunkSamples*2)
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		want := chunkSamples - len(window)
		n, err := io.ReadFull(r, buf[:want*2])
		final := false
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			final = true
		default:
			return fmt.Errorf("stream: read audio: %w", err)
		}

		window = append(window, audio.DecodePCM16LE(buf[:n])...)
		consumed += n / 2

		if len(window) == 0 {
			break
		}

		offset := float64(consumed-len(window)) / float64(cfg.SampleRate)
		if err := s.processWindow(ctx, window, stepSamples, cfg, offset, final, sink); err != nil {
			return err
		}

		if final {
			break
		}
		window = append(window[:0:0], window[stepSamples:]...)
	}

	return sink.Emit(NewStatusEvent(StateIdle))
}

// processWindow decodes one window and emits its confirmed text. For a
// non-final window only pieces aligned before the step boundary are
// confirmed; the overlapped tail is discarded and re-decoded next window.
func (s *Session) processWindow(ctx context.Context, window []float64, stepSamples int, cfg Config, offset float64, final bool, sink Sink) error {
	audioSeconds := float64(len(window)) / float64(cfg.SampleRate)
	started := time.Now()

	frames, err := s.Model.Infer(ctx, window)
	if err != nil {
		return sink.Emit(NewErrorEvent("infer", err.Error()))
	}

	res, err := decoder.Decode(acoustic.LogSoftmax(frames), s.Labels, s.LM, s.Decoder)
	if err != nil {
		return sink.Emit(NewErrorEvent("decode", err.Error()))
	}

	text := res.Text
	if !final {
		confirmFrames := int(float64(stepSamples) / float64(cfg.SampleRate) / s.Model.FrameDuration())
		text = confirmedPrefix(res, confirmFrames)
	}

	restored := s.Restorer.Restore(text)
	if s.Corrector != nil {
		restored = s.Corrector.Correct(restored)
	}

	elapsed := time.Since(started).Seconds()
	rtf := elapsed / audioSeconds
	s.Metrics.RecordDecode(ctx, elapsed, res.LMUsed)
	s.Metrics.RecordStreamChunk(ctx, rtf)

	if restored == "" {
		return nil
	}
	return sink.Emit(NewRecognitionEvent(restored, offset, audioSeconds, rtf))
}

// confirmedPrefix concatenates the pieces of res emitted before confirmFrames.
// The cut is moved back to the last word boundary so a word split by the
// step boundary is left entirely to the next window.
func confirmedPrefix(res *decoder.Result, confirmFrames int) string {
	cut := 0
	for i, f := range res.Frames {
		if f >= confirmFrames {
			break
		}
		cut = i + 1
	}
	// Drop a trailing partial word: keep only pieces before the last
	// boundary-marker piece at or after the cut's word start.
	for cut < len(res.Pieces) && cut > 0 && !startsWord(res.Pieces[cut]) {
		cut--
	}

	var text string
	for _, p := range res.Pieces[:cut] {
		text += p
	}
	return text
}

func startsWord(piece string) bool {
	return len(piece) > 0 && (piece[0] == '{' || hasBoundary(piece))
}

func hasBoundary(piece string) bool {
	return len(piece) >= len(vocab.BoundaryMarker) && piece[:len(vocab.BoundaryMarker)] == vocab.BoundaryMarker
}
