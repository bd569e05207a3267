// Package medasr is the top-level transcription pipeline: it pairs a CTC
// acoustic model with a normalized vocabulary, an optional n-gram language
// model, and energy-based voice activity detection to turn 16kHz audio into
// timed transcript segments.
package medasr

import (
	"context"
	"fmt"

	"github.com/yinkev/medasr-go/acoustic"
	"github.com/yinkev/medasr-go/audio"
	"github.com/yinkev/medasr-go/decoder"
	"github.com/yinkev/medasr-go/internal/observe"
	"github.com/yinkev/medasr-go/language"
	"github.com/yinkev/medasr-go/segment"
	"github.com/yinkev/medasr-go/stream"
	"github.com/yinkev/medasr-go/vocab"
)

// Transcriber is the top-level transcription pipeline. It is immutable after
// construction and safe for concurrent use.
type Transcriber struct {
	model  acoustic.Model
	labels []string

	lm        decoder.LanguageModel
	decCfg    decoder.Config
	vadCfg    audio.VADConfig
	corrector segment.Corrector
	metrics   *observe.Metrics
	workers   int

	sentinels []string
	restorer  *decoder.Restorer
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithDecoderConfig sets custom beam search parameters.
func WithDecoderConfig(cfg decoder.Config) Option {
	return func(t *Transcriber) { t.decCfg = cfg }
}

// WithVADConfig sets custom voice activity detection parameters.
func WithVADConfig(cfg audio.VADConfig) Option {
	return func(t *Transcriber) { t.vadCfg = cfg }
}

// WithLanguageModel constrains decoding with an n-gram language model. Without
// it the pipeline runs acoustic-only, reported via the result's LMUsed.
func WithLanguageModel(lm *language.NGramModel) Option {
	return func(t *Transcriber) {
		if lm != nil {
			t.lm = lm
		}
	}
}

// WithCorrector post-processes each segment's restored text, e.g. a
// domain-term corrector.
func WithCorrector(c segment.Corrector) Option {
	return func(t *Transcriber) { t.corrector = c }
}

// WithMetrics wires metric instruments into the pipeline. Nil is valid and
// disables recording.
func WithMetrics(m *observe.Metrics) Option {
	return func(t *Transcriber) { t.metrics = m }
}

// WithWorkers bounds batch segment decode parallelism. Values below 1 mean
// sequential.
func WithWorkers(n int) Option {
	return func(t *Transcriber) { t.workers = n }
}

// WithSentinels overrides the tokenizer sentinel tokens passed through label
// normalization unchanged.
func WithSentinels(sentinels []string) Option {
	return func(t *Transcriber) { t.sentinels = sentinels }
}

// New builds a Transcriber for the given model/vocabulary pairing. The label
// set is normalized once here and reused for every decode; a vocabulary that
// cannot cover the model's output size fails construction with a
// *vocab.ConfigError.
func New(model acoustic.Model, voc *vocab.Vocabulary, opts ...Option) (*Transcriber, error) {
	if model == nil {
		return nil, fmt.Errorf("medasr: nil acoustic model")
	}

	t := &Transcriber{
		model:  model,
		decCfg: decoder.DefaultConfig(),
		vadCfg: audio.DefaultVADConfig(),
	}
	for _, opt := range opts {
		opt(t)
	}

	labels, err := vocab.Normalize(voc, vocab.NormalizeConfig{
		VocabSize:  model.VocabSize(),
		BlankToken: model.BlankToken(),
		Sentinels:  t.sentinels,
	})
	if err != nil {
		return nil, err
	}
	t.labels = labels
	// Restoration must strip the same sentinel set normalization passed
	// through.
	t.restorer = decoder.NewRestorer(t.sentinels)

	return t, nil
}

// Labels returns the normalized label set, index-aligned to the model's
// output columns.
func (t *Transcriber) Labels() []string { return t.labels }

// TranscribeFile reads a 16kHz mono WAV file and transcribes it.
func (t *Transcriber) TranscribeFile(ctx context.Context, wavPath string) (*segment.Result, error) {
	samples, header, err := audio.ReadWAVFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("read WAV: %w", err)
	}
	return t.TranscribeSamples(ctx, samples, int(header.SampleRate))
}

// TranscribeSamples segments raw audio by voice activity and decodes each
// speech range. Per-range failures are reported in the result, not as an
// error.
func (t *Transcriber) TranscribeSamples(ctx context.Context, samples []float64, sampleRate int) (*segment.Result, error) {
	ranges, err := audio.DetectSpeech(samples, sampleRate, t.vadCfg)
	if err != nil {
		return nil, fmt.Errorf("detect speech: %w", err)
	}

	asm := &segment.Assembler{
		Model:     t.model,
		Labels:    t.labels,
		LM:        t.lm,
		Config:    t.decCfg,
		Restorer:  t.restorer,
		Corrector: t.corrector,
		Workers:   t.workers,
	}
	res, err := asm.Assemble(ctx, samples, sampleRate, ranges)
	if err != nil {
		return nil, err
	}

	t.metrics.RecordSegments(ctx, len(res.Segments), len(res.Failures))
	return res, nil
}

// StreamSession returns a live transcription session sharing this
// transcriber's model, labels, language model, and corrector.
func (t *Transcriber) StreamSession(cfg stream.Config) *stream.Session {
	return &stream.Session{
		Model:     t.model,
		Labels:    t.labels,
		LM:        t.lm,
		Decoder:   t.decCfg,
		Restorer:  t.restorer,
		Corrector: t.corrector,
		Metrics:   t.metrics,
		Config:    cfg,
	}
}
