// Package segment pairs voice-activity ranges with decoder output to produce
// timed transcript segments, and serializes them into the supported output
// formats.
package segment

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yinkev/medasr-go/acoustic"
	"github.com/yinkev/medasr-go/audio"
	"github.com/yinkev/medasr-go/decoder"
)

// MinChunkDuration is the shortest speech range worth decoding, in seconds.
// Anything shorter is energy noise the VAD let through.
const MinChunkDuration = 0.15

// Segment is one timed transcript record. Start and End are seconds from the
// beginning of the audio.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SegmentError records the failure of a single speech range's decode. One
// failed range never aborts the job; callers report failures alongside the
// successful segments.
type SegmentError struct {
	Index int
	Range audio.SpeechRange
	Err   error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d [%.2fs-%.2fs]: %v", e.Index, e.Range.Start, e.Range.End, e.Err)
}

func (e *SegmentError) Unwrap() error { return e.Err }

// Corrector rewrites restored segment text, e.g. phonetic correction of
// domain terms. Implementations must be safe for concurrent use.
type Corrector interface {
	Correct(text string) string
}

// Result holds the outcome of assembling one audio stream.
type Result struct {
	Segments []Segment
	Failures []*SegmentError

	// LMUsed reports whether a language model constrained the decodes. False
	// means acoustic-only (degraded) mode.
	LMUsed bool
}

// Assembler turns speech ranges into transcript segments by running the
// acoustic model and decoder over each range's samples. The zero value is not
// usable; Model and Labels are required.
type Assembler struct {
	Model  acoustic.Model
	Labels []string
	LM     decoder.LanguageModel
	Config decoder.Config

	// Restorer turns decoder output into readable text. Nil strips the
	// default sentinel set; pipelines with custom sentinels must supply a
	// matching Restorer.
	Restorer *decoder.Restorer

	// Corrector, when non-nil, post-processes each segment's restored text.
	Corrector Corrector

	// Workers bounds the number of ranges decoded concurrently. Values below
	// 1 mean sequential. Concurrency is only worthwhile for batch jobs; live
	// paths should leave this at 0.
	Workers int
}

// Assemble decodes each speech range of samples and returns the ordered
// segments. Ranges shorter than MinChunkDuration are skipped. Per-range
// decode failures are recorded in Result.Failures and do not abort the job;
// only context cancellation returns an error.
func (a *Assembler) Assemble(ctx context.Context, samples []float64, sampleRate int, ranges []audio.SpeechRange) (*Result, error) {
	if a.Model == nil {
		return nil, fmt.Errorf("segment: assembler has no acoustic model")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("segment: sample rate must be positive, got %d", sampleRate)
	}

	segs := make([]*Segment, len(ranges))
	fails := make([]*SegmentError, len(ranges))

	g, gctx := errgroup.WithContext(ctx)
	workers := a.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, r := range ranges {
		if r.End-r.Start < MinChunkDuration {
			continue
		}
		i, r := i, r
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seg, err := a.decodeRange(gctx, samples, sampleRate, r)
			if err != nil {
				fails[i] = &SegmentError{Index: i, Range: r, Err: err}
				return nil
			}
			segs[i] = seg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{LMUsed: a.LM != nil}
	for _, s := range segs {
		if s != nil {
			res.Segments = append(res.Segments, *s)
		}
	}
	for _, f := range fails {
		if f != nil {
			res.Failures = append(res.Failures, f)
		}
	}
	return res, nil
}

// decodeRange runs the model and decoder over one speech range. A nil, nil
// return means the range decoded to empty text and produces no segment.
func (a *Assembler) decodeRange(ctx context.Context, samples []float64, sampleRate int, r audio.SpeechRange) (*Segment, error) {
	s := int(r.Start * float64(sampleRate))
	e := int(r.End * float64(sampleRate))
	if s < 0 {
		s = 0
	}
	if e > len(samples) {
		e = len(samples)
	}
	if s >= e {
		return nil, nil
	}

	frames, err := a.Model.Infer(ctx, samples[s:e])
	if err != nil {
		return nil, fmt.Errorf("infer: %w", err)
	}

	res, err := decoder.Decode(acoustic.LogSoftmax(frames), a.Labels, a.LM, a.Config)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	text := a.Restorer.Restore(res.Text)
	if a.Corrector != nil {
		text = a.Corrector.Correct(text)
	}
	if text == "" {
		return nil, nil
	}

	return &Segment{Start: r.Start, End: r.End, Text: text}, nil
}
