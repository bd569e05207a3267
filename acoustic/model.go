// Package acoustic defines the contract between the decoding pipeline and the
// acoustic model. The model itself (weights, inference runtime) is an external
// collaborator; the pipeline only consumes its per-frame scores and the three
// constants that pair it with a vocabulary.
package acoustic

import (
	"context"

	"github.com/yinkev/medasr-go/internal/mathutil"
)

// DefaultFrameDuration is the audio duration covered by one output frame,
// fixed by the model's stride. 20ms for the supported models.
const DefaultFrameDuration = 0.02

// Model is a black-box CTC acoustic model. Infer returns one row of scores
// per audio frame, with columns index-aligned to the model's output
// vocabulary. Rows may be raw logits; callers normalize with LogSoftmax
// before decoding.
type Model interface {
	// Infer runs inference on 16kHz mono samples and returns a
	// (frames x VocabSize) score matrix.
	Infer(ctx context.Context, samples []float64) (mathutil.Mat, error)

	// VocabSize is the model's output vocabulary size. The decoder's label
	// set must have exactly this many entries.
	VocabSize() int

	// BlankToken is the token string the model's tokenizer uses for the CTC
	// blank (not necessarily the empty string).
	BlankToken() string

	// FrameDuration is the seconds of audio covered by one output frame.
	FrameDuration() float64
}

// LogSoftmax normalizes each row of m into log-probabilities in place and
// returns m. The decoder requires log-domain scores; applying this to a
// matrix that is already log-softmax-normalized is harmless (idempotent up
// to floating point).
func LogSoftmax(m mathutil.Mat) mathutil.Mat {
	for _, row := range m {
		mathutil.LogSoftmaxRow(row)
	}
	return m
}
