// Package decoder implements CTC prefix beam search over per-frame label
// scores, optionally constrained by an n-gram language model, plus the text
// restoration that turns normalized decoder output into readable text.
package decoder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yinkev/medasr-go/internal/mathutil"
	"github.com/yinkev/medasr-go/vocab"
)

// LanguageModel scores a word given the words preceding it, in natural log.
// An empty history means the word is sentence-initial.
type LanguageModel interface {
	Score(history []string, word string) float64
}

// Config holds beam search parameters.
type Config struct {
	// BeamWidth is the number of hypotheses retained after each frame.
	// Smaller trades accuracy for speed.
	BeamWidth int

	// LMWeight scales the language model score against the acoustic score.
	// Higher trades acoustic fidelity for higher-likelihood-under-LM text.
	// Zero selects the default weight; acoustic-only decoding is selected by
	// passing a nil LanguageModel to Decode, never by a zero weight.
	LMWeight float64

	// WordInsertionPenalty is added per completed word to control the
	// insertion rate. Usually zero or slightly negative.
	WordInsertionPenalty float64

	// MinLabelLogProb prunes labels scoring below this log-probability in a
	// frame; the blank label is never pruned.
	MinLabelLogProb float64
}

// DefaultConfig returns reasonable default parameters.
func DefaultConfig() Config {
	return Config{
		BeamWidth:            32,
		LMWeight:             1.2,
		WordInsertionPenalty: 0.0,
		MinLabelLogProb:      -5.0,
	}
}

// MismatchError reports a frame matrix whose column count does not match the
// label set. This indicates a mismatched model/vocabulary pairing and is not
// recoverable within the pipeline.
type MismatchError struct {
	Columns int
	Labels  int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("decoder: frame matrix has %d columns but label set has %d labels", e.Columns, e.Labels)
}

// wordNode is a linked list node to avoid copying word history slices.
type wordNode struct {
	word   string
	prev   *wordNode
	length int
}

func pushWord(prev *wordNode, word string) *wordNode {
	n := &wordNode{word: word, prev: prev, length: 1}
	if prev != nil {
		n.length = prev.length + 1
	}
	return n
}

func (n *wordNode) toSlice() []string {
	if n == nil {
		return nil
	}
	words := make([]string, n.length)
	cur := n
	for i := n.length - 1; i >= 0; i-- {
		words[i] = cur.word
		cur = cur.prev
	}
	return words
}

// frameNode records each label emission of a beam: the frame it happened at
// and the label piece it emitted.
type frameNode struct {
	frame  int
	piece  string
	prev   *frameNode
	length int
}

func pushFrame(prev *frameNode, frame int, piece string) *frameNode {
	n := &frameNode{frame: frame, piece: piece, prev: prev, length: 1}
	if prev != nil {
		n.length = prev.length + 1
	}
	return n
}

func (n *frameNode) toSlices() ([]int, []string) {
	if n == nil {
		return nil, nil
	}
	frames := make([]int, n.length)
	pieces := make([]string, n.length)
	cur := n
	for i := n.length - 1; i >= 0; i-- {
		frames[i] = cur.frame
		pieces[i] = cur.piece
		cur = cur.prev
	}
	return frames, pieces
}

// beam is one prefix hypothesis. pBlank and pNonBlank are the log
// probabilities of all paths collapsing to this prefix that end in a blank /
// non-blank frame respectively; tracking them separately is what allows
// repeated labels to survive when separated by a blank.
type beam struct {
	text      string
	lastLabel int

	pBlank    float64
	pNonBlank float64

	words   *wordNode // completed words
	partial string    // word in progress, boundary marker stripped
	lmScore float64   // cumulative unweighted LM log prob over completed words
	frames  *frameNode
}

func (b *beam) total() float64 {
	return mathutil.LogAdd(b.pBlank, b.pNonBlank)
}

func (b *beam) numWords() int {
	if b.words == nil {
		return 0
	}
	return b.words.length
}

func (b *beam) rank(cfg Config) float64 {
	return b.total() + cfg.LMWeight*b.lmScore + cfg.WordInsertionPenalty*float64(b.numWords())
}

// Decode performs CTC prefix beam search over frames. Each row of frames must
// hold log-domain scores, one column per label; labels must contain exactly
// one empty string marking the blank. A nil lm selects acoustic-only
// decoding, reported via Result.LMUsed. An all-blank (silent) input decodes
// to an empty Result without error.
func Decode(frames mathutil.Mat, labels []string, lm LanguageModel, cfg Config) (*Result, error) {
	if cfg.BeamWidth <= 0 {
		cfg.BeamWidth = DefaultConfig().BeamWidth
	}
	if cfg.LMWeight == 0 {
		cfg.LMWeight = DefaultConfig().LMWeight
	}
	if cfg.MinLabelLogProb == 0 {
		cfg.MinLabelLogProb = DefaultConfig().MinLabelLogProb
	}

	blankIdx := -1
	for i, l := range labels {
		if l == "" {
			if blankIdx >= 0 {
				return nil, fmt.Errorf("decoder: label set has blank entries at both index %d and %d", blankIdx, i)
			}
			blankIdx = i
		}
	}
	if blankIdx < 0 {
		return nil, fmt.Errorf("decoder: label set has no blank entry")
	}

	start := &beam{text: "", lastLabel: -1, pBlank: 0, pNonBlank: mathutil.LogZero}
	beams := []*beam{start}

	for t, row := range frames {
		if len(row) != len(labels) {
			return nil, &MismatchError{Columns: len(row), Labels: len(labels)}
		}

		next := make(map[string]*beam, len(beams)*2)

		for _, b := range beams {
			for j, lp := range row {
				if j == blankIdx {
					nb := carryBeam(next, b)
					nb.pBlank = mathutil.LogAdd(nb.pBlank, b.total()+lp)
					continue
				}
				if lp < cfg.MinLabelLogProb {
					continue
				}

				if j == b.lastLabel {
					// Repeat without separating blank collapses into the
					// same prefix.
					nb := carryBeam(next, b)
					nb.pNonBlank = mathutil.LogAdd(nb.pNonBlank, b.pNonBlank+lp)

					// Repeat after a blank emits the label again.
					extendBeam(next, b, j, labels[j], t, b.pBlank+lp, lm)
					continue
				}

				extendBeam(next, b, j, labels[j], t, b.total()+lp, lm)
			}
		}

		beams = pruneBeams(next, cfg)
	}

	best := bestBeam(beams, lm, cfg)
	if best == nil {
		return &Result{LMUsed: lm != nil}, nil
	}

	emitFrames, pieces := best.frames.toSlices()
	return &Result{
		Text:     best.text,
		Frames:   emitFrames,
		Pieces:   pieces,
		LogScore: finalRank(best, lm, cfg),
		LMUsed:   lm != nil,
	}, nil
}

// carryBeam returns the next-frame beam for b's unchanged prefix, creating it
// with zeroed probabilities on first use.
func carryBeam(next map[string]*beam, b *beam) *beam {
	nb, ok := next[b.text]
	if !ok {
		nb = &beam{
			text:      b.text,
			lastLabel: b.lastLabel,
			pBlank:    mathutil.LogZero,
			pNonBlank: mathutil.LogZero,
			words:     b.words,
			partial:   b.partial,
			lmScore:   b.lmScore,
			frames:    b.frames,
		}
		next[b.text] = nb
	}
	return nb
}

// extendBeam merges the path extending b with label piece at frame t into the
// next-frame beam set. contrib is the log probability of that path.
func extendBeam(next map[string]*beam, b *beam, j int, piece string, t int, contrib float64, lm LanguageModel) {
	text := b.text + piece

	nb, ok := next[text]
	if !ok {
		nb = &beam{
			text:      text,
			lastLabel: j,
			pBlank:    mathutil.LogZero,
			pNonBlank: mathutil.LogZero,
		}

		if strings.HasPrefix(piece, vocab.BoundaryMarker) {
			// A boundary label completes the word in progress.
			nb.words = b.words
			nb.lmScore = b.lmScore
			if b.partial != "" {
				if lm != nil {
					nb.lmScore += lm.Score(b.words.toSlice(), b.partial)
				}
				nb.words = pushWord(b.words, b.partial)
			}
			nb.partial = strings.TrimPrefix(piece, vocab.BoundaryMarker)
		} else {
			// Continuation piece or sentinel: the current word keeps growing.
			nb.words = b.words
			nb.lmScore = b.lmScore
			nb.partial = b.partial + piece
		}
		nb.frames = pushFrame(b.frames, t, piece)
		next[text] = nb
	} else if contrib > nb.pNonBlank {
		// Keep the alignment of the most probable path into this prefix.
		nb.frames = pushFrame(b.frames, t, piece)
	}

	nb.pNonBlank = mathutil.LogAdd(nb.pNonBlank, contrib)
}

func pruneBeams(next map[string]*beam, cfg Config) []*beam {
	beams := make([]*beam, 0, len(next))
	for _, b := range next {
		beams = append(beams, b)
	}
	sort.Slice(beams, func(i, j int) bool {
		ri, rj := beams[i].rank(cfg), beams[j].rank(cfg)
		if ri != rj {
			return ri > rj
		}
		return beams[i].text < beams[j].text // deterministic tie-break
	})
	if len(beams) > cfg.BeamWidth {
		beams = beams[:cfg.BeamWidth]
	}
	return beams
}

// finalRank is a beam's rank with the trailing partial word scored against
// the language model, so a beam cannot escape LM scrutiny by ending mid-word.
func finalRank(b *beam, lm LanguageModel, cfg Config) float64 {
	r := b.rank(cfg)
	if lm != nil && b.partial != "" {
		r += cfg.LMWeight * lm.Score(b.words.toSlice(), b.partial)
	}
	return r
}

func bestBeam(beams []*beam, lm LanguageModel, cfg Config) *beam {
	var best *beam
	bestScore := 0.0
	for _, b := range beams {
		s := finalRank(b, lm, cfg)
		if best == nil || s > bestScore {
			best = b
			bestScore = s
		}
	}
	return best
}
