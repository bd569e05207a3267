package decoder

import (
	"errors"
	"math"
	"testing"

	"github.com/yinkev/medasr-go/internal/mathutil"
)

// testLabels is a tiny normalized label set: blank at 0, two word-initial
// labels and one continuation piece.
var testLabels = []string{"", "▁cardiac", "▁arrest", "ology"}

// logRow builds a log-probability row with mass pHot on index hot and the
// remainder spread uniformly.
func logRow(n, hot int, pHot float64) []float64 {
	row := make([]float64, n)
	rest := (1.0 - pHot) / float64(n-1)
	for i := range row {
		if i == hot {
			row[i] = math.Log(pHot)
		} else {
			row[i] = math.Log(rest)
		}
	}
	return row
}

func logMat(n int, hots []int, pHot float64) mathutil.Mat {
	m := make(mathutil.Mat, len(hots))
	for t, h := range hots {
		m[t] = logRow(n, h, pHot)
	}
	return m
}

// prefersLM scores "arrest" highly after "cardiac" and everything else low.
type prefersLM struct{}

func (prefersLM) Score(history []string, word string) float64 {
	switch {
	case len(history) == 0 && word == "cardiac":
		return math.Log(0.5)
	case len(history) == 1 && history[0] == "cardiac" && word == "arrest":
		return math.Log(0.9)
	}
	return math.Log(1e-4)
}

func TestDecode_AllBlankIsEmpty(t *testing.T) {
	m := logMat(len(testLabels), []int{0, 0, 0, 0}, 0.97)
	res, err := Decode(m, testLabels, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Text != "" {
		t.Errorf("Text = %q, want empty", res.Text)
	}
	if len(res.Frames) != 0 {
		t.Errorf("Frames = %v, want none", res.Frames)
	}
	if res.LMUsed {
		t.Error("LMUsed = true for nil language model")
	}
}

func TestDecode_NoFrames(t *testing.T) {
	res, err := Decode(nil, testLabels, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Text != "" {
		t.Errorf("Text = %q, want empty", res.Text)
	}
}

func TestDecode_SingleLabel(t *testing.T) {
	// Label 1 held over several frames collapses to one emission.
	m := logMat(len(testLabels), []int{0, 1, 1, 1, 0}, 0.97)
	res, err := Decode(m, testLabels, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Text != "▁cardiac" {
		t.Errorf("Text = %q, want %q", res.Text, "▁cardiac")
	}
	if len(res.Frames) != 1 {
		t.Errorf("Frames = %v, want one emission", res.Frames)
	}
}

func TestDecode_RepeatCollapsesWithoutBlank(t *testing.T) {
	m := logMat(len(testLabels), []int{1, 1}, 0.97)
	res, err := Decode(m, testLabels, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Text != "▁cardiac" {
		t.Errorf("Text = %q, want single %q", res.Text, "▁cardiac")
	}
}

func TestDecode_BlankSeparatesRepeats(t *testing.T) {
	m := logMat(len(testLabels), []int{1, 0, 1}, 0.97)
	res, err := Decode(m, testLabels, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Text != "▁cardiac▁cardiac" {
		t.Errorf("Text = %q, want doubled label", res.Text)
	}
	if len(res.Frames) != 2 {
		t.Errorf("Frames = %v, want two emissions", res.Frames)
	}
}

func TestDecode_TwoWordsWithContinuation(t *testing.T) {
	// ▁cardiac + ology then ▁arrest: continuation pieces extend the word.
	m := logMat(len(testLabels), []int{1, 3, 0, 2}, 0.97)
	res, err := Decode(m, testLabels, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Text != "▁cardiacology▁arrest" {
		t.Errorf("Text = %q, want %q", res.Text, "▁cardiacology▁arrest")
	}
	if got := Restore(res.Text); got != "cardiacology arrest" {
		t.Errorf("Restore = %q, want %q", got, "cardiacology arrest")
	}
	wantPieces := []string{"▁cardiac", "ology", "▁arrest"}
	if len(res.Pieces) != len(wantPieces) {
		t.Fatalf("Pieces = %v, want %v", res.Pieces, wantPieces)
	}
	for i, p := range wantPieces {
		if res.Pieces[i] != p {
			t.Errorf("Pieces[%d] = %q, want %q", i, res.Pieces[i], p)
		}
	}
	if len(res.Frames) != len(res.Pieces) {
		t.Errorf("Frames and Pieces lengths differ: %v vs %v", res.Frames, res.Pieces)
	}
}

func TestDecode_FramesAscending(t *testing.T) {
	m := logMat(len(testLabels), []int{1, 0, 2, 0, 1}, 0.97)
	res, err := Decode(m, testLabels, nil, DefaultConfig())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := 1; i < len(res.Frames); i++ {
		if res.Frames[i] <= res.Frames[i-1] {
			t.Fatalf("Frames not ascending: %v", res.Frames)
		}
	}
}

func TestDecode_LMBreaksAcousticTie(t *testing.T) {
	// Frames 2-3 are acoustically ambiguous between ▁arrest and ology.
	// The LM strongly prefers "arrest" following "cardiac".
	amb := make([]float64, len(testLabels))
	for i := range amb {
		amb[i] = math.Log(0.01)
	}
	amb[2] = math.Log(0.47)
	amb[3] = math.Log(0.51) // slight acoustic edge to the continuation

	m := mathutil.Mat{
		logRow(len(testLabels), 1, 0.97),
		logRow(len(testLabels), 0, 0.97),
		amb,
	}

	noLM, err := Decode(m, testLabels, nil, Config{BeamWidth: 8, MinLabelLogProb: -10})
	if err != nil {
		t.Fatalf("Decode (no LM): %v", err)
	}
	if noLM.Text != "▁cardiacology" {
		t.Fatalf("acoustic-only Text = %q, want %q", noLM.Text, "▁cardiacology")
	}
	if noLM.LMUsed {
		t.Error("LMUsed = true without a language model")
	}

	withLM, err := Decode(m, testLabels, prefersLM{}, Config{BeamWidth: 8, LMWeight: 2.0, MinLabelLogProb: -10})
	if err != nil {
		t.Fatalf("Decode (LM): %v", err)
	}
	if withLM.Text != "▁cardiac▁arrest" {
		t.Errorf("LM-constrained Text = %q, want %q", withLM.Text, "▁cardiac▁arrest")
	}
	if !withLM.LMUsed {
		t.Error("LMUsed = false with a language model")
	}
}

func TestDecode_ZeroLMWeightUsesDefault(t *testing.T) {
	// A zero weight selects the default; acoustic-only mode is chosen by a
	// nil language model, never by weight.
	m := logMat(len(testLabels), []int{1, 0, 2}, 0.97)

	zero, err := Decode(m, testLabels, prefersLM{}, Config{BeamWidth: 8, MinLabelLogProb: -10})
	if err != nil {
		t.Fatalf("Decode (zero weight): %v", err)
	}
	explicit, err := Decode(m, testLabels, prefersLM{}, Config{BeamWidth: 8, LMWeight: DefaultConfig().LMWeight, MinLabelLogProb: -10})
	if err != nil {
		t.Fatalf("Decode (explicit weight): %v", err)
	}

	if zero.Text != explicit.Text || zero.LogScore != explicit.LogScore {
		t.Errorf("zero weight decoded (%q, %f), explicit default decoded (%q, %f)",
			zero.Text, zero.LogScore, explicit.Text, explicit.LogScore)
	}
	if !zero.LMUsed {
		t.Error("LMUsed = false with a language model and zero weight")
	}
}

func TestDecode_ColumnMismatch(t *testing.T) {
	m := mathutil.Mat{make([]float64, len(testLabels)+1)}
	_, err := Decode(m, testLabels, nil, DefaultConfig())
	var mismatch *MismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected *MismatchError, got %v", err)
	}
	if mismatch.Columns != len(testLabels)+1 || mismatch.Labels != len(testLabels) {
		t.Errorf("MismatchError = %+v", mismatch)
	}
}

func TestDecode_NoBlankLabel(t *testing.T) {
	labels := []string{"▁a", "▁b"}
	m := logMat(len(labels), []int{0}, 0.97)
	if _, err := Decode(m, labels, nil, DefaultConfig()); err == nil {
		t.Fatal("expected error for label set without blank")
	}
}

func TestDecode_NarrowBeamStillDecodes(t *testing.T) {
	m := logMat(len(testLabels), []int{1, 0, 2}, 0.97)
	res, err := Decode(m, testLabels, nil, Config{BeamWidth: 1, MinLabelLogProb: -10})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if res.Text != "▁cardiac▁arrest" {
		t.Errorf("Text = %q, want %q", res.Text, "▁cardiac▁arrest")
	}
}
