package language

import (
	"math"
	"strings"
	"testing"
)

const testARPA = `\data\
ngram 1=4
ngram 2=3

\1-grams:
-1.0	</s>
-1.0	<s>	-0.5
-0.5	cardiac
-0.7	arrest	-0.3

\2-grams:
-0.3	<s>	cardiac
-0.4	cardiac	arrest
-0.2	arrest	</s>

\end\
`

func TestLoadARPA(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	if model.Order != 2 {
		t.Errorf("Order = %d, want 2", model.Order)
	}
	if len(model.Unigrams) != 4 {
		t.Errorf("len(Unigrams) = %d, want 4", len(model.Unigrams))
	}
	if len(model.Bigrams) != 3 {
		t.Errorf("len(Bigrams) = %d, want 3", len(model.Bigrams))
	}

	// log10 prob -0.5 -> natural log -0.5 * ln(10)
	if e, ok := model.Unigrams["cardiac"]; ok {
		want := -0.5 * math.Ln10
		if math.Abs(e.LogProb-want) > 1e-10 {
			t.Errorf("cardiac unigram LogProb = %f, want %f", e.LogProb, want)
		}
	} else {
		t.Error("missing unigram for cardiac")
	}
}

func TestScore_Bigram(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	// P(cardiac | <s>) should use the bigram
	lp := model.Score([]string{SentenceStart}, "cardiac")
	want := -0.3 * math.Ln10
	if math.Abs(lp-want) > 1e-10 {
		t.Errorf("Score(<s>, cardiac) = %f, want %f", lp, want)
	}
}

func TestScore_EmptyHistoryIsSentenceInitial(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	if got, want := model.Score(nil, "cardiac"), model.Score([]string{SentenceStart}, "cardiac"); got != want {
		t.Errorf("Score(nil, cardiac) = %f, want sentence-initial %f", got, want)
	}
}

func TestScore_Backoff(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	// P(cardiac | arrest) -- no bigram exists, backoff(arrest) + P_unigram(cardiac)
	lp := model.Score([]string{"arrest"}, "cardiac")
	backoff := -0.3 * math.Ln10
	unigramLP := -0.5 * math.Ln10
	want := backoff + unigramLP
	if math.Abs(lp-want) > 1e-10 {
		t.Errorf("Score(arrest, cardiac) = %f, want %f", lp, want)
	}
}

func TestScore_OOV(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	if lp := model.Score(nil, "unseen"); lp > -1e20 {
		t.Errorf("OOV word scored %f, want LogZero-ish", lp)
	}

	model.OOVLogProb = -5.0 * math.Ln10
	// Sentence-initial scoring goes through the bigram path, so the <s>
	// backoff weight applies before the OOV unigram fallback.
	want := -0.5*math.Ln10 + model.OOVLogProb
	if lp := model.Score(nil, "unseen"); math.Abs(lp-want) > 1e-10 {
		t.Errorf("OOV word scored %f, want %f", lp, want)
	}
}

func TestSentenceLogProb(t *testing.T) {
	model, err := LoadARPA(strings.NewReader(testARPA))
	if err != nil {
		t.Fatalf("LoadARPA error: %v", err)
	}

	lp := model.SentenceLogProb([]string{"cardiac", "arrest"})
	// P(<s>, cardiac) + P(cardiac, arrest) + P(arrest, </s>)
	want := -0.3*math.Ln10 + -0.4*math.Ln10 + -0.2*math.Ln10
	if math.Abs(lp-want) > 1e-10 {
		t.Errorf("SentenceLogProb = %f, want %f", lp, want)
	}
}

func TestLoadARPA_Empty(t *testing.T) {
	if _, err := LoadARPA(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty ARPA input")
	}
}
