// Package language implements a backoff n-gram language model in ARPA format,
// used to bias CTC beam search toward likely word sequences (for this project,
// medical-lecture vocabulary).
package language

import "github.com/yinkev/medasr-go/internal/mathutil"

// Sentence boundary markers used in ARPA models.
const (
	SentenceStart = "<s>"
	SentenceEnd   = "</s>"
)

// NGramModel represents an n-gram language model with backoff.
type NGramModel struct {
	Order    int // 2 for bigram, 3 for trigram
	Unigrams map[string]ngramEntry
	Bigrams  map[[2]string]ngramEntry
	Trigrams map[[3]string]ngramEntry

	// OOVLogProb is the natural-log probability assigned to words absent
	// from the unigram table. Zero means out-of-vocabulary words score
	// mathutil.LogZero, effectively pruning beams that hypothesize them.
	OOVLogProb float64
}

type ngramEntry struct {
	LogProb    float64
	LogBackoff float64
}

// NewNGramModel creates an empty n-gram model.
func NewNGramModel(order int) *NGramModel {
	return &NGramModel{
		Order:    order,
		Unigrams: make(map[string]ngramEntry),
		Bigrams:  make(map[[2]string]ngramEntry),
		Trigrams: make(map[[3]string]ngramEntry),
	}
}

// Score returns the natural-log probability of word given its history,
// backing off to lower orders when the exact n-gram is not found. An empty
// history scores word as sentence-initial.
func (m *NGramModel) Score(history []string, word string) float64 {
	if len(history) == 0 {
		history = []string{SentenceStart}
	}

	if m.Order >= 3 && len(history) >= 2 {
		key := [3]string{history[len(history)-2], history[len(history)-1], word}
		if e, ok := m.Trigrams[key]; ok {
			return e.LogProb
		}
		// Backoff to bigram
		biKey := [2]string{history[len(history)-2], history[len(history)-1]}
		if e, ok := m.Bigrams[biKey]; ok {
			return e.LogBackoff + m.scoreBigram(history[len(history)-1], word)
		}
	}

	if m.Order >= 2 {
		return m.scoreBigram(history[len(history)-1], word)
	}

	return m.scoreUnigram(word)
}

func (m *NGramModel) scoreBigram(prev, word string) float64 {
	key := [2]string{prev, word}
	if e, ok := m.Bigrams[key]; ok {
		return e.LogProb
	}
	// Backoff to unigram
	if e, ok := m.Unigrams[prev]; ok {
		return e.LogBackoff + m.scoreUnigram(word)
	}
	return m.scoreUnigram(word)
}

func (m *NGramModel) scoreUnigram(word string) float64 {
	if e, ok := m.Unigrams[word]; ok {
		return e.LogProb
	}
	if m.OOVLogProb != 0 {
		return m.OOVLogProb
	}
	return mathutil.LogZero
}

// SentenceLogProb returns the total log probability of a word sequence,
// adding SentenceStart and SentenceEnd automatically.
func (m *NGramModel) SentenceLogProb(words []string) float64 {
	total := 0.0
	history := []string{SentenceStart}
	for _, w := range words {
		total += m.Score(history, w)
		history = append(history, w)
	}
	total += m.Score(history, SentenceEnd)
	return total
}

// Vocab returns all words in the unigram vocabulary.
func (m *NGramModel) Vocab() []string {
	words := make([]string, 0, len(m.Unigrams))
	for w := range m.Unigrams {
		words = append(words, w)
	}
	return words
}
