// Package terms corrects domain vocabulary in restored transcript text. The
// acoustic model frequently mangles drug names and anatomical terms into
// near-homophones; the corrector snaps those back to a configured canonical
// term list.
//
// Matching runs in two stages per word:
//
//  1. Phonetic candidate filtering: Double Metaphone codes are computed for
//     the word and for each term. Terms sharing at least one code become
//     candidates.
//
//  2. Jaro-Winkler ranking: the candidate with the highest similarity to the
//     word (case-insensitive) wins, provided it clears the phonetic
//     threshold. When no phonetic candidate exists, a fallback pass accepts a
//     pure Jaro-Winkler match at a stricter fuzzy threshold.
package terms

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85

	// minWordLength guards against snapping short function words onto terms.
	minWordLength = 4
)

// Option configures a Corrector.
type Option func(*Corrector)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a
// phonetically-matched term to be accepted. Default 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(c *Corrector) { c.phoneticThreshold = threshold }
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for the fallback
// pass used when no term matches phonetically. Default 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(c *Corrector) { c.fuzzyThreshold = threshold }
}

// term is a canonical spelling with its precomputed phonetic codes.
type term struct {
	canonical string
	lower     string
	codes     map[string]struct{}
}

// Corrector rewrites words in transcript text to their nearest canonical
// term. Read-only after construction, safe for concurrent use.
type Corrector struct {
	terms             []term
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New builds a Corrector over the canonical term list. Terms keep their given
// spelling in the output; matching is case-insensitive.
func New(canonical []string, opts ...Option) *Corrector {
	c := &Corrector{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, raw := range canonical {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		lower := strings.ToLower(t)
		c.terms = append(c.terms, term{canonical: t, lower: lower, codes: metaphoneCodes(lower)})
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Load reads one term per line from r, skipping blank lines and lines
// starting with '#'.
func Load(r io.Reader, opts ...Option) (*Corrector, error) {
	var canonical []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		canonical = append(canonical, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("terms: read term list: %w", err)
	}
	return New(canonical, opts...), nil
}

// LoadFile is a convenience wrapper for Load over a file path.
func LoadFile(path string, opts ...Option) (*Corrector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f, opts...)
}

// Correct rewrites each word of text that matches a canonical term. Words are
// whitespace-delimited; surrounding punctuation and line structure are
// preserved. An empty term list returns text unchanged.
func (c *Corrector) Correct(text string) string {
	if len(c.terms) == 0 || text == "" {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))

	start := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && text[i] != ' ' && text[i] != '\n' && text[i] != '\t' {
			continue
		}
		if i > start {
			out.WriteString(c.correctWord(text[start:i]))
		}
		if i < len(text) {
			out.WriteByte(text[i])
		}
		start = i + 1
	}
	return out.String()
}

// Match returns the canonical term nearest to word, its similarity score, and
// whether it cleared a threshold. When matched is false, corrected equals
// word unchanged.
func (c *Corrector) Match(word string) (corrected string, confidence float64, matched bool) {
	lower := strings.ToLower(strings.TrimSpace(word))
	if len(lower) < minWordLength {
		return word, 0, false
	}
	codes := metaphoneCodes(lower)

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)

	for _, t := range c.terms {
		score := matchr.JaroWinkler(lower, t.lower, false)

		if codesOverlap(codes, t.codes) {
			if score >= c.phoneticThreshold && (!bestPhonetic || score > bestScore) {
				best, bestScore, bestPhonetic = t.canonical, score, true
			}
		} else if !bestPhonetic && score >= c.fuzzyThreshold && score > bestScore {
			best, bestScore = t.canonical, score
		}
	}

	if best == "" {
		return word, 0, false
	}
	return best, bestScore, true
}

// correctWord strips leading/trailing punctuation, matches the core, and
// reassembles the word.
func (c *Corrector) correctWord(word string) string {
	core := strings.TrimFunc(word, isPunct)
	if core == "" {
		return word
	}
	replaced, _, ok := c.Match(core)
	if !ok || replaced == core {
		return word
	}
	idx := strings.Index(word, core)
	return word[:idx] + replaced + word[idx+len(core):]
}

func isPunct(r rune) bool {
	switch r {
	case '.', ',', ':', ';', '!', '?', '(', ')', '"', '\'':
		return true
	}
	return false
}

// metaphoneCodes returns the Double Metaphone codes of a word, excluding the
// empty secondary code produced for short or vowel-only input.
func metaphoneCodes(word string) map[string]struct{} {
	codes := make(map[string]struct{}, 2)
	p, s := matchr.DoubleMetaphone(word)
	if p != "" {
		codes[p] = struct{}{}
	}
	if s != "" {
		codes[s] = struct{}{}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
