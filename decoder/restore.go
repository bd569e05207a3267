package decoder

import (
	"strings"

	"github.com/yinkev/medasr-go/vocab"
)

// placeholderReplacer expands punctuation placeholder tokens. Matches are
// whole-token by construction: the braces are part of the pattern, so
// "{periodx}" never expands.
var placeholderReplacer = strings.NewReplacer(
	"{period}", ".",
	"{comma}", ",",
	"{colon}", ":",
	"{new paragraph}", "\n\n",
)

// Restorer converts normalized decoder output into final human-readable text.
// It carries the sentinel token set to strip, which must match the set the
// label normalization passed through. A nil Restorer is valid and strips
// vocab.DefaultSentinels.
type Restorer struct {
	sentinels []string
}

// NewRestorer returns a Restorer stripping the given sentinel tokens. An
// empty set selects vocab.DefaultSentinels.
func NewRestorer(sentinels []string) *Restorer {
	return &Restorer{sentinels: sentinels}
}

// Restore turns normalized decoder output into readable text: stray decoding
// spaces are collapsed, space placeholders become literal spaces, sentinel
// tokens are stripped, boundary markers become word separators, and
// punctuation placeholders are expanded. Spaces left stranded next to a
// paragraph break are absorbed into it.
//
// Restore is idempotent: applying it to already-restored text is a no-op, so
// it can be invoked defensively.
func (r *Restorer) Restore(text string) string {
	sentinels := vocab.DefaultSentinels
	if r != nil && len(r.sentinels) > 0 {
		sentinels = r.sentinels
	}

	text = collapseSpaces(text)
	text = strings.ReplaceAll(text, vocab.SpacePlaceholder, " ")
	for _, s := range sentinels {
		text = strings.ReplaceAll(text, s, "")
	}
	text = strings.ReplaceAll(text, vocab.BoundaryMarker, " ")
	text = collapseSpaces(text)
	text = strings.Trim(text, " ")
	text = placeholderReplacer.Replace(text)
	// The boundary marker of the word following a paragraph break becomes a
	// space the break must absorb. collapseSpaces already reduced runs, so
	// one pass per side suffices.
	text = strings.ReplaceAll(text, " \n", "\n")
	return strings.ReplaceAll(text, "\n ", "\n")
}

// Restore converts normalized decoder output into readable text using the
// default sentinel set. See Restorer.Restore.
func Restore(text string) string {
	return (*Restorer)(nil).Restore(text)
}

// collapseSpaces reduces runs of spaces and tabs to a single space. Newlines
// are preserved so paragraph breaks survive repeated restoration.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			pending = true
			continue
		}
		if pending {
			b.WriteByte(' ')
			pending = false
		}
		b.WriteRune(r)
	}
	if pending {
		b.WriteByte(' ')
	}
	return b.String()
}
