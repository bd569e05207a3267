package vocab

import (
	"fmt"
	"strings"
)

// BoundaryMarker is the sub-word boundary character (U+2581) used by
// SentencePiece-style tokenizers to mark the start of a word.
const BoundaryMarker = "▁"

// SpacePlaceholder replaces internal boundary markers (a literal space inside
// a token) so they cannot collide with the leading marker the decoder's
// word-splitting relies on.
const SpacePlaceholder = "#"

// DefaultSentinels is the default closed set of control tokens passed through
// normalization unchanged, to be stripped later during text restoration.
// Other acoustic models may define different sentinels; override via
// NormalizeConfig.Sentinels.
var DefaultSentinels = []string{"<s>", "</s>", "<unk>", "<pad>"}

// NormalizeConfig controls label-set normalization.
type NormalizeConfig struct {
	// VocabSize is the acoustic model's output vocabulary size. Entries with
	// id >= VocabSize are dropped; fewer available entries is a fatal error.
	VocabSize int

	// BlankToken is the token string denoting the CTC blank in the source
	// vocabulary. Its label becomes the empty string.
	BlankToken string

	// Sentinels lists control tokens emitted unchanged. Nil means
	// DefaultSentinels.
	Sentinels []string
}

// ConfigError reports a fatal model/vocabulary pairing mismatch. It aborts
// the transcription job: decoding with a wrong label set cannot be recovered
// from within the pipeline.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return "vocab: " + e.Msg }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// Normalize transforms a raw tokenizer vocabulary into the label set expected
// by the CTC decoder: exactly cfg.VocabSize strings index-aligned to model
// output dimensions, with the blank token mapped to the empty string,
// sentinels passed through, and every other token carrying a leading
// BoundaryMarker with internal markers rewritten to SpacePlaceholder.
func Normalize(v *Vocabulary, cfg NormalizeConfig) ([]string, error) {
	if cfg.VocabSize <= 0 {
		return nil, configErrorf("vocab size must be positive, got %d", cfg.VocabSize)
	}
	if cfg.BlankToken == "" {
		return nil, configErrorf("blank token is required")
	}

	kept := make([]Entry, 0, cfg.VocabSize)
	for _, e := range v.entries {
		if e.ID >= cfg.VocabSize {
			break
		}
		kept = append(kept, e)
	}
	if len(kept) < cfg.VocabSize {
		return nil, configErrorf("model expects %d labels but vocabulary provides %d with id < %d",
			cfg.VocabSize, len(kept), cfg.VocabSize)
	}

	sentinels := cfg.Sentinels
	if sentinels == nil {
		sentinels = DefaultSentinels
	}
	sentinelSet := make(map[string]struct{}, len(sentinels))
	for _, s := range sentinels {
		sentinelSet[s] = struct{}{}
	}

	labels := make([]string, cfg.VocabSize)
	blankIdx := -1
	for i, e := range kept {
		switch {
		case e.Token == cfg.BlankToken:
			if blankIdx >= 0 {
				return nil, configErrorf("blank token %q appears at both index %d and %d", cfg.BlankToken, blankIdx, i)
			}
			blankIdx = i
			labels[i] = ""
		default:
			if _, ok := sentinelSet[e.Token]; ok {
				labels[i] = e.Token
				continue
			}
			labels[i] = normalizeToken(e.Token)
		}
	}
	if blankIdx < 0 {
		return nil, configErrorf("blank token %q not found among the first %d vocabulary entries", cfg.BlankToken, cfg.VocabSize)
	}

	return labels, nil
}

// normalizeToken ensures a single leading boundary marker and rewrites any
// remaining internal markers to the space placeholder.
func normalizeToken(tok string) string {
	body := strings.TrimPrefix(tok, BoundaryMarker)
	body = strings.ReplaceAll(body, BoundaryMarker, SpacePlaceholder)
	return BoundaryMarker + body
}
