// Package vocab loads tokenizer vocabularies and normalizes them into the
// label set expected by the CTC decoder. Labels are index-aligned to the
// acoustic model's output dimensions, so ordering and truncation rules here
// are correctness-critical: a misaligned label set silently produces garbled
// transcripts.
package vocab

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// Entry is a single (token id, token text) pair.
type Entry struct {
	ID    int
	Token string
}

// Vocabulary holds tokenizer entries sorted by token id. IDs are unique but
// need not be dense; gaps are tolerated until Normalize enforces coverage of
// the model's output range.
type Vocabulary struct {
	entries []Entry
}

// Load reads a vocabulary from JSON of the form {"0": "▁the", "1": "▁a", ...}
// where keys are decimal token ids. Entries are returned sorted by id.
func Load(data []byte) (*Vocabulary, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse vocabulary JSON: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for k, tok := range raw {
		id, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("invalid token id %q: %w", k, err)
		}
		if id < 0 {
			return nil, fmt.Errorf("negative token id %d", id)
		}
		entries = append(entries, Entry{ID: id, Token: tok})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	for i := 1; i < len(entries); i++ {
		if entries[i].ID == entries[i-1].ID {
			return nil, fmt.Errorf("duplicate token id %d", entries[i].ID)
		}
	}

	return &Vocabulary{entries: entries}, nil
}

// LoadFile is a convenience wrapper that reads a vocabulary file path.
func LoadFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	v, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %q: %w", path, err)
	}
	return v, nil
}

// FromTokens builds a dense vocabulary where each token's id is its index.
// Intended for tests and for tokenizers that already expose an ordered list.
func FromTokens(tokens []string) *Vocabulary {
	entries := make([]Entry, len(tokens))
	for i, tok := range tokens {
		entries[i] = Entry{ID: i, Token: tok}
	}
	return &Vocabulary{entries: entries}
}

// Len returns the number of entries.
func (v *Vocabulary) Len() int { return len(v.entries) }

// Entries returns the entries sorted by token id. The returned slice is
// shared; callers must not modify it.
func (v *Vocabulary) Entries() []Entry { return v.entries }
