package language

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
)

// Builder accumulates sentences and builds an n-gram language model.
// Probabilities are smoothed with Witten-Bell, which behaves well on the
// modest corpus sizes typical of a single lecture series.
type Builder struct {
	order    int
	unigrams map[string]int
	bigrams  map[[2]string]int
	trigrams map[[3]string]int
}

// NewBuilder creates a new n-gram builder.
// order must be 2 (bigram) or 3 (trigram).
func NewBuilder(order int) *Builder {
	if order < 2 {
		order = 2
	}
	if order > 3 {
		order = 3
	}
	return &Builder{
		order:    order,
		unigrams: make(map[string]int),
		bigrams:  make(map[[2]string]int),
		trigrams: make(map[[3]string]int),
	}
}

// AddSentence adds a tokenized sentence. SentenceStart and SentenceEnd are
// added automatically.
func (b *Builder) AddSentence(words []string) {
	if len(words) == 0 {
		return
	}
	seq := make([]string, 0, len(words)+2)
	seq = append(seq, SentenceStart)
	seq = append(seq, words...)
	seq = append(seq, SentenceEnd)

	for i := 0; i < len(seq); i++ {
		b.unigrams[seq[i]]++

		if i >= 1 {
			b.bigrams[[2]string{seq[i-1], seq[i]}]++
		}
		if b.order >= 3 && i >= 2 {
			b.trigrams[[3]string{seq[i-2], seq[i-1], seq[i]}]++
		}
	}
}

// AddCorpus reads one sentence per line from r, lowercases it, splits on
// whitespace, and adds each non-empty line. Lines starting with '#' are
// skipped.
func (b *Builder) AddCorpus(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b.AddSentence(strings.Fields(strings.ToLower(line)))
	}
	return scanner.Err()
}

// WriteARPA writes the model in ARPA format (log10 probabilities) to w.
func (b *Builder) WriteARPA(w io.Writer) error {
	// Total unigram count
	uniTotal := 0
	for _, c := range b.unigrams {
		uniTotal += c
	}
	if uniTotal == 0 {
		return fmt.Errorf("no sentences added")
	}

	// Witten-Bell context statistics: N(h) total count, T(h) unique followers.
	biContextTotal := make(map[string]int)
	biContextTypes := make(map[string]int)
	for key, c := range b.bigrams {
		biContextTotal[key[0]] += c
		biContextTypes[key[0]]++
	}

	triContextTotal := make(map[[2]string]int)
	triContextTypes := make(map[[2]string]int)
	for key, c := range b.trigrams {
		ctx := [2]string{key[0], key[1]}
		triContextTotal[ctx] += c
		triContextTypes[ctx]++
	}

	// --- Unigram probabilities ---
	type uniProb struct {
		word       string
		logProb    float64 // log10
		logBackoff float64 // log10
	}
	unis := make([]uniProb, 0, len(b.unigrams))
	for word, count := range b.unigrams {
		lp := math.Log10(float64(count) / float64(uniTotal))

		// Backoff weight: leftover probability mass ratio under Witten-Bell.
		var bo float64
		if n, ok := biContextTotal[word]; ok {
			t := biContextTypes[word]
			sumBiProb := 0.0
			sumUniProb := 0.0
			for key, c := range b.bigrams {
				if key[0] == word {
					sumBiProb += float64(c) / float64(n+t)
					sumUniProb += float64(b.unigrams[key[1]]) / float64(uniTotal)
				}
			}
			if sumUniProb < 1.0 {
				bo = math.Log10((1.0 - sumBiProb) / (1.0 - sumUniProb))
			}
		}

		unis = append(unis, uniProb{word, lp, bo})
	}
	sort.Slice(unis, func(i, j int) bool { return unis[i].word < unis[j].word })

	// --- Bigram probabilities ---
	type biProb struct {
		key        [2]string
		logProb    float64
		logBackoff float64
	}
	bis := make([]biProb, 0, len(b.bigrams))
	for key, count := range b.bigrams {
		h := key[0]
		n := biContextTotal[h]
		t := biContextTypes[h]
		// P_wb(w|h) = C(h,w) / (N(h) + T(h))
		lp := math.Log10(float64(count) / float64(n+t))

		var bo float64
		if b.order >= 3 {
			ctx := [2]string{key[0], key[1]}
			if tn, ok := triContextTotal[ctx]; ok {
				tt := triContextTypes[ctx]
				sumTriProb := 0.0
				sumBiProb := 0.0
				for tkey, tc := range b.trigrams {
					if tkey[0] == ctx[0] && tkey[1] == ctx[1] {
						sumTriProb += float64(tc) / float64(tn+tt)
						w := tkey[2]
						biKey := [2]string{ctx[1], w}
						if bc, ok := b.bigrams[biKey]; ok {
							bn := biContextTotal[ctx[1]]
							bt := biContextTypes[ctx[1]]
							sumBiProb += float64(bc) / float64(bn+bt)
						} else {
							sumBiProb += float64(b.unigrams[w]) / float64(uniTotal)
						}
					}
				}
				if sumBiProb < 1.0 {
					bo = math.Log10((1.0 - sumTriProb) / (1.0 - sumBiProb))
				}
			}
		}

		bis = append(bis, biProb{key, lp, bo})
	}
	sort.Slice(bis, func(i, j int) bool {
		if bis[i].key[0] != bis[j].key[0] {
			return bis[i].key[0] < bis[j].key[0]
		}
		return bis[i].key[1] < bis[j].key[1]
	})

	// --- Trigram probabilities ---
	type triProb struct {
		key     [3]string
		logProb float64
	}
	tris := make([]triProb, 0, len(b.trigrams))
	if b.order >= 3 {
		for key, count := range b.trigrams {
			ctx := [2]string{key[0], key[1]}
			n := triContextTotal[ctx]
			t := triContextTypes[ctx]
			lp := math.Log10(float64(count) / float64(n+t))
			tris = append(tris, triProb{key, lp})
		}
		sort.Slice(tris, func(i, j int) bool {
			if tris[i].key[0] != tris[j].key[0] {
				return tris[i].key[0] < tris[j].key[0]
			}
			if tris[i].key[1] != tris[j].key[1] {
				return tris[i].key[1] < tris[j].key[1]
			}
			return tris[i].key[2] < tris[j].key[2]
		})
	}

	// --- Write ARPA ---
	fmt.Fprintln(w, "\\data\\")
	fmt.Fprintf(w, "ngram 1=%d\n", len(unis))
	fmt.Fprintf(w, "ngram 2=%d\n", len(bis))
	if b.order >= 3 && len(tris) > 0 {
		fmt.Fprintf(w, "ngram 3=%d\n", len(tris))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "\\1-grams:")
	for _, u := range unis {
		if u.logBackoff != 0 {
			fmt.Fprintf(w, "%.6f\t%s\t%.6f\n", u.logProb, u.word, u.logBackoff)
		} else {
			fmt.Fprintf(w, "%.6f\t%s\n", u.logProb, u.word)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "\\2-grams:")
	for _, bi := range bis {
		if b.order >= 3 && bi.logBackoff != 0 {
			fmt.Fprintf(w, "%.6f\t%s %s\t%.6f\n", bi.logProb, bi.key[0], bi.key[1], bi.logBackoff)
		} else {
			fmt.Fprintf(w, "%.6f\t%s %s\n", bi.logProb, bi.key[0], bi.key[1])
		}
	}
	fmt.Fprintln(w)

	if b.order >= 3 && len(tris) > 0 {
		fmt.Fprintln(w, "\\3-grams:")
		for _, tri := range tris {
			fmt.Fprintf(w, "%.6f\t%s %s %s\n", tri.logProb, tri.key[0], tri.key[1], tri.key[2])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "\\end\\")
	return nil
}
