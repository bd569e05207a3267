// Command lmbuild builds an ARPA n-gram language model from tokenized text,
// one sentence per line.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/yinkev/medasr-go/language"
)

func main() {
	order := flag.Int("order", 3, "n-gram order (2=bigram, 3=trigram)")
	output := flag.String("output", "", "output file (default: stdout)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lmbuild [options] [input-files...]")
		fmt.Fprintln(os.Stderr, "  Builds an ARPA n-gram language model from tokenized text.")
		fmt.Fprintln(os.Stderr, "  Input: one sentence per line, words separated by spaces;")
		fmt.Fprintln(os.Stderr, "  lines starting with '#' are skipped.")
		fmt.Fprintln(os.Stderr, "  If no input files given, reads from stdin.")
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	b := language.NewBuilder(*order)

	if flag.NArg() == 0 {
		if err := b.AddCorpus(os.Stdin); err != nil {
			slog.Error("read stdin", "err", err)
			os.Exit(1)
		}
	} else {
		for _, path := range flag.Args() {
			f, err := os.Open(path)
			if err != nil {
				slog.Error("open corpus", "path", path, "err", err)
				os.Exit(1)
			}
			err = b.AddCorpus(f)
			f.Close()
			if err != nil {
				slog.Error("read corpus", "path", path, "err", err)
				os.Exit(1)
			}
		}
	}

	w := os.Stdout
	if *output != "" {
		var err error
		w, err = os.Create(*output)
		if err != nil {
			slog.Error("create output", "path", *output, "err", err)
			os.Exit(1)
		}
		defer w.Close()
	}

	if err := b.WriteARPA(w); err != nil {
		slog.Error("write ARPA model", "err", err)
		os.Exit(1)
	}

	slog.Info("built language model", "order", *order)
}
