package metrics

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/example/go-tokeval/internal/text"
	"github.com/example/go-tokeval/internal/tokenizer"
)

// wordBoundaryMarker is the SentencePiece word-boundary piece prefix.
const wordBoundaryMarker = '▁'

// Scanner buffer sizing for the corpus artifact, matching the builder's
// line limits.
const (
	scanInitialBuffer = 64 * 1024
	scanMaxLineBytes  = 4 * 1024 * 1024
)

// Options tunes the evaluation pass. The corpus path itself is always
// caller-supplied: whether metrics run on the training corpus or a
// held-out one is a deliberate caller decision.
type Options struct {
	// SeparatorPunct is the word-boundary punctuation set used for
	// segmentation, mirroring the builder's normalization option. Empty
	// means plain whitespace splitting with punctuation attached.
	SeparatorPunct string

	// Rules, when set, normalizes each line before segmentation so
	// held-out corpora are measured on the same footing as the prepared
	// artifact. Nil means lines are taken as-is.
	Rules *text.Rules
}

// Evaluate streams the corpus at corpusPath once and computes the metrics
// report. Each word is encoded in isolation, not as part of its line, so
// fertility and WFR are measured at word granularity and cross-word merge
// artifacts cannot skew them. Any encode or read error aborts the whole
// evaluation: partial ratios would be misleading.
func Evaluate(ctx context.Context, corpusPath string, enc tokenizer.Encoder, opts Options) (Report, error) {
	counts, approximate, err := evaluateFile(ctx, corpusPath, enc, opts)
	if err != nil {
		return Report{}, err
	}
	return Finalize(counts, approximate), nil
}

// EvaluateFiles evaluates several corpus shards sequentially with one
// encoder and merges the partial counts.
func EvaluateFiles(ctx context.Context, paths []string, enc tokenizer.Encoder, opts Options) (Report, error) {
	var counts Counts
	approximate := false

	for _, path := range paths {
		c, approx, err := evaluateFile(ctx, path, enc, opts)
		if err != nil {
			return Report{}, err
		}
		counts = counts.Merge(c)
		approximate = approximate || approx
	}

	return Finalize(counts, approximate), nil
}

// EvaluateSharded evaluates corpus shards in parallel, one worker per
// shard up to workers, each with its own encoder from newEncoder (encoder
// thread-safety is not assumed). Partial counts merge associatively, so
// completion order does not affect the result. The first error aborts the
// run.
func EvaluateSharded(
	ctx context.Context,
	paths []string,
	newEncoder func() (tokenizer.Encoder, error),
	opts Options,
	workers int,
) (Report, error) {
	if workers <= 1 || len(paths) <= 1 {
		enc, err := newEncoder()
		if err != nil {
			return Report{}, err
		}
		return EvaluateFiles(ctx, paths, enc, opts)
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan string)
	partials := make([]Counts, workers)
	approxes := make([]bool, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			enc, err := newEncoder()
			if err != nil {
				errs[i] = err
				cancel()
				return
			}

			for path := range jobs {
				c, approx, err := evaluateFile(ctx, path, enc, opts)
				if err != nil {
					errs[i] = err
					cancel()
					return
				}
				partials[i] = partials[i].Merge(c)
				approxes[i] = approxes[i] || approx
			}
		}(i)
	}

	for _, path := range paths {
		select {
		case jobs <- path:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return Report{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	var counts Counts
	approximate := false
	for i := range partials {
		counts = counts.Merge(partials[i])
		approximate = approximate || approxes[i]
	}

	return Finalize(counts, approximate), nil
}

func evaluateFile(ctx context.Context, path string, enc tokenizer.Encoder, opts Options) (Counts, bool, error) {
	var counts Counts
	approximate := false

	f, err := os.Open(path)
	if err != nil {
		return counts, false, fmt.Errorf("open corpus %q: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, scanInitialBuffer), scanMaxLineBytes)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return counts, approximate, err
		}

		line := sc.Text()
		if opts.Rules != nil {
			line = text.Normalize(line, *opts.Rules)
		}

		// Empty lines contribute zero words; Words already skips them.
		for _, word := range text.Words(line, opts.SeparatorPunct) {
			pieces, err := enc.EncodeTokens(word)
			if err != nil {
				return counts, approximate, fmt.Errorf("encode %q: %w", word, err)
			}

			counts = counts.AddWord(len(pieces), text.Graphemes(word))

			if !reconstructs(word, pieces) {
				approximate = true
			}
		}
	}
	if err := sc.Err(); err != nil {
		return counts, approximate, fmt.Errorf("read corpus %q: %w", path, err)
	}

	return counts, approximate, nil
}

// reconstructs checks the consumed encoder guarantee: token pieces, with
// boundary markers stripped and byte-fallback pieces decoded, concatenate
// back to the source word. A failed check downgrades the report to
// approximate instead of aborting.
func reconstructs(word string, pieces []string) bool {
	var b strings.Builder
	b.Grow(len(word))

	for _, p := range pieces {
		if byteVal, ok := decodeByteFallback(p); ok {
			b.WriteByte(byteVal)
			continue
		}
		for _, r := range p {
			if r != wordBoundaryMarker {
				b.WriteRune(r)
			}
		}
	}

	return b.String() == word
}

// decodeByteFallback recognizes byte-fallback pieces of the form <0xHH>.
func decodeByteFallback(piece string) (byte, bool) {
	if len(piece) != 6 || !strings.HasPrefix(piece, "<0x") || piece[5] != '>' {
		return 0, false
	}
	v, err := strconv.ParseUint(piece[3:5], 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(v), true
}
