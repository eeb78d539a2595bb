package corpus

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/example/go-tokeval/internal/text"
)

// Config controls a corpus build.
type Config struct {
	// Rules is the normalization rule set applied to every line.
	Rules text.Rules
	// SampleSize, when positive, reservoir-samples the line stream down to
	// at most this many lines.
	SampleSize int
	// MaxSentenceLength drops normalized lines longer than this many
	// bytes. Zero disables the filter.
	MaxSentenceLength int
	// Seed drives sampling; a fixed seed makes the artifact reproducible.
	Seed int64
	// CSVTextColumn selects the CSV column holding text, by header name.
	// Empty means the first column.
	CSVTextColumn string
	// Workers caps concurrent per-file shards in BuildSharded.
	Workers int
}

// Summary reports what happened to every input line. Dropped lines are
// counted, never silently lost.
type Summary struct {
	LinesRead      int64    `json:"lines_read"`
	LinesKept      int64    `json:"lines_kept"`
	LinesWritten   int64    `json:"lines_written"`
	DroppedTooLong int64    `json:"lines_dropped_too_long"`
	DroppedEmpty   int64    `json:"lines_dropped_empty"`
	Malformed      int64    `json:"lines_malformed"`
	FilesRead      int      `json:"files_read"`
	SkippedFiles   []string `json:"skipped_files,omitempty"`
}

// Merge combines two partial summaries. All counters are sums of
// non-negative integers, so shard merge order does not affect the result.
func (s Summary) Merge(o Summary) Summary {
	s.LinesRead += o.LinesRead
	s.LinesKept += o.LinesKept
	s.LinesWritten += o.LinesWritten
	s.DroppedTooLong += o.DroppedTooLong
	s.DroppedEmpty += o.DroppedEmpty
	s.Malformed += o.Malformed
	s.FilesRead += o.FilesRead
	s.SkippedFiles = append(s.SkippedFiles, o.SkippedFiles...)
	return s
}

// Build streams every input file through the normalizer into a single
// merged corpus artifact at corpusPath. Unreadable files are skipped and
// recorded; lines already read from a file that fails mid-stream are
// kept. Output errors are fatal.
func Build(ctx context.Context, paths []string, corpusPath string, cfg Config) (Summary, error) {
	var sum Summary

	var res *reservoir
	if cfg.SampleSize > 0 {
		res = newReservoir(cfg.SampleSize, cfg.Seed)
	}

	out, err := os.Create(corpusPath)
	if err != nil {
		return sum, fmt.Errorf("create corpus %q: %w", corpusPath, err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		err := scanFile(path, cfg, &sum, func(line string) {
			if res != nil {
				res.offer(line)
				return
			}
			// bufio.Writer errors are sticky; checked once at Flush.
			_, _ = w.WriteString(line)
			_ = w.WriteByte('\n')
			sum.LinesWritten++
		})
		if err != nil {
			slog.Warn("skipping unreadable input", "path", path, "error", err)
			sum.SkippedFiles = append(sum.SkippedFiles, path)
			continue
		}
		sum.FilesRead++
	}

	if res != nil {
		for _, line := range res.Lines() {
			_, _ = w.WriteString(line)
			_ = w.WriteByte('\n')
			sum.LinesWritten++
		}
	}

	if err := w.Flush(); err != nil {
		return sum, fmt.Errorf("write corpus %q: %w", corpusPath, err)
	}
	if err := out.Close(); err != nil {
		return sum, fmt.Errorf("close corpus %q: %w", corpusPath, err)
	}

	return sum, nil
}

// scanFile streams one input file through repair, normalization and the
// length filters, passing surviving lines to emit.
func scanFile(path string, cfg Config, sum *Summary, emit func(string)) error {
	placeholder := cfg.Rules.Placeholder
	if placeholder == 0 {
		placeholder = text.DefaultPlaceholder
	}

	return readLines(path, cfg.CSVTextColumn, func(raw string) error {
		sum.LinesRead++

		line, repaired := text.Repair(raw, placeholder)
		if repaired > 0 {
			sum.Malformed++
		}

		line = text.Normalize(line, cfg.Rules)
		if line == "" {
			sum.DroppedEmpty++
			return nil
		}
		if cfg.MaxSentenceLength > 0 && len(line) > cfg.MaxSentenceLength {
			sum.DroppedTooLong++
			return nil
		}

		sum.LinesKept++
		emit(line)

		return nil
	})
}

// BuildSharded runs one worker per input file (capped at cfg.Workers) and
// merges the partial results deterministically: summaries are summed,
// per-shard reservoirs go through the weighted reservoir merge, and
// unsampled shard output is concatenated in input order.
func BuildSharded(ctx context.Context, paths []string, corpusPath string, cfg Config) (Summary, error) {
	if cfg.Workers <= 1 || len(paths) <= 1 {
		return Build(ctx, paths, corpusPath, cfg)
	}

	type shardResult struct {
		sum Summary
		res *reservoir
		tmp string
	}

	results := make([]shardResult, len(paths))
	sem := make(chan struct{}, cfg.Workers)

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			r := &results[i]
			if cfg.SampleSize > 0 {
				// Per-shard seed keeps shard sampling independent yet
				// reproducible for a fixed seed and input order.
				r.res = newReservoir(cfg.SampleSize, cfg.Seed+int64(i)+1)
			}

			var emit func(string)
			var w *bufio.Writer
			if r.res != nil {
				emit = r.res.offer
			} else {
				tmp, err := os.CreateTemp(filepath.Dir(corpusPath), "tokeval-shard-*")
				if err != nil {
					slog.Warn("skipping shard, cannot create temp file", "path", path, "error", err)
					r.sum.SkippedFiles = append(r.sum.SkippedFiles, path)
					return
				}
				defer tmp.Close()
				r.tmp = tmp.Name()
				w = bufio.NewWriter(tmp)
				emit = func(line string) {
					_, _ = w.WriteString(line)
					_ = w.WriteByte('\n')
					r.sum.LinesWritten++
				}
			}

			if err := scanFile(path, cfg, &r.sum, emit); err != nil {
				slog.Warn("skipping unreadable input", "path", path, "error", err)
				r.sum.SkippedFiles = append(r.sum.SkippedFiles, path)
				return
			}
			r.sum.FilesRead++

			if w != nil {
				if err := w.Flush(); err != nil {
					slog.Warn("skipping shard, temp write failed", "path", path, "error", err)
					r.sum.SkippedFiles = append(r.sum.SkippedFiles, path)
				}
			}
		}(i, path)
	}
	wg.Wait()

	// Shard temp files must not outlive the build, even when the merge
	// below aborts partway through.
	defer func() {
		for _, r := range results {
			if r.tmp != "" {
				_ = os.Remove(r.tmp)
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, r := range results {
		sum = sum.Merge(r.sum)
	}

	out, err := os.Create(corpusPath)
	if err != nil {
		return sum, fmt.Errorf("create corpus %q: %w", corpusPath, err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)

	if cfg.SampleSize > 0 {
		shards := make([]*reservoir, 0, len(results))
		for _, r := range results {
			if r.res != nil {
				shards = append(shards, r.res)
			}
		}
		merged := mergeReservoirs(shards, cfg.SampleSize, cfg.Seed)
		for _, line := range merged.Lines() {
			_, _ = w.WriteString(line)
			_ = w.WriteByte('\n')
			sum.LinesWritten++
		}
	} else {
		for _, r := range results {
			if r.tmp == "" {
				continue
			}
			if err := appendFile(w, r.tmp); err != nil {
				return sum, err
			}
		}
	}

	if err := w.Flush(); err != nil {
		return sum, fmt.Errorf("write corpus %q: %w", corpusPath, err)
	}
	if err := out.Close(); err != nil {
		return sum, fmt.Errorf("close corpus %q: %w", corpusPath, err)
	}

	return sum, nil
}

func appendFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open shard output %q: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("merge shard output %q: %w", path, err)
	}

	return nil
}
