package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/example/go-tokeval/internal/config"
	"github.com/example/go-tokeval/internal/corpus"
	"github.com/spf13/cobra"
)

func newPrepareCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Normalize and merge raw text files into a training corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			summary, err := buildCorpus(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			return writeSummary(os.Stdout, summary, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the build summary as JSON")

	return cmd
}

// buildCorpus discovers input files and streams them into the corpus
// artifact at cfg.Paths.CorpusPath.
func buildCorpus(ctx context.Context, cfg config.Config) (corpus.Summary, error) {
	paths, err := corpus.DiscoverInputs(cfg.Paths.InputDir)
	if err != nil {
		return corpus.Summary{}, fmt.Errorf("discover inputs in %q: %w", cfg.Paths.InputDir, err)
	}

	slog.Info("building corpus",
		"inputs", len(paths),
		"corpus", cfg.Paths.CorpusPath,
		"sample_size", cfg.Corpus.SampleSize,
		"workers", cfg.Corpus.Workers)

	bcfg := corpus.Config{
		Rules:             cfg.Rules(),
		SampleSize:        cfg.Corpus.SampleSize,
		MaxSentenceLength: cfg.Corpus.MaxSentenceLength,
		Seed:              cfg.Corpus.Seed,
		CSVTextColumn:     cfg.Corpus.CSVTextColumn,
		Workers:           cfg.Corpus.Workers,
	}

	var summary corpus.Summary
	if cfg.Corpus.Workers > 1 {
		summary, err = corpus.BuildSharded(ctx, paths, cfg.Paths.CorpusPath, bcfg)
	} else {
		summary, err = corpus.Build(ctx, paths, cfg.Paths.CorpusPath, bcfg)
	}
	if err != nil {
		return corpus.Summary{}, err
	}

	slog.Info("corpus built",
		"lines_read", summary.LinesRead,
		"lines_written", summary.LinesWritten,
		"skipped_files", summary.SkippedFiles)

	return summary, nil
}

func writeSummary(w io.Writer, summary corpus.Summary, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	_, _ = fmt.Fprintf(w, "files read:        %d (%d skipped)\n", summary.FilesRead, len(summary.SkippedFiles))
	_, _ = fmt.Fprintf(w, "lines read:        %d\n", summary.LinesRead)
	_, _ = fmt.Fprintf(w, "lines kept:        %d\n", summary.LinesKept)
	_, _ = fmt.Fprintf(w, "lines written:     %d\n", summary.LinesWritten)
	_, _ = fmt.Fprintf(w, "dropped empty:     %d\n", summary.DroppedEmpty)
	_, _ = fmt.Fprintf(w, "dropped too long:  %d\n", summary.DroppedTooLong)
	_, _ = fmt.Fprintf(w, "malformed lines:   %d\n", summary.Malformed)

	return nil
}
