package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/example/go-tokeval/internal/config"
	"github.com/example/go-tokeval/internal/metrics"
	"github.com/example/go-tokeval/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	var modelPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "eval [corpus files...]",
		Short: "Compute fertility, compression and word-fragmentation metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			report, err := evaluateModel(cmd.Context(), cfg, resolveModelPath(cfg, modelPath), args)
			if err != nil {
				return err
			}

			return writeReport(os.Stdout, report, jsonOut)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Trained model path (default: <model-save-dir>/<model-prefix>.model)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the metrics report as JSON")

	return cmd
}

// resolveModelPath picks the explicit --model value over the conventional
// path derived from the configured save dir and prefix.
func resolveModelPath(cfg config.Config, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(cfg.Paths.ModelSaveDir, cfg.Paths.ModelPrefix+".model")
}

// evaluateModel loads the trained model and streams the corpus files through
// the metrics engine. With no explicit files the configured corpus artifact
// is evaluated.
func evaluateModel(ctx context.Context, cfg config.Config, modelPath string, corpusFiles []string) (metrics.Report, error) {
	if len(corpusFiles) == 0 {
		corpusFiles = []string{cfg.Paths.CorpusPath}
	}

	// Normalize evaluation input with the same rules the builder applied.
	// The prepared artifact is already normalized, so this is a no-op for
	// it, while held-out files get measured on the same footing.
	rules := cfg.Rules()
	opts := metrics.Options{
		SeparatorPunct: cfg.Normalize.SeparatorPunct,
		Rules:          &rules,
	}

	slog.Info("evaluating tokenizer",
		"model", modelPath,
		"corpus_files", len(corpusFiles),
		"workers", cfg.Corpus.Workers)

	if cfg.Corpus.Workers > 1 && len(corpusFiles) > 1 {
		newEncoder := func() (tokenizer.Encoder, error) {
			return tokenizer.NewSentencePieceEncoder(modelPath)
		}
		return metrics.EvaluateSharded(ctx, corpusFiles, newEncoder, opts, cfg.Corpus.Workers)
	}

	enc, err := tokenizer.NewSentencePieceEncoder(modelPath)
	if err != nil {
		return metrics.Report{}, fmt.Errorf("load model %q: %w", modelPath, err)
	}

	return metrics.EvaluateFiles(ctx, corpusFiles, enc, opts)
}

func writeReport(w io.Writer, report metrics.Report, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	_, _ = fmt.Fprintf(w, "words:       %d\n", report.Words)
	_, _ = fmt.Fprintf(w, "tokens:      %d\n", report.Tokens)
	_, _ = fmt.Fprintf(w, "chars:       %d\n", report.Chars)
	_, _ = fmt.Fprintf(w, "split words: %d\n", report.SplitWords)
	_, _ = fmt.Fprintf(w, "fertility:   %s\n", report.Fertility)
	_, _ = fmt.Fprintf(w, "chars/token: %s\n", report.CPT)
	_, _ = fmt.Fprintf(w, "frag. rate:  %s\n", report.WFR)
	_, _ = fmt.Fprintln(w)
	report.Interpret(w)

	return nil
}
