package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/example/go-tokeval/internal/config"
	"github.com/example/go-tokeval/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newTrainCmd() *cobra.Command {
	var prepare bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a tokenizer model from the prepared corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if prepare {
				if _, err := buildCorpus(cmd.Context(), cfg); err != nil {
					return err
				}
			}

			modelPath, err := trainModel(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(os.Stdout, "model written to %s\n", modelPath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&prepare, "prepare", false, "Rebuild the corpus before training")

	return cmd
}

// trainModel invokes the external trainer on the corpus artifact and returns
// the trained model path.
func trainModel(ctx context.Context, cfg config.Config) (string, error) {
	if _, err := os.Stat(cfg.Paths.CorpusPath); err != nil {
		return "", fmt.Errorf("corpus not found (run prepare first): %w", err)
	}

	if err := os.MkdirAll(cfg.Paths.ModelSaveDir, 0o755); err != nil {
		return "", fmt.Errorf("create model save dir: %w", err)
	}

	modelType, err := config.NormalizeModelType(cfg.Trainer.ModelType)
	if err != nil {
		return "", err
	}

	trainer := &tokenizer.CLITrainer{ExecutablePath: cfg.Paths.TrainerPath}

	slog.Info("training tokenizer",
		"corpus", cfg.Paths.CorpusPath,
		"vocab_size", cfg.Trainer.VocabSize,
		"model_type", modelType)

	modelPath, err := trainer.Train(ctx, tokenizer.TrainConfig{
		CorpusPath:        cfg.Paths.CorpusPath,
		ModelPrefix:       filepath.Join(cfg.Paths.ModelSaveDir, cfg.Paths.ModelPrefix),
		VocabSize:         cfg.Trainer.VocabSize,
		ModelType:         modelType,
		CharacterCoverage: cfg.Trainer.CharacterCoverage,
		NormRule:          cfg.Trainer.NormRule,
		SampleSize:        cfg.Corpus.SampleSize,
		MaxSentenceLength: cfg.Corpus.MaxSentenceLength,
		ByteFallback:      cfg.Trainer.ByteFallback,
	})
	if err != nil {
		return "", err
	}

	slog.Info("tokenizer trained", "model", modelPath)

	return modelPath, nil
}
