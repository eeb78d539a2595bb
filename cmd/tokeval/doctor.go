package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/example/go-tokeval/internal/doctor"
	"github.com/example/go-tokeval/internal/tokenizer"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local environment and model checks",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			exe := cfg.Paths.TrainerPath
			if exe == "" {
				exe = tokenizer.DefaultTrainerPath
			}

			dcfg := doctor.Config{
				TrainerVersion: func() (string, error) {
					return probeTrainerVersion(exe)
				},
				InputDir:     cfg.Paths.InputDir,
				ModelSaveDir: cfg.Paths.ModelSaveDir,
			}

			// Only check a trained model that is actually on disk; a fresh
			// checkout legitimately has none yet.
			modelFile := doctor.DefaultModelFile(cfg.Paths.ModelSaveDir, cfg.Paths.ModelPrefix)
			if _, statErr := os.Stat(modelFile); statErr == nil {
				dcfg.ModelFile = modelFile
				dcfg.LoadModel = func(path string) error {
					_, loadErr := tokenizer.NewSentencePieceEncoder(path)
					return loadErr
				}
			} else {
				_, _ = fmt.Fprintf(os.Stdout, "%s tokenizer model: skipped (none at %s)\n", doctor.PassMark, modelFile)
			}

			result := doctor.Run(dcfg, os.Stdout)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(os.Stdout, "doctor checks passed")

			return nil
		},
	}

	return cmd
}

// probeTrainerVersion runs `spm_train --version` and returns its output.
// Some builds print the version on stderr with a nonzero exit, so the
// combined output is accepted when it mentions sentencepiece.
func probeTrainerVersion(exe string) (string, error) {
	out, err := exec.CommandContext(context.Background(), exe, "--version").CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		if strings.Contains(strings.ToLower(text), "sentencepiece") {
			return text, nil
		}
		return "", fmt.Errorf("%s --version failed: %w", exe, err)
	}

	return text, nil
}
