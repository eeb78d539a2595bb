package main

import (
	"os"

	"github.com/spf13/cobra"
)

// run chains prepare, train and eval into a single pipeline invocation.
func newRunCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Prepare the corpus, train a tokenizer and evaluate it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			summary, err := buildCorpus(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if err := writeSummary(os.Stdout, summary, jsonOut); err != nil {
				return err
			}

			modelPath, err := trainModel(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			report, err := evaluateModel(cmd.Context(), cfg, modelPath, nil)
			if err != nil {
				return err
			}

			return writeReport(os.Stdout, report, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit summary and report as JSON")

	return cmd
}
