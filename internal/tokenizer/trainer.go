package tokenizer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultTrainerPath is the spm_train binary resolved from PATH when no
// explicit path is configured.
const DefaultTrainerPath = "spm_train"

// stderrTailBytes bounds how much trainer stderr is kept for error reports.
const stderrTailBytes = 4 * 1024

// TrainConfig carries the trainer options the corpus pipeline exposes.
// Values are assumed validated (see internal/config).
type TrainConfig struct {
	// CorpusPath is the merged, normalized corpus artifact.
	CorpusPath string
	// ModelPrefix is the output path prefix; the trainer writes
	// ModelPrefix.model and ModelPrefix.vocab.
	ModelPrefix string
	// VocabSize is the target vocabulary size.
	VocabSize int
	// ModelType selects the induction algorithm (unigram|bpe|word|char).
	ModelType string
	// CharacterCoverage is the fraction of corpus characters covered by
	// the vocabulary, in (0, 1].
	CharacterCoverage float64
	// NormRule names the trainer-side normalization rule (e.g. nmt_nfkc).
	NormRule string
	// SampleSize caps how many sentences the trainer samples. Zero lets
	// the trainer use its own default.
	SampleSize int
	// MaxSentenceLength is the trainer-side maximum sentence byte length.
	MaxSentenceLength int
	// ByteFallback makes unseen characters encode as raw byte tokens.
	ByteFallback bool
}

// TrainerError reports a failed external trainer invocation, carrying the
// tail of the tool's stderr so the underlying cause surfaces verbatim.
type TrainerError struct {
	Stderr string
	Err    error
}

func (e *TrainerError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("external trainer failed: %v", e.Err)
	}
	return fmt.Sprintf("external trainer failed: %v\n%s", e.Err, e.Stderr)
}

func (e *TrainerError) Unwrap() error { return e.Err }

// CLITrainer implements Trainer by running the spm_train binary as a
// subprocess.
type CLITrainer struct {
	// ExecutablePath overrides the spm_train binary location. Empty means
	// DefaultTrainerPath resolved from PATH.
	ExecutablePath string
}

// Train runs spm_train with flags derived from cfg and returns the path
// of the written model file. A trainer failure is fatal for the run; no
// fallback is attempted.
func (t *CLITrainer) Train(ctx context.Context, cfg TrainConfig) (string, error) {
	exe := t.ExecutablePath
	if exe == "" {
		exe = DefaultTrainerPath
	}

	cmd := exec.CommandContext(ctx, exe, buildTrainArgs(cfg)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &TrainerError{Stderr: stderrTail(stderr.Bytes()), Err: err}
	}

	modelPath := cfg.ModelPrefix + ".model"
	if _, err := os.Stat(modelPath); err != nil {
		return "", &TrainerError{
			Stderr: stderrTail(stderr.Bytes()),
			Err:    fmt.Errorf("trainer exited cleanly but wrote no model at %q: %w", modelPath, err),
		}
	}

	return modelPath, nil
}

// buildTrainArgs maps TrainConfig onto spm_train flags. Special token ids
// are pinned so downstream consumers see a stable id layout.
func buildTrainArgs(cfg TrainConfig) []string {
	args := []string{
		"--input=" + cfg.CorpusPath,
		"--model_prefix=" + cfg.ModelPrefix,
		"--vocab_size=" + strconv.Itoa(cfg.VocabSize),
		"--model_type=" + cfg.ModelType,
		"--character_coverage=" + strconv.FormatFloat(cfg.CharacterCoverage, 'g', -1, 64),
		"--split_by_whitespace=true",
		"--remove_extra_whitespaces=true",
		"--shuffle_input_sentence=true",
		"--hard_vocab_limit=false",
		"--byte_fallback=" + strconv.FormatBool(cfg.ByteFallback),
		"--pad_id=0",
		"--unk_id=1",
		"--bos_id=2",
		"--eos_id=3",
	}
	if cfg.NormRule != "" {
		args = append(args, "--normalization_rule_name="+cfg.NormRule)
	}
	if cfg.SampleSize > 0 {
		args = append(args, "--input_sentence_size="+strconv.Itoa(cfg.SampleSize))
	}
	if cfg.MaxSentenceLength > 0 {
		args = append(args, "--max_sentence_length="+strconv.Itoa(cfg.MaxSentenceLength))
	}

	return args
}

func stderrTail(b []byte) string {
	if len(b) > stderrTailBytes {
		b = b[len(b)-stderrTailBytes:]
	}
	return strings.TrimSpace(string(b))
}
