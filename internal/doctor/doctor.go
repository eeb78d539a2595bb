// Package doctor provides environment preflight checks for tokeval.
package doctor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// LoadFunc attempts to load the tokenizer model at path.
type LoadFunc func(path string) error

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// TrainerVersion returns the output of `spm_train --version`.
	TrainerVersion VersionFunc
	// SkipTrainer skips the trainer binary check (evaluate-only mode).
	SkipTrainer bool
	// InputDir is the corpus input directory to verify on disk.
	InputDir string
	// ModelSaveDir is the directory trained models are written to; the check
	// verifies it exists or can be created.
	ModelSaveDir string
	// ModelFile is an optional trained model to verify; empty skips the check.
	ModelFile string
	// LoadModel loads ModelFile; required when ModelFile is set.
	LoadModel LoadFunc
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- spm_train binary -------------------------------------------------
	if cfg.SkipTrainer {
		fmt.Fprintf(w, "%s spm_train binary: skipped\n", PassMark)
	} else {
		ver, err := cfg.TrainerVersion()
		if err != nil {
			res.fail(fmt.Sprintf("spm_train binary: %v", err))
			fmt.Fprintf(w, "%s spm_train binary: not found (%v)\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s spm_train binary: %s\n", PassMark, firstLine(ver))
		}
	}

	// ---- input directory --------------------------------------------------
	if cfg.InputDir != "" {
		if err := checkInputDir(cfg.InputDir); err != nil {
			res.fail(fmt.Sprintf("input directory %q: %v", cfg.InputDir, err))
			fmt.Fprintf(w, "%s input directory %s: %v\n", FailMark, cfg.InputDir, err)
		} else {
			fmt.Fprintf(w, "%s input directory: %s\n", PassMark, cfg.InputDir)
		}
	}

	// ---- model save directory ---------------------------------------------
	if cfg.ModelSaveDir != "" {
		if err := checkWritableDir(cfg.ModelSaveDir); err != nil {
			res.fail(fmt.Sprintf("model save directory %q: %v", cfg.ModelSaveDir, err))
			fmt.Fprintf(w, "%s model save directory %s: %v\n", FailMark, cfg.ModelSaveDir, err)
		} else {
			fmt.Fprintf(w, "%s model save directory: %s\n", PassMark, cfg.ModelSaveDir)
		}
	}

	// ---- trained model ----------------------------------------------------
	if cfg.ModelFile != "" {
		if err := cfg.LoadModel(cfg.ModelFile); err != nil {
			res.fail(fmt.Sprintf("tokenizer model %q: %v", cfg.ModelFile, err))
			fmt.Fprintf(w, "%s tokenizer model %s: %v\n", FailMark, cfg.ModelFile, err)
		} else {
			fmt.Fprintf(w, "%s tokenizer model: %s\n", PassMark, cfg.ModelFile)
		}
	}

	return res
}

// checkInputDir verifies path is an existing, readable directory.
func checkInputDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory")
	}
	if _, err := os.ReadDir(path); err != nil {
		return fmt.Errorf("not readable: %w", err)
	}
	return nil
}

// checkWritableDir verifies path exists (creating it if absent) and accepts a
// probe file. The probe is removed before returning.
func checkWritableDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	probe, err := os.CreateTemp(path, ".tokeval-doctor-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	name := probe.Name()
	if err := probe.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// DefaultModelFile returns the conventional model path for a prefix under dir,
// or empty when prefix is empty.
func DefaultModelFile(dir, prefix string) string {
	if prefix == "" {
		return ""
	}
	return filepath.Join(dir, prefix+".model")
}
