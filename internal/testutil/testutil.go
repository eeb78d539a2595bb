// Package testutil provides shared skip and fixture helpers for integration
// tests.
//
// Each skip helper calls t.Skip with a clear human-readable reason when the
// named prerequisite is absent, so integration tests remain runnable in
// partial environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    testutil.RequireSpmTrain(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// RequireSpmTrain skips the test if the spm_train binary is not found in
// PATH or the path given by the TOKEVAL_TRAINER_PATH environment variable.
// It returns the resolved executable path.
func RequireSpmTrain(tb testing.TB) string {
	tb.Helper()

	exe := os.Getenv("TOKEVAL_TRAINER_PATH")
	if exe == "" {
		exe = "spm_train"
	}

	path, err := exec.LookPath(exe)
	if err != nil {
		tb.Skipf("spm_train binary not available (%q not in PATH); set TOKEVAL_TRAINER_PATH to override", exe)
	}

	return path
}

// RequireModel skips the test unless the TOKEVAL_TEST_MODEL environment
// variable points at an existing trained tokenizer model file, and returns
// that path.
func RequireModel(tb testing.TB) string {
	tb.Helper()

	path := os.Getenv("TOKEVAL_TEST_MODEL")
	if path == "" {
		tb.Skip("no trained model available; set TOKEVAL_TEST_MODEL to a .model file")
	}

	_, err := os.Stat(path)
	if err != nil {
		tb.Skipf("model %q not readable: %v", path, err)
	}

	return path
}

// WriteLines writes lines to a fresh file under a per-test temp directory,
// one line per row with a trailing newline, and returns the file path.
func WriteLines(tb testing.TB, name string, lines ...string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write fixture %s: %v", name, err)
	}

	return path
}
