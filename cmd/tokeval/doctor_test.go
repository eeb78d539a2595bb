package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestProbeTrainerVersion_MissingExecutable(t *testing.T) {
	_, err := probeTrainerVersion("/nonexistent/spm_train-binary")
	if err == nil {
		t.Fatal("expected error for missing executable")
	}
}

func TestProbeTrainerVersion_RealExecutable(t *testing.T) {
	// Create a tiny script that exits 0 and prints a fixed string, simulating
	// an spm_train binary that honours --version.
	tmp := t.TempDir()

	script := filepath.Join(tmp, "fake-spm-train")

	writeErr := os.WriteFile(script, []byte("#!/bin/sh\necho 'sentencepiece 0.2.0'\n"), 0o755)
	if writeErr != nil {
		t.Fatalf("WriteFile: %v", writeErr)
	}

	got, err := probeTrainerVersion(script)
	if err != nil {
		t.Fatalf("probeTrainerVersion: %v", err)
	}

	if got != "sentencepiece 0.2.0" {
		t.Errorf("unexpected version output: %q", got)
	}
}

func TestProbeTrainerVersion_StderrWithNonzeroExit(t *testing.T) {
	// Some sentencepiece builds print usage to stderr and exit nonzero for
	// --version; the probe must still recognize them.
	tmp := t.TempDir()

	script := filepath.Join(tmp, "fake-spm-train")

	writeErr := os.WriteFile(script, []byte("#!/bin/sh\necho 'sentencepiece trainer' >&2\nexit 1\n"), 0o755)
	if writeErr != nil {
		t.Fatalf("WriteFile: %v", writeErr)
	}

	got, err := probeTrainerVersion(script)
	if err != nil {
		t.Fatalf("probeTrainerVersion: %v", err)
	}

	if !strings.Contains(got, "sentencepiece") {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestProbeTrainerVersion_UnrecognizedFailure(t *testing.T) {
	tmp := t.TempDir()

	script := filepath.Join(tmp, "fake-spm-train")

	writeErr := os.WriteFile(script, []byte("#!/bin/sh\necho 'segfault' >&2\nexit 1\n"), 0o755)
	if writeErr != nil {
		t.Fatalf("WriteFile: %v", writeErr)
	}

	_, err := probeTrainerVersion(script)
	if err == nil {
		t.Fatal("expected error for a failing binary with unrecognized output")
	}
}
