// Package corpus builds a merged, normalized training corpus from
// heterogeneous text sources. Input files are streamed line by line and
// never materialized whole; the only bounded buffer is the sampling
// reservoir.
package corpus

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Line sources recognized by input discovery.
var recognizedExtensions = []string{".txt", ".md", ".csv"}

// Scanner buffer sizing: start at 64 KiB, allow single lines up to 4 MiB
// before a file is considered unreadable.
const (
	scanInitialBuffer = 64 * 1024
	scanMaxLineBytes  = 4 * 1024 * 1024
)

// ErrNoInputs is returned when input discovery finds no recognized files.
var ErrNoInputs = errors.New("no input files found")

// DiscoverInputs lists the recognized corpus source files directly inside
// dir, sorted by path so downstream processing is deterministic.
func DiscoverInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read input dir %q: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, known := range recognizedExtensions {
			if ext == known {
				paths = append(paths, filepath.Join(dir, e.Name()))
				break
			}
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %q (looked for %s)", ErrNoInputs, dir, strings.Join(recognizedExtensions, ", "))
	}

	sort.Strings(paths)

	return paths, nil
}

// readLines streams the raw lines of path into fn. CSV files yield the
// configured text column; everything else is read line by line. The
// document is never materialized whole. fn errors abort the read.
func readLines(path, csvTextColumn string, fn func(string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readCSVLines(f, path, csvTextColumn, fn)
	}

	return readTextLines(f, path, fn)
}

func readTextLines(r io.Reader, path string, fn func(string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, scanInitialBuffer), scanMaxLineBytes)

	for sc.Scan() {
		if err := fn(sc.Text()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %q: %w", path, err)
	}

	return nil
}

// readCSVLines extracts one column per record. The column is selected by
// header name when textColumn is set, otherwise the first column is used
// and the first row is treated as a header and skipped.
func readCSVLines(r io.Reader, path, textColumn string, fn func(string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read csv header %q: %w", path, err)
	}

	col := 0
	if textColumn != "" {
		col = -1
		for i, name := range header {
			if strings.EqualFold(strings.TrimSpace(name), textColumn) {
				col = i
				break
			}
		}
		if col < 0 {
			return fmt.Errorf("csv %q has no column %q", path, textColumn)
		}
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read csv %q: %w", path, err)
		}
		if col >= len(record) {
			continue
		}
		if err := fn(record[col]); err != nil {
			return err
		}
	}
}
