package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/go-tokeval/internal/text"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}

	return path
}

func readCorpus(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read corpus: %v", err)
	}
	if len(data) == 0 {
		return nil
	}

	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestBuildMergesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "  Hello   world \n\n\tsecond  line\n")
	b := writeFile(t, dir, "b.md", "# Heading\n\nbody text\n")

	out := filepath.Join(dir, "corpus.txt")
	sum, err := Build(context.Background(), []string{a, b}, out, Config{Rules: text.DefaultRules()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []string{"Hello world", "second line", "# Heading", "body text"}
	got := readCorpus(t, out)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("corpus lines = %q, want %q", got, want)
	}

	if sum.LinesRead != 6 {
		t.Errorf("LinesRead = %d, want 6", sum.LinesRead)
	}
	if sum.LinesKept != 4 || sum.LinesWritten != 4 {
		t.Errorf("kept/written = %d/%d, want 4/4", sum.LinesKept, sum.LinesWritten)
	}
	if sum.DroppedEmpty != 2 {
		t.Errorf("DroppedEmpty = %d, want 2", sum.DroppedEmpty)
	}
	if sum.FilesRead != 2 {
		t.Errorf("FilesRead = %d, want 2", sum.FilesRead)
	}
}

func TestBuildCSVColumn(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "data.csv", "id,text\n1,first  row\n2,\"quoted, comma\"\n")

	out := filepath.Join(dir, "corpus.txt")
	cfg := Config{Rules: text.DefaultRules(), CSVTextColumn: "text"}
	if _, err := Build(context.Background(), []string{csvPath}, out, cfg); err != nil {
		t.Fatalf("Build: %v", err)
	}

	got := readCorpus(t, out)
	want := []string{"first row", "quoted, comma"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("corpus lines = %q, want %q", got, want)
	}
}

func TestBuildCSVDefaultFirstColumn(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "data.csv", "text,score\nhello,1\nworld,2\n")

	out := filepath.Join(dir, "corpus.txt")
	if _, err := Build(context.Background(), []string{csvPath}, out, Config{Rules: text.DefaultRules()}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	got := readCorpus(t, out)
	want := []string{"hello", "world"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("corpus lines = %q, want %q", got, want)
	}
}

func TestBuildMaxSentenceLength(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "short\n"+strings.Repeat("x", 200)+"\n")

	out := filepath.Join(dir, "corpus.txt")
	cfg := Config{Rules: text.DefaultRules(), MaxSentenceLength: 100}
	sum, err := Build(context.Background(), []string{path}, out, cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if sum.DroppedTooLong != 1 {
		t.Errorf("DroppedTooLong = %d, want 1", sum.DroppedTooLong)
	}
	if got := readCorpus(t, out); len(got) != 1 || got[0] != "short" {
		t.Errorf("corpus = %q, want [short]", got)
	}
}

func TestBuildRepairsMalformedBytes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "good line\nbad \xff byte\n")

	out := filepath.Join(dir, "corpus.txt")
	sum, err := Build(context.Background(), []string{path}, out, Config{Rules: text.DefaultRules()})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if sum.Malformed != 1 {
		t.Errorf("Malformed = %d, want 1", sum.Malformed)
	}

	got := readCorpus(t, out)
	if len(got) != 2 || !strings.Contains(got[1], string(text.DefaultPlaceholder)) {
		t.Errorf("corpus = %q, want placeholder in second line", got)
	}
}

func TestBuildSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "a.txt", "kept\n")
	missing := filepath.Join(dir, "missing.txt")

	out := filepath.Join(dir, "corpus.txt")
	sum, err := Build(context.Background(), []string{missing, good}, out, Config{Rules: text.DefaultRules()})
	if err != nil {
		t.Fatalf("Build should isolate per-file errors, got: %v", err)
	}

	if len(sum.SkippedFiles) != 1 || sum.SkippedFiles[0] != missing {
		t.Errorf("SkippedFiles = %q, want [%s]", sum.SkippedFiles, missing)
	}
	if sum.FilesRead != 1 {
		t.Errorf("FilesRead = %d, want 1", sum.FilesRead)
	}
	if got := readCorpus(t, out); len(got) != 1 || got[0] != "kept" {
		t.Errorf("corpus = %q, want [kept]", got)
	}
}

func TestBuildSamplingBound(t *testing.T) {
	dir := t.TempDir()

	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, "line "+strings.Repeat("x", i%7+1))
	}
	path := writeFile(t, dir, "a.txt", strings.Join(lines, "\n")+"\n")

	tests := []struct {
		name       string
		sampleSize int
		wantLines  int
	}{
		{name: "sample smaller than corpus", sampleSize: 10, wantLines: 10},
		{name: "sample larger than corpus", sampleSize: 1000, wantLines: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "corpus.txt")
			cfg := Config{Rules: text.DefaultRules(), SampleSize: tt.sampleSize, Seed: 42}
			sum, err := Build(context.Background(), []string{path}, out, cfg)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}

			got := readCorpus(t, out)
			if len(got) != tt.wantLines {
				t.Errorf("|output lines| = %d, want %d", len(got), tt.wantLines)
			}
			if sum.LinesWritten != int64(tt.wantLines) {
				t.Errorf("LinesWritten = %d, want %d", sum.LinesWritten, tt.wantLines)
			}
		})
	}
}

func TestBuildSamplingDeterministic(t *testing.T) {
	dir := t.TempDir()

	var lines []string
	for i := 0; i < 500; i++ {
		lines = append(lines, strings.Repeat("word ", i%13+1))
	}
	path := writeFile(t, dir, "a.txt", strings.Join(lines, "\n")+"\n")

	build := func(out string, seed int64) []byte {
		cfg := Config{Rules: text.DefaultRules(), SampleSize: 50, Seed: seed}
		if _, err := Build(context.Background(), []string{path}, out, cfg); err != nil {
			t.Fatalf("Build: %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("read corpus: %v", err)
		}
		return data
	}

	first := build(filepath.Join(t.TempDir(), "a"), 7)
	second := build(filepath.Join(t.TempDir(), "b"), 7)
	if string(first) != string(second) {
		t.Error("same seed produced different artifacts")
	}

	other := build(filepath.Join(t.TempDir(), "c"), 8)
	if string(first) == string(other) {
		t.Error("different seeds produced identical artifacts; sampling looks unseeded")
	}
}

func TestBuildShardedMatchesSequentialCounters(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.txt", "one\ntwo\n\n"),
		writeFile(t, dir, "b.txt", "three\nfour\nfive\n"),
		writeFile(t, dir, "c.md", "six\n"),
	}

	cfg := Config{Rules: text.DefaultRules(), Workers: 3}

	seqOut := filepath.Join(t.TempDir(), "seq.txt")
	seqSum, err := Build(context.Background(), paths, seqOut, cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	shardOut := filepath.Join(t.TempDir(), "shard.txt")
	shardSum, err := BuildSharded(context.Background(), paths, shardOut, cfg)
	if err != nil {
		t.Fatalf("BuildSharded: %v", err)
	}

	if seqSum.LinesRead != shardSum.LinesRead ||
		seqSum.LinesKept != shardSum.LinesKept ||
		seqSum.DroppedEmpty != shardSum.DroppedEmpty ||
		seqSum.FilesRead != shardSum.FilesRead {
		t.Errorf("sharded summary %+v differs from sequential %+v", shardSum, seqSum)
	}

	// Shard output is concatenated in input order, so the artifacts match.
	seq, shard := readCorpus(t, seqOut), readCorpus(t, shardOut)
	if strings.Join(seq, "|") != strings.Join(shard, "|") {
		t.Errorf("sharded corpus = %q, want %q", shard, seq)
	}
}

func TestBuildShardedCleansTempFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.txt", "one\ntwo\n"),
		writeFile(t, dir, "b.txt", "three\n"),
	}

	noTemps := func(t *testing.T, dir string) {
		t.Helper()
		leftovers, err := filepath.Glob(filepath.Join(dir, "tokeval-shard-*"))
		if err != nil {
			t.Fatalf("glob: %v", err)
		}
		if len(leftovers) != 0 {
			t.Errorf("shard temp files left behind: %q", leftovers)
		}
	}

	cfg := Config{Rules: text.DefaultRules(), Workers: 2}

	t.Run("after successful merge", func(t *testing.T) {
		outDir := t.TempDir()
		out := filepath.Join(outDir, "corpus.txt")
		if _, err := BuildSharded(context.Background(), paths, out, cfg); err != nil {
			t.Fatalf("BuildSharded: %v", err)
		}
		noTemps(t, outDir)
	})

	t.Run("after failed merge", func(t *testing.T) {
		// The corpus path is a directory, so creating the artifact fails
		// after the shard temps were already written.
		outDir := t.TempDir()
		out := filepath.Join(outDir, "corpus.txt")
		if err := os.Mkdir(out, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}

		if _, err := BuildSharded(context.Background(), paths, out, cfg); err == nil {
			t.Fatal("expected error when corpus path is a directory")
		}
		noTemps(t, outDir)
	})
}

func TestBuildShardedSamplingBound(t *testing.T) {
	dir := t.TempDir()

	var paths []string
	for f := 0; f < 4; f++ {
		var lines []string
		for i := 0; i < 50; i++ {
			lines = append(lines, "file line")
		}
		paths = append(paths, writeFile(t, dir, string(rune('a'+f))+".txt", strings.Join(lines, "\n")+"\n"))
	}

	out := filepath.Join(t.TempDir(), "corpus.txt")
	cfg := Config{Rules: text.DefaultRules(), SampleSize: 30, Seed: 1, Workers: 4}
	sum, err := BuildSharded(context.Background(), paths, out, cfg)
	if err != nil {
		t.Fatalf("BuildSharded: %v", err)
	}

	if got := readCorpus(t, out); len(got) != 30 {
		t.Errorf("|output lines| = %d, want 30", len(got))
	}
	if sum.LinesRead != 200 {
		t.Errorf("LinesRead = %d, want 200", sum.LinesRead)
	}
}
