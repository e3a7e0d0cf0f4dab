package main

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/japaniel/ottava/pkg/db"
)

const (
	corpusPath = "../../pkg/cmudict/testdata/cmudict-sample.txt"
	poemsDir   = "../../pkg/poems/testdata"
)

// runCLIWithInput runs the command line in-process with stdin set to input
// and returns what it wrote to stdout and stderr.
func runCLIWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	var cli CLI
	var stdout, stderr bytes.Buffer
	parser, err := newParser(&cli, context.Background(), strings.NewReader(input), &stdout, &stderr)
	if err != nil {
		t.Fatalf("build parser: %v", err)
	}
	kctx, err := parser.Parse(append([]string{"--corpus", corpusPath}, args...))
	if err != nil {
		return stdout.String(), stderr.String(), err
	}
	err = kctx.Run()
	return stdout.String(), stderr.String(), err
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCLIWithInput(t, "", args...)
	return out, err
}

func TestScoreCommand(t *testing.T) {
	out, err := runCLI(t, "score", poemsDir)
	if err != nil {
		t.Fatalf("score failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"Reading stanzas from 'cats.txt'...",
		"Read 2 stanza(s).",
		"Stanza 00: ottava rima",
		"Stanza 01: not ottava rima",
		"testdata: 1 / 2 ottava rima stanzas detected (50.00%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScoreCommandRecordsRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ottava.db")
	out, err := runCLI(t, "score", "--db", dbPath, poemsDir)
	if err != nil {
		t.Fatalf("score failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Recorded run ") {
		t.Fatalf("expected run id in output:\n%s", out)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	var runID string
	if err := conn.QueryRow("SELECT id FROM runs").Scan(&runID); err != nil {
		t.Fatalf("query run: %v", err)
	}
	run, err := db.GetRun(conn, runID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.FinishedAt.IsZero() {
		t.Errorf("expected run to be finished")
	}
	summary, err := db.GetRunSummary(conn, runID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 1 || summary[0].Detected != 1 || summary[0].Total != 2 {
		t.Errorf("unexpected summary %+v", summary)
	}
	misses, err := db.GetRhymeMisses(conn, runID)
	if err != nil {
		t.Fatalf("misses: %v", err)
	}
	if len(misses) != 2 {
		t.Errorf("expected 2 rhyme misses, got %d", len(misses))
	}
}

func TestScoreCommandReportsRhymeMisses(t *testing.T) {
	_, stderr, err := runCLIWithInput(t, "", "score", poemsDir)
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	for _, want := range []string{"cat and dog don't rhyme.", "mat and dog don't rhyme."} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}

	_, stderr, err = runCLIWithInput(t, "", "--quiet", "score", poemsDir)
	if err != nil {
		t.Fatalf("quiet score failed: %v", err)
	}
	if stderr != "" {
		t.Errorf("expected no diagnostics with --quiet, got:\n%s", stderr)
	}
}

func TestScoreCommandWarnsOnEmptyDir(t *testing.T) {
	dir := t.TempDir()
	out, stderr, err := runCLIWithInput(t, "", "score", dir)
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	if !strings.Contains(stderr, "Warning: no *.txt poems in "+dir) {
		t.Errorf("expected warning on stderr, got %q", stderr)
	}
	if strings.Contains(out, "Warning") {
		t.Errorf("warning leaked to stdout: %q", out)
	}
}

func TestScoreCommandMissingDir(t *testing.T) {
	if _, err := runCLI(t, "score", filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestCheckCommand(t *testing.T) {
	stanza := strings.Join([]string{
		"I saw the cat that sat upon the mat,",
		"And in the dark I saw a little light;",
		"It was a fat and very happy cat",
		"That slept beside the fire all the night.",
		"It wore upon its head a little hat",
		"And dreamed of birds that flew into the height,",
		"And when the morning came it climbed a tree",
		"To sing a song for all the world to see.",
	}, "\n")
	path := filepath.Join(t.TempDir(), "stanza.txt")
	if err := os.WriteFile(path, []byte(stanza), 0644); err != nil {
		t.Fatalf("write stanza: %v", err)
	}

	out, err := runCLI(t, "check", path)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "C1-C2 ok  tree / see (phonemes)") {
		t.Errorf("expected couplet report:\n%s", out)
	}
	if !strings.HasSuffix(out, "\nottava rima\n") {
		t.Errorf("expected ottava rima verdict:\n%s", out)
	}
}

func TestCheckCommandReadsStdin(t *testing.T) {
	input := "I saw the cat that sat upon the mat,\nAnd in the dark I saw a little light;\n"
	out, _, err := runCLIWithInput(t, input, "check")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "01 ok 10  And in the dark I saw a little light;") {
		t.Errorf("expected per-line report for stdin stanza:\n%s", out)
	}
	if !strings.HasSuffix(out, "lines xx, meter ok, rhyme xx\nnot ottava rima\n") {
		t.Errorf("unexpected verdict:\n%s", out)
	}
}

func TestCheckCommandShortStanza(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.txt")
	if err := os.WriteFile(path, []byte("I saw the cat\nthat sat upon the mat"), 0644); err != nil {
		t.Fatalf("write stanza: %v", err)
	}
	out, err := runCLI(t, "check", path)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "lines xx") || !strings.HasSuffix(out, "not ottava rima\n") {
		t.Errorf("unexpected verdict:\n%s", out)
	}
}

func TestFetchCommand(t *testing.T) {
	body, err := os.ReadFile(filepath.Join(poemsDir, "cats.html"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(body)
	}))
	defer srv.Close()

	out, err := runCLI(t, "fetch", srv.URL+"/cats")
	if err != nil {
		t.Fatalf("fetch failed: %v\n%s", err, out)
	}
	for _, want := range []string{
		"Title: The Cat on the Mat",
		"Read 2 stanza(s).",
		"Stanza 01: ottava rima",
		"2 / 2 ottava rima stanzas detected (100.00%)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFetchCommandBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := runCLI(t, "fetch", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "status 403") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestLookupCommand(t *testing.T) {
	out, err := runCLI(t, "lookup", "cat", "lov'd", "zzyzx")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	want := "cat: K AE T\nlov'd: L AH V D\nzzyzx: not found\n"
	if out != want {
		t.Errorf("lookup output = %q, want %q", out, want)
	}
}

func TestRandomCommand(t *testing.T) {
	first, err := runCLI(t, "random", "-n", "5", "--seed", "7")
	if err != nil {
		t.Fatalf("random failed: %v", err)
	}
	second, err := runCLI(t, "random", "-n", "5", "--seed", "7")
	if err != nil {
		t.Fatalf("random failed: %v", err)
	}
	if first != second {
		t.Errorf("seeded runs differ:\n%s\n%s", first, second)
	}
	words := strings.Fields(first)
	if len(words) != 5 {
		t.Fatalf("expected 5 words, got %v", words)
	}
	for _, w := range words {
		if w != strings.ToLower(w) {
			t.Errorf("expected lowercase word, got %q", w)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if out != "ottava version 0.2.0\n" {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestMissingCorpus(t *testing.T) {
	var cli CLI
	var stdout, stderr bytes.Buffer
	parser, err := newParser(&cli, context.Background(), strings.NewReader(""), &stdout, &stderr)
	if err != nil {
		t.Fatalf("build parser: %v", err)
	}
	kctx, err := parser.Parse([]string{"--corpus", filepath.Join(t.TempDir(), "missing"), "lookup", "cat"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := kctx.Run(); err == nil {
		t.Fatal("expected error for missing corpus")
	}
}
