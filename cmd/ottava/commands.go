package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/japaniel/ottava/pkg/db"
	"github.com/japaniel/ottava/pkg/poems"
	"github.com/japaniel/ottava/pkg/prosody"
	"github.com/japaniel/ottava/pkg/score"

	_ "github.com/mattn/go-sqlite3"
)

// ScoreCmd scores poem collections, one collection per directory.
type ScoreCmd struct {
	Dirs    []string `arg:"" help:"Directories of *.txt poems."`
	DB      string   `name:"db" help:"Record the run in this SQLite database." type:"path"`
	Workers int      `help:"Stanzas classified in parallel (0 uses every CPU)."`
}

func (c *ScoreCmd) Run(app *App, ctx context.Context) error {
	analyzer, idx, err := app.Analyzer(ctx)
	if err != nil {
		return err
	}

	rec, err := openRecorder(c.DB, idx.Checksum(), app.Tolerance)
	if err != nil {
		return err
	}
	defer rec.Close()

	scorer := score.NewScorer(analyzer, rec.conn)
	if c.Workers > 0 {
		scorer.Workers = c.Workers
	}

	tally := score.NewTally()
	for _, dir := range c.Dirs {
		if fi, err := os.Stat(dir); err != nil {
			return err
		} else if !fi.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		collection := filepath.Base(dir)
		files, err := poems.Glob(dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			app.Log.Printf("Warning: no *.txt poems in %s", dir)
		}

		for _, path := range files {
			fmt.Fprintf(app.Stdout, "Reading stanzas from '%s'...\n", filepath.Base(path))
			stanzas, err := poems.ReadFile(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Stdout, "Read %s stanza(s).\n", humanize.Comma(int64(len(stanzas))))

			sourceID, err := rec.source(collection, path)
			if err != nil {
				return err
			}
			results, err := scorer.Score(ctx, sourceID, stanzas)
			if err != nil {
				return fmt.Errorf("score %s: %w", path, err)
			}
			printResults(app.Stdout, results)
			tally.AddResults(collection, results)
		}
	}

	groups := tally.Groups()
	for _, name := range groups {
		fmt.Fprintf(app.Stdout, "%s: %s\n", name, tally.Group(name))
	}
	if len(groups) > 1 {
		fmt.Fprintf(app.Stdout, "total: %s\n", tally.Total())
	}
	return rec.finish(app.Stdout)
}

func printResults(w io.Writer, results []score.Result) {
	for _, r := range results {
		verdict := "not ottava rima"
		if r.Verdict.OttavaRima() {
			verdict = "ottava rima"
		}
		fmt.Fprintf(w, "Stanza %02d: %s\n", r.Index, verdict)
	}
}

// recorder stores a scoring run. A zero recorder stores nothing.
type recorder struct {
	conn  *sql.DB
	runID string
}

func openRecorder(path, checksum string, tolerance int) (*recorder, error) {
	if path == "" {
		return &recorder{}, nil
	}
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.InitDB(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	runID, err := db.CreateRun(conn, checksum, tolerance)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &recorder{conn: conn, runID: runID}, nil
}

func (r *recorder) source(collection, path string) (int64, error) {
	if r.conn == nil {
		return 0, nil
	}
	return db.CreateOrGetSource(r.conn, r.runID, collection, path)
}

func (r *recorder) finish(w io.Writer) error {
	if r.conn == nil {
		return nil
	}
	if err := db.FinishRun(r.conn, r.runID); err != nil {
		return err
	}
	fmt.Fprintf(w, "Recorded run %s\n", r.runID)
	return nil
}

func (r *recorder) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

// CheckCmd classifies one stanza and explains the verdict.
type CheckCmd struct {
	File      string `arg:"" optional:"" help:"File holding the stanza (stdin when omitted)."`
	Delimiter string `help:"Line delimiter within the stanza." default:"\n"`
}

func (c *CheckCmd) Run(app *App, ctx context.Context) error {
	analyzer, _, err := app.Analyzer(ctx)
	if err != nil {
		return err
	}

	var text []byte
	if c.File == "" {
		text, err = io.ReadAll(app.Stdin)
	} else {
		text, err = os.ReadFile(c.File)
	}
	if err != nil {
		return err
	}

	v := analyzer.ClassifyWith(string(text), c.Delimiter, app.Tolerance)
	printVerdict(app.Stdout, v)
	return nil
}

func mark(ok bool) string {
	if ok {
		return "ok"
	}
	return "xx"
}

func printVerdict(w io.Writer, v prosody.Verdict) {
	for i, l := range v.Lines {
		fmt.Fprintf(w, "%02d %s %2d  %s\n", i, mark(l.Metrical), l.Syllables, l.Text)
	}
	for _, p := range v.Pairs {
		fmt.Fprintf(w, "%s %s  %s / %s (%s)\n", p.Label, mark(p.Rhymes), p.Word1, p.Word2, p.Method)
	}
	fmt.Fprintf(w, "lines %s, meter %s, rhyme %s\n", mark(v.LineCount), mark(v.Meter), mark(v.Rhyme))
	if v.OttavaRima() {
		fmt.Fprintln(w, "ottava rima")
	} else {
		fmt.Fprintln(w, "not ottava rima")
	}
}

// FetchCmd downloads a page and scores the poem extracted from it.
type FetchCmd struct {
	URL     string        `arg:"" help:"Page to fetch."`
	DB      string        `name:"db" help:"Record the run in this SQLite database." type:"path"`
	Timeout time.Duration `help:"HTTP timeout." default:"30s"`
}

func (c *FetchCmd) Run(app *App, ctx context.Context) error {
	pageURL, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	analyzer, idx, err := app.Analyzer(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Stdout, "Fetching %s...\n", c.URL)
	body, err := fetchPage(ctx, c.URL, c.Timeout)
	if err != nil {
		return err
	}
	page, err := poems.FromHTML(bytes.NewReader(body), pageURL)
	if err != nil {
		return err
	}
	if page.Title != "" {
		fmt.Fprintf(app.Stdout, "Title: %s\n", page.Title)
	}
	fmt.Fprintf(app.Stdout, "Read %s stanza(s).\n", humanize.Comma(int64(len(page.Stanzas))))

	rec, err := openRecorder(c.DB, idx.Checksum(), app.Tolerance)
	if err != nil {
		return err
	}
	defer rec.Close()

	sourceID, err := rec.source(pageURL.Host, c.URL)
	if err != nil {
		return err
	}
	results, err := score.NewScorer(analyzer, rec.conn).Score(ctx, sourceID, page.Stanzas)
	if err != nil {
		return err
	}
	printResults(app.Stdout, results)

	tally := score.NewTally()
	tally.AddResults(pageURL.Host, results)
	fmt.Fprintln(app.Stdout, tally.Total())
	return rec.finish(app.Stdout)
}

// maxBodySize bounds how much of an untrusted page is read.
const maxBodySize = 10 * 1024 * 1024

func fetchPage(ctx context.Context, pageURL string, timeout time.Duration) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	if resp.ContentLength > maxBodySize {
		return nil, fmt.Errorf("content length %d exceeds limit of %d bytes", resp.ContentLength, maxBodySize)
	}

	// One byte past the limit tells a full page from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("response body exceeded %d bytes", maxBodySize)
	}
	return body, nil
}

// LookupCmd prints corpus pronunciations.
type LookupCmd struct {
	Words []string `arg:"" help:"Words to look up."`
}

func (c *LookupCmd) Run(app *App, ctx context.Context) error {
	idx, err := app.Index(ctx)
	if err != nil {
		return err
	}
	for _, w := range c.Words {
		ps, ok := idx.Phonemes(w)
		if !ok {
			fmt.Fprintf(app.Stdout, "%s: not found\n", w)
			continue
		}
		codes := make([]string, len(ps))
		for i, p := range ps {
			codes[i] = string(p)
		}
		fmt.Fprintf(app.Stdout, "%s: %s\n", w, strings.Join(codes, " "))
	}
	return nil
}

// RandomCmd prints random corpus words.
type RandomCmd struct {
	Count int    `short:"n" help:"How many words to print." default:"1"`
	Seed  uint64 `help:"Seed for a repeatable sequence (0 picks one at random)."`
}

func (c *RandomCmd) Run(app *App, ctx context.Context) error {
	idx, err := app.Index(ctx)
	if err != nil {
		return err
	}
	var r *rand.Rand
	if c.Seed != 0 {
		r = rand.New(rand.NewPCG(c.Seed, c.Seed))
	}
	for i := 0; i < c.Count; i++ {
		w := idx.RandomWord(r)
		if w == "" {
			return fmt.Errorf("corpus %s has no words starting with a letter", app.Corpus)
		}
		fmt.Fprintln(app.Stdout, w)
	}
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(app *App) error {
	fmt.Fprintf(app.Stdout, "ottava version %s\n", prosody.Version())
	return nil
}
