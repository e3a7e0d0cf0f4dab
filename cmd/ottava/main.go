// Command ottava checks poems for ottava rima stanzas.
package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/japaniel/ottava/pkg/cmudict"
	"github.com/japaniel/ottava/pkg/prosody"
)

// Globals are the flags shared by every command.
type Globals struct {
	Corpus    string `name:"corpus" help:"Path to the CMU pronouncing dictionary (.gz and .xz accepted)." env:"OTTAVA_CORPUS" default:"cmudict-0.7b" type:"path"`
	CorpusURL string `name:"corpus-url" help:"Where to download the corpus from when --download is set." default:"${corpus_url}"`
	Download  bool   `help:"Download the corpus if it is missing."`
	Tolerance int    `help:"Allowed syllable distance from ten per line." default:"2"`
	Quiet     bool   `short:"q" help:"Do not report rhyme misses on stderr."`
}

// App is what commands run against: the parsed globals plus standard
// streams and the lazily loaded corpus.
type App struct {
	*Globals
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Log writes warnings and diagnostics to Stderr.
	Log *log.Logger

	loader *cmudict.Loader
}

// CLI is the ottava command line.
type CLI struct {
	Globals

	Score   ScoreCmd   `cmd:"" help:"Score every *.txt poem in one or more directories."`
	Check   CheckCmd   `cmd:"" help:"Check a single stanza read from a file or stdin."`
	Fetch   FetchCmd   `cmd:"" help:"Fetch a web page and score the poem it contains."`
	Lookup  LookupCmd  `cmd:"" help:"Print the pronunciation of words."`
	Random  RandomCmd  `cmd:"" help:"Print random words from the corpus."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

// Analyzer loads the corpus once and returns an analyzer configured from
// the global flags.
func (app *App) Analyzer(ctx context.Context) (*prosody.Analyzer, *cmudict.Index, error) {
	idx, err := app.Index(ctx)
	if err != nil {
		return nil, nil, err
	}
	a := prosody.NewAnalyzer(idx)
	a.Tolerance = app.Tolerance
	a.Logger = app.Log
	if app.Quiet {
		a.Logger = nil
	}
	return a, idx, nil
}

// Index returns the pronunciation index, downloading it first when asked to.
func (app *App) Index(ctx context.Context) (*cmudict.Index, error) {
	if app.loader == nil {
		if app.Download {
			if err := cmudict.EnsureCorpus(ctx, app.Corpus, app.CorpusURL); err != nil {
				return nil, err
			}
		}
		app.loader = cmudict.NewLoader(app.Corpus)
	}
	return app.loader.Index()
}

func newParser(cli *CLI, ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) (*kong.Kong, error) {
	app := &App{
		Globals: &cli.Globals,
		Stdin:   stdin,
		Stdout:  stdout,
		Stderr:  stderr,
		Log:     log.New(stderr, "", 0),
	}
	return kong.New(cli,
		kong.Name("ottava"),
		kong.Description("Detect ottava rima stanzas using the CMU pronouncing dictionary."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{"corpus_url": cmudict.DefaultCorpusURL},
		kong.Writers(stdout, stderr),
		kong.Bind(app),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	parser, err := newParser(&cli, ctx, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to build command line: %v", err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	kctx.FatalIfErrorf(kctx.Run())
}
