package score

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/japaniel/ottava/pkg/db"
	"github.com/japaniel/ottava/pkg/prosody"
)

// Result is the verdict for one stanza, in input position.
type Result struct {
	Index   int
	Text    string
	Verdict prosody.Verdict
	// StanzaID is the stored row id, zero when nothing was persisted.
	StanzaID int64
}

// Scorer classifies stanzas in parallel and optionally stores the verdicts.
type Scorer struct {
	Analyzer *prosody.Analyzer
	DB       *sql.DB

	Workers       int
	BatchSize     int
	FlushInterval time.Duration
	Logger        *log.Logger

	// OnProgress is called from a single goroutine as results are settled in order.
	OnProgress func(current, total int)

	// PoolFactory builds the worker pool. Defaults to NewWorkerPool.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewScorer returns a Scorer with defaults. conn may be nil.
func NewScorer(a *prosody.Analyzer, conn *sql.DB) *Scorer {
	return &Scorer{
		Analyzer:      a,
		DB:            conn,
		Workers:       runtime.NumCPU(),
		BatchSize:     50,
		FlushInterval: 200 * time.Millisecond,
		PoolFactory: func(workers, queue int) WorkerPoolInterface {
			return NewWorkerPool(workers, queue)
		},
	}
}

// Score classifies every stanza and returns the results in input order.
// When DB is set and sourceID is positive, each verdict and its rhyme
// misses are stored under sourceID.
func (s *Scorer) Score(ctx context.Context, sourceID int64, stanzas []string) ([]Result, error) {
	if s.Analyzer == nil {
		return nil, fmt.Errorf("scorer has no analyzer")
	}
	total := len(stanzas)
	results := make([]Result, total)
	if total == 0 {
		return results, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	workers := s.Workers
	if workers <= 0 {
		workers = 1
	}
	factory := s.PoolFactory
	if factory == nil {
		factory = func(w, q int) WorkerPoolInterface { return NewWorkerPool(w, q) }
	}

	var bw *BatchWriter
	if s.DB != nil && sourceID > 0 {
		bw = NewBatchWriter(s.DB, s.BatchSize, s.FlushInterval)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := factory(workers, workers*2)
	pool.Start(ctx)

	resultCh := make(chan Result, workers*2)
	doneCh := make(chan error, 1)

	// Workers finish out of order; results are settled strictly by index so
	// rows and progress follow the input.
	go func() {
		pending := make(map[int]Result)
		next := 0
		for res := range resultCh {
			pending[res.Index] = res
			for {
				item, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				results[next] = item
				if bw != nil {
					if err := bw.Submit(s.persist(sourceID, &results[next])); err != nil {
						cancel()
						doneCh <- err
						for range resultCh {
						}
						return
					}
				}
				next++
				if s.OnProgress != nil {
					s.OnProgress(next, total)
				}
			}
		}
		if next < total {
			if err := ctx.Err(); err != nil {
				doneCh <- err
				return
			}
			doneCh <- fmt.Errorf("scored %d of %d stanzas", next, total)
			return
		}
		doneCh <- nil
	}()

	var submitErr error
	for i, text := range stanzas {
		job := func(ctx context.Context) error {
			res := Result{Index: i, Text: text, Verdict: s.Analyzer.Classify(text)}
			select {
			case resultCh <- res:
			case <-ctx.Done():
			}
			return nil
		}
		if err := pool.SubmitCtx(ctx, job); err != nil {
			submitErr = err
			cancel()
			break
		}
	}

	pool.Close()
	close(resultCh)
	err := <-doneCh

	if bw != nil {
		if cerr := bw.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if submitErr != nil {
		return nil, submitErr
	}
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Printf("scored %d stanzas", total)
	}
	return results, nil
}

// persist stores one verdict. It runs on the writer goroutine and fills in
// the stored id.
func (s *Scorer) persist(sourceID int64, res *Result) WriteFunc {
	return func(ctx context.Context, tx *sql.Tx) error {
		v := res.Verdict
		id, err := db.SaveStanza(tx, db.Stanza{
			SourceID:    sourceID,
			Position:    res.Index,
			Text:        res.Text,
			LineCountOK: v.LineCount,
			MeterOK:     v.Meter,
			RhymeOK:     v.Rhyme,
			OttavaRima:  v.OttavaRima(),
		})
		if err != nil {
			return fmt.Errorf("stanza %d: %w", res.Index, err)
		}
		for _, m := range v.Misses() {
			if err := db.AddRhymeMiss(tx, db.RhymeMiss{
				StanzaID: id,
				Pair:     m.Label,
				Word1:    m.Word1,
				Word2:    m.Word2,
				Method:   string(m.Method),
			}); err != nil {
				return fmt.Errorf("stanza %d miss %s: %w", res.Index, m.Label, err)
			}
		}
		res.StanzaID = id
		return nil
	}
}
