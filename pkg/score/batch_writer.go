package score

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"
)

// WriteFunc performs one write inside a batch transaction. tx is nil when
// the writer has no database.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// ErrBatchWriterClosed is returned by Submit and Close after Close.
var ErrBatchWriterClosed = errors.New("batch writer closed")

// BatchWriterError reports a batch whose transaction did not commit.
type BatchWriterError struct {
	Size int
	Err  error
}

func (e *BatchWriterError) Error() string {
	return fmt.Sprintf("batch of %d writes failed: %v", e.Size, e.Err)
}

func (e *BatchWriterError) Unwrap() error { return e.Err }

// BatchWriter groups writes into transactions committed by one goroutine.
// A batch is flushed when it reaches the configured size, when the flush
// interval elapses, and on Close.
type BatchWriter struct {
	db   *sql.DB
	size int

	// OnError is called for every failed batch.
	OnError func(error)

	mu       sync.Mutex
	pending  []WriteFunc
	closed   bool
	inflight sync.WaitGroup

	batches chan []WriteFunc
	done    chan struct{}

	errMu sync.Mutex
	err   error
}

// NewBatchWriter starts a writer. A non-positive interval disables timed
// flushes.
func NewBatchWriter(conn *sql.DB, size int, interval time.Duration) *BatchWriter {
	if size <= 0 {
		size = 50
	}
	bw := &BatchWriter{
		db:      conn,
		size:    size,
		batches: make(chan []WriteFunc, 2),
		done:    make(chan struct{}),
	}
	go bw.commitLoop(interval)
	return bw
}

// Submit queues a write. It blocks while the committer is behind.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.pending = append(bw.pending, w)
	var batch []WriteFunc
	if len(bw.pending) >= bw.size {
		batch = bw.takeLocked()
		bw.inflight.Add(1)
	}
	bw.mu.Unlock()

	if batch != nil {
		bw.batches <- batch
		bw.inflight.Done()
	}
	return nil
}

func (bw *BatchWriter) takeLocked() []WriteFunc {
	batch := bw.pending
	bw.pending = nil
	return batch
}

func (bw *BatchWriter) commitLoop(interval time.Duration) {
	defer close(bw.done)

	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case batch, ok := <-bw.batches:
			if !ok {
				return
			}
			bw.commit(batch)
		case <-tick:
			bw.mu.Lock()
			batch := bw.takeLocked()
			bw.mu.Unlock()
			if len(batch) > 0 {
				bw.commit(batch)
			}
		}
	}
}

func (bw *BatchWriter) commit(batch []WriteFunc) {
	if err := bw.exec(batch); err != nil {
		werr := &BatchWriterError{Size: len(batch), Err: err}
		bw.errMu.Lock()
		if bw.err == nil {
			bw.err = werr
		}
		bw.errMu.Unlock()
		if bw.OnError != nil {
			bw.OnError(werr)
		}
	}
}

func (bw *BatchWriter) exec(batch []WriteFunc) (err error) {
	ctx := context.Background()
	if bw.db == nil {
		for _, w := range batch {
			if err := w(ctx, nil); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := bw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, w := range batch {
		if err = w(ctx, tx); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Close flushes what is pending, waits for the committer and returns the
// first batch error, if any.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	batch := bw.takeLocked()
	bw.mu.Unlock()

	bw.inflight.Wait()
	if len(batch) > 0 {
		bw.batches <- batch
	}
	close(bw.batches)
	<-bw.done

	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.err
}
