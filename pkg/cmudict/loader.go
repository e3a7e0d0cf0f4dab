package cmudict

import "sync"

// Loader builds an Index from a file at most once. Concurrent callers of
// Index block until the single load finishes and then all observe the same
// index or the same error.
type Loader struct {
	Path string

	once sync.Once
	idx  *Index
	err  error
}

// NewLoader returns a Loader for the corpus at path. Nothing is read until
// Index is first called.
func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// Index returns the loaded index, loading it on first use.
func (l *Loader) Index() (*Index, error) {
	l.once.Do(func() {
		l.idx, l.err = LoadFile(l.Path)
	})
	return l.idx, l.err
}
