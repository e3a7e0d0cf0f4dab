package db

import "time"

// Run is one scoring session over one or more poem collections.
type Run struct {
	ID             string
	CorpusChecksum string
	Tolerance      int
	StartedAt      time.Time
	FinishedAt     time.Time // zero while the run is in progress
}

// Source is a poem file (or page) scored during a run.
type Source struct {
	ID         int64
	RunID      string
	Collection string
	Path       string
}

// Stanza is the stored verdict for one stanza of a source.
type Stanza struct {
	ID          int64
	SourceID    int64
	Position    int
	Fingerprint string
	Text        string
	LineCountOK bool
	MeterOK     bool
	RhymeOK     bool
	OttavaRima  bool
}

// RhymeMiss records a scheme pair whose line endings did not rhyme.
type RhymeMiss struct {
	ID       int64
	StanzaID int64
	Pair     string
	Word1    string
	Word2    string
	Method   string
}

// CollectionSummary counts detected ottava rima stanzas in one collection.
type CollectionSummary struct {
	Collection string
	Total      int
	Detected   int
}
