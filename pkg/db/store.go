package db

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// Fingerprint returns the hex BLAKE3 digest of a stanza's text, used to spot
// the same stanza across files and runs.
func Fingerprint(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// CreateRun inserts a new run and returns its id.
func CreateRun(db DBExecutor, corpusChecksum string, tolerance int) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO runs (id, corpus_checksum, tolerance, started_at) VALUES (?, ?, ?, ?)`,
		id, corpusChecksum, tolerance, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run's completion time.
func FinishRun(db DBExecutor, runID string) error {
	res, err := db.Exec(`UPDATE runs SET finished_at = ? WHERE id = ?`, time.Now().UTC(), runID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// GetRun loads a run by id.
func GetRun(db DBExecutor, runID string) (Run, error) {
	var r Run
	var finished sql.NullTime
	err := db.QueryRow(`SELECT id, corpus_checksum, tolerance, started_at, finished_at FROM runs WHERE id = ?`, runID).
		Scan(&r.ID, &r.CorpusChecksum, &r.Tolerance, &r.StartedAt, &finished)
	if err != nil {
		return Run{}, err
	}
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	return r, nil
}

// CreateOrGetSource returns existing source id or inserts a new source and returns its id.
func CreateOrGetSource(db DBExecutor, runID, collection, path string) (int64, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return 0, fmt.Errorf("path must be non-empty")
	}

	const maxRetries = 3

	var id int64
	for attempt := 0; attempt < maxRetries; attempt++ {
		// First, try to find an existing source.
		err := db.QueryRow(`SELECT id FROM sources WHERE run_id = ? AND path = ?`, runID, trimmedPath).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, err
		}

		// No existing row; try to insert one.
		res, err := db.Exec(`INSERT INTO sources (run_id, collection, path) VALUES (?, ?, ?)`, runID, collection, trimmedPath)
		if err != nil {
			// If another concurrent transaction inserted the same source, retry the SELECT.
			if isUniqueConstraintErr(err) {
				continue
			}
			return 0, err
		}

		return res.LastInsertId()
	}

	return 0, fmt.Errorf("could not create or get source after %d retries", maxRetries)
}

// SaveStanza stores a stanza verdict, replacing any earlier verdict for the
// same source and position together with its rhyme misses. The fingerprint
// is computed from the text when empty.
func SaveStanza(db DBExecutor, s Stanza) (int64, error) {
	if s.SourceID <= 0 {
		return 0, fmt.Errorf("sourceID must be positive")
	}
	if s.Fingerprint == "" {
		s.Fingerprint = Fingerprint(s.Text)
	}

	var id int64
	err := db.QueryRow(`INSERT INTO stanzas (source_id, position, fingerprint, text, line_count_ok, meter_ok, rhyme_ok, is_ottava_rima)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(source_id, position) DO UPDATE SET
	  fingerprint = excluded.fingerprint,
	  text = excluded.text,
	  line_count_ok = excluded.line_count_ok,
	  meter_ok = excluded.meter_ok,
	  rhyme_ok = excluded.rhyme_ok,
	  is_ottava_rima = excluded.is_ottava_rima
	RETURNING id`,
		s.SourceID, s.Position, s.Fingerprint, s.Text, s.LineCountOK, s.MeterOK, s.RhymeOK, s.OttavaRima).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert stanza: %w", err)
	}

	if _, err := db.Exec(`DELETE FROM rhyme_misses WHERE stanza_id = ?`, id); err != nil {
		return 0, fmt.Errorf("clear rhyme misses: %w", err)
	}
	return id, nil
}

// AddRhymeMiss records a failed rhyme pair for a stanza.
func AddRhymeMiss(db DBExecutor, m RhymeMiss) error {
	if m.StanzaID <= 0 {
		return fmt.Errorf("stanzaID must be positive")
	}
	_, err := db.Exec(`INSERT INTO rhyme_misses (stanza_id, pair, word1, word2, method) VALUES (?, ?, ?, ?, ?)`,
		m.StanzaID, m.Pair, m.Word1, m.Word2, m.Method)
	return err
}

// GetRunSummary returns detected/total stanza counts per collection for a run.
func GetRunSummary(db DBExecutor, runID string) ([]CollectionSummary, error) {
	rows, err := db.Query(`SELECT s.collection, COUNT(st.id), COALESCE(SUM(st.is_ottava_rima), 0)
	FROM sources s JOIN stanzas st ON st.source_id = s.id
	WHERE s.run_id = ?
	GROUP BY s.collection
	ORDER BY s.collection`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CollectionSummary
	for rows.Next() {
		var c CollectionSummary
		if err := rows.Scan(&c.Collection, &c.Total, &c.Detected); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRhymeMisses returns every rhyme miss recorded in a run, in stanza order.
func GetRhymeMisses(db DBExecutor, runID string) ([]RhymeMiss, error) {
	rows, err := db.Query(`SELECT m.id, m.stanza_id, m.pair, m.word1, m.word2, m.method
	FROM rhyme_misses m
	JOIN stanzas st ON st.id = m.stanza_id
	JOIN sources s ON s.id = st.source_id
	WHERE s.run_id = ?
	ORDER BY s.id, st.position, m.id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RhymeMiss
	for rows.Next() {
		var m RhymeMiss
		if err := rows.Scan(&m.ID, &m.StanzaID, &m.Pair, &m.Word1, &m.Word2, &m.Method); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
