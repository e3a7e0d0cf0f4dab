// Package cmudict loads CMU Pronouncing Dictionary style corpora into an
// in-memory index and resolves words to phoneme sequences.
package cmudict

import (
	"bufio"
	"compress/gzip"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
)

const (
	commentPrefix = ";;;"
	// separator sits between the word and its phonemes.
	separator = "  "
)

// ErrMalformedLine is wrapped by CorpusError when an entry cannot be parsed.
var ErrMalformedLine = errors.New("malformed entry")

// CorpusError reports a failure while reading a corpus. Any CorpusError is fatal:
// no partially built index is ever returned.
type CorpusError struct {
	Line int // 0 when the failure is not tied to a line
	Text string
	Err  error
}

func (e *CorpusError) Error() string {
	if e.Text != "" {
		return fmt.Sprintf("cmudict: line %d: %v: %q", e.Line, e.Err, e.Text)
	}
	if e.Line > 0 {
		return fmt.Sprintf("cmudict: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("cmudict: %v", e.Err)
}

func (e *CorpusError) Unwrap() error { return e.Err }

// Index maps uppercase words to their primary pronunciation.
// It is never modified after Load returns and is safe for concurrent use.
type Index struct {
	entries  map[string][]Phoneme
	keys     []string // sorted, used for sampling
	alpha    int      // number of keys starting with an ASCII letter
	checksum string
}

// Load reads a corpus of lines in the form
//
//	WORD  PH1 PH2 PH3 ...
//
// Lines starting with ";;;" are comments. Alternate pronunciations, whose
// keys end with ")" such as "READ(1)", are skipped. Stress digits are removed
// from every phoneme.
func Load(r io.Reader) (*Index, error) {
	h := blake3.New()
	entries := make(map[string][]Phoneme)

	scanner := bufio.NewScanner(io.TeeReader(r, h))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		word, rest, ok := strings.Cut(line, separator)
		fields := strings.Fields(rest)
		if !ok || word == "" || len(fields) == 0 {
			return nil, &CorpusError{Line: lineNum, Text: line, Err: ErrMalformedLine}
		}

		if strings.HasSuffix(word, ")") {
			continue
		}

		phonemes := make([]Phoneme, len(fields))
		for i, f := range fields {
			phonemes[i] = stripStress(f)
		}
		entries[strings.ToUpper(word)] = phonemes
	}

	if err := scanner.Err(); err != nil {
		return nil, &CorpusError{Line: lineNum, Err: err}
	}

	return newIndex(entries, hex.EncodeToString(h.Sum(nil))), nil
}

// LoadFile opens path and loads it. Files ending in ".gz" or ".xz" are
// decompressed on the fly.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &CorpusError{Err: err}
	}
	defer f.Close()

	r, err := decompress(path, f)
	if err != nil {
		return nil, &CorpusError{Err: err}
	}
	return Load(r)
}

func decompress(name string, r io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(name, ".xz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		return xr, nil
	case strings.HasSuffix(name, ".gz"):
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return gzr, nil
	}
	return r, nil
}

func newIndex(entries map[string][]Phoneme, checksum string) *Index {
	keys := make([]string, 0, len(entries))
	alpha := 0
	for k := range entries {
		keys = append(keys, k)
		if startsWithLetter(k) {
			alpha++
		}
	}
	slices.Sort(keys)
	return &Index{
		entries:  entries,
		keys:     keys,
		alpha:    alpha,
		checksum: checksum,
	}
}

// Phonemes returns the pronunciation of word. The lookup is case-insensitive
// and falls back, in order, to:
//
//   - "LOV'D" read as "LOVED";
//   - hyphenated compounds, resolved part by part and concatenated;
//   - apostrophe-split words that are not possessives ("'S").
//
// A compound resolves only if every part does. The second result is false
// when the word cannot be resolved; an empty sequence is never returned as found.
func (ix *Index) Phonemes(word string) ([]Phoneme, bool) {
	ps, ok := ix.resolve(strings.ToUpper(word))
	if !ok {
		return nil, false
	}
	return slices.Clone(ps), true
}

func (ix *Index) resolve(word string) ([]Phoneme, bool) {
	if ps, ok := ix.entries[word]; ok {
		return ps, true
	}

	if stem, ok := strings.CutSuffix(word, "'D"); ok {
		return ix.resolve(stem + "ED")
	}

	var parts []string
	switch {
	case strings.Contains(word, "-"):
		parts = strings.Split(word, "-")
	case strings.Contains(word, "'") && !strings.HasSuffix(word, "'S"):
		parts = strings.Split(word, "'")
	default:
		return nil, false
	}

	var merged []Phoneme
	for _, part := range parts {
		ps, ok := ix.resolve(part)
		if !ok {
			return nil, false
		}
		merged = append(merged, ps...)
	}
	return merged, true
}

// RandomWord returns a lowercased corpus word starting with a letter.
// Keys are sampled uniformly and rejected until one starts with a letter.
// A nil r uses the global generator. It returns "" if the index holds no
// such word.
func (ix *Index) RandomWord(r *rand.Rand) string {
	if ix.alpha == 0 {
		return ""
	}
	for {
		var i int
		if r == nil {
			i = rand.IntN(len(ix.keys))
		} else {
			i = r.IntN(len(ix.keys))
		}
		if w := ix.keys[i]; startsWithLetter(w) {
			return strings.ToLower(w)
		}
	}
}

// Len returns the number of words in the index.
func (ix *Index) Len() int { return len(ix.entries) }

// Words returns all words in sorted order.
func (ix *Index) Words() []string {
	return slices.Clone(ix.keys)
}

// Checksum is the hex BLAKE3 digest of the corpus bytes the index was built from.
func (ix *Index) Checksum() string { return ix.checksum }

func startsWithLetter(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
