// Package prosody scores stanzas against the ottava rima form: eight lines of
// roughly iambic pentameter rhyming ABABABCC.
package prosody

import (
	"log"
	"regexp"
	"slices"
	"strings"

	"github.com/japaniel/ottava/pkg/cmudict"
)

// Version returns the current version of the package.
func Version() string { return "0.2.0" }

const (
	DefaultDelimiter = "\n"
	DefaultTolerance = 2

	// TargetSyllables is the length of a pentameter line.
	TargetSyllables = 10
	// StanzaLines is the number of lines in an ottava rima stanza.
	StanzaLines = 8
)

// Lexicon resolves words to pronunciations. *cmudict.Index implements it.
type Lexicon interface {
	Phonemes(word string) ([]cmudict.Phoneme, bool)
}

// Analyzer applies the ottava rima rules using a pronunciation lexicon.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	lex Lexicon

	// Delimiter separates lines in a stanza.
	Delimiter string
	// Tolerance is how far a line's syllable count may stray from 10.
	Tolerance int
	// Logger receives a line for every pair of words that fails to rhyme.
	// NewAnalyzer sets it to the standard logger; nil silences it.
	Logger *log.Logger
}

// NewAnalyzer creates an Analyzer with the default delimiter and tolerance
// that reports rhyme misses to the standard logger.
func NewAnalyzer(lex Lexicon) *Analyzer {
	return &Analyzer{
		lex:       lex,
		Delimiter: DefaultDelimiter,
		Tolerance: DefaultTolerance,
		Logger:    log.Default(),
	}
}

// IsOttavaRima reports whether stanza has exactly eight lines, each close to
// iambic pentameter, rhyming ABABABCC.
func (a *Analyzer) IsOttavaRima(stanza string) bool {
	return a.IsOttavaRimaWith(stanza, a.Delimiter, a.Tolerance)
}

// IsOttavaRimaWith is IsOttavaRima with an explicit delimiter and tolerance.
func (a *Analyzer) IsOttavaRimaWith(stanza, delimiter string, tolerance int) bool {
	lines := ExtractLines(stanza, delimiter)

	if len(lines) != StanzaLines {
		return false
	}
	for _, line := range lines {
		if !a.IsIambicPentameter(line, tolerance) {
			return false
		}
	}
	return a.IsABABABCC(lines)
}

// phpSpace is the set of characters trimmed around a stanza.
const phpSpace = " \t\n\r\x00\x0B"

// ExtractLines trims the stanza and splits it on the literal delimiter.
// An empty delimiter means DefaultDelimiter.
func ExtractLines(stanza, delimiter string) []string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return strings.Split(strings.Trim(stanza, phpSpace), delimiter)
}

var reNonWord = regexp.MustCompile(`[^A-Za-z' ]`)

// Words splits a line into words made of ASCII letters and apostrophes.
// Every other character separates words. A line without any words yields a
// single empty word, which counts zero syllables and never resolves.
func Words(line string) []string {
	cleaned := strings.TrimSpace(reNonWord.ReplaceAllString(line, " "))
	if cleaned == "" {
		return []string{""}
	}
	return strings.Fields(cleaned)
}

// LastWord returns the final word of line.
func LastWord(line string) string {
	words := Words(line)
	return words[len(words)-1]
}

// EstimateSyllables counts vowel phonemes when the word is in the lexicon and
// vowel letters otherwise.
func (a *Analyzer) EstimateSyllables(word string) int {
	if ps, ok := a.lex.Phonemes(word); ok {
		return cmudict.CountVowels(ps)
	}
	return CountVowelLetters(word)
}

// CountVowelLetters counts the letters A, E, I, O and U in word, ignoring case.
// Silent vowels and digraphs are counted as written.
func CountVowelLetters(word string) int {
	n := 0
	for i := 0; i < len(word); i++ {
		switch word[i] {
		case 'A', 'E', 'I', 'O', 'U', 'a', 'e', 'i', 'o', 'u':
			n++
		}
	}
	return n
}

// LineSyllables sums the syllable estimates of every word in line.
func (a *Analyzer) LineSyllables(line string) int {
	total := 0
	for _, w := range Words(line) {
		total += a.EstimateSyllables(w)
	}
	return total
}

// IsIambicPentameter reports whether the line has between 10-tolerance and
// 10+tolerance syllables inclusive.
func (a *Analyzer) IsIambicPentameter(line string, tolerance int) bool {
	return withinTolerance(a.LineSyllables(line), tolerance)
}

func withinTolerance(syllables, tolerance int) bool {
	return syllables >= TargetSyllables-tolerance && syllables <= TargetSyllables+tolerance
}

// LastSyllable returns the phonemes from the last vowel to the end. Without
// any vowel the whole sequence is returned.
func LastSyllable(ps []cmudict.Phoneme) []cmudict.Phoneme {
	for i := len(ps) - 1; i >= 0; i-- {
		if ps[i].IsVowel() {
			return slices.Clone(ps[i:])
		}
	}
	return slices.Clone(ps)
}
