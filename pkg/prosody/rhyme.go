package prosody

import (
	"slices"

	"github.com/japaniel/ottava/pkg/phonetic"
)

// Method names how two line endings were compared.
type Method string

const (
	// MethodPhonemes compares the last syllables of both pronunciations.
	MethodPhonemes Method = "phonemes"
	// MethodMetaphone compares the final metaphone character of both words.
	// It is used whenever either word is missing from the lexicon.
	MethodMetaphone Method = "metaphone"
)

// RhymeResult describes the comparison of two line endings.
type RhymeResult struct {
	Word1  string
	Word2  string
	Method Method
	Rhymes bool
}

// DoesRhyme reports whether the last words of two lines rhyme.
func (a *Analyzer) DoesRhyme(line1, line2 string) bool {
	return a.Rhyme(line1, line2).Rhymes
}

// Rhyme compares the last words of two lines. When both are in the lexicon
// their last syllables must be identical. Otherwise both words fall back to
// metaphone and only the final encoded character is compared, which is a
// coarse approximation. A failed rhyme is logged to a.Logger.
func (a *Analyzer) Rhyme(line1, line2 string) RhymeResult {
	res := RhymeResult{
		Word1: LastWord(line1),
		Word2: LastWord(line2),
	}

	ps1, ok1 := a.lex.Phonemes(res.Word1)
	ps2, ok2 := a.lex.Phonemes(res.Word2)
	if ok1 && ok2 {
		res.Method = MethodPhonemes
		res.Rhymes = slices.Equal(LastSyllable(ps1), LastSyllable(ps2))
	} else {
		res.Method = MethodMetaphone
		res.Rhymes = lastChar(phonetic.Metaphone(res.Word1)) == lastChar(phonetic.Metaphone(res.Word2))
	}

	if !res.Rhymes && a.Logger != nil {
		a.Logger.Printf("%s and %s don't rhyme.", res.Word1, res.Word2)
	}
	return res
}

func lastChar(s string) string {
	if s == "" {
		return ""
	}
	return s[len(s)-1:]
}

// Pair names two stanza positions that must rhyme.
type Pair struct {
	Label string
	First int
	Last  int
}

// SchemePairs lists every pair checked for ABABABCC. Each rhyme group is
// checked pairwise rather than inferred transitively.
var SchemePairs = []Pair{
	{"A1-A2", 0, 2},
	{"A2-A3", 2, 4},
	{"A1-A3", 0, 4},
	{"B1-B2", 1, 3},
	{"B2-B3", 3, 5},
	{"B1-B3", 1, 5},
	{"C1-C2", 6, 7},
}

// IsABABABCC reports whether eight lines follow the ABABABCC rhyme scheme.
// Every pair is evaluated so that all failures are logged.
func (a *Analyzer) IsABABABCC(lines []string) bool {
	if len(lines) != StanzaLines {
		return false
	}
	ok := true
	for _, p := range SchemePairs {
		if !a.DoesRhyme(lines[p.First], lines[p.Last]) {
			ok = false
		}
	}
	return ok
}
