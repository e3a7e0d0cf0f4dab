package prosody

// LineReport is the meter result for one line.
type LineReport struct {
	Text      string
	Syllables int
	Metrical  bool
}

// PairReport is the rhyme result for one scheme pair.
type PairReport struct {
	Pair
	RhymeResult
}

// Verdict explains how a stanza fared against each ottava rima rule.
type Verdict struct {
	Lines []LineReport
	// Pairs is empty unless the stanza has exactly eight lines.
	Pairs []PairReport

	LineCount bool
	Meter     bool
	Rhyme     bool
}

// OttavaRima reports whether every rule passed.
func (v Verdict) OttavaRima() bool {
	return v.LineCount && v.Meter && v.Rhyme
}

// Misses returns the pairs that failed to rhyme.
func (v Verdict) Misses() []PairReport {
	var out []PairReport
	for _, p := range v.Pairs {
		if !p.Rhymes {
			out = append(out, p)
		}
	}
	return out
}

// Classify evaluates every rule without stopping at the first failure.
// Its OttavaRima result always matches IsOttavaRima for the same settings.
func (a *Analyzer) Classify(stanza string) Verdict {
	return a.ClassifyWith(stanza, a.Delimiter, a.Tolerance)
}

// ClassifyWith is Classify with an explicit delimiter and tolerance.
func (a *Analyzer) ClassifyWith(stanza, delimiter string, tolerance int) Verdict {
	lines := ExtractLines(stanza, delimiter)
	v := Verdict{
		Lines:     make([]LineReport, len(lines)),
		LineCount: len(lines) == StanzaLines,
		Meter:     true,
	}

	for i, line := range lines {
		n := a.LineSyllables(line)
		ok := withinTolerance(n, tolerance)
		v.Lines[i] = LineReport{Text: line, Syllables: n, Metrical: ok}
		if !ok {
			v.Meter = false
		}
	}

	if !v.LineCount {
		return v
	}

	v.Rhyme = true
	v.Pairs = make([]PairReport, len(SchemePairs))
	for i, p := range SchemePairs {
		res := a.Rhyme(lines[p.First], lines[p.Last])
		v.Pairs[i] = PairReport{Pair: p, RhymeResult: res}
		if !res.Rhymes {
			v.Rhyme = false
		}
	}
	return v
}
