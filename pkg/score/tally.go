package score

import "fmt"

// Count is the number of detected ottava rima stanzas out of a total.
type Count struct {
	Detected int
	Total    int
}

// Percent returns Detected/Total as a percentage, 0 when Total is 0.
func (c Count) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Detected) / float64(c.Total) * 100
}

// String renders the count as "D / T ottava rima stanzas detected (P%)".
func (c Count) String() string {
	return fmt.Sprintf("%d / %d ottava rima stanzas detected (%.2f%%)", c.Detected, c.Total, c.Percent())
}

// Tally accumulates counts per group, typically one group per collection.
type Tally struct {
	groups map[string]*Count
	order  []string
}

// NewTally returns an empty Tally.
func NewTally() *Tally {
	return &Tally{groups: make(map[string]*Count)}
}

// Add records one stanza outcome for group.
func (t *Tally) Add(group string, detected bool) {
	c, ok := t.groups[group]
	if !ok {
		c = &Count{}
		t.groups[group] = c
		t.order = append(t.order, group)
	}
	c.Total++
	if detected {
		c.Detected++
	}
}

// AddResults records every result for group.
func (t *Tally) AddResults(group string, results []Result) {
	for _, r := range results {
		t.Add(group, r.Verdict.OttavaRima())
	}
}

// Group returns the count for one group.
func (t *Tally) Group(group string) Count {
	if c, ok := t.groups[group]; ok {
		return *c
	}
	return Count{}
}

// Groups lists group names in first-seen order.
func (t *Tally) Groups() []string {
	return append([]string(nil), t.order...)
}

// Total sums every group.
func (t *Tally) Total() Count {
	var sum Count
	for _, c := range t.groups {
		sum.Detected += c.Detected
		sum.Total += c.Total
	}
	return sum
}

