// Package phonetic implements orthographic sound encodings used when a word
// has no dictionary pronunciation.
package phonetic

import "strings"

// Metaphone encodes word with Lawrence Philips' original metaphone rules, in
// the variant shipped by PHP's metaphone(). "0" stands for TH and "X" for SH.
// Non-letters are ignored; a word without letters encodes to "".
func Metaphone(word string) string {
	w := strings.ToUpper(word)
	at := func(i int) byte {
		if i < 0 || i >= len(w) {
			return 0
		}
		return w[i]
	}

	var out strings.Builder
	i := 0
	for i < len(w) && !isAlpha(w[i]) {
		i++
	}
	if i >= len(w) {
		return ""
	}

	// Initial letter exceptions.
	switch cur, next := at(i), at(i+1); cur {
	case 'A':
		if next == 'E' {
			out.WriteByte('E')
			i += 2
		} else {
			out.WriteByte('A')
			i++
		}
	case 'G', 'K', 'P':
		if next == 'N' {
			out.WriteByte('N')
			i += 2
		}
	case 'W':
		if next == 'R' {
			out.WriteByte('R')
			i += 2
		} else if next == 'H' || isVowel(next) {
			out.WriteByte('W')
			i += 2
		}
	case 'X':
		out.WriteByte('S')
		i++
	case 'E', 'I', 'O', 'U':
		out.WriteByte(cur)
		i++
	}

	for ; i < len(w); i++ {
		cur := at(i)
		if !isAlpha(cur) {
			continue
		}
		prev, next, after := at(i-1), at(i+1), at(i+2)
		if cur == prev && cur != 'C' {
			continue
		}

		skip := 0
		switch cur {
		case 'B':
			// silent in a final MB
			if !(prev == 'M' && next == 0) {
				out.WriteByte('B')
			}
		case 'C':
			switch {
			case makesSoft(next):
				if next == 'I' && after == 'A' {
					out.WriteByte('X')
				} else if prev != 'S' {
					out.WriteByte('S')
				}
			case next == 'H':
				if after == 'R' || prev == 'S' {
					out.WriteByte('K')
				} else {
					out.WriteByte('X')
				}
				skip++
			default:
				out.WriteByte('K')
			}
		case 'D':
			if next == 'G' && makesSoft(after) {
				out.WriteByte('J')
				skip++
			} else {
				out.WriteByte('T')
			}
		case 'G':
			switch {
			case next == 'H':
				if !(noGhToF(at(i-3)) || at(i-4) == 'H') {
					out.WriteByte('F')
					skip++
				}
			case next == 'N':
				if !isAlpha(after) || (after == 'E' && at(i+3) == 'D') {
					// silent in GN, GNED
				} else {
					out.WriteByte('K')
				}
			case makesSoft(next) && prev != 'G':
				out.WriteByte('J')
			default:
				out.WriteByte('K')
			}
		case 'H':
			if isVowel(next) && !affectsH(prev) {
				out.WriteByte('H')
			}
		case 'K':
			if prev != 'C' {
				out.WriteByte('K')
			}
		case 'P':
			if next == 'H' {
				out.WriteByte('F')
			} else {
				out.WriteByte('P')
			}
		case 'Q':
			out.WriteByte('K')
		case 'S':
			switch {
			case next == 'I' && (after == 'O' || after == 'A'):
				out.WriteByte('X')
			case next == 'H':
				out.WriteByte('X')
				skip++
			case next == 'C' && after == 'H' && at(i+3) == 'W':
				out.WriteByte('X')
				skip += 2
			default:
				out.WriteByte('S')
			}
		case 'T':
			switch {
			case next == 'I' && (after == 'O' || after == 'A'):
				out.WriteByte('X')
			case next == 'H':
				out.WriteByte('0')
				skip++
			case !(next == 'C' && after == 'H'):
				out.WriteByte('T')
			}
		case 'V':
			out.WriteByte('F')
		case 'W', 'Y':
			if isVowel(next) {
				out.WriteByte(cur)
			}
		case 'X':
			out.WriteString("KS")
		case 'Z':
			out.WriteByte('S')
		case 'F', 'J', 'L', 'M', 'N', 'R':
			out.WriteByte(cur)
		}
		i += skip
	}
	return out.String()
}

func isAlpha(c byte) bool { return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' }

func isVowel(c byte) bool {
	switch c {
	case 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}

func makesSoft(c byte) bool { return c == 'E' || c == 'I' || c == 'Y' }

func noGhToF(c byte) bool { return c == 'B' || c == 'D' || c == 'H' }

func affectsH(c byte) bool {
	switch c {
	case 'C', 'G', 'P', 'S', 'T':
		return true
	}
	return false
}
