package cmudict

// Phoneme is an ARPAbet phoneme code with its stress marker removed.
type Phoneme string

const (
	// Monophthongs
	PhonAO Phoneme = "AO"
	PhonAA Phoneme = "AA"
	PhonIY Phoneme = "IY"
	PhonUW Phoneme = "UW"
	PhonEH Phoneme = "EH"
	PhonIH Phoneme = "IH"
	PhonUH Phoneme = "UH"
	PhonAH Phoneme = "AH"
	PhonAX Phoneme = "AX"
	PhonAE Phoneme = "AE"

	// Diphthongs
	PhonEY Phoneme = "EY"
	PhonAY Phoneme = "AY"
	PhonOW Phoneme = "OW"
	PhonAW Phoneme = "AW"
	PhonOY Phoneme = "OY"

	// R-colored vowels
	PhonER Phoneme = "ER"
)

var vowels = map[Phoneme]bool{
	PhonAO: true, PhonAA: true, PhonIY: true, PhonUW: true, PhonEH: true,
	PhonIH: true, PhonUH: true, PhonAH: true, PhonAX: true, PhonAE: true,
	PhonEY: true, PhonAY: true, PhonOW: true, PhonAW: true, PhonOY: true,
	PhonER: true,
}

// IsVowel reports whether p is a vowel phoneme, i.e. the nucleus of a syllable.
func (p Phoneme) IsVowel() bool {
	return vowels[p]
}

// Vowels returns the vowel phoneme set.
func Vowels() []Phoneme {
	return []Phoneme{
		PhonAO, PhonAA, PhonIY, PhonUW, PhonEH,
		PhonIH, PhonUH, PhonAH, PhonAX, PhonAE,
		PhonEY, PhonAY, PhonOW, PhonAW, PhonOY,
		PhonER,
	}
}

// CountVowels returns the number of vowel phonemes in ps.
func CountVowels(ps []Phoneme) int {
	n := 0
	for _, p := range ps {
		if p.IsVowel() {
			n++
		}
	}
	return n
}

// stripStress truncates a raw corpus code such as "AH0" to its two-letter form.
func stripStress(raw string) Phoneme {
	if len(raw) > 2 {
		raw = raw[:2]
	}
	return Phoneme(raw)
}
