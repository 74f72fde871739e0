package platform

import (
	"github.com/mattn/go-runewidth"
)

// widthCond is a fixed-ambiguity width condition shared by all callers.
// East Asian ambiguous characters count as width 1, matching how modern
// terminal emulators place the cursor.
var widthCond = &runewidth.Condition{EastAsianWidth: false}

// DisplayWidth returns the monospace column width of s.
//
// Width is computed per codepoint: control characters, combining marks,
// variation selectors and zero-width joiners occupy 0 columns; CJK
// full-width and pictographic/emoji codepoints occupy 2; everything else
// occupies 1. Multi-codepoint grapheme sequences (e + combining acute,
// emoji with variation selectors) therefore resolve to the width of their
// visible base, which is what terminal column accounting expects.
func DisplayWidth(s string) int {
	w := 0
	for _, r := range s {
		w += RuneWidth(r)
	}
	return w
}

// RuneWidth returns the column width of a single codepoint.
func RuneWidth(r rune) int {
	if zeroWidth(r) {
		return 0
	}
	return widthCond.RuneWidth(r)
}

// zeroWidth handles joiners and selectors explicitly so grapheme sequences
// built from them never inflate the count.
func zeroWidth(r rune) bool {
	switch {
	case r == 0x200B: // zero-width space
		return true
	case r == 0x200C || r == 0x200D: // zero-width (non-)joiner
		return true
	case r == 0xFEFF: // zero-width no-break space
		return true
	case r >= 0xFE00 && r <= 0xFE0F: // variation selectors
		return true
	case r >= 0xE0100 && r <= 0xE01EF: // variation selectors supplement
		return true
	}
	return false
}
