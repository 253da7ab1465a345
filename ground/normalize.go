package ground

import (
	"strings"
	"unicode"
)

// normalized is the normalized form of a document together with the
// mapping from each normalized byte back to its original byte range.
// Normalization collapses whitespace runs to a single space and folds
// case; it never reorders or drops non-space content, so the mapping
// is monotonic.
type normalized struct {
	text   string
	starts []int // starts[i] = original byte offset where normalized byte i begins
	ends   []int // ends[i] = original byte offset just past normalized byte i
}

// normalizeDocument builds the normalized form of a document.
func normalizeDocument(text string) *normalized {
	var b strings.Builder
	b.Grow(len(text))
	starts := make([]int, 0, len(text))
	ends := make([]int, 0, len(text))

	inSpace := false
	spaceStart := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			if !inSpace {
				inSpace = true
				spaceStart = i
			}
			continue
		}
		if inSpace {
			// Emit one space for the whole run, unless at the start.
			if b.Len() > 0 {
				b.WriteByte(' ')
				starts = append(starts, spaceStart)
				ends = append(ends, i)
			}
			inSpace = false
		}
		lower := unicode.ToLower(r)
		runeStart := b.Len()
		b.WriteRune(lower)
		width := b.Len() - runeStart
		for j := 0; j < width; j++ {
			starts = append(starts, i)
			ends = append(ends, i+runeWidth(text, i))
		}
	}

	return &normalized{text: b.String(), starts: starts, ends: ends}
}

// runeWidth returns the byte width of the rune starting at offset i.
func runeWidth(s string, i int) int {
	w := 1
	for i+w < len(s) && s[i+w]&0xC0 == 0x80 {
		w++
	}
	return w
}

// normalizeSnippet normalizes a claimed snippet for fuzzy comparison:
// fold case, collapse whitespace runs, and strip boundary punctuation.
func normalizeSnippet(snippet string) string {
	var b strings.Builder
	b.Grow(len(snippet))

	inSpace := false
	for _, r := range snippet {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(unicode.ToLower(r))
	}

	s := b.String()
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	return s
}
