package ground

import (
	"strings"

	fx "github.com/gofhir/extractor"
)

// Outcome classifies how a snippet was located.
type Outcome int

// Grounding outcomes.
const (
	// Miss means the snippet could not be located.
	Miss Outcome = iota
	// Exact means the snippet was found verbatim.
	Exact
	// Fuzzy means the snippet was located after normalization within
	// the edit-distance threshold.
	Fuzzy
)

// Grounder locates snippets in documents. It is stateless apart from
// its thresholds and safe for concurrent use; identical inputs always
// yield identical intervals.
type Grounder struct {
	// threshold is the maximum edit distance for a fuzzy match,
	// as a fraction of the normalized snippet length. <= 0 disables
	// fuzzy matching entirely.
	threshold float64

	// lengthSlack bounds how far a fuzzy candidate span's length may
	// drift from the snippet length, as a fraction.
	lengthSlack float64
}

// New creates a grounder with the given fuzzy threshold and length
// slack, both fractions of snippet length.
func New(threshold, lengthSlack float64) *Grounder {
	return &Grounder{threshold: threshold, lengthSlack: lengthSlack}
}

// Ground locates snippet in text. hint is where the previous citation
// for the same field ended (use 0 when none); when the snippet occurs
// more than once, the occurrence nearest the hint that does not start
// before it wins, so repeated values walk forward through the document
// instead of collapsing onto the first occurrence. Only when no
// occurrence starts at or after the hint does the nearest earlier one
// win. Ties break to the first occurrence.
//
// The returned interval always satisfies 0 <= start <= end <= len(text).
//
// A snippet longer than the text in raw bytes is not rejected outright:
// whitespace inflation can make a snippet longer than a short window
// while still matching after normalization, so length is only bounded
// on the normalized forms inside the fuzzy pass.
func (g *Grounder) Ground(text, snippet string, hint int) (fx.CharInterval, Outcome) {
	if snippet == "" {
		return fx.CharInterval{}, Miss
	}

	if iv, ok := g.exact(text, snippet, hint); ok {
		return iv, Exact
	}
	if iv, ok := g.fuzzy(text, snippet, hint); ok {
		return iv, Fuzzy
	}
	return fx.CharInterval{}, Miss
}

// exact finds the verbatim occurrence nearest the hint, preferring
// occurrences that start at or after it.
func (g *Grounder) exact(text, snippet string, hint int) (fx.CharInterval, bool) {
	bestAfter, bestBefore := -1, -1
	afterDist, beforeDist := 0, 0

	for from := 0; ; {
		idx := strings.Index(text[from:], snippet)
		if idx < 0 {
			break
		}
		start := from + idx
		if start >= hint {
			if dist := start - hint; bestAfter < 0 || dist < afterDist {
				bestAfter = start
				afterDist = dist
			}
		} else {
			if dist := hint - start; bestBefore < 0 || dist < beforeDist {
				bestBefore = start
				beforeDist = dist
			}
		}
		from = start + 1
	}

	best := bestAfter
	if best < 0 {
		best = bestBefore
	}
	if best < 0 {
		return fx.CharInterval{}, false
	}
	return fx.CharInterval{Start: best, End: best + len(snippet)}, true
}

// fuzzy slides a normalized window over the normalized document and
// accepts the best match under the edit-distance threshold. Candidate
// selection is deterministic: smallest distance, then nearest the
// hint, then earliest in the document.
func (g *Grounder) fuzzy(text, snippet string, hint int) (fx.CharInterval, bool) {
	if g.threshold <= 0 {
		return fx.CharInterval{}, false
	}

	target := normalizeSnippet(snippet)
	if target == "" {
		return fx.CharInterval{}, false
	}
	doc := normalizeDocument(text)
	if len(doc.text) == 0 {
		return fx.CharInterval{}, false
	}

	m := len(target)
	maxDist := int(g.threshold * float64(m))
	slack := int(g.lengthSlack * float64(m))
	minLen := m - slack
	if minLen < 1 {
		minLen = 1
	}
	maxLen := m + slack

	type match struct {
		start, end int // normalized byte range
		dist       int
		hintDist   int
	}
	var best *match

	for s := 0; s+minLen <= len(doc.text); s++ {
		// Skip starts inside collapsed whitespace.
		if doc.text[s] == ' ' {
			continue
		}
		for l := minLen; l <= maxLen && s+l <= len(doc.text); l++ {
			window := doc.text[s : s+l]
			d := editDistance(target, window, maxDist)
			if d > maxDist {
				continue
			}
			hd := absInt(doc.starts[s] - hint)
			cand := match{start: s, end: s + l, dist: d, hintDist: hd}
			if best == nil ||
				cand.dist < best.dist ||
				(cand.dist == best.dist && cand.hintDist < best.hintDist) {
				best = &cand
			}
		}
	}

	if best == nil {
		return fx.CharInterval{}, false
	}

	start := doc.starts[best.start]
	end := doc.ends[best.end-1]
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start > end {
		return fx.CharInterval{}, false
	}
	return fx.CharInterval{Start: start, End: end}, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
