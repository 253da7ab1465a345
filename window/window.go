// Package window splits documents into bounded, overlapping slices
// sized for a provider's context limits.
package window

// Spec is one bounded slice of a source document. Offsets are
// document-global; consecutive windows overlap by a fixed amount so
// entities straddling a boundary appear whole in at least one window.
// Specs are derived once per run and read-only thereafter.
type Spec struct {
	// Index is the window's position in document order.
	Index int

	// Start and End bound the half-open range [Start, End).
	Start int
	End   int

	// OverlapWithNext is how many characters this window shares with
	// its successor; 0 for the last window.
	OverlapWithNext int
}

// Len returns the window length.
func (s Spec) Len() int {
	return s.End - s.Start
}

// Split derives the window specs for a document of the given length.
// A document at or below singleThreshold becomes one window covering
// the whole text; otherwise fixed-size windows with fixed overlap are
// produced. The union of the returned ranges covers [0, docLen)
// exactly, with overlaps permitted but no gaps.
func Split(docLen, size, overlap, singleThreshold int) []Spec {
	if docLen <= singleThreshold || docLen <= size {
		return []Spec{{Index: 0, Start: 0, End: docLen}}
	}

	stride := size - overlap
	if stride < 1 {
		stride = 1
	}

	var specs []Spec
	for start := 0; ; start += stride {
		end := start + size
		if end > docLen {
			end = docLen
		}
		specs = append(specs, Spec{Index: len(specs), Start: start, End: end})
		if end == docLen {
			break
		}
	}

	for i := 0; i < len(specs)-1; i++ {
		specs[i].OverlapWithNext = specs[i].End - specs[i+1].Start
	}
	return specs
}
