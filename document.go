package fhirextractor

// SourceDocument is the immutable text a run extracts from. All
// character intervals produced by the engine index into this text.
//
// The document is stored once; citations hold only (start, end)
// indices into it, never copies of the text.
type SourceDocument struct {
	text string
}

// NewSourceDocument wraps raw clinical text as a source document.
func NewSourceDocument(text string) *SourceDocument {
	return &SourceDocument{text: text}
}

// Text returns the full document text.
func (d *SourceDocument) Text() string {
	return d.text
}

// Len returns the document length in bytes.
func (d *SourceDocument) Len() int {
	return len(d.text)
}

// Slice returns the text covered by the interval. It returns the empty
// string when the interval does not satisfy its bounds invariant.
func (d *SourceDocument) Slice(iv CharInterval) string {
	if !iv.ValidFor(len(d.text)) {
		return ""
	}
	return d.text[iv.Start:iv.End]
}
