// Package ground locates claimed text snippets in source documents.
//
// Grounding is deterministic span matching, not a statistical model:
// exact substring search first, nearest-to-hint disambiguation when a
// snippet occurs more than once, then a normalized fuzzy pass that
// tolerates whitespace, case, and boundary punctuation drift under a
// configurable edit-distance threshold. A failed grounding returns no
// interval and is never an error.
package ground
