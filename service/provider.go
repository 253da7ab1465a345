package service

import "context"

// Schema is the provider-neutral form of a subset schema: a JSON
// Schema document used as an output constraint, plus the context the
// provider needs to name what it is extracting.
type Schema struct {
	// Resource is the target resource type name, e.g. "Observation".
	Resource string

	// Facade is the facade key the schema was derived from.
	Facade string

	// Document is the JSON Schema for one candidate payload.
	Document map[string]any

	// FieldOrder lists the allowed field paths in registration order.
	FieldOrder []string
}

// Candidate is one provider response for one subset schema: field
// values plus an optional self-reported source snippet per field.
// Candidates are ephemeral; they are classified against the subset
// schema and consumed by grounding, never passed downstream raw.
type Candidate struct {
	// Fields maps facade field path to extracted value.
	Fields map[string]any

	// Snippets maps facade field path to the provider's claimed source
	// text for the value. Missing entries fall back to the field's
	// string value during grounding.
	Snippets map[string]string
}

// Provider is the generation capability boundary. The engine contains
// no provider-specific logic and must work against any conforming
// implementation (mock, stub, or real model client).
type Provider interface {
	// Generate invokes the model with the schema as an output
	// constraint and the window text as context, returning zero or
	// more candidate extractions. Implementations should respect ctx
	// cancellation promptly; a single call maps to one extraction task.
	Generate(ctx context.Context, schema Schema, contextText string) ([]Candidate, error)
}
