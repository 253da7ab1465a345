package facade

import (
	"fmt"
	"strings"

	"github.com/gofhir/extractor/service"
)

// Field is one allowed output field of a subset schema, with its type
// and cardinality inherited from the model's element definition.
type Field struct {
	// Path is the field path relative to the resource root,
	// e.g. "code.text".
	Path string

	// FullPath is the element path on the model,
	// e.g. "Observation.code.text".
	FullPath string

	// Type is the FHIR primitive type code: string, code, decimal,
	// integer, boolean, date, dateTime.
	Type string

	// Required is true when the element's minimum cardinality is >= 1.
	Required bool

	// Short is the element's short description, used in the schema to
	// steer generation.
	Short string
}

// Textual reports whether the field carries text that can be grounded
// in the source document.
func (f Field) Textual() bool {
	switch f.Type {
	case "string", "code", "date", "dateTime":
		return true
	default:
		return false
	}
}

// SubsetSchema enumerates the allowed output fields of one facade over
// one model. It validates candidate payloads and renders itself as a
// JSON Schema for constrained generation.
type SubsetSchema struct {
	Model  string
	Facade string
	Fields []Field

	byPath map[string]*Field
}

// newSubsetSchema builds a subset schema from a model definition and a
// facade's field path list.
func newSubsetSchema(sd *service.StructureDefinition, facadeKey string, paths []string) (*SubsetSchema, error) {
	s := &SubsetSchema{
		Model:  sd.Type,
		Facade: facadeKey,
		byPath: make(map[string]*Field, len(paths)),
	}

	for _, p := range paths {
		full := sd.Type + "." + p
		ed := sd.Element(full)
		if ed == nil {
			return nil, fmt.Errorf("facade %q references unknown element %q on model %q", facadeKey, p, sd.Type)
		}
		s.Fields = append(s.Fields, Field{
			Path:     p,
			FullPath: full,
			Type:     primaryType(ed),
			Required: ed.Min >= 1,
			Short:    ed.Short,
		})
	}

	for i := range s.Fields {
		s.byPath[s.Fields[i].Path] = &s.Fields[i]
	}
	return s, nil
}

// primaryType returns the first type code of an element, defaulting to
// string for untyped elements.
func primaryType(ed *service.ElementDefinition) string {
	if len(ed.Types) == 0 {
		return "string"
	}
	return ed.Types[0].Code
}

// Field returns the field at the given relative path, or nil.
func (s *SubsetSchema) Field(path string) *Field {
	return s.byPath[path]
}

// FieldOrder returns the field paths in registration order.
func (s *SubsetSchema) FieldOrder() []string {
	order := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		order[i] = f.Path
	}
	return order
}

// Required returns the paths of all required fields.
func (s *SubsetSchema) Required() []string {
	var req []string
	for _, f := range s.Fields {
		if f.Required {
			req = append(req, f.Path)
		}
	}
	return req
}

// JSONSchema renders the schema for one candidate payload: a "fields"
// object restricted to the facade's paths plus an optional "snippets"
// object mapping each field to the verbatim source text it came from.
func (s *SubsetSchema) JSONSchema() map[string]any {
	props := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		props[f.Path] = fieldSchema(f)
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"fields": map[string]any{
				"type":                 "object",
				"properties":           props,
				"required":             s.Required(),
				"additionalProperties": false,
			},
			"snippets": map[string]any{
				"type":        "object",
				"description": "Verbatim source text for each extracted field, copied exactly from the document.",
				"additionalProperties": map[string]any{
					"type": "string",
				},
			},
		},
		"required": []string{"fields"},
	}
}

// fieldSchema renders one field as a JSON Schema property.
func fieldSchema(f Field) map[string]any {
	prop := map[string]any{}
	switch f.Type {
	case "decimal":
		prop["type"] = "number"
	case "integer", "positiveInt", "unsignedInt":
		prop["type"] = "integer"
	case "boolean":
		prop["type"] = "boolean"
	default:
		prop["type"] = "string"
	}
	if f.Short != "" {
		prop["description"] = f.Short
	}
	return prop
}

// ProviderSchema returns the provider-neutral form of the schema.
func (s *SubsetSchema) ProviderSchema() service.Schema {
	return service.Schema{
		Resource:   s.Model,
		Facade:     s.Facade,
		Document:   s.JSONSchema(),
		FieldOrder: s.FieldOrder(),
	}
}

// --- Candidate Classification ---

// Classified is the closed outcome of checking one provider candidate
// against a subset schema: either a validated payload or a list of
// violations. Invalid candidates carry no payload and must not be
// passed downstream.
type Classified struct {
	payload  map[string]any
	snippets map[string]string
	errors   []string
}

// Valid reports whether the candidate conformed to the schema.
func (c Classified) Valid() bool {
	return len(c.errors) == 0
}

// Payload returns the validated field values, or nil when invalid.
func (c Classified) Payload() map[string]any {
	if !c.Valid() {
		return nil
	}
	return c.payload
}

// Snippet returns the provider's claimed source text for a field,
// falling back to the field's string value.
func (c Classified) Snippet(path string) string {
	if s, ok := c.snippets[path]; ok && s != "" {
		return s
	}
	if v, ok := c.payload[path].(string); ok {
		return v
	}
	return ""
}

// Errors returns the violations for an invalid candidate.
func (c Classified) Errors() []string {
	return c.errors
}

// Classify validates a provider candidate against the subset schema.
// Unknown fields, missing required fields, and type mismatches are all
// violations; a violation isolates the candidate, never the task.
func (s *SubsetSchema) Classify(cand service.Candidate) Classified {
	out := Classified{
		payload:  make(map[string]any, len(cand.Fields)),
		snippets: cand.Snippets,
	}

	for path, value := range cand.Fields {
		f := s.Field(path)
		if f == nil {
			out.errors = append(out.errors, fmt.Sprintf("field %q is not in the %s/%s schema", path, s.Model, s.Facade))
			continue
		}
		coerced, err := coerceValue(f, value)
		if err != nil {
			out.errors = append(out.errors, fmt.Sprintf("field %q: %v", path, err))
			continue
		}
		out.payload[path] = coerced
	}

	for _, f := range s.Fields {
		if !f.Required {
			continue
		}
		v, ok := out.payload[f.Path]
		if !ok {
			out.errors = append(out.errors, fmt.Sprintf("required field %q is missing", f.Path))
			continue
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			out.errors = append(out.errors, fmt.Sprintf("required field %q is empty", f.Path))
		}
	}

	return out
}

// coerceValue checks a raw value against a field's type, coercing the
// loose numeric forms JSON decoding produces.
func coerceValue(f *Field, value any) (any, error) {
	switch f.Type {
	case "decimal":
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		default:
			return nil, fmt.Errorf("expected a number, got %T", value)
		}
	case "integer", "positiveInt", "unsignedInt":
		switch v := value.(type) {
		case int:
			return v, nil
		case float64:
			if v != float64(int(v)) {
				return nil, fmt.Errorf("expected an integer, got %v", v)
			}
			return int(v), nil
		default:
			return nil, fmt.Errorf("expected an integer, got %T", value)
		}
	case "boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
		return nil, fmt.Errorf("expected a boolean, got %T", value)
	default:
		if v, ok := value.(string); ok {
			return v, nil
		}
		return nil, fmt.Errorf("expected a string, got %T", value)
	}
}
