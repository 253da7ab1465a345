package facade

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofhir/extractor/service"
)

// Reconstructor maps a validated subset payload back into a partially
// populated full instance of the model. Fields outside the subset are
// left at type-appropriate defaults.
type Reconstructor struct {
	model  *service.StructureDefinition
	schema *SubsetSchema
}

// Reconstruct builds a full instance from a validated payload. The
// instance carries resourceType, the payload fields at their nested
// paths, and defaults for required model elements the facade excludes.
func (r *Reconstructor) Reconstruct(payload map[string]any) map[string]any {
	instance := map[string]any{
		"resourceType": r.model.Type,
	}

	for _, f := range r.schema.Fields {
		v, ok := payload[f.Path]
		if !ok {
			continue
		}
		setPath(instance, f.Path, v)
	}

	// Required elements outside the subset get a coded default so the
	// instance remains structurally usable.
	prefix := r.model.Type + "."
	for i := range r.model.Snapshot {
		ed := &r.model.Snapshot[i]
		if ed.Min < 1 || !strings.HasPrefix(ed.Path, prefix) {
			continue
		}
		rel := strings.TrimPrefix(ed.Path, prefix)
		if r.schema.Field(rel) != nil {
			continue
		}
		if hasPath(instance, rel) {
			continue
		}
		if d, ok := defaultForElement(ed); ok {
			setPath(instance, rel, d)
		}
	}

	return instance
}

// Project evaluates each facade field path against an instance via
// FHIRPath and returns the subset payload it carries. Projecting a
// reconstructed payload returns a payload equal to the original for
// the facade's fields.
func (r *Reconstructor) Project(ctx context.Context, eval service.FHIRPathEvaluator, instance map[string]any) (map[string]any, error) {
	if eval == nil {
		return projectDirect(r.schema, instance), nil
	}

	payload := make(map[string]any, len(r.schema.Fields))
	for _, f := range r.schema.Fields {
		values, err := eval.Evaluate(ctx, f.Path, instance)
		if err != nil {
			return nil, fmt.Errorf("projecting %s.%s: %w", r.model.Type, f.Path, err)
		}
		if len(values) == 0 {
			continue
		}
		payload[f.Path] = values[0]
	}
	return payload, nil
}

// projectDirect walks the instance map directly. Used when no FHIRPath
// evaluator is configured.
func projectDirect(schema *SubsetSchema, instance map[string]any) map[string]any {
	payload := make(map[string]any, len(schema.Fields))
	for _, f := range schema.Fields {
		if v, ok := getPath(instance, f.Path); ok {
			payload[f.Path] = v
		}
	}
	return payload
}

// defaultForElement returns the default value for a required element
// left unpopulated by a facade. Only coded elements get a default;
// everything else stays absent.
func defaultForElement(ed *service.ElementDefinition) (any, bool) {
	if len(ed.Types) == 0 {
		return nil, false
	}
	if ed.Types[0].Code == "code" {
		return "unknown", true
	}
	return nil, false
}

// setPath sets a dotted path in a nested map, creating intermediate
// maps as needed.
func setPath(m map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	for i := 0; i < len(parts)-1; i++ {
		next, ok := m[parts[i]].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[parts[i]] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// getPath reads a dotted path from a nested map.
func getPath(m map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	for i := 0; i < len(parts)-1; i++ {
		next, ok := m[parts[i]].(map[string]any)
		if !ok {
			return nil, false
		}
		m = next
	}
	v, ok := m[parts[len(parts)-1]]
	return v, ok
}

// hasPath reports whether a dotted path is present in a nested map.
func hasPath(m map[string]any, path string) bool {
	_, ok := getPath(m, path)
	return ok
}
