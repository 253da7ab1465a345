package facade

import (
	"fmt"
	"sort"
	"sync"

	fx "github.com/gofhir/extractor"
)

// Registry maps (model, facade key) pairs to field path lists. Paths
// are registered relative to the resource root, e.g. "code.text".
type Registry struct {
	mu      sync.RWMutex
	facades map[string]map[string][]string // model -> key -> paths
}

// NewRegistry creates an empty facade registry.
func NewRegistry() *Registry {
	return &Registry{
		facades: make(map[string]map[string][]string),
	}
}

// NewDefaultRegistry creates a registry pre-loaded with the core
// clinical facades matching the built-in model catalog.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("Observation", "core",
		"status", "code.text", "valueString", "effectiveDateTime")
	r.Register("Observation", "vitals",
		"code.text", "valueQuantity.value", "valueQuantity.unit", "effectiveDateTime")

	r.Register("MedicationStatement", "core",
		"status", "medicationCodeableConcept.text", "dosage.text")

	r.Register("Condition", "core",
		"code.text", "clinicalStatus.text", "onsetDateTime")

	r.Register("Patient", "demographics",
		"name.text", "gender", "birthDate")

	return r
}

// Register adds or replaces a facade for a model. Duplicate paths are
// collapsed; registration order of the remainder is preserved.
func (r *Registry) Register(model, key string, paths ...string) {
	deduped := make([]string, 0, len(paths))
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		deduped = append(deduped, p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.facades[model] == nil {
		r.facades[model] = make(map[string][]string)
	}
	r.facades[model][key] = deduped
}

// Lookup returns the field paths registered for (model, key).
func (r *Registry) Lookup(model, key string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys, ok := r.facades[model]
	if !ok {
		return nil, fmt.Errorf("model %q has no facades: %w", model, fx.ErrUnknownFacade)
	}
	paths, ok := keys[key]
	if !ok {
		return nil, fmt.Errorf("facade %q is not registered for model %q: %w", key, model, fx.ErrUnknownFacade)
	}
	return paths, nil
}

// Keys returns the facade keys registered for a model, sorted.
func (r *Registry) Keys(model string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.facades[model]))
	for k := range r.facades[model] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
