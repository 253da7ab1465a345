package loader

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/extractor/service"
)

// InMemoryModelService implements service.ModelService using in-memory
// storage. It starts with the built-in core clinical definitions and
// accepts additional R4 StructureDefinitions at runtime.
type InMemoryModelService struct {
	mu        sync.RWMutex
	byName    map[string]*service.StructureDefinition
	converter *R4Converter
}

// NewInMemoryModelService creates a model service pre-loaded with the
// built-in core clinical definitions.
func NewInMemoryModelService() *InMemoryModelService {
	s := &InMemoryModelService{
		byName:    make(map[string]*service.StructureDefinition),
		converter: NewR4Converter(),
	}
	for _, sd := range builtinDefinitions() {
		s.byName[sd.Type] = sd
	}
	return s
}

// LoadR4StructureDefinition converts and registers an R4
// StructureDefinition. Non-resource definitions are ignored.
func (s *InMemoryModelService) LoadR4StructureDefinition(sd *r4.StructureDefinition) error {
	if sd == nil {
		return fmt.Errorf("structure definition is nil")
	}

	converted := s.converter.ConvertStructureDefinition(sd)
	if converted == nil {
		return fmt.Errorf("failed to convert structure definition")
	}
	if converted.Kind != "resource" || converted.Abstract {
		return nil
	}
	if converted.Type == "" {
		return fmt.Errorf("structure definition has no type")
	}

	s.mu.Lock()
	s.byName[converted.Type] = converted
	s.mu.Unlock()
	return nil
}

// LoadR4StructureDefinitions converts and registers multiple R4
// StructureDefinitions.
func (s *InMemoryModelService) LoadR4StructureDefinitions(sds []*r4.StructureDefinition) error {
	for _, sd := range sds {
		if err := s.LoadR4StructureDefinition(sd); err != nil {
			return err
		}
	}
	return nil
}

// LoadServiceStructureDefinition registers a pre-converted definition.
func (s *InMemoryModelService) LoadServiceStructureDefinition(sd *service.StructureDefinition) error {
	if sd == nil {
		return fmt.Errorf("structure definition is nil")
	}
	if sd.Type == "" {
		return fmt.Errorf("structure definition has no type")
	}

	s.mu.Lock()
	s.byName[sd.Type] = sd
	s.mu.Unlock()
	return nil
}

// ResolveModel implements service.ModelResolver.
func (s *InMemoryModelService) ResolveModel(ctx context.Context, name string) (*service.StructureDefinition, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	sd, ok := s.byName[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("model %q: %w", name, service.ErrNotFound)
	}
	return sd, nil
}

// ListModels implements service.ModelLister.
func (s *InMemoryModelService) ListModels(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.RLock()
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	return names, nil
}

// Count returns the number of registered models.
func (s *InMemoryModelService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byName)
}

// Verify interface compliance
var _ service.ModelService = (*InMemoryModelService)(nil)
