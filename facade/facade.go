package facade

import (
	"context"
	"errors"
	"fmt"

	fx "github.com/gofhir/extractor"
	"github.com/gofhir/extractor/service"
)

// Resolver resolves (model, facade key) pairs to subset schemas and
// reconstructors. Resolution is a pure function of the registry and
// model catalog state; no provider calls are made.
type Resolver struct {
	registry *Registry
	models   service.ModelResolver
}

// NewResolver creates a resolver over a model catalog using the
// default facade registry.
func NewResolver(models service.ModelResolver) *Resolver {
	return NewResolverWithRegistry(models, NewDefaultRegistry())
}

// NewResolverWithRegistry creates a resolver with a custom registry.
func NewResolverWithRegistry(models service.ModelResolver, registry *Registry) *Resolver {
	return &Resolver{
		registry: registry,
		models:   models,
	}
}

// Registry returns the resolver's facade registry, for registering
// additional facades.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// Resolve narrows a model to the named facade. It fails with
// ErrUnknownFacade when the key is not registered for the model, with
// ErrUnknownModel when the model cannot be resolved, and with
// ErrEmptySchema when resolution yields zero fields.
func (r *Resolver) Resolve(ctx context.Context, model, facadeKey string) (*SubsetSchema, *Reconstructor, error) {
	paths, err := r.registry.Lookup(model, facadeKey)
	if err != nil {
		return nil, nil, err
	}

	sd, err := r.models.ResolveModel(ctx, model)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return nil, nil, fmt.Errorf("model %q: %w", model, fx.ErrUnknownModel)
		}
		return nil, nil, err
	}

	schema, err := newSubsetSchema(sd, facadeKey, paths)
	if err != nil {
		return nil, nil, err
	}
	if len(schema.Fields) == 0 {
		return nil, nil, fmt.Errorf("facade %q on model %q: %w", facadeKey, model, fx.ErrEmptySchema)
	}

	return schema, &Reconstructor{model: sd, schema: schema}, nil
}
