// Package service defines small, composable interfaces for the
// collaborators the extraction engine depends on: the generation
// provider, the domain model registry, and FHIRPath evaluation.
// Following Go's philosophy of small interfaces, each interface has
// 1-2 methods.
package service

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a model or facade cannot be found.
var ErrNotFound = errors.New("not found")

// ErrNotSupported is returned when an operation is not supported.
var ErrNotSupported = errors.New("operation not supported")

// StructureDefinition is the internal representation of a domain model.
// It is a reduced form of a FHIR StructureDefinition: enough to derive
// subset schemas and reconstruct instances, nothing more.
type StructureDefinition struct {
	URL            string
	Name           string
	Type           string
	Kind           string
	Abstract       bool
	BaseDefinition string
	FHIRVersion    string
	Snapshot       []ElementDefinition
}

// ElementDefinition describes one element of a domain model.
type ElementDefinition struct {
	ID          string
	Path        string
	Short       string
	Min         int
	Max         string
	Types       []TypeRef
	Binding     *Binding
	MustSupport bool
	IsSummary   bool
}

// TypeRef represents a type reference in an ElementDefinition.
type TypeRef struct {
	Code          string
	Profile       []string
	TargetProfile []string
}

// Binding represents a terminology binding.
type Binding struct {
	Strength    string
	ValueSet    string
	Description string
}

// Element returns the element definition at the given path, or nil.
func (sd *StructureDefinition) Element(path string) *ElementDefinition {
	for i := range sd.Snapshot {
		if sd.Snapshot[i].Path == path {
			return &sd.Snapshot[i]
		}
	}
	return nil
}

// --- Domain/Registry Boundary ---

// ModelResolver resolves resource type names to their definitions.
// The resource catalog itself lives behind this boundary.
type ModelResolver interface {
	ResolveModel(ctx context.Context, name string) (*StructureDefinition, error)
}

// ModelLister enumerates the resource type names a resolver knows.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// ModelService combines resolution and enumeration.
type ModelService interface {
	ModelResolver
	ModelLister
}

// --- Model Chain ---

// ModelChain implements ModelResolver by trying multiple resolvers in
// order, following the chain-of-responsibility pattern.
type ModelChain struct {
	resolvers []ModelResolver
}

// NewModelChain creates a new model resolver chain.
func NewModelChain(resolvers ...ModelResolver) *ModelChain {
	return &ModelChain{resolvers: resolvers}
}

// ResolveModel tries each resolver until one succeeds.
func (c *ModelChain) ResolveModel(ctx context.Context, name string) (*StructureDefinition, error) {
	for _, resolver := range c.resolvers {
		sd, err := resolver.ResolveModel(ctx, name)
		if err == nil && sd != nil {
			return sd, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return nil, ErrNotFound
}

// Add appends a resolver to the chain.
func (c *ModelChain) Add(resolver ModelResolver) {
	c.resolvers = append(c.resolvers, resolver)
}

// --- FHIRPath Boundary ---

// FHIRPathEvaluator evaluates FHIRPath expressions against resources.
// Used by facades to project reconstructed instances back onto their
// field subset.
type FHIRPathEvaluator interface {
	// Evaluate returns the values selected by the expression.
	Evaluate(ctx context.Context, expression string, resource any) ([]any, error)
}
