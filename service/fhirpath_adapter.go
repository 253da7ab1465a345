package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofhir/fhirpath"
	"github.com/gofhir/fhirpath/types"

	"github.com/gofhir/extractor/cache"
)

// defaultExpressionCacheSize bounds the compiled-expression cache.
// Facade field sets are small, so this is generous.
const defaultExpressionCacheSize = 512

// FHIRPathAdapter adapts the fhirpath package to the FHIRPathEvaluator
// interface. Compiled expressions are cached in an LRU; the adapter is
// safe for concurrent use.
type FHIRPathAdapter struct {
	expressions *cache.Cache[string, *fhirpath.Expression]
}

// NewFHIRPathAdapter creates a new FHIRPath adapter.
func NewFHIRPathAdapter() *FHIRPathAdapter {
	return &FHIRPathAdapter{
		expressions: cache.New[string, *fhirpath.Expression](defaultExpressionCacheSize),
	}
}

// Evaluate evaluates a FHIRPath expression against a resource and
// returns the selected values. An empty collection returns a nil slice
// and no error.
func (a *FHIRPathAdapter) Evaluate(ctx context.Context, expression string, resource any) ([]any, error) {
	resourceBytes, err := a.toJSON(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to convert resource to JSON: %w", err)
	}

	compiled, err := a.getOrCompile(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to compile FHIRPath expression '%s': %w", expression, err)
	}

	result, err := compiled.Evaluate(resourceBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate FHIRPath expression '%s': %w", expression, err)
	}

	return a.toValues(result), nil
}

// toJSON converts a resource to JSON bytes.
func (a *FHIRPathAdapter) toJSON(resource any) ([]byte, error) {
	switch v := resource.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

// getOrCompile returns a cached compiled expression or compiles a new one.
func (a *FHIRPathAdapter) getOrCompile(expression string) (*fhirpath.Expression, error) {
	if compiled, ok := a.expressions.Get(expression); ok {
		return compiled, nil
	}

	compiled, err := fhirpath.Compile(expression)
	if err != nil {
		return nil, err
	}

	a.expressions.Set(expression, compiled)
	return compiled, nil
}

// toValues flattens a FHIRPath collection into plain Go values.
func (a *FHIRPathAdapter) toValues(result types.Collection) []any {
	if len(result) == 0 {
		return nil
	}
	values := make([]any, 0, len(result))
	for _, item := range result {
		if b, ok := item.(types.Boolean); ok {
			values = append(values, b.Bool())
			continue
		}
		values = append(values, item)
	}
	return values
}

// ClearCache clears the expression cache.
func (a *FHIRPathAdapter) ClearCache() {
	a.expressions.Clear()
}

// CacheSize returns the number of cached expressions.
func (a *FHIRPathAdapter) CacheSize() int {
	return a.expressions.Len()
}

// CacheStats reports expression-cache effectiveness.
func (a *FHIRPathAdapter) CacheStats() cache.Stats {
	return a.expressions.Stats()
}

// Verify interface compliance
var _ FHIRPathEvaluator = (*FHIRPathAdapter)(nil)
