package fhirextractor

import "errors"

// Sentinel errors returned by the extraction engine.
//
// Only configuration errors and first-attempt provider unavailability
// propagate to callers; every other failure mode degrades to a partial
// result recorded as issues on the Result.
var (
	// ErrUnknownFacade is returned when a facade key is not registered
	// for the requested model.
	ErrUnknownFacade = errors.New("unknown facade key")

	// ErrUnknownModel is returned when a model name cannot be resolved.
	ErrUnknownModel = errors.New("unknown model")

	// ErrEmptySchema is returned when facade resolution yields a schema
	// with zero fields.
	ErrEmptySchema = errors.New("facade resolved to empty schema")

	// ErrInvalidConfig is returned when options fail validation before
	// any provider call is made.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProviderUnavailable is returned when the provider fails on the
	// very first generation attempt of a run.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNoProvider is returned when an extractor is built without a
	// generation provider.
	ErrNoProvider = errors.New("no provider configured")
)
