// Package fhirextractor provides grounded structured extraction of FHIR
// resources from unstructured clinical text.
//
// The engine turns free-text clinical notes into schema-conformant
// resource instances and proves provenance for every extracted value by
// locating it character-accurately in the source document. Generation
// is delegated to a provider-neutral interface; the engine contains no
// model-specific logic and works against any conforming implementation
// (mock, stub, or real client).
//
// # Quick Start
//
//	import (
//	    fx "github.com/gofhir/extractor"
//	    "github.com/gofhir/extractor/engine"
//	    "github.com/gofhir/extractor/loader"
//	    "github.com/gofhir/extractor/provider/gemini"
//	)
//
//	models := loader.NewInMemoryModelService()
//	prov := gemini.New(apiKey)
//	ex, err := engine.New(prov, models)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := ex.ExtractDocument(ctx, noteText,
//	    engine.Target{Model: "Observation", Facade: "core"},
//	    engine.Target{Model: "MedicationStatement", Facade: "core"},
//	)
//	for _, res := range result.Extractions["Observation"] {
//	    fmt.Println(res.Instance, res.Citations)
//	}
//	result.Release() // Return to pool for better performance
//
// # Grounding
//
// Every string-valued field the provider emits is traced back into the
// source text: exact substring search first, nearest-to-hint
// disambiguation when the snippet occurs more than once, then a
// normalized fuzzy match under a configurable edit-distance threshold.
// A snippet that cannot be located is kept, flagged ungrounded, with a
// nil interval; grounding failure is never an error.
//
// # Concurrency
//
// Long documents are split into overlapping windows and the cross
// product of targets and windows runs under a bounded semaphore.
// Per-window and total deadlines cancel cooperatively; work completed
// before a deadline is always retained and the run status reports
// complete, partial, or timed-out.
//
// # Functional Options
//
//	ex, err := engine.New(prov, models,
//	    fx.WithConcurrency(8),
//	    fx.WithWindowTimeout(30*time.Second),
//	    fx.WithTotalTimeout(2*time.Minute),
//	    fx.WithMaxItemsPerType(20),
//	)
package fhirextractor
