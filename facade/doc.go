// Package facade narrows full domain models to named field subsets for
// constrained generation.
//
// A facade is a registered list of element paths on a model. Resolving
// one yields a SubsetSchema holding the allowed output fields, with
// types and constraints inherited from the model and expressible as a
// JSON Schema, plus a Reconstructor that maps a validated subset
// payload back into a partially populated full instance. Provider
// candidates are classified against the subset schema before anything
// downstream sees them.
package facade
