// Package loader bridges the FHIR R4 conformance model into the
// extractor's internal domain model.
//
// R4Converter reduces r4.StructureDefinition values to the internal
// service.StructureDefinition form, and InMemoryModelService implements
// the service.ModelResolver boundary with a built-in catalog of core
// clinical resource definitions plus anything loaded at runtime.
package loader
