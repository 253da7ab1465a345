package loader

import (
	"testing"

	"github.com/gofhir/fhir/r4"
)

func TestR4Converter_ConvertStructureDefinition(t *testing.T) {
	converter := NewR4Converter()

	t.Run("nil input", func(t *testing.T) {
		if result := converter.ConvertStructureDefinition(nil); result != nil {
			t.Error("expected nil result for nil input")
		}
	})

	t.Run("basic conversion", func(t *testing.T) {
		url := "http://hl7.org/fhir/StructureDefinition/Observation"
		name := "Observation"
		typeName := "Observation"
		kind := r4.StructureDefinitionKindResource
		abstract := false
		baseDef := "http://hl7.org/fhir/StructureDefinition/DomainResource"
		version := r4.FHIRVersion401

		sd := &r4.StructureDefinition{
			Url:            &url,
			Name:           &name,
			Type:           &typeName,
			Kind:           &kind,
			Abstract:       &abstract,
			BaseDefinition: &baseDef,
			FhirVersion:    &version,
		}

		result := converter.ConvertStructureDefinition(sd)

		if result == nil {
			t.Fatal("expected non-nil result")
		}
		if result.URL != url {
			t.Errorf("URL = %q; want %q", result.URL, url)
		}
		if result.Type != typeName {
			t.Errorf("Type = %q; want %q", result.Type, typeName)
		}
		if result.Kind != "resource" {
			t.Errorf("Kind = %q; want %q", result.Kind, "resource")
		}
		if result.Abstract {
			t.Error("Abstract should be false")
		}
		if result.BaseDefinition != baseDef {
			t.Errorf("BaseDefinition = %q; want %q", result.BaseDefinition, baseDef)
		}
		if result.FHIRVersion != "4.0.1" {
			t.Errorf("FHIRVersion = %q; want 4.0.1", result.FHIRVersion)
		}
	})

	t.Run("with snapshot elements", func(t *testing.T) {
		url := "http://hl7.org/fhir/StructureDefinition/Observation"
		rootPath := "Observation"
		statusPath := "Observation.status"
		short := "registered | preliminary | final | amended +"
		minCard := uint32(1)
		maxCard := "1"
		codeType := "code"
		strength := r4.BindingStrengthRequired
		valueSet := "http://hl7.org/fhir/ValueSet/observation-status"

		sd := &r4.StructureDefinition{
			Url: &url,
			Snapshot: &r4.StructureDefinitionSnapshot{
				Element: []r4.ElementDefinition{
					{Path: &rootPath},
					{
						Path:  &statusPath,
						Short: &short,
						Min:   &minCard,
						Max:   &maxCard,
						Type:  []r4.ElementDefinitionType{{Code: &codeType}},
						Binding: &r4.ElementDefinitionBinding{
							Strength: &strength,
							ValueSet: &valueSet,
						},
					},
				},
			},
		}

		result := converter.ConvertStructureDefinition(sd)

		if result == nil {
			t.Fatal("expected non-nil result")
		}
		if len(result.Snapshot) != 2 {
			t.Fatalf("len(Snapshot) = %d; want 2", len(result.Snapshot))
		}

		status := result.Snapshot[1]
		if status.Path != statusPath {
			t.Errorf("Path = %q; want %q", status.Path, statusPath)
		}
		// Short feeds the JSON Schema field description, so it must
		// survive conversion.
		if status.Short != short {
			t.Errorf("Short = %q; want %q", status.Short, short)
		}
		if status.Min != 1 || status.Max != "1" {
			t.Errorf("cardinality = %d..%s; want 1..1", status.Min, status.Max)
		}
		if len(status.Types) != 1 || status.Types[0].Code != "code" {
			t.Errorf("Types = %v; want [code]", status.Types)
		}
		if status.Binding == nil {
			t.Fatal("Binding is nil")
		}
		if status.Binding.Strength != "required" {
			t.Errorf("Binding.Strength = %q; want required", status.Binding.Strength)
		}
		if status.Binding.ValueSet != valueSet {
			t.Errorf("Binding.ValueSet = %q; want %q", status.Binding.ValueSet, valueSet)
		}
	})

	t.Run("nil pointer fields", func(t *testing.T) {
		result := converter.ConvertStructureDefinition(&r4.StructureDefinition{})
		if result == nil {
			t.Fatal("expected non-nil result")
		}
		if result.URL != "" || result.Kind != "" || result.Abstract {
			t.Errorf("zero-value conversion = %+v", result)
		}
		if result.Snapshot != nil {
			t.Error("missing snapshot should convert to nil")
		}
	})
}
