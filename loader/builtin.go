package loader

import "github.com/gofhir/extractor/service"

// builtinDefinitions returns the core clinical resource definitions the
// service knows out of the box. These are reduced snapshots carrying
// the extraction-relevant elements only; full conformance packages can
// be loaded on top via LoadR4StructureDefinition.
func builtinDefinitions() []*service.StructureDefinition {
	return []*service.StructureDefinition{
		observationDefinition(),
		medicationStatementDefinition(),
		conditionDefinition(),
		patientDefinition(),
	}
}

func observationDefinition() *service.StructureDefinition {
	return &service.StructureDefinition{
		URL:         "http://hl7.org/fhir/StructureDefinition/Observation",
		Name:        "Observation",
		Type:        "Observation",
		Kind:        "resource",
		FHIRVersion: "4.0.1",
		Snapshot: []service.ElementDefinition{
			{Path: "Observation", Min: 0, Max: "*"},
			{
				Path:  "Observation.status",
				Short: "registered | preliminary | final | amended +",
				Min:   1, Max: "1",
				Types: []service.TypeRef{{Code: "code"}},
				Binding: &service.Binding{
					Strength: "required",
					ValueSet: "http://hl7.org/fhir/ValueSet/observation-status",
				},
			},
			{
				Path:  "Observation.code.text",
				Short: "Plain text name of what was observed",
				Min:   0, Max: "1",
				Types:       []service.TypeRef{{Code: "string"}},
				MustSupport: true,
			},
			{
				Path:  "Observation.valueString",
				Short: "Actual result as free text",
				Min:   0, Max: "1",
				Types: []service.TypeRef{{Code: "string"}},
			},
			{
				Path:  "Observation.valueQuantity.value",
				Short: "Numerical result value",
				Min:   0, Max: "1",
				Types: []service.TypeRef{{Code: "decimal"}},
			},
			{
				Path:  "Observation.valueQuantity.unit",
				Short: "Unit representation",
				Min:   0, Max: "1",
				Types: []service.TypeRef{{Code: "string"}},
			},
			{
				Path:  "Observation.effectiveDateTime",
				Short: "Clinically relevant time of the observation",
				Min:   0, Max: "1",
				Types: []service.TypeRef{{Code: "dateTime"}},
			},
			{
				Path:  "Observation.interpretation.text",
				Short: "High, low, normal, etc.",
				Min:   0, Max: "1",
				Types: []service.TypeRef{{Code: "string"}},
			},
		},
	}
}

func medicationStatementDefinition() *service.StructureDefinition {
	return &service.StructureDefinition{
		URL:         "http://hl7.org/fhir/StructureDefinition/MedicationStatement",
		Name:        "MedicationStatement",
		Type:        "MedicationStatement",
		Kind:        "resource",
		FHIRVersion: "4.0.1",
		Snapshot: []service.ElementDefinition{
			{Path: "MedicationStatement", Min: 0, Max: "*"},
			{
				Path:  "MedicationStatement.status",
				Short: "active | completed | entered-in-error | intended +",
				Min:   1, Max: "1",
				Types: []service.TypeRef{{Code: "code"}},
				Binding: &service.Binding{
					Strength: "required",
					ValueSet: "http://hl7.org/fhir/ValueSet/medication-statement-status",
				},
			},
			{
				Path:  "MedicationStatement.medicationCodeableConcept.text",
				Short: "Plain text medication name",
				Min:   0, Max: "1",
				Types:       []service.TypeRef{{Code: "string"}},
				MustSupport: true,
			},
			{
				Path:  "MedicationStatement.dosage.text",
				Short: "Free text dosage instructions",
				Min:   0, Max: "1",
				Types: []service.TypeRef{{Code: "string"}},
			},
			{
				Path:  "MedicationStatement.effectiveDateTime",
				Short: "When the medication was/is being taken",
				Min:   0, Max: "1",
				Types: []service.TypeRef{{Code: "dateTime"}},
			},
		},
	}
}

func conditionDefinition() *service.StructureDefinition {
	return &service.StructureDefinition{
		URL:         "http://hl7.org/fhir/StructureDefinition/Condition",
		Name:        "Condition",
		Type:        "Condition",
		Kind:        "resource",
		FHIRVersion: "4.0.1",
		Snapshot: []service.ElementDefinition{
			{Path: "Condition", Min: 0, Max: "*"},
			{
				Path:  "Condition.code.text",
				Short: "Plain text name of the condition",
				Min:   0, Max: "1",
				Types:       []service.TypeRef{{Code: "string"}},
				MustSupport: true,
			},
			{
				Path:  "Condition.clinicalStatus.text",
				Short: "active | recurrence | relapse | inactive | remission | resolved",
				Min:   0, Max: "1",
				Types: []service.TypeRef{{Code: "string"}},
			},
			{
				Path:  "Condition.onsetDateTime",
				Short: "Estimated or actual date of onset",
				Min:   0, Max: "1",
				Types: []service.TypeRef{{Code: "dateTime"}},
			},
		},
	}
}

func patientDefinition() *service.StructureDefinition {
	return &service.StructureDefinition{
		URL:         "http://hl7.org/fhir/StructureDefinition/Patient",
		Name:        "Patient",
		Type:        "Patient",
		Kind:        "resource",
		FHIRVersion: "4.0.1",
		Snapshot: []service.ElementDefinition{
			{Path: "Patient", Min: 0, Max: "*"},
			{
				Path:  "Patient.name.text",
				Short: "Full name as written in the note",
				Min:   0, Max: "1",
				Types: []service.TypeRef{{Code: "string"}},
			},
			{
				Path:  "Patient.gender",
				Short: "male | female | other | unknown",
				Min:   0, Max: "1",
				Types: []service.TypeRef{{Code: "code"}},
				Binding: &service.Binding{
					Strength: "required",
					ValueSet: "http://hl7.org/fhir/ValueSet/administrative-gender",
				},
			},
			{
				Path:  "Patient.birthDate",
				Short: "Date of birth",
				Min:   0, Max: "1",
				Types: []service.TypeRef{{Code: "date"}},
			},
		},
	}
}
