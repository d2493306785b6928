package parsers

import "encoding/json"

// Minimal FHIR R4 resource shapes covering the subset of fields the bundle
// parser consumes. Unknown fields are ignored by encoding/json.

type fhirBundle struct {
	ResourceType string            `json:"resourceType"`
	Type         string            `json:"type,omitempty"`
	Entry        []fhirBundleEntry `json:"entry,omitempty"`
}

type fhirBundleEntry struct {
	FullUrl  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
}

type fhirResourceHeader struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id,omitempty"`
}

type fhirCoding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type fhirCodeableConcept struct {
	Coding []fhirCoding `json:"coding,omitempty"`
	Text   string       `json:"text,omitempty"`
}

type fhirReference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

type fhirIdentifier struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
}

type fhirQuantity struct {
	Value *float64 `json:"value,omitempty"`
	Unit  string   `json:"unit,omitempty"`
	Code  string   `json:"code,omitempty"`
}

type fhirAnnotation struct {
	Text string `json:"text,omitempty"`
}

type fhirDiagnosticReport struct {
	ResourceType      string               `json:"resourceType"`
	ID                string               `json:"id,omitempty"`
	Identifier        []fhirIdentifier     `json:"identifier,omitempty"`
	Status            string               `json:"status,omitempty"`
	Code              *fhirCodeableConcept `json:"code,omitempty"`
	EffectiveDateTime string               `json:"effectiveDateTime,omitempty"`
	Issued            string               `json:"issued,omitempty"`
	Performer         []fhirReference      `json:"performer,omitempty"`
	Result            []fhirReference      `json:"result,omitempty"`
}

type fhirObservation struct {
	ResourceType      string                `json:"resourceType"`
	ID                string                `json:"id,omitempty"`
	Status            string                `json:"status,omitempty"`
	Code              *fhirCodeableConcept  `json:"code,omitempty"`
	EffectiveDateTime string                `json:"effectiveDateTime,omitempty"`
	ValueQuantity     *fhirQuantity         `json:"valueQuantity,omitempty"`
	ValueString       string                `json:"valueString,omitempty"`
	Interpretation    []fhirCodeableConcept `json:"interpretation,omitempty"`
	ReferenceRange    []fhirReferenceRange  `json:"referenceRange,omitempty"`
	Note              []fhirAnnotation      `json:"note,omitempty"`
}

type fhirReferenceRange struct {
	Low       *fhirQuantity         `json:"low,omitempty"`
	High      *fhirQuantity         `json:"high,omitempty"`
	AppliesTo []fhirCodeableConcept `json:"appliesTo,omitempty"`
	Text      string                `json:"text,omitempty"`
}
