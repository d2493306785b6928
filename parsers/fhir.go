package parsers

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careloop-org/labresults/errors"
	"github.com/careloop-org/labresults/pointer"
	"github.com/careloop-org/labresults/reports"
)

var fhirDateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseFHIRBundle converts a FHIR bundle into canonical lab reports. Each
// diagnostic report entry becomes one report with its referenced
// observations resolved into results. A bundle with observations but no
// diagnostic reports still imports: the observations are grouped by calendar
// date and each group becomes a synthesized report.
func parseFHIRBundle(raw []byte, sourceLabel string, importTime time.Time) ([]reports.LabReport, error) {
	bundle := fhirBundle{}
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("%w: unable to decode bundle: %v", errors.BadRequest, err)
	}
	if bundle.ResourceType != "Bundle" {
		return nil, fmt.Errorf("%w: expected a Bundle resource, got %q", errors.BadRequest, bundle.ResourceType)
	}

	diagnosticReports := make([]fhirDiagnosticReport, 0)
	observations := make([]fhirObservation, 0)
	observationsById := make(map[string]fhirObservation)

	for _, entry := range bundle.Entry {
		if len(entry.Resource) == 0 {
			continue
		}

		header := fhirResourceHeader{}
		if err := json.Unmarshal(entry.Resource, &header); err != nil {
			return nil, fmt.Errorf("%w: unable to decode bundle entry: %v", errors.BadRequest, err)
		}

		switch header.ResourceType {
		case "DiagnosticReport":
			report := fhirDiagnosticReport{}
			if err := json.Unmarshal(entry.Resource, &report); err != nil {
				return nil, fmt.Errorf("%w: unable to decode diagnostic report: %v", errors.BadRequest, err)
			}
			diagnosticReports = append(diagnosticReports, report)
		case "Observation":
			observation := fhirObservation{}
			if err := json.Unmarshal(entry.Resource, &observation); err != nil {
				return nil, fmt.Errorf("%w: unable to decode observation: %v", errors.BadRequest, err)
			}
			observations = append(observations, observation)
			if observation.ID != "" {
				observationsById[observation.ID] = observation
			}
			if entry.FullUrl != "" {
				observationsById[entry.FullUrl] = observation
			}
		}
	}

	if len(diagnosticReports) == 0 {
		return groupObservationsByDate(observations, sourceLabel, importTime), nil
	}

	parsed := make([]reports.LabReport, 0, len(diagnosticReports))
	for _, dr := range diagnosticReports {
		parsed = append(parsed, reportFromDiagnosticReport(dr, observationsById, sourceLabel))
	}

	return parsed, nil
}

func reportFromDiagnosticReport(dr fhirDiagnosticReport, observationsById map[string]fhirObservation, sourceLabel string) reports.LabReport {
	report := reports.LabReport{
		LabId:               sourceLabel,
		ExternalReferenceId: dr.ID,
		IntegrationSource:   reports.SourceFHIR,
		Results:             []reports.TestResult{},
	}

	if len(dr.Identifier) > 0 && dr.Identifier[0].Value != "" {
		report.ExternalReferenceId = dr.Identifier[0].Value
	}
	if dr.Code != nil {
		code, name := codeAndDisplay(*dr.Code)
		if code != "" {
			report.PanelCode = pointer.FromAny(code)
		}
		if name != "" {
			report.PanelName = pointer.FromAny(name)
		}
	}
	report.CollectionDate = parseFHIRDateTime(dr.EffectiveDateTime)
	report.ReportDate = parseFHIRDateTime(dr.Issued)
	if len(dr.Performer) > 0 && dr.Performer[0].Display != "" {
		report.LabFacilityName = pointer.FromAny(dr.Performer[0].Display)
	}

	for _, ref := range dr.Result {
		observation, ok := resolveObservation(ref.Reference, observationsById)
		if !ok {
			continue
		}
		report.Results = append(report.Results, resultFromObservation(observation))
	}

	return report
}

// groupObservationsByDate synthesizes one report per distinct calendar date.
// The generated reference id is a SHA1-namespaced UUID over the source
// label, date and import time, so a repeated import of the same payload in
// the same call produces stable identifiers.
func groupObservationsByDate(observations []fhirObservation, sourceLabel string, importTime time.Time) []reports.LabReport {
	grouped := make(map[string][]fhirObservation)
	for _, observation := range observations {
		date := observationDate(observation, importTime)
		grouped[date] = append(grouped[date], observation)
	}

	dates := make([]string, 0, len(grouped))
	for date := range grouped {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	parsed := make([]reports.LabReport, 0, len(dates))
	for _, date := range dates {
		report := reports.LabReport{
			LabId:               sourceLabel,
			ExternalReferenceId: synthesizedReferenceId(sourceLabel, date, importTime),
			IntegrationSource:   reports.SourceFHIR,
			Results:             []reports.TestResult{},
		}
		if collected := parseFHIRDateTime(date); collected != nil {
			report.CollectionDate = collected
		}
		for _, observation := range grouped[date] {
			report.Results = append(report.Results, resultFromObservation(observation))
		}
		parsed = append(parsed, report)
	}

	return parsed
}

func observationDate(observation fhirObservation, importTime time.Time) string {
	if ts := parseFHIRDateTime(observation.EffectiveDateTime); ts != nil {
		return ts.Format("2006-01-02")
	}
	return importTime.Format("2006-01-02")
}

func synthesizedReferenceId(sourceLabel, date string, importTime time.Time) string {
	seed := fmt.Sprintf("%s|%s|%s", sourceLabel, date, importTime.UTC().Format(time.RFC3339))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

func resultFromObservation(observation fhirObservation) reports.TestResult {
	result := reports.TestResult{}

	if observation.Code != nil {
		result.TestCode, result.TestName = codeAndDisplay(*observation.Code)
	}
	if result.TestName == "" {
		result.TestName = result.TestCode
	}

	if observation.ValueQuantity != nil && observation.ValueQuantity.Value != nil {
		result.Value = strconv.FormatFloat(*observation.ValueQuantity.Value, 'f', -1, 64)
		if observation.ValueQuantity.Unit != "" {
			result.Units = pointer.FromAny(observation.ValueQuantity.Unit)
		}
	} else if observation.ValueString != "" {
		result.Value = observation.ValueString
	}

	if observation.Status != "" {
		result.Status = pointer.FromAny(observation.Status)
	}

	for _, rr := range observation.ReferenceRange {
		result.ReferenceRanges = append(result.ReferenceRanges, rangeFromObservation(rr))
	}
	for _, interpretation := range observation.Interpretation {
		if flag := interpretationFlag(interpretation); flag != nil {
			result.AbnormalFlags = append(result.AbnormalFlags, *flag)
		}
	}

	notes := make([]string, 0, len(observation.Note))
	for _, note := range observation.Note {
		if note.Text != "" {
			notes = append(notes, note.Text)
		}
	}
	if len(notes) > 0 {
		result.Notes = pointer.FromAny(strings.Join(notes, "; "))
	}

	return result
}

func rangeFromObservation(rr fhirReferenceRange) reports.ReferenceRange {
	out := reports.ReferenceRange{Gender: "all"}

	if rr.Low != nil {
		out.LowerBound = rr.Low.Value
		if rr.Low.Unit != "" {
			out.Units = pointer.FromAny(rr.Low.Unit)
		}
	}
	if rr.High != nil {
		out.UpperBound = rr.High.Value
		if out.Units == nil && rr.High.Unit != "" {
			out.Units = pointer.FromAny(rr.High.Unit)
		}
	}

	for _, applies := range rr.AppliesTo {
		code, _ := codeAndDisplay(applies)
		switch strings.ToLower(code) {
		case "male", "female":
			out.Gender = strings.ToLower(code)
		}
	}
	if out.Gender == "all" && rr.Text != "" {
		switch strings.ToLower(rr.Text) {
		case "male", "female":
			out.Gender = strings.ToLower(rr.Text)
		}
	}

	return out
}

// interpretationFlag maps FHIR interpretation codes to abnormal flags.
// HH and LL are critical, other reported abnormalities are moderate, and a
// normal interpretation produces no flag at all.
func interpretationFlag(interpretation fhirCodeableConcept) *reports.AbnormalFlag {
	code, display := codeAndDisplay(interpretation)
	code = strings.ToUpper(code)
	if code == "" || code == "N" {
		return nil
	}

	flag := reports.AbnormalFlag{
		Flag:          reports.FlagAbnormal,
		Severity:      reports.SeverityModerate,
		Description:   display,
		AutoGenerated: false,
	}

	switch code {
	case "HH", "LL":
		flag.Flag = reports.FlagCritical
		flag.Severity = reports.SeverityCritical
	case "H":
		flag.Flag = reports.FlagHigh
	case "L":
		flag.Flag = reports.FlagLow
	}
	if flag.Description == "" {
		flag.Description = "reported by source lab"
	}

	return &flag
}

func resolveObservation(reference string, observationsById map[string]fhirObservation) (fhirObservation, bool) {
	if observation, ok := observationsById[reference]; ok {
		return observation, true
	}
	trimmed := strings.TrimPrefix(reference, "Observation/")
	observation, ok := observationsById[trimmed]
	return observation, ok
}

func codeAndDisplay(concept fhirCodeableConcept) (string, string) {
	var code, display string
	if len(concept.Coding) > 0 {
		code = concept.Coding[0].Code
		display = concept.Coding[0].Display
	}
	if display == "" {
		display = concept.Text
	}
	return code, display
}

func parseFHIRDateTime(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range fhirDateTimeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return &ts
		}
	}
	return nil
}
