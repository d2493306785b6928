package parsers

import (
	"strconv"
	"strings"
	"time"

	"github.com/careloop-org/labresults/pointer"
	"github.com/careloop-org/labresults/reports"
)

const (
	fieldSeparator     = "|"
	componentSeparator = "^"
)

var hl7TimestampLayouts = []string{
	"20060102150405",
	"200601021504",
	"20060102",
	time.RFC3339,
}

// parseHL7 consumes newline-delimited HL7 v2 segments. An MSH segment opens a
// new report, OBR carries the order, OBX segments carry results and NTE
// segments attach notes to the most recent result. BTS/FTS terminate the
// current report; a report still open at end of input is kept, so messages
// with missing trailers still import.
func parseHL7(raw []byte, sourceLabel string) ([]reports.LabReport, error) {
	message := strings.TrimSpace(string(raw))
	message = strings.ReplaceAll(message, "\r", "\n")

	parsed := make([]reports.LabReport, 0)
	var current *reports.LabReport

	flush := func() {
		if current != nil {
			parsed = append(parsed, *current)
			current = nil
		}
	}
	// Order and result segments arriving before any MSH still open a report
	open := func() *reports.LabReport {
		if current == nil {
			current = &reports.LabReport{
				LabId:             sourceLabel,
				IntegrationSource: reports.SourceHL7,
				Results:           []reports.TestResult{},
			}
		}
		return current
	}

	for _, line := range strings.Split(message, "\n") {
		segment := strings.TrimSpace(line)
		if segment == "" {
			continue
		}

		fields := strings.Split(segment, fieldSeparator)
		switch fields[0] {
		case "MSH":
			flush()
			report := open()
			if facility := fieldAt(fields, 3); facility != "" {
				report.LabFacilityName = pointer.FromAny(facility)
			}
		case "OBR":
			report := open()
			// Prefer the filler order number assigned by the lab,
			// fall back to the placer order number
			if filler := componentAt(fieldAt(fields, 3), 0); filler != "" {
				report.ExternalReferenceId = filler
			} else if placer := componentAt(fieldAt(fields, 2), 0); placer != "" {
				report.ExternalReferenceId = placer
			}
			if service := fieldAt(fields, 4); service != "" {
				report.PanelCode = pointer.FromAny(componentAt(service, 0))
				if name := componentAt(service, 1); name != "" {
					report.PanelName = pointer.FromAny(name)
				}
			}
			if collected := parseHL7Timestamp(fieldAt(fields, 7)); collected != nil {
				report.CollectionDate = collected
			}
		case "OBX":
			report := open()
			report.Results = append(report.Results, parseOBX(fields))
		case "NTE":
			appendNote(current, fieldAt(fields, 3))
		case "BTS", "FTS":
			flush()
		}
	}
	flush()

	return parsed, nil
}

func parseOBX(fields []string) reports.TestResult {
	result := reports.TestResult{}

	identifier := fieldAt(fields, 3)
	result.TestCode = componentAt(identifier, 0)
	result.TestName = componentAt(identifier, 1)
	if result.TestName == "" {
		result.TestName = result.TestCode
	}

	result.Value = fieldAt(fields, 5)
	if units := fieldAt(fields, 6); units != "" {
		result.Units = pointer.FromAny(units)
	}
	if rr := parseRangeString(fieldAt(fields, 7), result.Units); rr != nil {
		result.ReferenceRanges = []reports.ReferenceRange{*rr}
	}
	if flag := sourceFlag(fieldAt(fields, 8)); flag != nil {
		result.AbnormalFlags = []reports.AbnormalFlag{*flag}
	}
	if status := fieldAt(fields, 11); status != "" {
		result.Status = pointer.FromAny(status)
	}

	return result
}

// sourceFlag maps an HL7 abnormal-flag code to a source-provided flag.
// Normal results carry no flag, only a C code is critical, and any other
// reported code is moderate.
func sourceFlag(code string) *reports.AbnormalFlag {
	normalized := reports.FlagCode(strings.ToUpper(strings.TrimSpace(code)))
	if normalized == "" || normalized == reports.FlagNormal {
		return nil
	}

	flag := reports.AbnormalFlag{
		Flag:          reports.FlagAbnormal,
		Severity:      reports.SeverityModerate,
		Description:   "reported by source lab",
		AutoGenerated: false,
	}
	switch normalized {
	case reports.FlagHigh, reports.FlagLow, reports.FlagCritical:
		flag.Flag = normalized
	}
	if flag.Flag == reports.FlagCritical {
		flag.Severity = reports.SeverityCritical
	}

	return &flag
}

// parseRangeString decodes the naive "low-high" reference range notation.
func parseRangeString(value string, units *string) *reports.ReferenceRange {
	parts := strings.SplitN(strings.TrimSpace(value), "-", 2)
	if len(parts) != 2 {
		return nil
	}

	lower, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil
	}
	upper, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil
	}

	return &reports.ReferenceRange{
		Gender:     "all",
		LowerBound: &lower,
		UpperBound: &upper,
		Units:      units,
	}
}

func appendNote(current *reports.LabReport, note string) {
	if current == nil || len(current.Results) == 0 || note == "" {
		return
	}

	last := &current.Results[len(current.Results)-1]
	if last.Notes == nil {
		last.Notes = pointer.FromAny(note)
	} else {
		last.Notes = pointer.FromAny(*last.Notes + "; " + note)
	}
}

func parseHL7Timestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	for _, layout := range hl7TimestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return &ts
		}
	}
	return nil
}

func fieldAt(fields []string, index int) string {
	if index >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[index])
}

func componentAt(field string, index int) string {
	components := strings.Split(field, componentSeparator)
	if index >= len(components) {
		return ""
	}
	return strings.TrimSpace(components[index])
}
