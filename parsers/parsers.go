// Package parsers converts external lab payloads into canonical lab reports.
// All parsers are pure: identical input bytes always produce identical
// output, with the import timestamp passed in explicitly by the caller.
package parsers

import (
	"fmt"
	"time"

	"github.com/careloop-org/labresults/errors"
	"github.com/careloop-org/labresults/reports"
)

type Format string

const (
	FormatHL7    Format = "hl7"
	FormatFHIR   Format = "fhir"
	FormatManual Format = "manual"
)

func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatHL7, FormatFHIR, FormatManual:
		return Format(value), nil
	}
	return "", fmt.Errorf("%w: unsupported format %q", errors.BadRequest, value)
}

func (f Format) IntegrationSource() reports.IntegrationSource {
	switch f {
	case FormatHL7:
		return reports.SourceHL7
	case FormatFHIR:
		return reports.SourceFHIR
	case FormatManual:
		return reports.SourceManual
	}
	return reports.SourceAPI
}

// Parse dispatches the payload to the parser for the given format.
// importTime is only consulted when the fhir parser has to synthesize
// report identifiers for bundles without diagnostic report entries.
func Parse(format Format, raw []byte, sourceLabel string, importTime time.Time) ([]reports.LabReport, error) {
	switch format {
	case FormatHL7:
		return parseHL7(raw, sourceLabel)
	case FormatFHIR:
		return parseFHIRBundle(raw, sourceLabel, importTime)
	case FormatManual:
		return parseManual(raw, sourceLabel)
	}
	return nil, fmt.Errorf("%w: unsupported format %q", errors.BadRequest, format)
}
