package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/careloop-org/labresults/errors"
	"github.com/careloop-org/labresults/reports"
)

// parseManual passes through caller-supplied canonical reports. A single
// object is accepted and wrapped in a one-element batch.
func parseManual(raw []byte, sourceLabel string) ([]reports.LabReport, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty manual payload", errors.BadRequest)
	}

	var parsed []reports.LabReport
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &parsed); err != nil {
			return nil, fmt.Errorf("%w: unable to decode manual reports: %v", errors.BadRequest, err)
		}
	} else {
		report := reports.LabReport{}
		if err := json.Unmarshal(trimmed, &report); err != nil {
			return nil, fmt.Errorf("%w: unable to decode manual report: %v", errors.BadRequest, err)
		}
		parsed = []reports.LabReport{report}
	}

	for i := range parsed {
		if parsed[i].LabId == "" {
			parsed[i].LabId = sourceLabel
		}
		if parsed[i].IntegrationSource == "" {
			parsed[i].IntegrationSource = reports.SourceManual
		}
	}

	return parsed, nil
}
