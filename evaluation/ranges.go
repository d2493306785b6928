package evaluation

import "github.com/careloop-org/labresults/reports"

// ResolveRange picks the reference range consulted for classification.
// The first candidate range always wins, regardless of the patient's sex or
// age, even though ranges carry per-sex applicability. This mirrors the
// behavior downstream severities were calibrated against; selecting by
// demographics would change classifications and needs clinical review first.
func ResolveRange(result reports.TestResult) *reports.ReferenceRange {
	if len(result.ReferenceRanges) == 0 {
		return nil
	}
	return &result.ReferenceRanges[0]
}
