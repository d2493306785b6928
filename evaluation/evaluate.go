// Package evaluation classifies numeric test results against their
// reference ranges and derives the per-report clinical significance.
package evaluation

import (
	"fmt"
	"strconv"

	"github.com/careloop-org/labresults/reports"
)

const (
	// A value below 70% of the lower bound or above 150% of the upper
	// bound is critical rather than merely abnormal.
	criticalLowFactor  = 0.7
	criticalHighFactor = 1.5
)

// Evaluate flags out-of-range numeric results and recomputes the report's
// clinical significance. Source-provided flags are authoritative: results
// that already carry flags are never re-evaluated.
func Evaluate(report *reports.LabReport) {
	for i := range report.Results {
		evaluateResult(&report.Results[i])
	}
	report.ClinicalSignificance = Summarize(report.Results)
}

func evaluateResult(result *reports.TestResult) {
	if len(result.AbnormalFlags) > 0 {
		return
	}

	rr := ResolveRange(*result)
	if rr == nil {
		return
	}
	value, ok := result.NumericValue()
	if !ok {
		return
	}

	if flag := classify(value, *rr); flag != nil {
		result.AbnormalFlags = []reports.AbnormalFlag{*flag}
	}
}

func classify(value float64, rr reports.ReferenceRange) *reports.AbnormalFlag {
	if rr.LowerBound != nil && value < *rr.LowerBound {
		flag := reports.AbnormalFlag{
			Flag:          reports.FlagLow,
			Severity:      reports.SeverityModerate,
			Description:   fmt.Sprintf("value %s is below the reference range %s", formatValue(value), formatRange(rr)),
			AutoGenerated: true,
		}
		if value < *rr.LowerBound*criticalLowFactor {
			flag.Flag = reports.FlagCritical
			flag.Severity = reports.SeverityCritical
			flag.Description = fmt.Sprintf("value %s is critically below the reference range %s", formatValue(value), formatRange(rr))
		}
		return &flag
	}

	if rr.UpperBound != nil && value > *rr.UpperBound {
		flag := reports.AbnormalFlag{
			Flag:          reports.FlagHigh,
			Severity:      reports.SeverityModerate,
			Description:   fmt.Sprintf("value %s is above the reference range %s", formatValue(value), formatRange(rr)),
			AutoGenerated: true,
		}
		if value > *rr.UpperBound*criticalHighFactor {
			flag.Flag = reports.FlagCritical
			flag.Severity = reports.SeverityCritical
			flag.Description = fmt.Sprintf("value %s is critically above the reference range %s", formatValue(value), formatRange(rr))
		}
		return &flag
	}

	return nil
}

func formatValue(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatRange(rr reports.ReferenceRange) string {
	lower, upper := "", ""
	if rr.LowerBound != nil {
		lower = formatValue(*rr.LowerBound)
	}
	if rr.UpperBound != nil {
		upper = formatValue(*rr.UpperBound)
	}
	return lower + "-" + upper
}
