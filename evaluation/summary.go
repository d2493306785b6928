package evaluation

import (
	"fmt"
	"strings"

	"github.com/careloop-org/labresults/pointer"
	"github.com/careloop-org/labresults/reports"
)

const normalSummary = "All test results are within normal ranges."

// Summarize rolls the abnormal findings of a result set up into the
// report-level clinical significance.
func Summarize(results []reports.TestResult) reports.ClinicalSignificance {
	significance := reports.ClinicalSignificance{}

	clauses := make([]string, 0)
	for i := range results {
		result := &results[i]
		if len(result.AbnormalFlags) == 0 {
			continue
		}

		significance.HasAbnormalValues = true
		if result.HasCriticalFlag() {
			significance.HasCriticalValues = true
		}
		clauses = append(clauses, abnormalClause(result))
	}

	switch len(clauses) {
	case 0:
		significance.Summary = normalSummary
	case 1:
		significance.Summary = clauses[0]
	default:
		significance.Summary = "Multiple abnormal results detected: " + strings.Join(clauses, "; ")
	}

	return significance
}

func abnormalClause(result *reports.TestResult) string {
	severity := "moderately"
	if result.HasCriticalFlag() {
		severity = "critically"
	}

	quantity := result.Value
	if units := pointer.ToString(result.Units); units != "" {
		quantity += " " + units
	}

	return fmt.Sprintf("%s is %s %s (%s)", result.TestName, severity, deviationWord(result), quantity)
}

// deviationWord reports which side of the range the value fell on, falling
// back to the source-provided flag code when the range or value cannot be
// interpreted numerically.
func deviationWord(result *reports.TestResult) string {
	if rr := ResolveRange(*result); rr != nil {
		if value, ok := result.NumericValue(); ok {
			if rr.LowerBound != nil && value < *rr.LowerBound {
				return "low"
			}
			if rr.UpperBound != nil && value > *rr.UpperBound {
				return "high"
			}
		}
	}

	for _, flag := range result.AbnormalFlags {
		switch flag.Flag {
		case reports.FlagLow:
			return "low"
		case reports.FlagHigh:
			return "high"
		}
	}
	return "abnormal"
}
