// Package trends compares each numeric result against the patient's most
// recent prior value of the same test and judges the clinical significance
// of the change.
package trends

import (
	"context"
	"math"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/careloop-org/labresults/evaluation"
	"github.com/careloop-org/labresults/pointer"
	"github.com/careloop-org/labresults/reports"
)

const (
	// Changes below this percentage are noise, not a direction.
	unchangedThresholdPercent = 2.0
	// Out-of-range values moving by more than this are significant.
	rangeSignificantPercent = 10.0
	// In-range drift away from the midpoint is only notable beyond this.
	midpointDriftPercent = 20.0

	percentUnchangedThreshold = 5.0
	percentMildThreshold      = 15.0
)

// Tests where a rising value is the favorable outcome. For everything else
// a decrease counts as improvement when no reference range is available.
var higherIsBetter = mapset.NewSet(
	"HDL",
	"HDL-C",
	"2085-9", // LOINC: cholesterol in HDL
)

type Analyzer interface {
	// Analyze populates the report's trend analysis, one entry per numeric
	// result. Lookups for the results of a single report run concurrently;
	// callers must not analyze two reports of the same batch concurrently
	// because the later-dated report needs to see the earlier one as history.
	Analyze(ctx context.Context, report *reports.LabReport) error
}

func NewAnalyzer(repo reports.Repository, logger *zap.SugaredLogger) Analyzer {
	return &analyzer{
		repo:   repo,
		logger: logger,
	}
}

type analyzer struct {
	repo   reports.Repository
	logger *zap.SugaredLogger
}

func (a *analyzer) Analyze(ctx context.Context, report *reports.LabReport) error {
	entries := make([]*reports.TrendEntry, len(report.Results))
	errs := make([]error, len(report.Results))

	var wg sync.WaitGroup
	for i := range report.Results {
		result := report.Results[i]
		current, ok := result.NumericValue()
		if !ok {
			continue
		}

		wg.Add(1)
		go func(i int, result reports.TestResult, current float64) {
			defer wg.Done()
			entries[i], errs[i] = a.analyzeResult(ctx, report, result, current)
		}(i, result, current)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	trend := make([]reports.TrendEntry, 0, len(report.Results))
	for _, entry := range entries {
		if entry != nil {
			trend = append(trend, *entry)
		}
	}
	report.TrendAnalysis = trend

	return nil
}

func (a *analyzer) analyzeResult(ctx context.Context, report *reports.LabReport, result reports.TestResult, current float64) (*reports.TrendEntry, error) {
	entry := &reports.TrendEntry{
		TestCode:     result.TestCode,
		CurrentValue: current,
		Direction:    reports.DirectionNew,
		Significance: reports.SignificanceUndetermined,
	}

	// Without a collection date there is no position in the history to
	// compare against, so the result is treated as newly observed.
	if report.CollectionDate == nil {
		return entry, nil
	}

	prior, err := a.repo.FindLatestBefore(ctx, report.PatientId, result.TestCode, *report.CollectionDate)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		return entry, nil
	}

	priorResult := prior.FindResult(result.TestCode)
	if priorResult == nil {
		return entry, nil
	}
	previous, ok := priorResult.NumericValue()
	if !ok {
		return entry, nil
	}

	absolute := current - previous
	percent := 0.0
	if previous != 0 {
		percent = absolute / math.Abs(previous) * 100
	}

	entry.PreviousValue = &previous
	entry.PreviousTestDate = prior.CollectionDate
	entry.AbsoluteChange = pointer.FromAny(round(absolute))
	entry.PercentChange = pointer.FromAny(round(percent))
	entry.Direction = direction(previous, current, percent)
	entry.Significance = classify(result, previous, current, percent, entry.Direction)

	return entry, nil
}

func direction(previous, current, percent float64) reports.TrendDirection {
	if math.Abs(percent) < unchangedThresholdPercent {
		return reports.DirectionUnchanged
	}
	if current > previous {
		return reports.DirectionIncreased
	}
	return reports.DirectionDecreased
}

func classify(result reports.TestResult, previous, current, percent float64, dir reports.TrendDirection) reports.Significance {
	rr := evaluation.ResolveRange(result)
	if rr != nil && rr.LowerBound != nil && rr.UpperBound != nil {
		return rangeSignificance(previous, current, *rr.LowerBound, *rr.UpperBound, percent, dir)
	}
	return percentSignificance(result.TestCode, percent)
}

// rangeSignificance judges a change relative to the reference range.
// Crossing the range boundary dominates; otherwise the judgment depends on
// whether the value is moving toward or away from the range (when abnormal)
// or its midpoint (when normal), scaled by the size of the change.
func rangeSignificance(previous, current, lower, upper, percent float64, dir reports.TrendDirection) reports.Significance {
	previousAbnormal := previous < lower || previous > upper
	currentAbnormal := current < lower || current > upper
	change := math.Abs(percent)

	switch {
	case previousAbnormal && !currentAbnormal:
		return reports.SignificanceSignificantImprovement
	case !previousAbnormal && currentAbnormal:
		return reports.SignificanceSignificantDeterioration
	case previousAbnormal && currentAbnormal:
		previousDistance := rangeDistance(previous, lower, upper)
		currentDistance := rangeDistance(current, lower, upper)
		if currentDistance < previousDistance {
			if change > rangeSignificantPercent {
				return reports.SignificanceSignificantImprovement
			}
			return reports.SignificanceMildImprovement
		}
		if currentDistance > previousDistance {
			if change > rangeSignificantPercent {
				return reports.SignificanceSignificantDeterioration
			}
			return reports.SignificanceMildDeterioration
		}
		return reports.SignificanceUndetermined
	default:
		if dir == reports.DirectionUnchanged {
			return reports.SignificanceUnchanged
		}
		midpoint := (lower + upper) / 2
		previousDistance := math.Abs(previous - midpoint)
		currentDistance := math.Abs(current - midpoint)
		if currentDistance > previousDistance {
			if change > midpointDriftPercent {
				return reports.SignificanceMildDeterioration
			}
			return reports.SignificanceUnchanged
		}
		if currentDistance < previousDistance {
			return reports.SignificanceMildImprovement
		}
		return reports.SignificanceUndetermined
	}
}

// percentSignificance is the fallback when no usable reference range exists.
// A decrease counts as improvement unless the analyte is on the
// higher-is-better list.
func percentSignificance(testCode string, percent float64) reports.Significance {
	change := math.Abs(percent)
	if change < percentUnchangedThreshold {
		return reports.SignificanceUnchanged
	}

	improving := percent < 0
	if higherIsBetter.Contains(strings.ToUpper(testCode)) {
		improving = !improving
	}

	if change < percentMildThreshold {
		if improving {
			return reports.SignificanceMildImprovement
		}
		return reports.SignificanceMildDeterioration
	}
	if improving {
		return reports.SignificanceSignificantImprovement
	}
	return reports.SignificanceSignificantDeterioration
}

// rangeDistance is how far an out-of-range value lies from the range.
func rangeDistance(value, lower, upper float64) float64 {
	if value < lower {
		return lower - value
	}
	if value > upper {
		return value - upper
	}
	return 0
}

func round(value float64) float64 {
	return math.Round(value*10) / 10
}
