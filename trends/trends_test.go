package trends_test

import (
	"context"
	"fmt"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/careloop-org/labresults/reports"
	reportsTest "github.com/careloop-org/labresults/reports/test"
	"github.com/careloop-org/labresults/trends"
)

var _ = Describe("Trend analysis", func() {
	var ctrl *gomock.Controller
	var repo *reportsTest.MockRepository
	var analyzer trends.Analyzer

	collectionDate := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	priorDate := collectionDate.Add(-30 * 24 * time.Hour)

	currentReport := func(result reports.TestResult) *reports.LabReport {
		return &reports.LabReport{
			PatientId:      "patient-1",
			CollectionDate: &collectionDate,
			Results:        []reports.TestResult{result},
		}
	}
	priorReport := func(result reports.TestResult) *reports.LabReport {
		return &reports.LabReport{
			PatientId:      "patient-1",
			CollectionDate: &priorDate,
			Results:        []reports.TestResult{result},
		}
	}

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		repo = reportsTest.NewMockRepository(ctrl)
		analyzer = trends.NewAnalyzer(repo, zap.NewNop().Sugar())
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	It("marks results without history as new", func() {
		report := currentReport(reportsTest.NumericResult("GLU", "Glucose", 85, 70, 100))
		repo.EXPECT().
			FindLatestBefore(gomock.Any(), "patient-1", "GLU", collectionDate).
			Return(nil, nil)

		Expect(analyzer.Analyze(context.Background(), report)).To(Succeed())
		Expect(report.TrendAnalysis).To(HaveLen(1))

		entry := report.TrendAnalysis[0]
		Expect(entry.TestCode).To(Equal("GLU"))
		Expect(entry.CurrentValue).To(Equal(85.0))
		Expect(entry.PreviousValue).To(BeNil())
		Expect(entry.Direction).To(Equal(reports.DirectionNew))
		Expect(entry.Significance).To(Equal(reports.SignificanceUndetermined))
	})

	It("marks results as new when the report has no collection date", func() {
		report := currentReport(reportsTest.NumericResult("GLU", "Glucose", 85, 70, 100))
		report.CollectionDate = nil

		Expect(analyzer.Analyze(context.Background(), report)).To(Succeed())
		Expect(report.TrendAnalysis).To(HaveLen(1))
		Expect(report.TrendAnalysis[0].Direction).To(Equal(reports.DirectionNew))
	})

	It("skips non-numeric results", func() {
		result := reports.TestResult{TestCode: "CULT", TestName: "Culture", Value: "no growth"}
		report := currentReport(result)

		Expect(analyzer.Analyze(context.Background(), report)).To(Succeed())
		Expect(report.TrendAnalysis).To(BeEmpty())
	})

	It("treats a non-numeric prior value as no history", func() {
		report := currentReport(reportsTest.NumericResult("GLU", "Glucose", 85, 70, 100))
		prior := reportsTest.NumericResult("GLU", "Glucose", 0, 70, 100)
		prior.Value = "hemolyzed"
		repo.EXPECT().
			FindLatestBefore(gomock.Any(), "patient-1", "GLU", collectionDate).
			Return(priorReport(prior), nil)

		Expect(analyzer.Analyze(context.Background(), report)).To(Succeed())
		Expect(report.TrendAnalysis).To(HaveLen(1))
		Expect(report.TrendAnalysis[0].Direction).To(Equal(reports.DirectionNew))
		Expect(report.TrendAnalysis[0].Significance).To(Equal(reports.SignificanceUndetermined))
	})

	It("propagates repository errors", func() {
		report := currentReport(reportsTest.NumericResult("GLU", "Glucose", 85, 70, 100))
		repo.EXPECT().
			FindLatestBefore(gomock.Any(), "patient-1", "GLU", collectionDate).
			Return(nil, fmt.Errorf("connection reset"))

		Expect(analyzer.Analyze(context.Background(), report)).To(MatchError(ContainSubstring("connection reset")))
	})

	It("computes the change against the latest prior value", func() {
		report := currentReport(reportsTest.NumericResult("GLU", "Glucose", 110, 70, 100))
		repo.EXPECT().
			FindLatestBefore(gomock.Any(), "patient-1", "GLU", collectionDate).
			Return(priorReport(reportsTest.NumericResult("GLU", "Glucose", 150, 70, 100)), nil)

		Expect(analyzer.Analyze(context.Background(), report)).To(Succeed())
		Expect(report.TrendAnalysis).To(HaveLen(1))

		entry := report.TrendAnalysis[0]
		Expect(entry.PreviousValue).To(HaveValue(Equal(150.0)))
		Expect(entry.PreviousTestDate).To(HaveValue(Equal(priorDate)))
		Expect(entry.AbsoluteChange).To(HaveValue(Equal(-40.0)))
		Expect(entry.PercentChange).To(HaveValue(Equal(-26.7)))
		Expect(entry.Direction).To(Equal(reports.DirectionDecreased))
		Expect(entry.Significance).To(Equal(reports.SignificanceSignificantImprovement))
	})

	It("reports a zero percent change when the prior value was zero", func() {
		report := currentReport(reportsTest.NumericResult("GLU", "Glucose", 85, 70, 100))
		repo.EXPECT().
			FindLatestBefore(gomock.Any(), "patient-1", "GLU", collectionDate).
			Return(priorReport(reportsTest.NumericResult("GLU", "Glucose", 0, 70, 100)), nil)

		Expect(analyzer.Analyze(context.Background(), report)).To(Succeed())

		entry := report.TrendAnalysis[0]
		Expect(entry.PercentChange).To(HaveValue(Equal(0.0)))
		Expect(entry.Direction).To(Equal(reports.DirectionUnchanged))
	})

	DescribeTable("direction",
		func(previous, current float64, expected reports.TrendDirection) {
			report := currentReport(reportsTest.NumericResult("GLU", "Glucose", current, 70, 100))
			repo.EXPECT().
				FindLatestBefore(gomock.Any(), "patient-1", "GLU", collectionDate).
				Return(priorReport(reportsTest.NumericResult("GLU", "Glucose", previous, 70, 100)), nil)

			Expect(analyzer.Analyze(context.Background(), report)).To(Succeed())
			Expect(report.TrendAnalysis[0].Direction).To(Equal(expected))
		},
		Entry("changes under two percent are unchanged", 100.0, 101.0, reports.DirectionUnchanged),
		Entry("larger increases are increased", 100.0, 105.0, reports.DirectionIncreased),
		Entry("larger decreases are decreased", 100.0, 95.0, reports.DirectionDecreased),
	)

	Describe("significance with a reference range", func() {
		analyzeChange := func(previous, current, lower, upper float64) reports.TrendEntry {
			report := currentReport(reportsTest.NumericResult("GLU", "Glucose", current, lower, upper))
			repo.EXPECT().
				FindLatestBefore(gomock.Any(), "patient-1", "GLU", collectionDate).
				Return(priorReport(reportsTest.NumericResult("GLU", "Glucose", previous, lower, upper)), nil)

			Expect(analyzer.Analyze(context.Background(), report)).To(Succeed())
			Expect(report.TrendAnalysis).To(HaveLen(1))
			return report.TrendAnalysis[0]
		}

		It("flags a value returning to the range as a significant improvement", func() {
			entry := analyzeChange(120, 90, 70, 100)
			Expect(entry.Significance).To(Equal(reports.SignificanceSignificantImprovement))
		})

		It("flags a value leaving the range as a significant deterioration", func() {
			entry := analyzeChange(90, 120, 70, 100)
			Expect(entry.Significance).To(Equal(reports.SignificanceSignificantDeterioration))
		})

		It("grades abnormal values moving toward the range by the size of the change", func() {
			Expect(analyzeChange(150, 110, 70, 100).Significance).
				To(Equal(reports.SignificanceSignificantImprovement))
			Expect(analyzeChange(112, 110, 70, 100).Significance).
				To(Equal(reports.SignificanceMildImprovement))
		})

		It("grades abnormal values moving away from the range by the size of the change", func() {
			Expect(analyzeChange(110, 150, 70, 100).Significance).
				To(Equal(reports.SignificanceSignificantDeterioration))
			Expect(analyzeChange(110, 115, 70, 100).Significance).
				To(Equal(reports.SignificanceMildDeterioration))
		})

		It("keeps unchanged in-range values as unchanged", func() {
			Expect(analyzeChange(85, 86, 70, 100).Significance).
				To(Equal(reports.SignificanceUnchanged))
		})

		It("flags large in-range drift away from the midpoint as a mild deterioration", func() {
			Expect(analyzeChange(100, 128, 70, 130).Significance).
				To(Equal(reports.SignificanceMildDeterioration))
		})

		It("tolerates small in-range drift away from the midpoint", func() {
			Expect(analyzeChange(100, 110, 70, 130).Significance).
				To(Equal(reports.SignificanceUnchanged))
		})

		It("counts in-range movement toward the midpoint as a mild improvement", func() {
			Expect(analyzeChange(128, 105, 70, 130).Significance).
				To(Equal(reports.SignificanceMildImprovement))
		})
	})

	Describe("significance without a reference range", func() {
		analyzeChange := func(code string, previous, current float64) reports.TrendEntry {
			result := reports.TestResult{
				TestCode: code,
				TestName: code,
				Value:    strconv.FormatFloat(current, 'f', -1, 64),
			}
			prior := result
			prior.Value = strconv.FormatFloat(previous, 'f', -1, 64)

			report := currentReport(result)
			repo.EXPECT().
				FindLatestBefore(gomock.Any(), "patient-1", code, collectionDate).
				Return(priorReport(prior), nil)

			Expect(analyzer.Analyze(context.Background(), report)).To(Succeed())
			Expect(report.TrendAnalysis).To(HaveLen(1))
			return report.TrendAnalysis[0]
		}

		It("treats small changes as unchanged", func() {
			Expect(analyzeChange("GLU", 100, 104).Significance).
				To(Equal(reports.SignificanceUnchanged))
		})

		It("grades decreases as improvement", func() {
			Expect(analyzeChange("GLU", 100, 90).Significance).
				To(Equal(reports.SignificanceMildImprovement))
			Expect(analyzeChange("GLU", 100, 80).Significance).
				To(Equal(reports.SignificanceSignificantImprovement))
		})

		It("grades increases as deterioration", func() {
			Expect(analyzeChange("GLU", 100, 110).Significance).
				To(Equal(reports.SignificanceMildDeterioration))
			Expect(analyzeChange("GLU", 100, 120).Significance).
				To(Equal(reports.SignificanceSignificantDeterioration))
		})

		It("inverts the judgment for tests where higher is better", func() {
			Expect(analyzeChange("HDL", 50, 60).Significance).
				To(Equal(reports.SignificanceSignificantImprovement))
			Expect(analyzeChange("HDL", 60, 50).Significance).
				To(Equal(reports.SignificanceSignificantDeterioration))
		})
	})

	It("produces one entry per numeric result in result order", func() {
		report := &reports.LabReport{
			PatientId:      "patient-1",
			CollectionDate: &collectionDate,
			Results: []reports.TestResult{
				reportsTest.NumericResult("GLU", "Glucose", 85, 70, 100),
				{TestCode: "CULT", TestName: "Culture", Value: "no growth"},
				reportsTest.NumericResult("K", "Potassium", 4.2, 3.5, 5.1),
			},
		}
		repo.EXPECT().
			FindLatestBefore(gomock.Any(), "patient-1", "GLU", collectionDate).
			Return(nil, nil)
		repo.EXPECT().
			FindLatestBefore(gomock.Any(), "patient-1", "K", collectionDate).
			Return(nil, nil)

		Expect(analyzer.Analyze(context.Background(), report)).To(Succeed())
		Expect(report.TrendAnalysis).To(HaveLen(2))
		Expect(report.TrendAnalysis[0].TestCode).To(Equal("GLU"))
		Expect(report.TrendAnalysis[1].TestCode).To(Equal("K"))
	})
})
