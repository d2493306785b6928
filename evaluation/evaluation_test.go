package evaluation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/careloop-org/labresults/evaluation"
	"github.com/careloop-org/labresults/pointer"
	"github.com/careloop-org/labresults/reports"
	reportsTest "github.com/careloop-org/labresults/reports/test"
)

var _ = Describe("Abnormal value evaluation", func() {
	newReport := func(results ...reports.TestResult) *reports.LabReport {
		return &reports.LabReport{
			PatientId: "patient-1",
			Results:   results,
		}
	}

	DescribeTable("classification against the reference range",
		func(value float64, expectedFlag reports.FlagCode, expectedSeverity reports.Severity) {
			report := newReport(reportsTest.NumericResult("GLU", "Glucose", value, 70, 100))
			evaluation.Evaluate(report)

			Expect(report.Results[0].AbnormalFlags).To(HaveLen(1))
			flag := report.Results[0].AbnormalFlags[0]
			Expect(flag.Flag).To(Equal(expectedFlag))
			Expect(flag.Severity).To(Equal(expectedSeverity))
			Expect(flag.AutoGenerated).To(BeTrue())
			Expect(flag.Description).ToNot(BeEmpty())
		},
		Entry("critically low below 70% of the lower bound", 20.0, reports.FlagCritical, reports.SeverityCritical),
		Entry("moderately low just under the lower bound", 60.0, reports.FlagLow, reports.SeverityModerate),
		Entry("low exactly at 70% of the lower bound", 49.0, reports.FlagLow, reports.SeverityModerate),
		Entry("moderately high above the upper bound", 130.0, reports.FlagHigh, reports.SeverityModerate),
		Entry("high exactly at 150% of the upper bound", 150.0, reports.FlagHigh, reports.SeverityModerate),
		Entry("critically high above 150% of the upper bound", 151.0, reports.FlagCritical, reports.SeverityCritical),
	)

	DescribeTable("values inside the range are not flagged",
		func(value float64) {
			report := newReport(reportsTest.NumericResult("GLU", "Glucose", value, 70, 100))
			evaluation.Evaluate(report)
			Expect(report.Results[0].AbnormalFlags).To(BeEmpty())
		},
		Entry("at the lower bound", 70.0),
		Entry("in the middle", 85.0),
		Entry("at the upper bound", 100.0),
	)

	It("never overwrites source-provided flags", func() {
		result := reportsTest.NumericResult("GLU", "Glucose", 130, 70, 100)
		result.AbnormalFlags = []reports.AbnormalFlag{{
			Flag:     reports.FlagAbnormal,
			Severity: reports.SeverityModerate,
		}}

		report := newReport(result)
		evaluation.Evaluate(report)

		Expect(report.Results[0].AbnormalFlags).To(HaveLen(1))
		Expect(report.Results[0].AbnormalFlags[0].Flag).To(Equal(reports.FlagAbnormal))
		Expect(report.Results[0].AbnormalFlags[0].AutoGenerated).To(BeFalse())
	})

	It("skips results without a reference range", func() {
		result := reports.TestResult{TestCode: "GLU", TestName: "Glucose", Value: "130"}
		report := newReport(result)
		evaluation.Evaluate(report)
		Expect(report.Results[0].AbnormalFlags).To(BeEmpty())
	})

	It("skips results with non-numeric values", func() {
		result := reportsTest.NumericResult("GLU", "Glucose", 0, 70, 100)
		result.Value = "hemolyzed"
		report := newReport(result)
		evaluation.Evaluate(report)
		Expect(report.Results[0].AbnormalFlags).To(BeEmpty())
	})

	Describe("clinical significance", func() {
		It("reports all-normal results", func() {
			report := newReport(reportsTest.NumericResult("GLU", "Glucose", 85, 70, 100))
			evaluation.Evaluate(report)

			Expect(report.ClinicalSignificance.HasAbnormalValues).To(BeFalse())
			Expect(report.ClinicalSignificance.HasCriticalValues).To(BeFalse())
			Expect(report.ClinicalSignificance.Summary).To(Equal("All test results are within normal ranges."))
		})

		It("describes a single abnormal result", func() {
			report := newReport(reportsTest.NumericResult("GLU", "Glucose", 130, 70, 100))
			evaluation.Evaluate(report)

			Expect(report.ClinicalSignificance.HasAbnormalValues).To(BeTrue())
			Expect(report.ClinicalSignificance.HasCriticalValues).To(BeFalse())
			Expect(report.ClinicalSignificance.Summary).To(Equal("Glucose is moderately high (130 mg/dL)"))
		})

		It("describes a single critical result", func() {
			report := newReport(reportsTest.NumericResult("GLU", "Glucose", 20, 70, 100))
			evaluation.Evaluate(report)

			Expect(report.ClinicalSignificance.HasCriticalValues).To(BeTrue())
			Expect(report.ClinicalSignificance.Summary).To(Equal("Glucose is critically low (20 mg/dL)"))
		})

		It("joins multiple abnormal results", func() {
			report := newReport(
				reportsTest.NumericResult("GLU", "Glucose", 130, 70, 100),
				reportsTest.NumericResult("K", "Potassium", 2.1, 3.5, 5.1),
			)
			evaluation.Evaluate(report)

			Expect(report.ClinicalSignificance.HasCriticalValues).To(BeTrue())
			Expect(report.ClinicalSignificance.Summary).To(Equal(
				"Multiple abnormal results detected: Glucose is moderately high (130 mg/dL); Potassium is critically low (2.1 mg/dL)"))
		})
	})

	Describe("reference range resolution", func() {
		It("returns the first candidate range", func() {
			result := reports.TestResult{
				TestCode: "HGB",
				Value:    "13",
				ReferenceRanges: []reports.ReferenceRange{
					{Gender: "female", LowerBound: pointer.FromAny(12.0), UpperBound: pointer.FromAny(15.5)},
					{Gender: "male", LowerBound: pointer.FromAny(13.5), UpperBound: pointer.FromAny(17.5)},
				},
			}

			rr := evaluation.ResolveRange(result)
			Expect(rr).ToNot(BeNil())
			Expect(rr.Gender).To(Equal("female"))
		})

		It("returns nil when no ranges exist", func() {
			Expect(evaluation.ResolveRange(reports.TestResult{})).To(BeNil())
		})
	})
})
