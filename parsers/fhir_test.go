package parsers_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gstruct"

	"github.com/careloop-org/labresults/errors"
	"github.com/careloop-org/labresults/parsers"
	"github.com/careloop-org/labresults/reports"
	"github.com/careloop-org/labresults/test"
)

var _ = Describe("FHIR bundle parser", func() {
	var importTime time.Time

	BeforeEach(func() {
		importTime = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	})

	parseFixture := func(path string) []reports.LabReport {
		raw, err := test.LoadFixture(path)
		Expect(err).ToNot(HaveOccurred())

		parsed, err := parsers.Parse(parsers.FormatFHIR, raw, "labcorp", importTime)
		Expect(err).ToNot(HaveOccurred())
		return parsed
	}

	Describe("bundles with diagnostic reports", func() {
		It("builds one report per diagnostic report entry", func() {
			parsed := parseFixture("test/fixtures/bundle.json")
			Expect(parsed).To(HaveLen(1))

			report := parsed[0]
			Expect(report.LabId).To(Equal("labcorp"))
			Expect(report.IntegrationSource).To(Equal(reports.SourceFHIR))
			Expect(report.ExternalReferenceId).To(Equal("FHIR-ORD-1"))
			Expect(report.PanelCode).To(gstruct.PointTo(Equal("57698-3")))
			Expect(report.PanelName).To(gstruct.PointTo(Equal("Lipid panel with direct LDL")))
			Expect(report.LabFacilityName).To(gstruct.PointTo(Equal("LabCorp Seattle")))
			Expect(report.CollectionDate).ToNot(BeNil())
			Expect(report.CollectionDate.UTC()).To(Equal(time.Date(2024, 2, 1, 8, 30, 0, 0, time.UTC)))
			Expect(report.ReportDate).ToNot(BeNil())
			Expect(report.Results).To(HaveLen(2))
		})

		It("resolves referenced observations into results", func() {
			report := parseFixture("test/fixtures/bundle.json")[0]

			hdl := report.Results[0]
			Expect(hdl.TestCode).To(Equal("2085-9"))
			Expect(hdl.TestName).To(Equal("Cholesterol in HDL"))
			Expect(hdl.Value).To(Equal("62"))
			Expect(hdl.Units).To(gstruct.PointTo(Equal("mg/dL")))
			Expect(hdl.Status).To(gstruct.PointTo(Equal("final")))
			Expect(hdl.Notes).To(gstruct.PointTo(Equal("Fasting specimen; Verified by repeat analysis")))
		})

		It("carries per-sex reference range applicability", func() {
			hdl := parseFixture("test/fixtures/bundle.json")[0].Results[0]

			Expect(hdl.ReferenceRanges).To(HaveLen(2))
			Expect(hdl.ReferenceRanges[0].Gender).To(Equal("female"))
			Expect(hdl.ReferenceRanges[0].LowerBound).To(gstruct.PointTo(Equal(50.0)))
			Expect(hdl.ReferenceRanges[1].Gender).To(Equal("all"))
			Expect(hdl.ReferenceRanges[1].LowerBound).To(gstruct.PointTo(Equal(40.0)))
		})

		It("maps interpretation codes to abnormal flags", func() {
			report := parseFixture("test/fixtures/bundle.json")[0]

			hdl := report.Results[0]
			Expect(hdl.AbnormalFlags).To(HaveLen(1))
			Expect(hdl.AbnormalFlags[0].Flag).To(Equal(reports.FlagHigh))
			Expect(hdl.AbnormalFlags[0].Severity).To(Equal(reports.SeverityModerate))

			potassium := report.Results[1]
			Expect(potassium.AbnormalFlags).To(HaveLen(1))
			Expect(potassium.AbnormalFlags[0].Flag).To(Equal(reports.FlagCritical))
			Expect(potassium.AbnormalFlags[0].Severity).To(Equal(reports.SeverityCritical))
		})
	})

	Describe("bundles with observations only", func() {
		It("synthesizes one report per calendar date", func() {
			parsed := parseFixture("test/fixtures/observations_only.json")
			Expect(parsed).To(HaveLen(2))

			Expect(parsed[0].CollectionDate).ToNot(BeNil())
			Expect(parsed[0].CollectionDate.Format("2006-01-02")).To(Equal("2024-03-01"))
			Expect(parsed[0].Results).To(HaveLen(2))

			Expect(parsed[1].CollectionDate.Format("2006-01-02")).To(Equal("2024-03-02"))
			Expect(parsed[1].Results).To(HaveLen(1))
			Expect(parsed[1].Results[0].Value).To(Equal("hemolyzed"))
		})

		It("generates deterministic reference ids for a fixed import time", func() {
			first := parseFixture("test/fixtures/observations_only.json")
			second := parseFixture("test/fixtures/observations_only.json")

			Expect(first[0].ExternalReferenceId).ToNot(BeEmpty())
			Expect(first[0].ExternalReferenceId).To(Equal(second[0].ExternalReferenceId))
			Expect(first[0].ExternalReferenceId).ToNot(Equal(first[1].ExternalReferenceId))
		})

		It("is deterministic for identical input", func() {
			first := parseFixture("test/fixtures/observations_only.json")
			second := parseFixture("test/fixtures/observations_only.json")
			Expect(first).To(Equal(second))
		})
	})

	Describe("invalid payloads", func() {
		It("rejects payloads that are not bundles", func() {
			_, err := parsers.Parse(parsers.FormatFHIR, []byte(`{"resourceType":"Patient"}`), "labcorp", importTime)
			Expect(err).To(MatchError(errors.BadRequest))
		})

		It("rejects payloads that are not json", func() {
			_, err := parsers.Parse(parsers.FormatFHIR, []byte(`MSH|^~\&|`), "labcorp", importTime)
			Expect(err).To(MatchError(errors.BadRequest))
		})
	})
})
