package parsers_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/careloop-org/labresults/errors"
	"github.com/careloop-org/labresults/parsers"
	"github.com/careloop-org/labresults/reports"
)

var _ = Describe("Manual passthrough", func() {
	importTime := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

	It("wraps a single canonical report in a batch", func() {
		raw := []byte(`{"externalReferenceId":"MAN-1","results":[{"testCode":"GLU","testName":"Glucose","value":"95"}]}`)

		parsed, err := parsers.Parse(parsers.FormatManual, raw, "clinic-entry", importTime)
		Expect(err).ToNot(HaveOccurred())
		Expect(parsed).To(HaveLen(1))
		Expect(parsed[0].ExternalReferenceId).To(Equal("MAN-1"))
		Expect(parsed[0].LabId).To(Equal("clinic-entry"))
		Expect(parsed[0].IntegrationSource).To(Equal(reports.SourceManual))
		Expect(parsed[0].Results).To(HaveLen(1))
	})

	It("accepts an array of canonical reports", func() {
		raw := []byte(`[{"externalReferenceId":"MAN-1","results":[]},{"externalReferenceId":"MAN-2","results":[]}]`)

		parsed, err := parsers.Parse(parsers.FormatManual, raw, "clinic-entry", importTime)
		Expect(err).ToNot(HaveOccurred())
		Expect(parsed).To(HaveLen(2))
	})

	It("rejects payloads that are not json", func() {
		_, err := parsers.Parse(parsers.FormatManual, []byte("not json"), "clinic-entry", importTime)
		Expect(err).To(MatchError(errors.BadRequest))
	})

	It("rejects unknown formats", func() {
		_, err := parsers.ParseFormat("csv")
		Expect(err).To(MatchError(errors.BadRequest))
	})
})
