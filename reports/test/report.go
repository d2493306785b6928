package test

import (
	"strconv"
	"time"

	"github.com/careloop-org/labresults/pointer"
	"github.com/careloop-org/labresults/reports"
	"github.com/careloop-org/labresults/test"
)

func RandomReport() reports.LabReport {
	collected := test.Faker.Time().Time(time.Now().Add(-24 * time.Hour))
	return reports.LabReport{
		PatientId:           test.Faker.UUID().V4(),
		OrderedByProviderId: test.Faker.UUID().V4(),
		ExternalReferenceId: test.Faker.UUID().V4(),
		LabId:               test.Faker.Company().Name(),
		CollectionDate:      &collected,
		PanelCode:           pointer.FromAny("CMP"),
		PanelName:           pointer.FromAny("Comprehensive Metabolic Panel"),
		IntegrationSource:   reports.SourceHL7,
		Results: []reports.TestResult{
			NumericResult("GLU", "Glucose", 70+test.Rand.Float64()*60, 70, 100),
		},
	}
}

func NumericResult(code, name string, value, lower, upper float64) reports.TestResult {
	return reports.TestResult{
		TestCode: code,
		TestName: name,
		Value:    strconv.FormatFloat(value, 'f', -1, 64),
		Units:    pointer.FromAny("mg/dL"),
		ReferenceRanges: []reports.ReferenceRange{
			{
				Gender:     "all",
				LowerBound: &lower,
				UpperBound: &upper,
				Units:      pointer.FromAny("mg/dL"),
			},
		},
	}
}
