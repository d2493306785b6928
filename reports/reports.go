package reports

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/careloop-org/labresults/store"
)

var ErrNotFound = errors.New("lab report not found")
var ErrDuplicate = errors.New("lab report was already imported")

//go:generate mockgen --build_flags=--mod=mod -source=./reports.go -destination=./test/mock_repository.go -package test MockRepository

type Repository interface {
	Get(ctx context.Context, id string) (*LabReport, error)
	// FindDuplicate returns the report previously imported with the same
	// (patientId, labId, externalReferenceId) triple, or nil when none exists.
	FindDuplicate(ctx context.Context, patientId, labId, externalReferenceId string) (*LabReport, error)
	// FindLatestBefore returns the most recent report for the patient that
	// contains a result for the given test code and was collected strictly
	// before the given time. Reports sharing a collection date are
	// tie-broken by descending object id, so later imports win.
	FindLatestBefore(ctx context.Context, patientId, testCode string, before time.Time) (*LabReport, error)
	Create(ctx context.Context, report LabReport) (*LabReport, error)
	List(ctx context.Context, filter *Filter, pagination store.Pagination) (*ListResult, error)
	TestHistory(ctx context.Context, patientId, testCode string, pagination store.Pagination) ([]*TestHistoryEntry, error)
}

type IntegrationSource string

const (
	SourceHL7    IntegrationSource = "hl7"
	SourceFHIR   IntegrationSource = "fhir"
	SourceManual IntegrationSource = "manual"
	SourceAPI    IntegrationSource = "api"
)

type LabReport struct {
	Id                   *primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	PatientId            string               `bson:"patientId" json:"patientId"`
	OrderedByProviderId  string               `bson:"orderedByProviderId" json:"orderedByProviderId"`
	ExternalReferenceId  string               `bson:"externalReferenceId" json:"externalReferenceId"`
	LabId                string               `bson:"labId" json:"labId"`
	CollectionDate       *time.Time           `bson:"collectionDate,omitempty" json:"collectionDate,omitempty"`
	ReportDate           *time.Time           `bson:"reportDate,omitempty" json:"reportDate,omitempty"`
	PanelCode            *string              `bson:"panelCode,omitempty" json:"panelCode,omitempty"`
	PanelName            *string              `bson:"panelName,omitempty" json:"panelName,omitempty"`
	LabFacilityName      *string              `bson:"labFacilityName,omitempty" json:"labFacilityName,omitempty"`
	IntegrationSource    IntegrationSource    `bson:"integrationSource" json:"integrationSource"`
	Results              []TestResult         `bson:"results" json:"results"`
	TrendAnalysis        []TrendEntry         `bson:"trendAnalysis,omitempty" json:"trendAnalysis,omitempty"`
	ClinicalSignificance ClinicalSignificance `bson:"clinicalSignificance" json:"clinicalSignificance"`
	RawData              string               `bson:"rawData,omitempty" json:"rawData,omitempty"`
	CreatedTime          time.Time            `bson:"createdTime,omitempty" json:"createdTime,omitempty"`
}

// FindResult returns the first result matching the given test code.
func (r *LabReport) FindResult(testCode string) *TestResult {
	for i := range r.Results {
		if r.Results[i].TestCode == testCode {
			return &r.Results[i]
		}
	}
	return nil
}

func (r *LabReport) FindTrendEntry(testCode string) *TrendEntry {
	for i := range r.TrendAnalysis {
		if r.TrendAnalysis[i].TestCode == testCode {
			return &r.TrendAnalysis[i]
		}
	}
	return nil
}

type TestResult struct {
	TestCode        string           `bson:"testCode" json:"testCode"`
	TestName        string           `bson:"testName" json:"testName"`
	Value           string           `bson:"value" json:"value"`
	Units           *string          `bson:"units,omitempty" json:"units,omitempty"`
	Status          *string          `bson:"status,omitempty" json:"status,omitempty"`
	ReferenceRanges []ReferenceRange `bson:"referenceRanges,omitempty" json:"referenceRanges,omitempty"`
	AbnormalFlags   []AbnormalFlag   `bson:"abnormalFlags,omitempty" json:"abnormalFlags,omitempty"`
	Notes           *string          `bson:"notes,omitempty" json:"notes,omitempty"`
}

// NumericValue parses the textual value as a number. Trend and abnormality
// classification only apply to results where this succeeds.
func (t *TestResult) NumericValue() (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func (t *TestResult) HasCriticalFlag() bool {
	for _, flag := range t.AbnormalFlags {
		if flag.Flag == FlagCritical {
			return true
		}
	}
	return false
}

type ReferenceRange struct {
	Gender     string   `bson:"gender" json:"gender"`
	LowerBound *float64 `bson:"lowerBound,omitempty" json:"lowerBound,omitempty"`
	UpperBound *float64 `bson:"upperBound,omitempty" json:"upperBound,omitempty"`
	Units      *string  `bson:"units,omitempty" json:"units,omitempty"`
}

type FlagCode string

const (
	FlagHigh     FlagCode = "H"
	FlagLow      FlagCode = "L"
	FlagCritical FlagCode = "C"
	FlagAbnormal FlagCode = "A"
	FlagNormal   FlagCode = "N"
)

type Severity string

const (
	SeverityModerate Severity = "moderate"
	SeverityCritical Severity = "critical"
)

type AbnormalFlag struct {
	Flag          FlagCode `bson:"flag" json:"flag"`
	Severity      Severity `bson:"severity" json:"severity"`
	Description   string   `bson:"description,omitempty" json:"description,omitempty"`
	AutoGenerated bool     `bson:"autoGenerated" json:"autoGenerated"`
}

type TrendDirection string

const (
	DirectionNew       TrendDirection = "new"
	DirectionUnchanged TrendDirection = "unchanged"
	DirectionIncreased TrendDirection = "increased"
	DirectionDecreased TrendDirection = "decreased"
)

type Significance string

const (
	SignificanceUndetermined             Significance = "undetermined"
	SignificanceUnchanged                Significance = "unchanged"
	SignificanceMildImprovement          Significance = "mild-improvement"
	SignificanceSignificantImprovement   Significance = "significant-improvement"
	SignificanceMildDeterioration        Significance = "mild-deterioration"
	SignificanceSignificantDeterioration Significance = "significant-deterioration"
)

type TrendEntry struct {
	TestCode         string         `bson:"testCode" json:"testCode"`
	PreviousValue    *float64       `bson:"previousValue,omitempty" json:"previousValue,omitempty"`
	CurrentValue     float64        `bson:"currentValue" json:"currentValue"`
	AbsoluteChange   *float64       `bson:"absoluteChange,omitempty" json:"absoluteChange,omitempty"`
	PercentChange    *float64       `bson:"percentChange,omitempty" json:"percentChange,omitempty"`
	Direction        TrendDirection `bson:"direction" json:"direction"`
	Significance     Significance   `bson:"significance" json:"significance"`
	PreviousTestDate *time.Time     `bson:"previousTestDate,omitempty" json:"previousTestDate,omitempty"`
}

type ClinicalSignificance struct {
	HasCriticalValues bool   `bson:"hasCriticalValues" json:"hasCriticalValues"`
	HasAbnormalValues bool   `bson:"hasAbnormalValues" json:"hasAbnormalValues"`
	Summary           string `bson:"summary" json:"summary"`
}

type Filter struct {
	PatientId    string
	TestCode     *string
	From         *time.Time
	To           *time.Time
	AbnormalOnly bool
	CriticalOnly bool
}

type ListResult struct {
	Reports    []*LabReport
	TotalCount int
}

// TestHistoryEntry is the projection returned by the single-test history
// query: one report's matching result plus the trend computed for it.
type TestHistoryEntry struct {
	ReportId            string         `json:"reportId"`
	ExternalReferenceId string         `json:"externalReferenceId"`
	LabId               string         `json:"labId"`
	CollectionDate      *time.Time     `json:"collectionDate,omitempty"`
	Result              TestResult     `json:"result"`
	Trend               *TrendEntry    `json:"trend,omitempty"`
}
