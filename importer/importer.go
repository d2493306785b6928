// Package importer drives the ingestion pipeline for a batch of lab
// reports: parse, de-duplicate, trend-analyze, evaluate, persist.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	errors2 "github.com/careloop-org/labresults/errors"
	"github.com/careloop-org/labresults/evaluation"
	"github.com/careloop-org/labresults/parsers"
	"github.com/careloop-org/labresults/patients"
	"github.com/careloop-org/labresults/reports"
	"github.com/careloop-org/labresults/trends"
)

type Batch struct {
	RawData             []byte
	Format              parsers.Format
	PatientId           string
	OrderedByProviderId string
	SourceLabel         string
}

type ItemError struct {
	ExternalReferenceId string `json:"externalReferenceId"`
	Error               string `json:"error"`
}

// Result is the per-batch outcome. Total counts every parsed report
// including duplicates and failures; Processed counts successful saves only.
type Result struct {
	Saved     []*reports.LabReport `json:"saved"`
	Errors    []ItemError          `json:"errors"`
	Total     int                  `json:"total"`
	Processed int                  `json:"processed"`
}

type Importer interface {
	// ImportBatch parses the payload and processes each resulting report
	// with best-effort semantics: an unknown patient or an unparseable
	// payload fails the whole batch, while failures of individual reports
	// are recorded and do not abort the remaining items.
	ImportBatch(ctx context.Context, batch Batch) (*Result, error)
}

func NewImporter(repo reports.Repository, patientsService patients.Service, analyzer trends.Analyzer, logger *zap.SugaredLogger) Importer {
	return &importer{
		repo:     repo,
		patients: patientsService,
		analyzer: analyzer,
		logger:   logger,
	}
}

type importer struct {
	repo     reports.Repository
	patients patients.Service
	analyzer trends.Analyzer
	logger   *zap.SugaredLogger
}

func (i *importer) ImportBatch(ctx context.Context, batch Batch) (*Result, error) {
	exists, err := i.patients.Exists(ctx, batch.PatientId)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: patient %s", errors2.NotFound, batch.PatientId)
	}

	parsed, err := parsers.Parse(batch.Format, batch.RawData, batch.SourceLabel, time.Now())
	if err != nil {
		return nil, err
	}

	result := &Result{
		Saved:  make([]*reports.LabReport, 0, len(parsed)),
		Errors: make([]ItemError, 0),
		Total:  len(parsed),
	}

	// Reports are processed strictly in parsed order. A later-dated report
	// in the same batch must see its earlier-dated siblings as history, so
	// the per-report trend lookups cannot overlap with a sibling's save.
	for _, report := range parsed {
		i.processReport(ctx, batch, report, result)
	}

	i.logger.Infow("lab report batch imported",
		"patientId", batch.PatientId,
		"source", batch.SourceLabel,
		"format", batch.Format,
		"total", result.Total,
		"processed", result.Processed,
		"errors", len(result.Errors),
	)

	return result, nil
}

func (i *importer) processReport(ctx context.Context, batch Batch, report reports.LabReport, result *Result) {
	if report.ExternalReferenceId == "" {
		report.ExternalReferenceId = uuid.NewString()
	}
	if report.LabId == "" {
		report.LabId = batch.SourceLabel
	}

	existing, err := i.repo.FindDuplicate(ctx, batch.PatientId, report.LabId, report.ExternalReferenceId)
	if err != nil {
		i.recordError(result, report.ExternalReferenceId, err)
		return
	}
	if existing != nil {
		i.logger.Infow("skipping already imported lab report",
			"patientId", batch.PatientId,
			"labId", report.LabId,
			"externalReferenceId", report.ExternalReferenceId,
		)
		return
	}

	report.PatientId = batch.PatientId
	report.OrderedByProviderId = batch.OrderedByProviderId
	if report.IntegrationSource == "" {
		report.IntegrationSource = batch.Format.IntegrationSource()
	}
	if report.RawData == "" {
		report.RawData = string(batch.RawData)
	}

	if err := i.analyzer.Analyze(ctx, &report); err != nil {
		i.recordError(result, report.ExternalReferenceId, err)
		return
	}
	evaluation.Evaluate(&report)

	saved, err := i.repo.Create(ctx, report)
	if err != nil {
		// A concurrent import may have won the unique-index race; that is
		// a duplicate, not a failure.
		if errors.Is(err, reports.ErrDuplicate) {
			i.logger.Infow("lab report was imported concurrently",
				"patientId", batch.PatientId,
				"externalReferenceId", report.ExternalReferenceId,
			)
			return
		}
		i.recordError(result, report.ExternalReferenceId, err)
		return
	}

	result.Saved = append(result.Saved, saved)
	result.Processed++
}

func (i *importer) recordError(result *Result, externalReferenceId string, err error) {
	i.logger.Errorw("unable to import lab report",
		"externalReferenceId", externalReferenceId,
		"error", err,
	)
	result.Errors = append(result.Errors, ItemError{
		ExternalReferenceId: externalReferenceId,
		Error:               err.Error(),
	})
}
