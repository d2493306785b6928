package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/careloop-org/labresults/errors"
	"github.com/careloop-org/labresults/importer"
	"github.com/careloop-org/labresults/parsers"
	"github.com/careloop-org/labresults/patients"
	"github.com/careloop-org/labresults/reports"
	"github.com/careloop-org/labresults/store"
)

type ImportRequest struct {
	RawData             json.RawMessage `json:"rawData"`
	Format              string          `json:"format"`
	SourceLabel         string          `json:"sourceLabel"`
	OrderedByProviderId string          `json:"orderedByProviderId"`
}

// ImportReports
// (POST /v1/patients/{patientId}/reports/import)
func (h *Handler) ImportReports(c echo.Context) error {
	request := ImportRequest{}
	if err := c.Bind(&request); err != nil {
		return fmt.Errorf("%w: %v", errors.BadRequest, err)
	}

	format, err := parsers.ParseFormat(request.Format)
	if err != nil {
		return err
	}

	result, err := h.importer.ImportBatch(c.Request().Context(), importer.Batch{
		RawData:             rawPayload(request.RawData),
		Format:              format,
		PatientId:           c.Param("patientId"),
		OrderedByProviderId: request.OrderedByProviderId,
		SourceLabel:         request.SourceLabel,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// ListReports
// (GET /v1/patients/{patientId}/reports)
func (h *Handler) ListReports(c echo.Context) error {
	filter, err := listFilter(c)
	if err != nil {
		return err
	}

	page := pagination(c)
	result, err := h.reports.List(c.Request().Context(), filter, page)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":  result.Reports,
		"total":  result.TotalCount,
		"offset": page.Offset,
		"limit":  page.Limit,
	})
}

// GetTestHistory
// (GET /v1/patients/{patientId}/reports/tests/{testCode})
func (h *Handler) GetTestHistory(c echo.Context) error {
	history, err := h.reports.TestHistory(c.Request().Context(), c.Param("patientId"), c.Param("testCode"), pagination(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": history,
	})
}

// GetPatient
// (GET /v1/patients/{patientId})
func (h *Handler) GetPatient(c echo.Context) error {
	patient, err := h.patients.Get(c.Request().Context(), c.Param("patientId"))
	if stderrors.Is(err, patients.ErrNotFound) {
		return fmt.Errorf("%w: patient %s", errors.NotFound, c.Param("patientId"))
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, patient)
}

// rawPayload unwraps string payloads (hl7 messages arrive as JSON strings)
// and passes structured payloads through verbatim.
func rawPayload(raw json.RawMessage) []byte {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return []byte(asString)
	}
	return raw
}

func listFilter(c echo.Context) (*reports.Filter, error) {
	filter := &reports.Filter{
		PatientId: c.Param("patientId"),
	}

	if testCode := c.QueryParam("testCode"); testCode != "" {
		filter.TestCode = &testCode
	}
	if from := c.QueryParam("from"); from != "" {
		ts, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid from date", errors.BadRequest)
		}
		filter.From = &ts
	}
	if to := c.QueryParam("to"); to != "" {
		ts, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid to date", errors.BadRequest)
		}
		filter.To = &ts
	}
	filter.AbnormalOnly = boolParam(c, "abnormalOnly")
	filter.CriticalOnly = boolParam(c, "criticalOnly")

	return filter, nil
}

func boolParam(c echo.Context, name string) bool {
	value, err := strconv.ParseBool(c.QueryParam(name))
	return err == nil && value
}

func pagination(c echo.Context) store.Pagination {
	page := store.DefaultPagination()
	if offset, err := strconv.Atoi(c.QueryParam("offset")); err == nil && offset >= 0 {
		page.Offset = offset
	}
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil && limit > 0 {
		page.Limit = limit
	}
	return page
}
