package api

import (
	"go.uber.org/fx"

	"github.com/careloop-org/labresults/importer"
	"github.com/careloop-org/labresults/patients"
	"github.com/careloop-org/labresults/reports"
)

type Handler struct {
	importer importer.Importer
	reports  reports.Repository
	patients patients.Service
}

type Params struct {
	fx.In

	Importer importer.Importer
	Reports  reports.Repository
	Patients patients.Service
}

func NewHandler(p Params) *Handler {
	return &Handler{
		importer: p.Importer,
		reports:  p.Reports,
		patients: p.Patients,
	}
}
