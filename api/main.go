package api

import (
	"go.uber.org/fx"

	"github.com/careloop-org/labresults/config"
	"github.com/careloop-org/labresults/importer"
	"github.com/careloop-org/labresults/logger"
	"github.com/careloop-org/labresults/patients"
	"github.com/careloop-org/labresults/reports"
	"github.com/careloop-org/labresults/store"
	"github.com/careloop-org/labresults/trends"
)

// Dependencies is the service object graph without the invocations that
// start the http server, so one-shot tools can reuse it.
func Dependencies() []fx.Option {
	return []fx.Option{
		fx.Provide(
			logger.NewProductionLogger,
			logger.Suggar,
			config.NewConfig,
			store.NewConfig,
			store.GetConnectionString,
			store.NewClient,
			store.NewDatabase,
			patients.NewRepository,
			patients.NewService,
			reports.NewRepository,
			trends.NewAnalyzer,
			importer.NewImporter,
			NewHealthCheck,
			NewHandler,
			NewServer,
		),
	}
}

func MainLoop() {
	options := append(
		Dependencies(),
		fx.Invoke(SetReady),
		fx.Invoke(Start),
	)
	fx.New(options...).Run()
}
