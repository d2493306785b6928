package command

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/careloop-org/labresults/api"
)

var logLevel string

// Run executes a given function with dependencies supplied by the service DI
// graph. `f` must return an error or nothing.
func Run(f interface{}) error {
	options := append(
		api.Dependencies(),
		fx.NopLogger,
		fx.Invoke(f),
	)

	app := fx.New(options...)
	if err := app.Err(); err != nil {
		return err
	}

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		return err
	}
	return app.Stop(ctx)
}

var rootCmd = &cobra.Command{
	Use:   "labadm",
	Short: "Helper tool to manage imported lab results",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Overwrite zap's log level
		return os.Setenv("LOG_LEVEL", logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "v", "error", "Log Level")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
