package command

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/careloop-org/labresults/importer"
	"github.com/careloop-org/labresults/parsers"
	"github.com/careloop-org/labresults/pointer"
	"github.com/careloop-org/labresults/reports"
	"github.com/careloop-org/labresults/store"
)

var (
	patientId  string
	providerId string
	source     string
	format     string
	file       string
	limit      int
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Manage lab reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored lab reports for a patient",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(listReports) },
}

var reportsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a lab payload file for a patient",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(importReports) },
}

func listReports(repo reports.Repository) error {
	page := store.DefaultPagination().WithLimit(limit)
	result, err := repo.List(context.TODO(), &reports.Filter{PatientId: patientId}, page)
	if err != nil {
		return err
	}

	for _, report := range result.Reports {
		id := ""
		if report.Id != nil {
			id = report.Id.Hex()
		}
		collected := ""
		if report.CollectionDate != nil {
			collected = report.CollectionDate.Format("2006-01-02")
		}
		fmt.Printf("%s %s %s %s\n", id, collected, pointer.ToString(report.PanelName), report.ClinicalSignificance.Summary)
	}
	fmt.Printf("Found %v reports\n", result.TotalCount)

	return nil
}

func importReports(imp importer.Importer) error {
	parsedFormat, err := parsers.ParseFormat(format)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "unable to read payload file")
	}

	result, err := imp.ImportBatch(context.TODO(), importer.Batch{
		RawData:             raw,
		Format:              parsedFormat,
		PatientId:           patientId,
		OrderedByProviderId: providerId,
		SourceLabel:         source,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Imported %v of %v reports\n", result.Processed, result.Total)
	for _, itemError := range result.Errors {
		fmt.Printf("error importing %s: %s\n", itemError.ExternalReferenceId, itemError.Error)
	}

	return nil
}

func init() {
	reportsListCmd.Flags().StringVar(&patientId, "patient", "", "Patient Id")
	reportsListCmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of reports to list")
	_ = reportsListCmd.MarkFlagRequired("patient")

	reportsImportCmd.Flags().StringVar(&patientId, "patient", "", "Patient Id")
	reportsImportCmd.Flags().StringVar(&providerId, "provider", "", "Ordering Provider Id")
	reportsImportCmd.Flags().StringVar(&source, "source", "", "Source Lab Label")
	reportsImportCmd.Flags().StringVar(&format, "format", "hl7", "Payload Format (hl7, fhir or manual)")
	reportsImportCmd.Flags().StringVar(&file, "file", "", "Payload File")
	_ = reportsImportCmd.MarkFlagRequired("patient")
	_ = reportsImportCmd.MarkFlagRequired("file")

	reportsCmd.AddCommand(reportsListCmd)
	reportsCmd.AddCommand(reportsImportCmd)
	rootCmd.AddCommand(reportsCmd)
}
