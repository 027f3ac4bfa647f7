package cmd

import (
	"os"

	"github.com/huangsam/ehminer/internal/catalog"
	"github.com/huangsam/ehminer/internal/contract"
	"github.com/spf13/cobra"
)

// catalogCmd groups catalog inspection commands.
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the domain and project catalog",
	Long: `Inspect the catalog that classifies call sites into domains and projects.

The catalog is declared under 'catalog' in the config file, loaded from
--catalog-file, or both (file entries are appended after inline ones).

Subcommands:
  print - Show domains and their projects in registration order`,
}

// catalogPrintCmd prints the resolved catalog.
var catalogPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print domains and projects in registration order",
	Long: `Print the catalog the way ingestion will see it.

Domain and project indexes follow the printed order, which is also the column
order of 'ingest --dump'.

Examples:
  ehminer catalog print --catalog-file catalog.yaml`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		cat, err := catalog.Build(cfg.Catalog, cfg.CatalogFile, cfg.MatchMode, cfg.MaxCapacity)
		if err != nil {
			contract.LogFatal("Failed to build catalog", err)
		}
		if err := cat.Print(os.Stdout); err != nil {
			contract.LogFatal("Failed to print catalog", err)
		}
	},
}
