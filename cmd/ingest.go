package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/ehminer/core"
	"github.com/huangsam/ehminer/internal/catalog"
	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/internal/outwriter"
	"github.com/huangsam/ehminer/internal/persist"
	"github.com/spf13/cobra"
)

// ingestCmd reads observation streams and records them.
var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Aggregate and persist observation streams",
	Long: `Read newline-delimited JSON observations and record them against the catalog.

Every observation is classified by the location of its call site into a
(domain, project) pair. Calls that fall outside the catalog are dropped and
counted, never guessed.

Inputs are decoded concurrently (--workers) and applied by a single writer,
so the store sees one transaction at a time. Use "-" or no arguments to read
standard input.

Examples:
  # Ingest two analyzer outputs into the default SQLite store
  ehminer ingest --catalog-file catalog.yaml linux.jsonl nginx.jsonl

  # Record only call aggregates and print them afterwards
  ehminer ingest --record calls --dump --store-backend none < obs.jsonl

  # Persist to PostgreSQL (set connection string via env variable)
  EHMINER_STORE_BACKEND=postgresql EHMINER_STORE_DB_CONNECT="..." ehminer ingest obs.jsonl`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := runIngest(); err != nil {
			contract.LogFatal("Failed to ingest observations", err)
		}
	},
}

// runIngest wires the catalog, store and engine together for one run.
func runIngest() error {
	logger := contract.NewLogger(os.Stderr, cfg.LogFormat, cfg.LogLevel)

	cat, err := catalog.Build(cfg.Catalog, cfg.CatalogFile, cfg.MatchMode, cfg.MaxCapacity)
	if err != nil {
		return fmt.Errorf("failed to build catalog: %w", err)
	}

	store, err := persist.NewStore(cfg.StoreBackend, cfg.StoreDBConnect, cfg.LockTimeout, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	inputs, closeInputs, err := openInputs(cfg.Inputs)
	if err != nil {
		return err
	}
	defer closeInputs()

	engine := core.NewEngine(cfg, cat, store, logger)
	start := time.Now()
	ingestErr := core.Ingest(rootCtx, engine, cfg.Workers, inputs...)
	duration := time.Since(start)

	writer := outwriter.NewOutWriter()
	if err := writer.WriteIngestSummary(os.Stderr, engine.Stats(), cfg, duration); err != nil {
		contract.LogWarn("Failed to write ingest summary", err)
	}
	if n := store.Anomalies(); n > 0 {
		logger.Warn("store.integrity", "anomalies", n)
	}
	if ingestErr != nil {
		return ingestErr
	}

	if cfg.Dump {
		return writer.WriteDump(engine.Aggregator().Records(), cat, cfg)
	}
	return nil
}

// openInputs opens every named input. No names, or "-", reads standard input.
func openInputs(names []string) ([]core.Input, func(), error) {
	if len(names) == 0 {
		return []core.Input{{Name: "-", Reader: os.Stdin}}, func() {}, nil
	}

	var files []*os.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	inputs := make([]core.Input, 0, len(names))
	for _, name := range names {
		if name == "-" {
			inputs = append(inputs, core.Input{Name: name, Reader: os.Stdin})
			continue
		}
		f, err := os.Open(name)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("failed to open input %s: %w", name, err)
		}
		files = append(files, f)
		inputs = append(inputs, core.Input{Name: name, Reader: f})
	}
	return inputs, closeAll, nil
}
