// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"time"

	"github.com/huangsam/ehminer/internal/catalog"
	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteDump prints the per-call statistics using the configured output format.
func (ow *OutWriter) WriteDump(records []*schema.CallRecord, cat *catalog.Catalog, cfg *contract.Config) error {
	return PrintDump(BuildDumpRenderModel(records, cat), cfg)
}

// WriteIngestSummary prints what happened to the observations of one run.
func (ow *OutWriter) WriteIngestSummary(w io.Writer, stats schema.IngestStats, cfg *contract.Config, duration time.Duration) error {
	return PrintIngestSummary(w, stats, cfg, duration)
}
