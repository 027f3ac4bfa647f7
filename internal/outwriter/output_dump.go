package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/ehminer/internal/catalog"
	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// BuildDumpRenderModel lays records out against the catalog columns. Records must be in
// ID order, as returned by the aggregator.
func BuildDumpRenderModel(records []*schema.CallRecord, cat *catalog.Catalog) *schema.DumpRenderModel {
	model := &schema.DumpRenderModel{
		Domains:  cat.Domains(),
		Projects: make([]string, 0, cat.NumProjects()),
		Calls:    make([]schema.DumpRow, 0, len(records)),
	}
	for i, d := range model.Domains {
		for _, p := range cat.Projects(i) {
			model.Projects = append(model.Projects, d+":"+p)
		}
	}

	for _, r := range records {
		row := schema.DumpRow{
			ID:            r.ID,
			CallName:      r.CallName,
			DefLocation:   r.DefLocation,
			HasOutDef:     r.OutProjectDef,
			IsMultiDef:    r.MultiDef,
			NumDomain:     r.NumDomain,
			NumProject:    r.NumProject,
			NumCallTotal:  r.NumCallTotal,
			DomainCounts:  make([]int, len(model.Domains)),
			ProjectCounts: make([]int, len(model.Projects)),
		}
		for d := range row.DomainCounts {
			row.DomainCounts[d] = r.DomainCount(d)
		}
		for p := range row.ProjectCounts {
			row.ProjectCounts[p] = r.ProjectCount(p)
		}
		model.Calls = append(model.Calls, row)
	}
	return model
}

// PrintDump writes the dump in the configured output format.
func PrintDump(model *schema.DumpRenderModel, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, model)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDumpCSV(w, model)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDumpTable(w, model, cfg)
		}, "Wrote text")
	}
}

// dumpCells returns the row in column order. Flags use the 0/1 labels of earlier dumps.
func dumpCells(row schema.DumpRow, defLocation, outDef, multiDef string) []string {
	cells := []string{
		strconv.Itoa(row.ID),
		row.CallName,
		defLocation,
		outDef,
		multiDef,
		strconv.Itoa(row.NumDomain),
		strconv.Itoa(row.NumProject),
		strconv.Itoa(row.NumCallTotal),
	}
	for _, n := range row.DomainCounts {
		cells = append(cells, strconv.Itoa(n))
	}
	for _, n := range row.ProjectCounts {
		cells = append(cells, strconv.Itoa(n))
	}
	return cells
}

// writeDumpCSV writes the dump with the legacy header names.
func writeDumpCSV(w io.Writer, model *schema.DumpRenderModel) error {
	return writeCSVWithHeader(w, model.Columns(), func(cw *csv.Writer) error {
		for _, row := range model.Calls {
			cells := dumpCells(row, row.DefLocation, contract.FlagLabel(row.HasOutDef), contract.FlagLabel(row.IsMultiDef))
			if err := cw.Write(cells); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		return nil
	})
}

// writeDumpTable generates and writes the human-readable table.
func writeDumpTable(w io.Writer, model *schema.DumpRenderModel, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header(model.Columns())
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	flagLabel := contract.FlagLabel
	callName := func(name string) string { return name }
	if cfg.UseColors {
		flagLabel = contract.ColorFlagLabel
		callName = contract.ColorCallName
	}
	locWidth := GetMaxTableLocationWidth(cfg, len(model.Domains)+len(model.Projects))

	data := make([][]string, 0, len(model.Calls))
	for _, row := range model.Calls {
		row.CallName = callName(row.CallName)
		data = append(data, dumpCells(row,
			contract.TruncatePath(row.DefLocation, locWidth),
			flagLabel(row.HasOutDef), flagLabel(row.IsMultiDef)))
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Tracked %d calls across %d domains and %d projects\n",
		len(model.Calls), len(model.Domains), len(model.Projects))
	return err
}

// PrintIngestSummary writes the ingestion counters of one run.
func PrintIngestSummary(w io.Writer, stats schema.IngestStats, cfg *contract.Config, duration time.Duration) error {
	if cfg.Output == schema.JSONOut {
		return writeJSON(w, stats)
	}
	if _, err := fmt.Fprintf(w, "Read %d lines: %d accepted, %d dropped, %d malformed\n",
		stats.Lines, stats.Accepted, stats.Dropped(), stats.Malformed); err != nil {
		return err
	}
	if stats.Dropped() > 0 {
		if _, err := fmt.Fprintf(w, "Dropped: %d unclassified, %d over capacity, %d persistence failures\n",
			stats.Unclassified, stats.CapacityExceeded, stats.PersistenceFailed); err != nil {
			return err
		}
	}
	if stats.SkippedUnits > 0 || stats.Disabled > 0 {
		if _, err := fmt.Fprintf(w, "Skipped: %d repeated units (%d observations), %d for disabled recorders\n",
			stats.SkippedUnits, stats.Skipped, stats.Disabled); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Ingest completed in %v with %d workers. Store backend: %s\n",
		duration, cfg.Workers, cfg.StoreBackend)
	return err
}
