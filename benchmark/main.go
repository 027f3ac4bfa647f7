// Package main provides a performance benchmarking tool for the ehminer CLI.
// It generates synthetic observation streams, ingests them with different store
// backends and worker counts, and averages several runs per combination,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - ehminer binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for the generated streams, catalog and SQLite store
package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the averaged result of one backend and worker combination.
type BenchmarkResult struct {
	Backend   string
	Workers   int
	Lines     int
	AvgTime   string
	LinesPerS string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir      string
	Timeout      time.Duration
	Runs         int
	Inputs       int
	LinesPer     int
	Domains      []string
	ProjectsPer  int
	Backends     []string
	WorkerCounts []int
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:      os.Args[1],
		Timeout:      5 * time.Minute,
		Runs:         3,
		Inputs:       8,
		LinesPer:     50000,
		Domains:      []string{"kernel", "web", "database", "storage"},
		ProjectsPer:  4,
		Backends:     []string{"none", "sqlite"},
		WorkerCounts: []int{1, 2, 4, 8},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	catalogFile, inputs, err := generateStreams(config)
	if err != nil {
		fmt.Printf("Failed to generate streams: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config, catalogFile, inputs)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the ehminer binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("ehminer"); err != nil {
		return fmt.Errorf("ehminer binary not found in PATH")
	}
	if info, err := os.Stat(config.WorkDir); err != nil || !info.IsDir() {
		return fmt.Errorf("work directory %s not found", config.WorkDir)
	}
	return nil
}

// generateStreams writes a catalog and one observation stream per input. Calls are
// spread across every project so the aggregator sees wide rows.
func generateStreams(config BenchmarkConfig) (catalogFile string, inputs []string, err error) {
	var catalog strings.Builder
	catalog.WriteString("catalog:\n")
	for _, d := range config.Domains {
		fmt.Fprintf(&catalog, "  - domain: %s\n    projects: [", d)
		for p := range config.ProjectsPer {
			if p > 0 {
				catalog.WriteString(", ")
			}
			fmt.Fprintf(&catalog, "%s%d", d, p)
		}
		catalog.WriteString("]\n")
	}
	catalogFile = filepath.Join(config.WorkDir, "catalog.yaml")
	if err := os.WriteFile(catalogFile, []byte(catalog.String()), 0o644); err != nil {
		return "", nil, err
	}

	for i := range config.Inputs {
		path := filepath.Join(config.WorkDir, fmt.Sprintf("stream_%02d.jsonl", i))
		if err := writeStream(config, path, i); err != nil {
			return "", nil, err
		}
		inputs = append(inputs, path)
	}
	return catalogFile, inputs, nil
}

// writeStream writes one unit header followed by call and co-occurrence observations.
func writeStream(config BenchmarkConfig, path string, input int) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	w := bufio.NewWriter(file)
	domain := config.Domains[input%len(config.Domains)]
	project := fmt.Sprintf("%s%d", domain, input%config.ProjectsPer)
	fmt.Fprintf(w, `{"kind":"unit","unit":"/src/%s/%s/unit_%d.c"}`+"\n", domain, project, input)

	for n := range config.LinesPer {
		callName := "fn_" + strconv.Itoa(n%997)
		callLoc := fmt.Sprintf("/src/%s/%s/file_%d.c:%d", domain, project, n%64, n)
		switch n % 4 {
		case 0, 1:
			fmt.Fprintf(w, `{"kind":"call","call_name":%q,"call_loc":%q,"call_def_loc":"/usr/include/lib.h:%d"}`+"\n",
				callName, callLoc, n%997)
		case 2:
			fmt.Fprintf(w, `{"kind":"function_call","call_name":%q,"call_loc":%q,"call_def_loc":"/usr/include/lib.h:%d","call_str":"%s()"}`+"\n",
				callName, callLoc, n%997, callName)
		case 3:
			fmt.Fprintf(w, `{"kind":"prebranch","call_name":%q,"call_loc":%q,"log_name":"log_%d","log_def_loc":"/usr/include/log.h:1"}`+"\n",
				callName, callLoc, n%7)
		}
	}
	return w.Flush()
}

// runBenchmarks executes every backend and worker combination
func runBenchmarks(config BenchmarkConfig, catalogFile string, inputs []string) []BenchmarkResult {
	var results []BenchmarkResult
	totalLines := config.Inputs * (config.LinesPer + 1)

	fmt.Printf("Starting benchmark: %d inputs, %d lines, %v timeout, %d runs\n",
		config.Inputs, totalLines, config.Timeout, config.Runs)

	for _, backend := range config.Backends {
		for _, workers := range config.WorkerCounts {
			fmt.Printf("Running %s backend with %d workers\n", backend, workers)
			times := runBenchmark(config, catalogFile, inputs, backend, workers)

			result := BenchmarkResult{Backend: backend, Workers: workers, Lines: totalLines, AvgTime: "TIMEOUT", LinesPerS: "-"}
			if len(times) > 0 {
				var sum float64
				for _, t := range times {
					sum += t
				}
				avg := sum / float64(len(times))
				result.AvgTime = fmt.Sprintf("%.3fs", avg)
				result.LinesPerS = fmt.Sprintf("%.0f", float64(totalLines)/avg)
			}
			fmt.Printf("  Average: %s (%s lines/s)\n", result.AvgTime, result.LinesPerS)
			results = append(results, result)
		}
	}
	return results
}

// runBenchmark ingests all inputs several times against a fresh store and returns the run times
func runBenchmark(config BenchmarkConfig, catalogFile string, inputs []string, backend string, workers int) []float64 {
	dbFile := filepath.Join(config.WorkDir, "bench.db")

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		_ = os.Remove(dbFile)

		args := []string{
			"ingest",
			"--catalog-file", catalogFile,
			"--store-backend", backend,
			"--store-db-connect", dbFile,
			"--workers", strconv.Itoa(workers),
		}
		args = append(args, inputs...)

		start := time.Now()
		cmd := exec.Command("ehminer", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			} else {
				fmt.Printf("  Run %d failed: %v\n", run, cmdErr)
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
			<-done
		}
	}
	return times
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Ingest completed in") && strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(os.TempDir(), fmt.Sprintf("ehminer_benchmark_%s.csv", timestamp))

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"backend", "workers", "lines", "avg_time", "lines_per_sec"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		if err := writer.Write([]string{r.Backend, strconv.Itoa(r.Workers), strconv.Itoa(r.Lines), r.AvgTime, r.LinesPerS}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, r := range results {
		fmt.Printf("  %-8s workers=%-2d: %s (%s lines/s)\n", r.Backend, r.Workers, r.AvgTime, r.LinesPerS)
	}
}
