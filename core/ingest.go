package core

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/huangsam/ehminer/internal/contract"
	"github.com/huangsam/ehminer/schema"
	"golang.org/x/sync/errgroup"
)

// maxLineSize bounds one observation line. Branch calls carry source text, so lines can
// be far longer than bufio's default.
const maxLineSize = 64 * 1024 * 1024

// Input is one observation stream and the name used for it in diagnostics.
type Input struct {
	Name   string
	Reader io.Reader
}

// decoded is one line of an input, either an observation or the reason it is unusable.
type decoded struct {
	input int
	line  int
	obs   schema.Observation
	err   error
}

// Ingest feeds every input to engine. With several inputs and workers > 1 the inputs are
// decoded concurrently and funnelled to a single writer, so the engine is never called
// from two goroutines. Lines of one input are applied in order.
func Ingest(ctx context.Context, engine *Engine, workers int, inputs ...Input) error {
	if workers <= 1 || len(inputs) <= 1 {
		for i, in := range inputs {
			st := &streamState{}
			err := decodeLines(ctx, i, in.Reader, func(d decoded) error {
				engine.applyDecoded(st, inputs, d)
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", in.Name, err)
			}
		}
		return nil
	}

	lines := make(chan decoded, 1024)

	// Single writer
	done := make(chan struct{})
	streams := make([]streamState, len(inputs))
	go func() {
		defer close(done)
		for d := range lines {
			engine.applyDecoded(&streams[d.input], inputs, d)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, in := range inputs {
		g.Go(func() error {
			err := decodeLines(gctx, i, in.Reader, func(d decoded) error {
				select {
				case lines <- d:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", in.Name, err)
			}
			return nil
		})
	}

	err := g.Wait()
	close(lines)
	<-done
	return err
}

// decodeLines scans r line by line and hands every non-blank line to emit.
func decodeLines(ctx context.Context, input int, r io.Reader, emit func(decoded) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		d := decoded{input: input, line: lineNo}
		if err := json.Unmarshal(raw, &d.obs); err != nil {
			d.err = fmt.Errorf("%w: %w", contract.ErrMalformedObservation, err)
		}
		if err := emit(d); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// applyDecoded counts one line and applies it to the stream it came from.
func (e *Engine) applyDecoded(st *streamState, inputs []Input, d decoded) {
	e.stats.Lines++
	if d.err != nil {
		e.stats.Malformed++
		e.logger.Warn("observe.malformed", "input", inputs[d.input].Name, "line", d.line, "error", d.err)
		return
	}
	_ = e.apply(st, d.obs)
}
