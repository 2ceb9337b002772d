// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/cardinalhq/lakescan/config"
	"github.com/cardinalhq/lakescan/internal/idgen"
	"github.com/cardinalhq/lakescan/internal/logctx"
	"github.com/cardinalhq/lakescan/internal/memtable"
	"github.com/cardinalhq/lakescan/internal/physicalplan"
	"github.com/cardinalhq/lakescan/internal/prettyprint"
)

type scanFlags struct {
	tableFlags
	count    bool
	inMemory bool
}

func init() {
	var flags scanFlags
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a table and print its rows",
		RunE: func(c *cobra.Command, _ []string) error {
			doneCtx, doneFx, err := setupTelemetry(config.ServiceName, nil)
			if err != nil {
				return fmt.Errorf("failed to setup telemetry: %w", err)
			}
			defer func() {
				_ = doneFx()
			}()

			return runScan(doneCtx, c.OutOrStdout(), &flags)
		},
	}
	addTableFlags(cmd, &flags.tableFlags)
	cmd.Flags().BoolVar(&flags.count, "count", false, "Print only the number of rows")
	cmd.Flags().BoolVar(&flags.inMemory, "in-memory", false, "Load the scan into an in-memory table and scan that instead")
	rootCmd.AddCommand(cmd)
}

func runScan(ctx context.Context, w io.Writer, flags *scanFlags) (err error) {
	scanID := idgen.NewScanID()
	ctx = logctx.WithScanID(ctx, scanID)
	ctx, span := tracer.Start(ctx, "lakescan.scan", trace.WithAttributes(
		attribute.String("scanID", scanID),
		attribute.String("table", flags.location),
	))
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		scanDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributeSet(commonAttributes))
	}()

	table, plan, err := planScan(ctx, &flags.tableFlags)
	if err != nil {
		return err
	}
	defer table.Close()

	if flags.inMemory {
		mem, err := memtable.Load(ctx, plan, nil)
		if err != nil {
			return fmt.Errorf("failed to load table into memory: %w", err)
		}
		defer mem.Release()
		logctx.FromContext(ctx).Debug("Scanning in-memory copy", slog.Int64("rows", mem.NumRows()))
		plan, err = mem.Scan(ctx, nil, nil)
		if err != nil {
			return err
		}
	}

	if flags.count {
		n, err := physicalplan.CountRows(ctx, plan)
		if err != nil {
			return err
		}
		if flags.limit > 0 {
			n = min(n, flags.limit)
		}
		scanRowsCounter.Add(ctx, n, metric.WithAttributeSet(commonAttributes))
		fmt.Fprintln(w, n)
		return nil
	}

	batches, err := physicalplan.Collect(ctx, plan)
	if err != nil {
		return err
	}
	batches = truncate(batches, flags.limit)
	defer func() {
		for _, b := range batches {
			b.Release()
		}
	}()

	var rows int64
	for _, b := range batches {
		rows += b.NumRows()
	}
	scanRowsCounter.Add(ctx, rows, metric.WithAttributeSet(commonAttributes))
	prettyprint.Write(w, plan.Schema(), batches)
	return nil
}

// truncate keeps the first limit rows of batches. The limit of a scan applies
// to each partition, so the combined output can exceed it.
func truncate(batches []arrow.RecordBatch, limit int64) []arrow.RecordBatch {
	if limit <= 0 {
		return batches
	}
	for i, b := range batches {
		if limit <= 0 {
			for _, rest := range batches[i:] {
				rest.Release()
			}
			return batches[:i]
		}
		if b.NumRows() > limit {
			batches[i] = b.NewSlice(0, limit)
			b.Release()
		}
		limit -= batches[i].NumRows()
	}
	return batches
}
