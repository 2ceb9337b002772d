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
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/lakescan/config"
	"github.com/cardinalhq/lakescan/internal/filescan"
	"github.com/cardinalhq/lakescan/internal/listing"
	"github.com/cardinalhq/lakescan/internal/objectstore"
	"github.com/cardinalhq/lakescan/internal/parquetsource"
	"github.com/cardinalhq/lakescan/internal/physicalplan"
)

// tableFlags are shared by the commands that scan a table.
type tableFlags struct {
	location         string
	partitions       []string
	columns          []string
	limit            int64
	targetPartitions int
	noRepartition    bool
}

func addTableFlags(c *cobra.Command, f *tableFlags) {
	c.Flags().StringVar(&f.location, "table", "", "Table location, e.g. s3://bucket/path or file:///data/table")
	c.Flags().StringSliceVar(&f.partitions, "partition", nil, "Partition column as name:type, outermost first (repeatable)")
	c.Flags().StringSliceVar(&f.columns, "columns", nil, "Columns to read, in output order (default all)")
	c.Flags().Int64Var(&f.limit, "limit", 0, "Maximum number of rows to return (0 for no limit)")
	c.Flags().IntVar(&f.targetPartitions, "target-partitions", 0, "Override the configured number of scan partitions")
	c.Flags().BoolVar(&f.noRepartition, "no-repartition", false, "Do not split files into byte ranges")
	if err := c.MarkFlagRequired("table"); err != nil {
		panic(fmt.Errorf("failed to mark table flag as required: %w", err))
	}
}

var partitionTypes = map[string]arrow.DataType{
	"string":  arrow.BinaryTypes.String,
	"bool":    arrow.FixedWidthTypes.Boolean,
	"int8":    arrow.PrimitiveTypes.Int8,
	"int16":   arrow.PrimitiveTypes.Int16,
	"int32":   arrow.PrimitiveTypes.Int32,
	"int64":   arrow.PrimitiveTypes.Int64,
	"uint8":   arrow.PrimitiveTypes.Uint8,
	"uint16":  arrow.PrimitiveTypes.Uint16,
	"uint32":  arrow.PrimitiveTypes.Uint32,
	"uint64":  arrow.PrimitiveTypes.Uint64,
	"float64": arrow.PrimitiveTypes.Float64,
	"date":    arrow.FixedWidthTypes.Date32,
}

// parsePartitionCols turns "name:type" specs into dictionary encoded
// partition columns. The type defaults to string.
func parsePartitionCols(specs []string) ([]filescan.PartitionColumn, error) {
	cols := make([]filescan.PartitionColumn, 0, len(specs))
	for _, spec := range specs {
		name, typeName, found := strings.Cut(spec, ":")
		if !found {
			typeName = "string"
		}
		if name == "" {
			return nil, fmt.Errorf("partition column %q has no name", spec)
		}
		dt, ok := partitionTypes[strings.ToLower(typeName)]
		if !ok {
			return nil, fmt.Errorf("partition column %q has unsupported type %q", name, typeName)
		}
		cols = append(cols, filescan.PartitionColumn{Name: name, Type: filescan.WrapPartitionTypeInDict(dt)})
	}
	return cols, nil
}

// columnIndices resolves column names against the table schema.
func columnIndices(schema *arrow.Schema, names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]int, len(names))
	for i, name := range names {
		idx := schema.FieldIndices(name)
		if len(idx) == 0 {
			return nil, fmt.Errorf("table has no column %q", name)
		}
		out[i] = idx[0]
	}
	return out, nil
}

// openedTable is a listed table and the format reading it. Close releases
// the format's footer cache.
type openedTable struct {
	*listing.Table
	format *parquetsource.Format
}

func (t *openedTable) Close() {
	t.format.Close()
}

func openTable(ctx context.Context, cfg *config.Config, f *tableFlags) (*openedTable, error) {
	storeURL, _, err := objectstore.SplitTableURL(f.location)
	if err != nil {
		return nil, err
	}
	registry := objectstore.NewRegistry()
	if _, err := objectstore.Open(ctx, registry, storeURL, cfg.ObjectStore); err != nil {
		return nil, err
	}

	parts, err := parsePartitionCols(f.partitions)
	if err != nil {
		return nil, err
	}

	listingCfg := cfg.Listing
	if f.targetPartitions > 0 {
		listingCfg.TargetPartitions = f.targetPartitions
	}
	if f.noRepartition {
		listingCfg.Repartition = false
	}

	format := parquetsource.NewFormat(registry, cfg.Parquet)
	table, err := listing.NewTable(ctx, registry, f.location, format, listingCfg, listing.TableOptions{PartitionCols: parts})
	if err != nil {
		format.Close()
		return nil, err
	}
	return &openedTable{Table: table, format: format}, nil
}

// planScan opens the table and plans a scan of the selected columns.
func planScan(ctx context.Context, f *tableFlags) (*openedTable, physicalplan.ExecutionPlan, error) {
	start := time.Now()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	table, err := openTable(ctx, cfg, f)
	if err != nil {
		return nil, nil, err
	}
	projection, err := columnIndices(table.Schema(), f.columns)
	if err != nil {
		table.Close()
		return nil, nil, err
	}
	var limit *int64
	if f.limit > 0 {
		limit = &f.limit
	}
	plan, err := table.Scan(ctx, projection, limit)
	if err != nil {
		table.Close()
		return nil, nil, err
	}
	listDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributeSet(commonAttributes))
	return table, plan, nil
}
