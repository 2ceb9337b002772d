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

package listing

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakescan/internal/filescan"
	"github.com/cardinalhq/lakescan/internal/objectstore"
	"github.com/cardinalhq/lakescan/internal/parquetsource"
	"github.com/cardinalhq/lakescan/internal/physicalplan"
)

func writeValues(t *testing.T, dir, name string, values []int64) {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{{Name: "v", Type: arrow.PrimitiveTypes.Int64, Nullable: true}}, nil)
	b := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer b.Release()
	b.Field(0).(*array.Int64Builder).AppendValues(values, nil)
	rec := b.NewRecordBatch()
	defer rec.Release()

	var buf bytes.Buffer
	w, err := pqarrow.NewFileWriter(schema, &buf, parquet.NewWriterProperties(parquet.WithMaxRowGroupLength(10)), pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func seq(start, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(start + i)
	}
	return out
}

type fixture struct {
	registry *objectstore.Registry
	format   *parquetsource.Format
	location string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	writeValues(t, dir, "tbl/year=2020/a.parquet", seq(0, 50))
	writeValues(t, dir, "tbl/year=2021/b.parquet", seq(50, 50))
	writeValues(t, dir, "tbl/year=2021/c.parquet", seq(100, 50))
	writeValues(t, dir, "tbl/2022/stray.parquet", seq(1000, 5))
	writeValues(t, dir, "tbl/year=2021/_tmp.parquet", seq(2000, 5))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tbl", "year=2021", "notes.txt"), []byte("x"), 0o644))

	registry := objectstore.NewRegistry()
	registry.Register(objectstore.MustParseURL("file://"), objectstore.NewLocalStore(dir))
	format := parquetsource.NewFormat(registry, parquetsource.DefaultConfig())
	t.Cleanup(format.Close)
	return fixture{registry: registry, format: format, location: "file:///tbl"}
}

func yearCols() []filescan.PartitionColumn {
	return []filescan.PartitionColumn{{Name: "year", Type: filescan.WrapPartitionTypeInDict(arrow.PrimitiveTypes.Int32)}}
}

func collectValues(t *testing.T, plan physicalplan.ExecutionPlan) (values []int64, years map[int32]int) {
	t.Helper()
	batches, err := physicalplan.Collect(context.Background(), plan)
	require.NoError(t, err)
	years = map[int32]int{}
	for _, b := range batches {
		v := b.Column(b.Schema().FieldIndices("v")[0]).(*array.Int64)
		y := b.Column(b.Schema().FieldIndices("year")[0]).(*array.Dictionary)
		dict := y.Dictionary().(*array.Int32)
		for i := range v.Len() {
			values = append(values, v.Value(i))
			years[dict.Value(y.GetValueIndex(i))]++
		}
		b.Release()
	}
	slices.Sort(values)
	return values, years
}

func TestTable_Scan(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	cfg := Config{TargetPartitions: 2}
	table, err := NewTable(ctx, fx.registry, fx.location, fx.format, cfg, TableOptions{PartitionCols: yearCols()})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Schema().NumFields())
	assert.Equal(t, 1, table.FileSchema().NumFields())

	files, err := table.ListFiles(ctx)
	require.NoError(t, err)
	require.Len(t, files, 3)

	plan, err := table.Scan(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.PartitionCount())

	values, years := collectValues(t, plan)
	assert.Equal(t, seq(0, 150), values)
	assert.Equal(t, map[int32]int{2020: 50, 2021: 100}, years)
}

func TestTable_ScanRepartitioned(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	cfg := Config{TargetPartitions: 4, Repartition: true, MinRepartitionSize: 1}
	table, err := NewTable(ctx, fx.registry, fx.location, fx.format, cfg, TableOptions{PartitionCols: yearCols()})
	require.NoError(t, err)

	plan, err := table.Scan(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, plan.PartitionCount())
	for _, groups := range physicalplan.ScanFiles(plan) {
		for _, g := range groups {
			for _, f := range g {
				assert.NotNil(t, f.Range)
			}
		}
	}

	values, years := collectValues(t, plan)
	assert.Equal(t, seq(0, 150), values)
	assert.Equal(t, map[int32]int{2020: 50, 2021: 100}, years)
}

func TestTable_ScanProjectionAndLimit(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	table, err := NewTable(ctx, fx.registry, fx.location, fx.format, Config{TargetPartitions: 1}, TableOptions{PartitionCols: yearCols()})
	require.NoError(t, err)

	limit := int64(7)
	plan, err := table.Scan(ctx, []int{1}, &limit)
	require.NoError(t, err)
	require.Equal(t, 1, plan.Schema().NumFields())
	assert.Equal(t, "year", plan.Schema().Field(0).Name)

	n, err := physicalplan.CountRows(ctx, plan)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = table.Scan(ctx, []int{2}, nil)
	assert.ErrorIs(t, err, filescan.ErrProjectionOutOfBounds)
}

func TestTable_ScanOrderingWithoutRepartition(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeValues(t, dir, "flat/a.parquet", seq(0, 20))
	writeValues(t, dir, "flat/b.parquet", seq(20, 20))

	registry := objectstore.NewRegistry()
	registry.Register(objectstore.MustParseURL("file://"), objectstore.NewLocalStore(dir))
	format := parquetsource.NewFormat(registry, parquetsource.DefaultConfig())
	t.Cleanup(format.Close)

	ordering := []filescan.LexOrdering{{{Column: filescan.Column{Name: "v", Index: 0}}}}

	tests := []struct {
		name         string
		partitions   int
		wantOrdering bool
	}{
		{"two files in one group", 1, false},
		{"one file per group", 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{TargetPartitions: tt.partitions, Repartition: false}
			table, err := NewTable(ctx, registry, "file:///flat", format, cfg, TableOptions{OutputOrdering: ordering})
			require.NoError(t, err)

			plan, err := table.Scan(ctx, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.partitions, plan.PartitionCount())
			if tt.wantOrdering {
				assert.Equal(t, ordering, plan.OutputOrdering())
			} else {
				assert.Empty(t, plan.OutputOrdering())
			}
		})
	}
}

func TestTable_ScanStatisticsDescribeFileSchema(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	table, err := NewTable(ctx, fx.registry, fx.location, fx.format, Config{TargetPartitions: 1}, TableOptions{PartitionCols: yearCols()})
	require.NoError(t, err)

	plan, err := table.Scan(ctx, nil, nil)
	require.NoError(t, err)
	scanner, ok := plan.(physicalplan.FileScanner)
	require.True(t, ok)

	cfg := scanner.FileScanConfig()
	assert.Len(t, cfg.Statistics.ColumnStatistics, table.FileSchema().NumFields())
	assert.Len(t, plan.Statistics().ColumnStatistics, table.Schema().NumFields())
}

func TestNewTable_Errors(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	dup := append(yearCols(), yearCols()...)
	_, err := NewTable(ctx, fx.registry, fx.location, fx.format, DefaultConfig(), TableOptions{PartitionCols: dup})
	assert.ErrorContains(t, err, `duplicate partition column "year"`)

	clash := []filescan.PartitionColumn{{Name: "v", Type: arrow.PrimitiveTypes.Int64}}
	_, err = NewTable(ctx, fx.registry, fx.location, fx.format, DefaultConfig(), TableOptions{PartitionCols: clash})
	assert.ErrorContains(t, err, "also a file column")

	_, err = NewTable(ctx, fx.registry, "file:///empty", fx.format, DefaultConfig(), TableOptions{})
	assert.ErrorContains(t, err, "no .parquet files")

	_, err = NewTable(ctx, fx.registry, "s3://bucket/tbl", fx.format, DefaultConfig(), TableOptions{})
	assert.ErrorContains(t, err, "no object store registered")
}
