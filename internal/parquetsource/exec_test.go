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

package parquetsource

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
	"github.com/apache/arrow-go/v18/arrow/scalar"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakescan/internal/filescan"
	"github.com/cardinalhq/lakescan/internal/objectstore"
	"github.com/cardinalhq/lakescan/internal/physicalplan"
)

var localURL = objectstore.MustParseURL("file://")

func idNameSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
}

func idNameBatch(mem memory.Allocator, start, n int) arrow.RecordBatch {
	b := array.NewRecordBuilder(mem, idNameSchema())
	defer b.Release()
	for i := start; i < start+n; i++ {
		b.Field(0).(*array.Int64Builder).Append(int64(i))
		b.Field(1).(*array.StringBuilder).Append("name")
	}
	return b.NewRecordBatch()
}

// writeParquet writes rec under dir/name with at most rowGroupLen rows per
// row group and returns the object metadata relative to dir.
func writeParquet(t *testing.T, dir, name string, rec arrow.RecordBatch, rowGroupLen int64) objectstore.ObjectMeta {
	t.Helper()
	var buf bytes.Buffer
	props := parquet.NewWriterProperties(parquet.WithMaxRowGroupLength(rowGroupLen))
	w, err := pqarrow.NewFileWriter(rec.Schema(), &buf, props, pqarrow.DefaultWriterProps())
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return objectstore.ObjectMeta{Location: name, Size: int64(buf.Len())}
}

func localRegistry(dir string) *objectstore.Registry {
	r := objectstore.NewRegistry()
	r.Register(localURL, objectstore.NewLocalStore(dir))
	return r
}

func int64Column(t *testing.T, batches []arrow.RecordBatch, name string) []int64 {
	t.Helper()
	var out []int64
	for _, b := range batches {
		idx := b.Schema().FieldIndices(name)
		require.Len(t, idx, 1)
		col := b.Column(idx[0]).(*array.Int64)
		for i := range col.Len() {
			out = append(out, col.Value(i))
		}
	}
	return out
}

func release(batches []arrow.RecordBatch) {
	for _, b := range batches {
		b.Release()
	}
}

func TestExec_ScansAllRows(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mem := memory.NewGoAllocator()

	rec := idNameBatch(mem, 0, 100)
	defer rec.Release()
	meta := writeParquet(t, dir, "t/a.parquet", rec, 30)

	cfg := &filescan.ScanConfig{
		ObjectStoreURL: localURL,
		FileSchema:     idNameSchema(),
		FileGroups:     []filescan.FileGroup{{filescan.NewPartitionedFile(meta.Location, meta.Size)}},
	}
	exec, err := NewExec(cfg, localRegistry(dir), Config{BatchSize: 16})
	require.NoError(t, err)
	assert.Equal(t, 1, exec.PartitionCount())

	batches, err := physicalplan.Collect(ctx, exec)
	require.NoError(t, err)
	defer release(batches)

	ids := int64Column(t, batches, "id")
	require.Len(t, ids, 100)
	for i, id := range ids {
		assert.Equal(t, int64(i), id)
	}
	for _, b := range batches {
		assert.LessOrEqual(t, b.NumRows(), int64(16))
	}
}

func TestExec_RepartitionedScanReturnsEveryRowOnce(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mem := memory.NewGoAllocator()

	var group filescan.FileGroup
	for i, name := range []string{"t/a.parquet", "t/b.parquet"} {
		rec := idNameBatch(mem, i*1000, 1000)
		meta := writeParquet(t, dir, name, rec, 100)
		rec.Release()
		group = append(group, filescan.NewPartitionedFile(meta.Location, meta.Size))
	}

	cfg := &filescan.ScanConfig{
		ObjectStoreURL: localURL,
		FileSchema:     idNameSchema(),
		FileGroups:     []filescan.FileGroup{group},
	}
	format := NewFormat(localRegistry(dir), DefaultConfig())
	defer format.Close()

	plan, err := format.CreatePhysicalPlan(cfg)
	require.NoError(t, err)
	exec := plan.(*Exec)

	split, changed := exec.Repartitioned(5, 1)
	require.True(t, changed)
	assert.Equal(t, 5, split.PartitionCount())
	assert.Equal(t, 1, exec.PartitionCount())

	batches, err := physicalplan.Collect(ctx, split)
	require.NoError(t, err)
	defer release(batches)

	ids := int64Column(t, batches, "id")
	slices.Sort(ids)
	require.Len(t, ids, 2000)
	for i, id := range ids {
		require.Equal(t, int64(i), id)
	}

	// both files had their footers parsed once and shared between pieces
	assert.Equal(t, 2, format.cache.Len())
}

func TestExec_PartitionColumnsAndProjection(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mem := memory.NewGoAllocator()

	rec := idNameBatch(mem, 0, 10)
	defer rec.Release()
	meta := writeParquet(t, dir, "t/year=2021/a.parquet", rec, 100)

	pf := filescan.NewPartitionedFile(meta.Location, meta.Size)
	pf.PartitionValues = []filescan.PartitionValue{filescan.WrapPartitionValueInDict(scalar.NewStringScalar("2021"))}

	cfg := &filescan.ScanConfig{
		ObjectStoreURL:     localURL,
		FileSchema:         idNameSchema(),
		FileGroups:         []filescan.FileGroup{{pf}},
		TablePartitionCols: []filescan.PartitionColumn{{Name: "year", Type: filescan.WrapPartitionTypeInDict(arrow.BinaryTypes.String)}},
		Projection:         []int{2, 0},
	}
	exec, err := NewExec(cfg, localRegistry(dir), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "id"}, []string{exec.Schema().Field(0).Name, exec.Schema().Field(1).Name})

	batches, err := physicalplan.Collect(ctx, exec)
	require.NoError(t, err)
	defer release(batches)

	require.NotEmpty(t, batches)
	var rows int64
	for _, b := range batches {
		assert.True(t, b.Schema().Equal(exec.Schema()))
		year := b.Column(0).(*array.Dictionary)
		for i := range year.Len() {
			assert.Equal(t, "2021", year.Dictionary().(*array.String).Value(year.GetValueIndex(i)))
		}
		rows += b.NumRows()
	}
	assert.Equal(t, int64(10), rows)
	assert.Len(t, int64Column(t, batches, "id"), 10)
}

func TestExec_AdaptsFileSchema(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mem := memory.NewGoAllocator()

	// an older file with id stored as int32 and no name column
	oldSchema := arrow.NewSchema([]arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int32, Nullable: true}}, nil)
	b := array.NewRecordBuilder(mem, oldSchema)
	b.Field(0).(*array.Int32Builder).AppendValues([]int32{7, 8, 9}, nil)
	old := b.NewRecordBatch()
	b.Release()
	defer old.Release()
	meta := writeParquet(t, dir, "old.parquet", old, 100)

	cfg := &filescan.ScanConfig{
		ObjectStoreURL: localURL,
		FileSchema:     idNameSchema(),
		FileGroups:     []filescan.FileGroup{{filescan.NewPartitionedFile(meta.Location, meta.Size)}},
	}
	exec, err := NewExec(cfg, localRegistry(dir), DefaultConfig())
	require.NoError(t, err)

	batches, err := physicalplan.Collect(ctx, exec)
	require.NoError(t, err)
	defer release(batches)

	assert.Equal(t, []int64{7, 8, 9}, int64Column(t, batches, "id"))
	for _, b := range batches {
		assert.Equal(t, int(b.NumRows()), b.Column(1).NullN())
	}
}

func TestExec_Limit(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mem := memory.NewGoAllocator()

	rec := idNameBatch(mem, 0, 100)
	defer rec.Release()
	meta := writeParquet(t, dir, "a.parquet", rec, 100)

	limit := int64(25)
	cfg := &filescan.ScanConfig{
		ObjectStoreURL: localURL,
		FileSchema:     idNameSchema(),
		FileGroups:     []filescan.FileGroup{{filescan.NewPartitionedFile(meta.Location, meta.Size)}},
		Limit:          &limit,
	}
	exec, err := NewExec(cfg, localRegistry(dir), Config{BatchSize: 10})
	require.NoError(t, err)

	n, err := physicalplan.CountRows(ctx, exec)
	require.NoError(t, err)
	assert.Equal(t, int64(25), n)
	assert.Contains(t, exec.String(), "limit=25")
}

func TestExec_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := &filescan.ScanConfig{
		ObjectStoreURL: localURL,
		FileSchema:     idNameSchema(),
		FileGroups:     []filescan.FileGroup{{filescan.NewPartitionedFile("missing.parquet", 0)}},
		Projection:     []int{3},
	}
	_, err := NewExec(cfg, localRegistry(dir), DefaultConfig())
	assert.ErrorIs(t, err, filescan.ErrProjectionOutOfBounds)

	cfg.Projection = nil
	exec, err := NewExec(cfg, localRegistry(dir), DefaultConfig())
	require.NoError(t, err)

	_, err = exec.Execute(ctx, 1)
	assert.ErrorIs(t, err, physicalplan.ErrInvalidPartition)

	_, err = physicalplan.Collect(ctx, exec)
	assert.ErrorIs(t, err, objectstore.ErrNotFound)

	other, err := NewExec(&filescan.ScanConfig{
		ObjectStoreURL: objectstore.MustParseURL("s3://nowhere"),
		FileSchema:     idNameSchema(),
		FileGroups:     []filescan.FileGroup{{}},
	}, localRegistry(dir), DefaultConfig())
	require.NoError(t, err)
	_, err = other.Execute(ctx, 0)
	assert.ErrorContains(t, err, "no object store registered")
}

func TestSelectRowGroups_RangesPartitionRowGroups(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mem := memory.NewGoAllocator()

	rec := idNameBatch(mem, 0, 1000)
	defer rec.Release()
	meta := writeParquet(t, dir, "a.parquet", rec, 90)

	pf, err := file.OpenParquetFile(filepath.Join(dir, "a.parquet"), false)
	require.NoError(t, err)
	defer pf.Close()
	md := pf.MetaData()
	require.Greater(t, md.NumRowGroups(), 5)

	for _, pieces := range []int64{1, 2, 3, 7, 40} {
		step := (meta.Size + pieces - 1) / pieces
		seen := make(map[int]int)
		for start := int64(0); start < meta.Size; start += step {
			r := filescan.FileRange{Start: start, End: min(start+step, meta.Size)}
			selected, err := selectRowGroups(ctx, md, r)
			require.NoError(t, err)
			for _, rg := range selected {
				seen[rg]++
			}
		}
		require.Len(t, seen, md.NumRowGroups(), "pieces=%d", pieces)
		for rg, n := range seen {
			assert.Equal(t, 1, n, "row group %d with %d pieces", rg, pieces)
		}
	}
}

func TestMetadataCache(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mem := memory.NewGoAllocator()

	rec := idNameBatch(mem, 0, 5)
	defer rec.Release()
	meta := writeParquet(t, dir, "a.parquet", rec, 100)

	cache := NewMetadataCache(DefaultConfig())
	defer cache.Stop()
	store := objectstore.NewLocalStore(dir)

	_, ok := cache.Get(ctx, meta)
	assert.False(t, ok)

	pf, _, err := openParquet(ctx, store, meta, cache)
	require.NoError(t, err)
	require.NoError(t, pf.Close())

	md, ok := cache.Get(ctx, meta)
	require.True(t, ok)
	assert.Equal(t, 1, md.NumRowGroups())

	// a different size is a different object version
	_, ok = cache.Get(ctx, objectstore.ObjectMeta{Location: meta.Location, Size: meta.Size + 1})
	assert.False(t, ok)
}

func TestFormat_InferSchema(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mem := memory.NewGoAllocator()

	rec := idNameBatch(mem, 0, 5)
	defer rec.Release()
	meta := writeParquet(t, dir, "a.parquet", rec, 100)

	format := NewFormat(localRegistry(dir), DefaultConfig())
	defer format.Close()
	assert.Equal(t, ".parquet", format.Extension())

	schema, err := format.InferSchema(ctx, objectstore.NewLocalStore(dir), []objectstore.ObjectMeta{meta})
	require.NoError(t, err)
	require.Equal(t, 2, schema.NumFields())
	assert.Equal(t, "id", schema.Field(0).Name)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, schema.Field(0).Type))
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, schema.Field(1).Type))

	_, err = format.InferSchema(ctx, objectstore.NewLocalStore(dir), nil)
	assert.Error(t, err)
}
