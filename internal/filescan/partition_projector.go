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

package filescan

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/arrow/scalar"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/lakescan/internal/logctx"
)

type partitionIndex struct {
	partition int // index into the partition values
	schema    int // index into the projected schema
}

// PartitionColumnProjector inserts constant partition columns into batches
// decoded from files. Create one per scan partition; it is not safe for
// concurrent use.
type PartitionColumnProjector struct {
	mem     memory.Allocator
	cache   *ZeroBufferCache
	indexes []partitionIndex
	schema  *arrow.Schema
}

// ProjectorOption configures a PartitionColumnProjector.
type ProjectorOption func(*PartitionColumnProjector)

// WithAllocator sets the allocator used for partition value arrays.
func WithAllocator(mem memory.Allocator) ProjectorOption {
	return func(p *PartitionColumnProjector) {
		p.mem = mem
	}
}

// NewPartitionColumnProjector builds a projector for projectedSchema.
// Partition columns that are not part of the schema are skipped.
func NewPartitionColumnProjector(projectedSchema *arrow.Schema, partitionColNames []string, opts ...ProjectorOption) *PartitionColumnProjector {
	var indexes []partitionIndex
	for partition, name := range partitionColNames {
		if idx := projectedSchema.FieldIndices(name); len(idx) > 0 {
			indexes = append(indexes, partitionIndex{partition: partition, schema: idx[0]})
		}
	}
	slices.SortFunc(indexes, func(a, b partitionIndex) int { return a.schema - b.schema })

	p := &PartitionColumnProjector{
		mem:     memory.DefaultAllocator,
		cache:   NewZeroBufferCache(),
		indexes: indexes,
		schema:  projectedSchema,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Schema returns the schema of the batches Project produces.
func (p *PartitionColumnProjector) Schema() *arrow.Schema {
	return p.schema
}

// FileColumnCount returns the number of columns a file batch must carry.
func (p *PartitionColumnProjector) FileColumnCount() int {
	return p.schema.NumFields() - len(p.indexes)
}

// Project returns a batch with the partition values inserted at their schema
// positions. values holds one entry per partition column name given to the
// constructor. The file columns are shared with fileBatch, not copied; the
// caller still owns fileBatch and the returned batch.
func (p *PartitionColumnProjector) Project(ctx context.Context, fileBatch arrow.RecordBatch, values []PartitionValue) (arrow.RecordBatch, error) {
	expected := p.FileColumnCount()
	if actual := int(fileBatch.NumCols()); actual != expected {
		return nil, &ColumnCountError{Expected: expected, Actual: actual}
	}

	numRows := fileBatch.NumRows()
	cols := make([]arrow.Array, 0, p.schema.NumFields())
	cols = append(cols, fileBatch.Columns()...)

	var created []arrow.Array
	defer func() {
		for _, arr := range created {
			arr.Release()
		}
	}()

	for _, pi := range p.indexes {
		if pi.partition >= len(values) {
			return nil, fmt.Errorf("%w: expected at least %d partition values, got %d",
				ErrSchemaMismatch, pi.partition+1, len(values))
		}
		arr, err := p.createOutputArray(ctx, p.schema.Field(pi.schema), values[pi.partition], int(numRows))
		if err != nil {
			return nil, err
		}
		created = append(created, arr)
		cols = slices.Insert(cols, pi.schema, arr)
	}

	for i, col := range cols {
		field := p.schema.Field(i)
		if !arrow.TypeEqual(col.DataType(), field.Type) {
			return nil, fmt.Errorf("%w: column %q has type %s, schema expects %s",
				ErrSchemaMismatch, field.Name, col.DataType(), field.Type)
		}
		if int64(col.Len()) != numRows {
			return nil, fmt.Errorf("%w: column %q has %d rows, batch has %d",
				ErrSchemaMismatch, field.Name, col.Len(), numRows)
		}
	}

	if len(p.indexes) > 0 {
		partitionRowsCounter.Add(ctx, numRows)
	}
	return array.NewRecordBatch(p.schema, cols, numRows), nil
}

// Release drops the cached index buffers.
func (p *PartitionColumnProjector) Release() {
	p.cache.Release()
}

func (p *PartitionColumnProjector) createOutputArray(ctx context.Context, field arrow.Field, value PartitionValue, n int) (arrow.Array, error) {
	if dt, ok := field.Type.(*arrow.DictionaryType); ok {
		if !value.IsDictionary() {
			logctx.FromContext(ctx).Warn("Partition value is not dictionary encoded, wrapping it",
				slog.String("column", field.Name),
				slog.String("keyType", dt.IndexType.String()),
				slog.String("value", value.String()))
			partitionValueWrapCounter.Add(ctx, 1, otelmetric.WithAttributes(
				attribute.String("index_type", dt.IndexType.String())))
			value = PartitionValue{Value: value.Value, DictKey: dt.IndexType}
		}
		return p.createDictArray(value, n, dt.Ordered)
	}

	arr, err := scalar.MakeArrayFromScalar(value.Value, n, p.mem)
	if err != nil {
		return nil, fmt.Errorf("materialize partition column %q: %w", field.Name, err)
	}
	return arr, nil
}

// createDictArray builds a one-entry dictionary with an all-zero index
// buffer from the cache.
func (p *PartitionColumnProjector) createDictArray(value PartitionValue, n int, ordered bool) (arrow.Array, error) {
	keys, err := p.cache.Get(value.DictKey, n)
	if err != nil {
		return nil, err
	}
	defer keys.Release()

	data := array.NewData(value.DictKey, n, []*memory.Buffer{nil, keys}, nil, 0, 0)
	defer data.Release()
	indices := array.MakeFromData(data)
	defer indices.Release()

	dict, err := scalar.MakeArrayFromScalar(value.Value, 1, p.mem)
	if err != nil {
		return nil, fmt.Errorf("materialize dictionary value: %w", err)
	}
	defer dict.Release()

	dictType := &arrow.DictionaryType{IndexType: value.DictKey, ValueType: value.Value.DataType(), Ordered: ordered}
	return array.NewDictionaryArray(dictType, indices, dict), nil
}
