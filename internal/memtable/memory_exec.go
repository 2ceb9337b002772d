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

package memtable

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/cardinalhq/lakescan/internal/filescan"
	"github.com/cardinalhq/lakescan/internal/physicalplan"
)

// MemoryExec streams in-memory partitions, optionally projected and limited.
type MemoryExec struct {
	partitions [][]arrow.RecordBatch
	schema     *arrow.Schema
	projected  *arrow.Schema
	projection []int
	limit      *int64
}

var _ physicalplan.ExecutionPlan = (*MemoryExec)(nil)

// NewMemoryExec validates projection against schema. The partitions are
// referenced, not retained; they must outlive the plan.
func NewMemoryExec(partitions [][]arrow.RecordBatch, schema *arrow.Schema, projection []int) (*MemoryExec, error) {
	projected := schema
	if projection != nil {
		fields := make([]arrow.Field, len(projection))
		for i, idx := range projection {
			if idx < 0 || idx >= schema.NumFields() {
				return nil, &filescan.ProjectionError{Index: idx, Max: schema.NumFields()}
			}
			fields[i] = schema.Field(idx)
		}
		md := schema.Metadata()
		projected = arrow.NewSchema(fields, &md)
	}
	return &MemoryExec{
		partitions: partitions,
		schema:     schema,
		projected:  projected,
		projection: projection,
	}, nil
}

// WithLimit returns a copy of e that stops each partition after limit rows.
func (e *MemoryExec) WithLimit(limit int64) *MemoryExec {
	next := *e
	next.limit = &limit
	return &next
}

func (e *MemoryExec) Schema() *arrow.Schema {
	return e.projected
}

// Statistics are exact row counts; column statistics are not tracked.
func (e *MemoryExec) Statistics() filescan.Statistics {
	var rows int64
	for _, part := range e.partitions {
		for _, b := range part {
			rows += b.NumRows()
		}
	}
	return filescan.Statistics{
		NumRows:          &rows,
		ColumnStatistics: filescan.UnknownColumnStatistics(e.projected.NumFields()),
		IsExact:          true,
	}
}

func (e *MemoryExec) OutputOrdering() []filescan.LexOrdering {
	return nil
}

func (e *MemoryExec) PartitionCount() int {
	return len(e.partitions)
}

func (e *MemoryExec) Children() []physicalplan.ExecutionPlan {
	return nil
}

func (e *MemoryExec) Execute(ctx context.Context, partition int) (physicalplan.RecordStream, error) {
	if partition < 0 || partition >= len(e.partitions) {
		return nil, fmt.Errorf("%w: %d of %d", physicalplan.ErrInvalidPartition, partition, len(e.partitions))
	}

	var stream physicalplan.RecordStream
	if e.projection == nil {
		stream = physicalplan.NewSliceStream(e.partitions[partition])
	} else {
		batches := e.partitions[partition]
		pos := 0
		stream = physicalplan.NewFuncStream(func(ctx context.Context) (arrow.RecordBatch, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if pos >= len(batches) {
				return nil, io.EOF
			}
			b := batches[pos]
			pos++
			return e.projectBatch(b), nil
		}, nil)
	}
	if e.limit != nil {
		stream = physicalplan.NewLimitStream(stream, *e.limit)
	}
	return stream, nil
}

// projectBatch selects columns using the batch's own fields, which may differ
// from the table schema within what SchemaContains allows.
func (e *MemoryExec) projectBatch(b arrow.RecordBatch) arrow.RecordBatch {
	cols := make([]arrow.Array, len(e.projection))
	fields := make([]arrow.Field, len(e.projection))
	for i, idx := range e.projection {
		cols[i] = b.Column(idx)
		fields[i] = b.Schema().Field(idx)
	}
	md := b.Schema().Metadata()
	return array.NewRecordBatch(arrow.NewSchema(fields, &md), cols, b.NumRows())
}

func (e *MemoryExec) String() string {
	return fmt.Sprintf("MemoryExec: partitions=%d, projection=%v", len(e.partitions), e.projection)
}
