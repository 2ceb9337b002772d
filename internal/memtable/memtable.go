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

// Package memtable presents preloaded record batches as a partitioned table.
package memtable

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/lakescan/internal/filescan"
	"github.com/cardinalhq/lakescan/internal/logctx"
	"github.com/cardinalhq/lakescan/internal/physicalplan"
)

// SchemaMismatchError identifies a batch rejected by TryNew.
type SchemaMismatchError struct {
	Partition int
	Batch     int
	Declared  *arrow.Schema
	Actual    *arrow.Schema
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s: partition %d batch %d: declared %s, batch %s",
		filescan.ErrSchemaMismatch, e.Partition, e.Batch, e.Declared, e.Actual)
}

func (e *SchemaMismatchError) Is(target error) bool {
	return target == filescan.ErrSchemaMismatch
}

// Table holds partitions of record batches sharing one schema.
type Table struct {
	schema     *arrow.Schema
	partitions [][]arrow.RecordBatch
}

// TryNew validates every batch against schema with SchemaContains and
// retains them. When the first partition has a batch, that batch's schema
// becomes the table schema.
func TryNew(schema *arrow.Schema, partitions [][]arrow.RecordBatch) (*Table, error) {
	var errs *multierror.Error
	for i, part := range partitions {
		for j, b := range part {
			if !SchemaContains(schema, b.Schema()) {
				errs = multierror.Append(errs, &SchemaMismatchError{
					Partition: i,
					Batch:     j,
					Declared:  schema,
					Actual:    b.Schema(),
				})
			}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	if len(partitions) > 0 && len(partitions[0]) > 0 {
		schema = partitions[0][0].Schema()
	}
	for _, part := range partitions {
		for _, b := range part {
			b.Retain()
		}
	}
	return &Table{schema: schema, partitions: partitions}, nil
}

// Schema returns the table schema.
func (t *Table) Schema() *arrow.Schema {
	return t.schema
}

// PartitionCount returns the number of stored partitions.
func (t *Table) PartitionCount() int {
	return len(t.partitions)
}

// NumRows returns the total number of stored rows.
func (t *Table) NumRows() int64 {
	var n int64
	for _, part := range t.partitions {
		for _, b := range part {
			n += b.NumRows()
		}
	}
	return n
}

// Scan returns a plan reading the stored batches with one output partition
// per stored partition.
func (t *Table) Scan(ctx context.Context, projection []int, limit *int64) (*MemoryExec, error) {
	exec, err := NewMemoryExec(t.partitions, t.schema, projection)
	if err != nil {
		return nil, err
	}
	if limit != nil {
		exec = exec.WithLimit(*limit)
	}
	logctx.FromContext(ctx).Debug("Scanning in-memory table",
		slog.Int("partitions", len(t.partitions)),
		slog.Int("columns", exec.Schema().NumFields()))
	return exec, nil
}

// Release releases every stored batch.
func (t *Table) Release() {
	for _, part := range t.partitions {
		for _, b := range part {
			b.Release()
		}
	}
	t.partitions = nil
}

// Load executes every partition of plan concurrently and stores the result.
// When outputPartitions is set the batches are redistributed round robin
// over that many partitions.
func Load(ctx context.Context, plan physicalplan.ExecutionPlan, outputPartitions *int) (*Table, error) {
	data, err := physicalplan.CollectPartitions(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("load in-memory table: %w", err)
	}
	defer func() {
		for _, part := range data {
			for _, b := range part {
				b.Release()
			}
		}
	}()

	if outputPartitions != nil {
		data = roundRobin(data, *outputPartitions)
	}
	logctx.FromContext(ctx).Info("Loaded in-memory table",
		slog.Int("inputPartitions", plan.PartitionCount()),
		slog.Int("outputPartitions", len(data)))
	return TryNew(plan.Schema(), data)
}

// roundRobin deals batches in input order over n partitions. The batches are
// moved, not copied.
func roundRobin(data [][]arrow.RecordBatch, n int) [][]arrow.RecordBatch {
	if n <= 0 {
		return data
	}
	out := make([][]arrow.RecordBatch, n)
	next := 0
	for _, part := range data {
		for _, b := range part {
			out[next] = append(out[next], b)
			next = (next + 1) % n
		}
	}
	return out
}
