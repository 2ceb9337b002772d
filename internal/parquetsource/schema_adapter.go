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
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/compute"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/cardinalhq/lakescan/internal/filescan"
)

// schemaAdapter maps batches decoded from one file onto the table file
// schema. Files written at different times may lack columns, carry extra
// ones or use a different physical type for the same column.
type schemaAdapter struct {
	target *arrow.Schema
	mem    memory.Allocator
}

func newSchemaAdapter(target *arrow.Schema, mem memory.Allocator) *schemaAdapter {
	return &schemaAdapter{target: target, mem: mem}
}

// adapt returns a batch with exactly the target fields in target order.
// Missing columns are filled with nulls and differing types are cast. The
// caller keeps ownership of rec.
func (a *schemaAdapter) adapt(ctx context.Context, rec arrow.RecordBatch) (arrow.RecordBatch, error) {
	n := rec.NumRows()
	src := rec.Schema()
	cols := make([]arrow.Array, a.target.NumFields())
	defer func() {
		for _, c := range cols {
			if c != nil {
				c.Release()
			}
		}
	}()

	for i, field := range a.target.Fields() {
		idx := src.FieldIndices(field.Name)
		if len(idx) == 0 {
			if !field.Nullable {
				return nil, fmt.Errorf("%w: file is missing non-nullable column %q",
					filescan.ErrSchemaMismatch, field.Name)
			}
			cols[i] = array.MakeArrayOfNull(a.mem, field.Type, int(n))
			continue
		}
		col := rec.Column(idx[0])
		if arrow.TypeEqual(col.DataType(), field.Type) {
			col.Retain()
			cols[i] = col
			continue
		}
		cast, err := compute.CastArray(compute.WithAllocator(ctx, a.mem), col, compute.SafeCastOptions(field.Type))
		if err != nil {
			return nil, fmt.Errorf("%w: cannot cast column %q from %s to %s: %v",
				filescan.ErrSchemaMismatch, field.Name, col.DataType(), field.Type, err)
		}
		cols[i] = cast
	}
	return array.NewRecordBatch(a.target, cols, n), nil
}

// fileColumnIndices returns the leaf column indices to decode so that every
// target field present in the file is read. It returns nil, meaning all
// columns, when a target field does not map onto a single leaf.
func fileColumnIndices(fileSchema *arrow.Schema, columnIndexByName func(string) int, target *arrow.Schema) []int {
	var indices []int
	for _, field := range target.Fields() {
		if len(fileSchema.FieldIndices(field.Name)) == 0 {
			continue
		}
		idx := columnIndexByName(field.Name)
		if idx < 0 {
			return nil
		}
		indices = append(indices, idx)
	}
	if len(indices) == 0 {
		return nil
	}
	return indices
}
