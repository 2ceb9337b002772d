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

package physicalplan

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"golang.org/x/sync/errgroup"
)

// Drain reads stream to the end and closes it. On error the batches read so
// far are released.
func Drain(ctx context.Context, stream RecordStream) (batches []arrow.RecordBatch, err error) {
	defer func() {
		if cerr := stream.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			releaseAll(batches)
			batches = nil
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return batches, err
		}
		rec, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			return batches, nil
		}
		if err != nil {
			return batches, err
		}
		batches = append(batches, rec)
	}
}

// CollectPartitions executes every partition of plan concurrently and
// returns the batches of each partition in order. The first error cancels
// the remaining partitions.
func CollectPartitions(ctx context.Context, plan ExecutionPlan) ([][]arrow.RecordBatch, error) {
	n := plan.PartitionCount()
	out := make([][]arrow.RecordBatch, n)

	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			stream, err := plan.Execute(gctx, i)
			if err != nil {
				return fmt.Errorf("execute partition %d: %w", i, err)
			}
			batches, err := Drain(gctx, stream)
			if err != nil {
				return fmt.Errorf("partition %d: %w", i, err)
			}
			out[i] = batches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, batches := range out {
			releaseAll(batches)
		}
		return nil, err
	}
	return out, nil
}

// Collect is CollectPartitions flattened into one slice, partition order
// preserved.
func Collect(ctx context.Context, plan ExecutionPlan) ([]arrow.RecordBatch, error) {
	parts, err := CollectPartitions(ctx, plan)
	if err != nil {
		return nil, err
	}
	var out []arrow.RecordBatch
	for _, batches := range parts {
		out = append(out, batches...)
	}
	return out, nil
}

// CountRows executes every partition and returns the total number of rows.
func CountRows(ctx context.Context, plan ExecutionPlan) (int64, error) {
	batches, err := Collect(ctx, plan)
	if err != nil {
		return 0, err
	}
	defer releaseAll(batches)
	var total int64
	for _, b := range batches {
		total += b.NumRows()
	}
	return total, nil
}

func releaseAll(batches []arrow.RecordBatch) {
	for _, b := range batches {
		b.Release()
	}
}
