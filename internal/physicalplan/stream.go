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
	"io"

	"github.com/apache/arrow-go/v18/arrow"
)

// SliceStream streams a fixed list of batches. Each batch is retained
// before it is handed out.
type SliceStream struct {
	batches []arrow.RecordBatch
	pos     int
}

var _ RecordStream = (*SliceStream)(nil)

func NewSliceStream(batches []arrow.RecordBatch) *SliceStream {
	return &SliceStream{batches: batches}
}

func (s *SliceStream) Next(ctx context.Context) (arrow.RecordBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.batches) {
		return nil, io.EOF
	}
	rec := s.batches[s.pos]
	s.pos++
	rec.Retain()
	return rec, nil
}

func (s *SliceStream) Close() error {
	s.pos = len(s.batches)
	return nil
}

// LimitStream stops an inner stream after limit rows, slicing the batch
// that crosses the limit.
type LimitStream struct {
	inner     RecordStream
	remaining int64
}

var _ RecordStream = (*LimitStream)(nil)

func NewLimitStream(inner RecordStream, limit int64) *LimitStream {
	return &LimitStream{inner: inner, remaining: limit}
}

func (s *LimitStream) Next(ctx context.Context) (arrow.RecordBatch, error) {
	for {
		if s.remaining <= 0 {
			return nil, io.EOF
		}
		rec, err := s.inner.Next(ctx)
		if err != nil {
			return nil, err
		}
		n := rec.NumRows()
		if n == 0 {
			rec.Release()
			continue
		}
		if n <= s.remaining {
			s.remaining -= n
			return rec, nil
		}
		sliced := rec.NewSlice(0, s.remaining)
		rec.Release()
		s.remaining = 0
		return sliced, nil
	}
}

func (s *LimitStream) Close() error {
	return s.inner.Close()
}

// FuncStream adapts a next function to RecordStream.
type FuncStream struct {
	next  func(ctx context.Context) (arrow.RecordBatch, error)
	close func() error
}

var _ RecordStream = (*FuncStream)(nil)

func NewFuncStream(next func(ctx context.Context) (arrow.RecordBatch, error), close func() error) *FuncStream {
	return &FuncStream{next: next, close: close}
}

func (s *FuncStream) Next(ctx context.Context) (arrow.RecordBatch, error) {
	return s.next(ctx)
}

func (s *FuncStream) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// ErrInvalidPartition is returned by Execute for a partition outside
// [0, PartitionCount).
var ErrInvalidPartition = errors.New("invalid partition")
