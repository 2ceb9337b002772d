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

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// RangeReader adapts a Store object to io.ReaderAt and io.Seeker by issuing
// one ranged read per ReadAt call. It satisfies parquet.ReaderAtSeeker.
type RangeReader struct {
	ctx   context.Context
	store Store
	meta  ObjectMeta
	pos   int64
}

var (
	_ io.ReaderAt = (*RangeReader)(nil)
	_ io.Seeker   = (*RangeReader)(nil)
	_ io.Reader   = (*RangeReader)(nil)
)

// NewRangeReader returns a reader over the object described by meta. The size in
// meta is trusted; no Head request is made.
func NewRangeReader(ctx context.Context, store Store, meta ObjectMeta) *RangeReader {
	return &RangeReader{ctx: ctx, store: store, meta: meta}
}

// Size returns the object size.
func (r *RangeReader) Size() int64 {
	return r.meta.Size
}

// ReadAt reads len(p) bytes starting at off.
func (r *RangeReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if off >= r.meta.Size {
		return 0, io.EOF
	}
	end := min(off+int64(len(p)), r.meta.Size)
	data, err := r.store.GetRange(r.ctx, r.meta.Location, off, end)
	if err != nil {
		return 0, err
	}
	n := copy(p, data)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Read reads from the current position.
func (r *RangeReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	if errors.Is(err, io.EOF) && n > 0 {
		return n, nil
	}
	return n, err
}

// Seek sets the position for the next Read.
func (r *RangeReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		abs = r.meta.Size + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("negative position %d", abs)
	}
	r.pos = abs
	return abs, nil
}
