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
	"fmt"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/exp/constraints"
)

// zeroBuffer hands out all-zero buffers of n elements of one integer type.
type zeroBuffer interface {
	// get returns a buffer the caller owns and must release, and whether it
	// was sliced from the cached buffer.
	get(n int) (*memory.Buffer, bool)
	cached() int
	release()
}

// zeroBufferGenerator caches at most one zero-filled buffer of T. A request
// that fits is served by slicing the cached buffer; a larger request
// replaces it with a buffer of exactly the requested length.
type zeroBufferGenerator[T constraints.Integer] struct {
	buf *memory.Buffer
	n   int
}

func (g *zeroBufferGenerator[T]) get(n int) (*memory.Buffer, bool) {
	width := int(unsafe.Sizeof(*new(T)))
	reused := g.buf != nil && g.n >= n
	if !reused {
		g.release()
		g.buf = memory.NewBufferBytes(make([]byte, n*width))
		g.n = n
	}
	return memory.SliceBuffer(g.buf, 0, n*width), reused
}

func (g *zeroBufferGenerator[T]) cached() int {
	return g.n
}

func (g *zeroBufferGenerator[T]) release() {
	if g.buf != nil {
		g.buf.Release()
		g.buf = nil
		g.n = 0
	}
}

// ZeroBufferCache supplies zero-filled dictionary index buffers, one cached
// buffer per integer index type. It is not safe for concurrent use.
type ZeroBufferCache struct {
	generators map[arrow.Type]zeroBuffer
}

// NewZeroBufferCache returns an empty cache covering every integer index type.
func NewZeroBufferCache() *ZeroBufferCache {
	return &ZeroBufferCache{
		generators: map[arrow.Type]zeroBuffer{
			arrow.INT8:   &zeroBufferGenerator[int8]{},
			arrow.INT16:  &zeroBufferGenerator[int16]{},
			arrow.INT32:  &zeroBufferGenerator[int32]{},
			arrow.INT64:  &zeroBufferGenerator[int64]{},
			arrow.UINT8:  &zeroBufferGenerator[uint8]{},
			arrow.UINT16: &zeroBufferGenerator[uint16]{},
			arrow.UINT32: &zeroBufferGenerator[uint32]{},
			arrow.UINT64: &zeroBufferGenerator[uint64]{},
		},
	}
}

// Get returns a zero-filled buffer holding n values of indexType. The caller
// owns the returned buffer and must release it.
func (c *ZeroBufferCache) Get(indexType arrow.DataType, n int) (*memory.Buffer, error) {
	gen, ok := c.generators[indexType.ID()]
	if !ok {
		return nil, fmt.Errorf("unsupported dictionary index type %s", indexType)
	}
	buf, reused := gen.get(n)
	recordZeroBuffer(indexType, reused)
	return buf, nil
}

// Cached returns the number of values the cached buffer for id can serve.
func (c *ZeroBufferCache) Cached(id arrow.Type) int {
	gen, ok := c.generators[id]
	if !ok {
		return 0
	}
	return gen.cached()
}

// Release drops every cached buffer. Buffers already handed out stay valid.
func (c *ZeroBufferCache) Release() {
	for _, gen := range c.generators {
		gen.release()
	}
}
