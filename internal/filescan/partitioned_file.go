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
	"strings"

	"github.com/cardinalhq/lakescan/internal/objectstore"
)

// FileRange is the half-open byte interval [Start, End) of a file.
type FileRange struct {
	Start int64
	End   int64
}

// Len returns the number of bytes in the range.
func (r FileRange) Len() int64 {
	return r.End - r.Start
}

// Contains reports whether offset falls inside the range.
func (r FileRange) Contains(offset int64) bool {
	return offset >= r.Start && offset < r.End
}

// PartitionedFile is one input file of a scan. A nil Range means the whole
// file. Values are treated as immutable; WithRange returns a copy.
type PartitionedFile struct {
	Object objectstore.ObjectMeta
	// PartitionValues holds one value per table partition column, in
	// declaration order.
	PartitionValues []PartitionValue
	Range           *FileRange
}

// NewPartitionedFile returns a whole-file entry with no partition values.
func NewPartitionedFile(location string, size int64) PartitionedFile {
	return PartitionedFile{Object: objectstore.ObjectMeta{Location: location, Size: size}}
}

// WithRange returns a copy of f restricted to [start, end).
func (f PartitionedFile) WithRange(start, end int64) PartitionedFile {
	f.Range = &FileRange{Start: start, End: end}
	return f
}

// EffectiveRange returns the assigned range, or the whole file when none is set.
func (f PartitionedFile) EffectiveRange() FileRange {
	if f.Range != nil {
		return *f.Range
	}
	return FileRange{Start: 0, End: f.Object.Size}
}

func (f PartitionedFile) String() string {
	if f.Range == nil {
		return f.Object.Location
	}
	return fmt.Sprintf("%s:%d..%d", f.Object.Location, f.Range.Start, f.Range.End)
}

// FileGroup is read sequentially by a single execution partition.
type FileGroup []PartitionedFile

// TotalSize sums the bytes covered by every file in the group.
func (g FileGroup) TotalSize() int64 {
	var total int64
	for _, f := range g {
		total += f.EffectiveRange().Len()
	}
	return total
}

func (g FileGroup) String() string {
	parts := make([]string, len(g))
	for i, f := range g {
		parts[i] = f.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
