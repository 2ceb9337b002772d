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

// RepartitionFileGroups redistributes the bytes of every file into groups of
// at most ceil(total/targetPartitions) bytes, splitting files at arbitrary
// byte offsets. A group's fill carries across file boundaries, so a group
// may hold the tail of one file and the head of the next. The last group
// holds the remainder.
//
// The boolean is false, and the groups nil, when repartitioning does not
// apply: a file already carries a range, the total size is zero or below
// minSize, or targetPartitions is not positive.
func RepartitionFileGroups(groups []FileGroup, targetPartitions int, minSize int64) ([]FileGroup, bool) {
	if targetPartitions <= 0 {
		return nil, false
	}

	var (
		flattened []PartitionedFile
		total     int64
	)
	for _, g := range groups {
		for _, f := range g {
			if f.Range != nil {
				return nil, false
			}
			total += f.Object.Size
			flattened = append(flattened, f)
		}
	}
	if total < minSize || total == 0 {
		return nil, false
	}

	targetSize := (total + int64(targetPartitions) - 1) / int64(targetPartitions)

	var (
		out     []FileGroup
		current FileGroup
		fill    int64
	)
	for _, f := range flattened {
		size := f.Object.Size
		for start := int64(0); start < size; {
			end := min(start+(targetSize-fill), size)
			current = append(current, f.WithRange(start, end))
			fill += end - start
			start = end
			if fill == targetSize {
				out = append(out, current)
				current = nil
				fill = 0
			}
		}
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out, true
}

// WithRepartitionedFileGroups returns a copy of c whose file groups have
// been rebalanced by RepartitionFileGroups. When repartitioning does not
// apply it returns c itself and false.
func (c *ScanConfig) WithRepartitionedFileGroups(targetPartitions int, minSize int64) (*ScanConfig, bool) {
	groups, ok := RepartitionFileGroups(c.FileGroups, targetPartitions, minSize)
	if !ok {
		return c, false
	}
	next := *c
	next.FileGroups = groups
	return &next, true
}
