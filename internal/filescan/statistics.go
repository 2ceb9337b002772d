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

	"github.com/apache/arrow-go/v18/arrow/scalar"
)

// ColumnStatistics describes one column. Nil fields are unknown.
type ColumnStatistics struct {
	NullCount     *int64
	MinValue      scalar.Scalar
	MaxValue      scalar.Scalar
	DistinctCount *int64
}

// Statistics describes a table or plan output. When ColumnStatistics is
// non-nil it has one entry per field of the schema it describes.
type Statistics struct {
	NumRows          *int64
	TotalByteSize    *int64
	ColumnStatistics []ColumnStatistics
	// IsExact is false when the numbers are estimates.
	IsExact bool
}

// UnknownColumnStatistics returns n entries with every value unknown.
func UnknownColumnStatistics(n int) []ColumnStatistics {
	return make([]ColumnStatistics, n)
}

func (s Statistics) String() string {
	rows, bytes := "unknown", "unknown"
	if s.NumRows != nil {
		rows = fmt.Sprint(*s.NumRows)
	}
	if s.TotalByteSize != nil {
		bytes = fmt.Sprint(*s.TotalByteSize)
	}
	return fmt.Sprintf("rows=%s bytes=%s exact=%t columns=%d", rows, bytes, s.IsExact, len(s.ColumnStatistics))
}
