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
	"errors"
	"fmt"
)

// ErrSchemaMismatch reports that a batch does not have the shape the
// projected schema requires.
var ErrSchemaMismatch = errors.New("schema mismatch")

// ErrProjectionOutOfBounds reports a projection index past the last
// addressable column. Use errors.As with *ProjectionError for details.
var ErrProjectionOutOfBounds = errors.New("projection index out of bounds")

// ProjectionError carries the offending index and the number of columns
// that could have been addressed.
type ProjectionError struct {
	Index int
	Max   int
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("project index %d out of bounds, max field %d", e.Index, e.Max)
}

func (e *ProjectionError) Is(target error) bool {
	return target == ErrProjectionOutOfBounds
}

// ColumnCountError is returned when a file batch has a different number of
// columns than the projected schema leaves for file data.
type ColumnCountError struct {
	Expected int
	Actual   int
}

func (e *ColumnCountError) Error() string {
	return fmt.Sprintf("%s: unexpected number of file columns, expected %d got %d",
		ErrSchemaMismatch, e.Expected, e.Actual)
}

func (e *ColumnCountError) Is(target error) bool {
	return target == ErrSchemaMismatch
}
