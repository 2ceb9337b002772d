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
)

// Column references a field of a schema by name and position.
type Column struct {
	Name  string
	Index int
}

type SortOptions struct {
	Descending bool
	NullsFirst bool
}

// PhysicalSortExpr is one key of a sort ordering.
type PhysicalSortExpr struct {
	Column  Column
	Options SortOptions
}

func (e PhysicalSortExpr) String() string {
	dir := "ASC"
	if e.Options.Descending {
		dir = "DESC"
	}
	nulls := "NULLS LAST"
	if e.Options.NullsFirst {
		nulls = "NULLS FIRST"
	}
	return fmt.Sprintf("%s@%d %s %s", e.Column.Name, e.Column.Index, dir, nulls)
}

// LexOrdering is a lexicographic sort order: later keys only break ties of
// earlier ones.
type LexOrdering []PhysicalSortExpr

func (o LexOrdering) String() string {
	parts := make([]string, len(o))
	for i, e := range o {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
