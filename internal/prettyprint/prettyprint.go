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

// Package prettyprint renders record batches as ASCII tables.
package prettyprint

import (
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/olekukonko/tablewriter"
)

// Write renders the batches as a single table under one header taken from
// schema. Null cells are left empty.
func Write(w io.Writer, schema *arrow.Schema, batches []arrow.RecordBatch) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	header := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		header[i] = f.Name
	}
	table.SetHeader(header)

	for _, b := range batches {
		for row := range int(b.NumRows()) {
			cells := make([]string, b.NumCols())
			for col := range cells {
				cells[col] = cell(b.Column(col), row)
			}
			table.Append(cells)
		}
	}
	table.Render()
}

// Format is Write into a string.
func Format(schema *arrow.Schema, batches []arrow.RecordBatch) string {
	var sb strings.Builder
	Write(&sb, schema, batches)
	return sb.String()
}

func cell(arr arrow.Array, i int) string {
	if arr.IsNull(i) {
		return ""
	}
	return arr.ValueStr(i)
}
