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
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/cardinalhq/lakescan/internal/objectstore"
)

// ScanConfig is everything a format reader needs to scan a set of files.
// It is not modified after construction; WithRepartitionedFileGroups
// returns a new config.
type ScanConfig struct {
	// ObjectStoreURL resolves the store every file location is relative to.
	ObjectStoreURL objectstore.URL
	// FileSchema holds the columns physically present in the files. It
	// excludes partition columns.
	FileSchema *arrow.Schema
	// FileGroups are scanned concurrently with each other; files inside a
	// group are read in order.
	FileGroups []FileGroup
	// Statistics describe FileSchema.
	Statistics Statistics
	// Projection selects output columns. Indices below the file schema width
	// address file columns, the rest address TablePartitionCols by offset.
	// Nil means every file column followed by every partition column.
	Projection []int
	// Limit caps the number of rows returned when set.
	Limit              *int64
	TablePartitionCols []PartitionColumn
	// OutputOrdering lists equivalent orderings of every file, expressed
	// against FileSchema followed by the partition columns.
	OutputOrdering []LexOrdering
	InfiniteSource bool
}

// Projected is the reported shape of a scan after projection.
type Projected struct {
	Schema     *arrow.Schema
	Statistics Statistics
	Orderings  []LexOrdering
}

// Width returns the number of columns addressable by a projection index.
func (c *ScanConfig) Width() int {
	return c.FileSchema.NumFields() + len(c.TablePartitionCols)
}

// Project computes the output schema, statistics and orderings of the scan.
// Without a projection or partition columns the file schema and statistics
// are returned as is. No ordering is reported while a file group holds more
// than one file.
func (c *ScanConfig) Project() (Projected, error) {
	if c.Projection == nil && len(c.TablePartitionCols) == 0 {
		orderings := c.OutputOrdering
		if !c.groupsKeepOrdering() {
			orderings = nil
		}
		return Projected{
			Schema:     c.FileSchema,
			Statistics: c.Statistics,
			Orderings:  orderings,
		}, nil
	}

	nFile := c.FileSchema.NumFields()
	width := c.Width()
	proj := c.Projection
	if proj == nil {
		proj = make([]int, width)
		for i := range proj {
			proj[i] = i
		}
	}

	fields := make([]arrow.Field, 0, len(proj))
	colStats := make([]ColumnStatistics, 0, len(proj))
	for _, idx := range proj {
		switch {
		case idx < 0 || idx >= width:
			return Projected{}, &ProjectionError{Index: idx, Max: width}
		case idx < nFile:
			fields = append(fields, c.FileSchema.Field(idx))
			if idx < len(c.Statistics.ColumnStatistics) {
				colStats = append(colStats, c.Statistics.ColumnStatistics[idx])
			} else {
				colStats = append(colStats, ColumnStatistics{})
			}
		default:
			// Partition columns do not track statistics.
			pc := c.TablePartitionCols[idx-nFile]
			fields = append(fields, arrow.Field{Name: pc.Name, Type: pc.Type, Nullable: false})
			colStats = append(colStats, ColumnStatistics{})
		}
	}

	md := c.FileSchema.Metadata()
	schema := arrow.NewSchema(fields, &md)

	stats := Statistics{
		NumRows:          c.Statistics.NumRows,
		TotalByteSize:    nil,
		ColumnStatistics: colStats,
		IsExact:          c.Statistics.IsExact,
	}

	return Projected{
		Schema:     schema,
		Statistics: stats,
		Orderings:  c.projectedOrderings(schema),
	}, nil
}

// projectedOrderings re-expresses the orderings against schema. An ordering
// is cut at its first key whose column was projected away.
func (c *ScanConfig) projectedOrderings(schema *arrow.Schema) []LexOrdering {
	if len(c.OutputOrdering) == 0 || !c.groupsKeepOrdering() {
		return nil
	}

	var out []LexOrdering
	for _, ordering := range c.OutputOrdering {
		var projected LexOrdering
		for _, expr := range ordering {
			idx := schema.FieldIndices(expr.Column.Name)
			if len(idx) == 0 {
				break
			}
			projected = append(projected, PhysicalSortExpr{
				Column:  Column{Name: expr.Column.Name, Index: idx[0]},
				Options: expr.Options,
			})
		}
		if len(projected) > 0 {
			out = append(out, projected)
		}
	}
	return out
}

// groupsKeepOrdering reports whether reading each file group sequentially
// keeps the per-file ordering, which holds only for single-file groups.
func (c *ScanConfig) groupsKeepOrdering() bool {
	if len(c.OutputOrdering) == 0 {
		return true
	}
	for _, group := range c.FileGroups {
		if len(group) > 1 {
			slog.Debug("Skipping output ordering, file group holds more than one file",
				slog.Int("files", len(group)))
			return false
		}
	}
	return true
}

// FileColumnProjectionIndices returns the projection restricted to file
// columns, in projection order. It is nil when there is no projection.
func (c *ScanConfig) FileColumnProjectionIndices() []int {
	if c.Projection == nil {
		return nil
	}
	nFile := c.FileSchema.NumFields()
	out := make([]int, 0, len(c.Projection))
	for _, idx := range c.Projection {
		if idx >= 0 && idx < nFile {
			out = append(out, idx)
		}
	}
	return out
}

// ProjectedFileColumnNames returns the names of the projected file columns.
// It is nil when there is no projection.
func (c *ScanConfig) ProjectedFileColumnNames() []string {
	indices := c.FileColumnProjectionIndices()
	if indices == nil {
		return nil
	}
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = c.FileSchema.Field(idx).Name
	}
	return names
}

// ProjectedFileSchema returns the schema a format reader must produce for
// each file: the projected file columns in projection order.
func (c *ScanConfig) ProjectedFileSchema() (*arrow.Schema, error) {
	if c.Projection == nil {
		return c.FileSchema, nil
	}
	width := c.Width()
	for _, idx := range c.Projection {
		if idx < 0 || idx >= width {
			return nil, &ProjectionError{Index: idx, Max: width}
		}
	}
	indices := c.FileColumnProjectionIndices()
	fields := make([]arrow.Field, len(indices))
	for i, idx := range indices {
		fields[i] = c.FileSchema.Field(idx)
	}
	md := c.FileSchema.Metadata()
	return arrow.NewSchema(fields, &md), nil
}

// PartitionColumnNames returns the partition column names in declaration order.
func (c *ScanConfig) PartitionColumnNames() []string {
	names := make([]string, len(c.TablePartitionCols))
	for i, pc := range c.TablePartitionCols {
		names[i] = pc.Name
	}
	return names
}

// FileCount returns the number of files across all groups.
func (c *ScanConfig) FileCount() int {
	n := 0
	for _, g := range c.FileGroups {
		n += len(g)
	}
	return n
}
