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

package parquetsource

import (
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/parquet/metadata"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/lakescan/internal/filescan"
)

// rowGroupSpan returns the byte offset of the first page of a row group and
// the compressed size of all its column chunks.
func rowGroupSpan(rg *metadata.RowGroupMetaData) (start, size int64, err error) {
	start = -1
	for i := range rg.NumColumns() {
		cc, err := rg.ColumnChunk(i)
		if err != nil {
			return 0, 0, fmt.Errorf("column chunk %d: %w", i, err)
		}
		off := cc.DataPageOffset()
		if cc.HasDictionaryPage() && cc.DictionaryPageOffset() > 0 && cc.DictionaryPageOffset() < off {
			off = cc.DictionaryPageOffset()
		}
		if start < 0 || off < start {
			start = off
		}
		size += cc.TotalCompressedSize()
	}
	if start < 0 {
		start = 0
	}
	return start, size, nil
}

// selectRowGroups returns the row groups whose midpoint lies in r. Ranges
// that partition a file therefore partition its row groups.
func selectRowGroups(ctx context.Context, md *metadata.FileMetaData, r filescan.FileRange) ([]int, error) {
	var selected []int
	for i := range md.NumRowGroups() {
		start, size, err := rowGroupSpan(md.RowGroup(i))
		if err != nil {
			return nil, fmt.Errorf("row group %d: %w", i, err)
		}
		if r.Contains(start + size/2) {
			selected = append(selected, i)
		}
	}
	rowGroupsCounter.Add(ctx, int64(len(selected)), otelmetric.WithAttributes(attribute.Bool("selected", true)))
	rowGroupsCounter.Add(ctx, int64(md.NumRowGroups()-len(selected)), otelmetric.WithAttributes(attribute.Bool("selected", false)))
	return selected, nil
}
