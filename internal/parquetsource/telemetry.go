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
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	rowGroupsCounter     otelmetric.Int64Counter
	rowsReadCounter      otelmetric.Int64Counter
	filesOpenedCounter   otelmetric.Int64Counter
	metadataCacheCounter otelmetric.Int64Counter

	hitAttrs  = otelmetric.WithAttributes(attribute.String("result", "hit"))
	missAttrs = otelmetric.WithAttributes(attribute.String("result", "miss"))
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/lakescan/internal/parquetsource")

	var err error
	rowGroupsCounter, err = meter.Int64Counter(
		"lakescan.parquet.rowgroups",
		otelmetric.WithDescription("Number of row groups considered for a byte range, by whether they were selected"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create rowgroups counter: %w", err))
	}

	rowsReadCounter, err = meter.Int64Counter(
		"lakescan.parquet.rows.read",
		otelmetric.WithDescription("Number of rows decoded from parquet files"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create rows.read counter: %w", err))
	}

	filesOpenedCounter, err = meter.Int64Counter(
		"lakescan.parquet.files.opened",
		otelmetric.WithDescription("Number of parquet files opened for reading"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create files.opened counter: %w", err))
	}

	metadataCacheCounter, err = meter.Int64Counter(
		"lakescan.parquet.metadata.cache",
		otelmetric.WithDescription("Number of footer metadata cache lookups, by result"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create metadata.cache counter: %w", err))
	}
}
