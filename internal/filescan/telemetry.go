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
	"context"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	partitionRowsCounter      otelmetric.Int64Counter
	zeroBufferReuseCounter    otelmetric.Int64Counter
	zeroBufferAllocCounter    otelmetric.Int64Counter
	partitionValueWrapCounter otelmetric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/lakescan/internal/filescan")

	var err error
	partitionRowsCounter, err = meter.Int64Counter(
		"lakescan.filescan.partition.rows",
		otelmetric.WithDescription("Number of rows that had partition columns inserted"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create partition.rows counter: %w", err))
	}

	zeroBufferReuseCounter, err = meter.Int64Counter(
		"lakescan.filescan.zerobuffer.reused",
		otelmetric.WithDescription("Number of dictionary index buffers served from the zero buffer cache"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create zerobuffer.reused counter: %w", err))
	}

	zeroBufferAllocCounter, err = meter.Int64Counter(
		"lakescan.filescan.zerobuffer.allocated",
		otelmetric.WithDescription("Number of dictionary index buffers allocated by the zero buffer cache"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create zerobuffer.allocated counter: %w", err))
	}

	partitionValueWrapCounter, err = meter.Int64Counter(
		"lakescan.filescan.partition.value.wrapped",
		otelmetric.WithDescription("Number of plain partition values wrapped into a dictionary"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create partition.value.wrapped counter: %w", err))
	}
}

func recordZeroBuffer(indexType arrow.DataType, reused bool) {
	attrs := otelmetric.WithAttributes(attribute.String("index_type", indexType.String()))
	if reused {
		zeroBufferReuseCounter.Add(context.Background(), 1, attrs)
	} else {
		zeroBufferAllocCounter.Add(context.Background(), 1, attrs)
	}
}
