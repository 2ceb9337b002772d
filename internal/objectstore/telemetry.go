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

package objectstore

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	rangeRequestsCounter otelmetric.Int64Counter
	bytesReadCounter     otelmetric.Int64Counter

	tracer = otel.Tracer("github.com/cardinalhq/lakescan/internal/objectstore")
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/lakescan/internal/objectstore")

	var err error
	rangeRequestsCounter, err = meter.Int64Counter(
		"lakescan.objectstore.range.requests",
		otelmetric.WithDescription("Number of ranged reads issued against an object store"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create range.requests counter: %w", err))
	}

	bytesReadCounter, err = meter.Int64Counter(
		"lakescan.objectstore.bytes.read",
		otelmetric.WithUnit("By"),
		otelmetric.WithDescription("Number of bytes returned by ranged reads"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create bytes.read counter: %w", err))
	}
}

func recordRead(ctx context.Context, scheme string, n int64) {
	attrs := otelmetric.WithAttributes(attribute.String("scheme", scheme))
	rangeRequestsCounter.Add(ctx, 1, attrs)
	bytesReadCounter.Add(ctx, n, attrs)
}
