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

package logctx

import (
	"context"
	"log/slog"
)

type contextKey int

const (
	loggerKey contextKey = iota
	scanIDKey
)

// WithLogger returns a new context with the given logger stored in it.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves a logger from the context. If no logger is found,
// it returns the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithScanID stores the scan execution id in the context and decorates the
// context logger with it, so every line logged for the scan carries the id.
func WithScanID(ctx context.Context, scanID string) context.Context {
	ctx = context.WithValue(ctx, scanIDKey, scanID)
	return WithLogger(ctx, FromContext(ctx).With(slog.String("scanID", scanID)))
}

// ScanID returns the scan execution id stored by WithScanID, or "".
func ScanID(ctx context.Context) string {
	id, _ := ctx.Value(scanIDKey).(string)
	return id
}
