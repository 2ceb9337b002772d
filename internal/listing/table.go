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

// Package listing discovers the files of a table in an object store and
// turns them into a file scan.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cardinalhq/lakescan/internal/filescan"
	"github.com/cardinalhq/lakescan/internal/logctx"
	"github.com/cardinalhq/lakescan/internal/objectstore"
	"github.com/cardinalhq/lakescan/internal/physicalplan"
)

// FileFormat reads one file type.
type FileFormat interface {
	Extension() string
	InferSchema(ctx context.Context, store objectstore.Store, objects []objectstore.ObjectMeta) (*arrow.Schema, error)
	CreatePhysicalPlan(cfg *filescan.ScanConfig) (physicalplan.ExecutionPlan, error)
}

// TableOptions describes the layout of a table.
type TableOptions struct {
	// PartitionCols are encoded in the directory names, outermost first.
	PartitionCols []filescan.PartitionColumn
	// FileSchema is inferred from the first file when nil.
	FileSchema *arrow.Schema
	// OutputOrdering lists orderings every file is known to satisfy.
	OutputOrdering []filescan.LexOrdering
}

// Table is a directory of files sharing one schema.
type Table struct {
	store      objectstore.Store
	storeURL   objectstore.URL
	prefix     string
	format     FileFormat
	cfg        Config
	opts       TableOptions
	fileSchema *arrow.Schema
}

// NewTable resolves location, a URL such as "s3://bucket/path/to/table",
// against the registry.
func NewTable(ctx context.Context, registry *objectstore.Registry, location string, format FileFormat, cfg Config, opts TableOptions) (*Table, error) {
	storeURL, prefix, err := objectstore.SplitTableURL(location)
	if err != nil {
		return nil, err
	}
	store, err := registry.Resolve(storeURL)
	if err != nil {
		return nil, err
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	for _, col := range opts.PartitionCols {
		if !seen.Add(col.Name) {
			return nil, fmt.Errorf("duplicate partition column %q", col.Name)
		}
	}

	t := &Table{
		store:      store,
		storeURL:   storeURL,
		prefix:     prefix,
		format:     format,
		cfg:        cfg,
		opts:       opts,
		fileSchema: opts.FileSchema,
	}

	if t.fileSchema == nil {
		objects, err := t.listObjects(ctx)
		if err != nil {
			return nil, err
		}
		if len(objects) == 0 {
			return nil, fmt.Errorf("no %s files under %s to infer a schema from", t.extension(), location)
		}
		t.fileSchema, err = format.InferSchema(ctx, store, objects)
		if err != nil {
			return nil, err
		}
	}
	for _, col := range opts.PartitionCols {
		if len(t.fileSchema.FieldIndices(col.Name)) > 0 {
			return nil, fmt.Errorf("partition column %q is also a file column", col.Name)
		}
	}
	return t, nil
}

// FileSchema returns the schema of the files, without partition columns.
func (t *Table) FileSchema() *arrow.Schema {
	return t.fileSchema
}

// Schema returns the table schema: file columns then partition columns.
func (t *Table) Schema() *arrow.Schema {
	cfg := &filescan.ScanConfig{FileSchema: t.fileSchema, TablePartitionCols: t.opts.PartitionCols}
	projected, err := cfg.Project()
	if err != nil {
		panic(err)
	}
	return projected.Schema
}

func (t *Table) extension() string {
	if t.cfg.FileExtension != "" {
		return t.cfg.FileExtension
	}
	return t.format.Extension()
}

func (t *Table) listObjects(ctx context.Context) ([]objectstore.ObjectMeta, error) {
	all, err := t.store.List(ctx, t.prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s%s: %w", t.storeURL, t.prefix, err)
	}
	ext := t.extension()
	objects := all[:0:0]
	for _, o := range all {
		base := path.Base(o.Location)
		if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") {
			continue
		}
		if !strings.HasSuffix(base, ext) {
			continue
		}
		objects = append(objects, o)
	}
	return objects, nil
}

// ListFiles returns every file of the table with its partition values.
// Files outside the partition layout are skipped.
func (t *Table) ListFiles(ctx context.Context) ([]filescan.PartitionedFile, error) {
	objects, err := t.listObjects(ctx)
	if err != nil {
		return nil, err
	}
	logger := logctx.FromContext(ctx)

	files := make([]filescan.PartitionedFile, 0, len(objects))
	for _, o := range objects {
		values, ok, err := ParsePartitionValues(o.Location, t.prefix, t.opts.PartitionCols)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Debug("Skipping file outside partition layout", slog.String("location", o.Location))
			continue
		}
		files = append(files, filescan.PartitionedFile{Object: o, PartitionValues: values})
	}
	return files, nil
}

// Scan lists the table and returns a plan reading the projected columns.
// projection indexes the table schema; nil reads every column. limit caps
// the rows of each partition.
func (t *Table) Scan(ctx context.Context, projection []int, limit *int64) (physicalplan.ExecutionPlan, error) {
	files, err := t.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	cfg := &filescan.ScanConfig{
		ObjectStoreURL: t.storeURL,
		FileSchema:     t.fileSchema,
		FileGroups:     SplitFiles(files, t.cfg.TargetPartitions),
		Statistics: filescan.Statistics{
			ColumnStatistics: filescan.UnknownColumnStatistics(t.fileSchema.NumFields()),
		},
		Projection:         projection,
		Limit:              limit,
		TablePartitionCols: t.opts.PartitionCols,
		OutputOrdering:     t.opts.OutputOrdering,
	}
	if _, err := cfg.Project(); err != nil {
		return nil, err
	}

	if t.cfg.Repartition {
		if repartitioned, ok := cfg.WithRepartitionedFileGroups(t.cfg.TargetPartitions, t.cfg.MinRepartitionSize); ok {
			logctx.FromContext(ctx).Debug("Repartitioned file groups",
				slog.Int("from", len(cfg.FileGroups)),
				slog.Int("to", len(repartitioned.FileGroups)))
			// byte ranges of one file no longer preserve its ordering
			repartitioned.OutputOrdering = nil
			cfg = repartitioned
		}
	}

	return t.format.CreatePhysicalPlan(cfg)
}
