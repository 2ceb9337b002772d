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

// Package parquetsource reads partitioned parquet files from an object
// store as a physical plan.
package parquetsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/cardinalhq/lakescan/internal/filescan"
	"github.com/cardinalhq/lakescan/internal/objectstore"
	"github.com/cardinalhq/lakescan/internal/physicalplan"
)

// FileExtension is the suffix listed tables filter parquet objects by.
const FileExtension = ".parquet"

// Format creates parquet scans sharing one registry and footer cache.
type Format struct {
	registry *objectstore.Registry
	cache    *MetadataCache
	cfg      Config
	mem      memory.Allocator
}

func NewFormat(registry *objectstore.Registry, cfg Config) *Format {
	return &Format{
		registry: registry,
		cache:    NewMetadataCache(cfg),
		cfg:      cfg,
		mem:      memory.DefaultAllocator,
	}
}

func (f *Format) Extension() string { return FileExtension }

// InferSchema returns the arrow schema of the first object. Every other
// file is adapted to it at read time.
func (f *Format) InferSchema(ctx context.Context, store objectstore.Store, objects []objectstore.ObjectMeta) (*arrow.Schema, error) {
	if len(objects) == 0 {
		return nil, errors.New("cannot infer schema without files")
	}
	pf, _, err := openParquet(ctx, store, objects[0], f.cache)
	if err != nil {
		return nil, err
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, f.mem)
	if err != nil {
		return nil, fmt.Errorf("create arrow reader for %s: %w", objects[0].Location, err)
	}
	schema, err := fr.Schema()
	if err != nil {
		return nil, fmt.Errorf("read arrow schema of %s: %w", objects[0].Location, err)
	}
	return schema, nil
}

// CreatePhysicalPlan returns a parquet scan for cfg.
func (f *Format) CreatePhysicalPlan(cfg *filescan.ScanConfig) (physicalplan.ExecutionPlan, error) {
	return NewExec(cfg, f.registry, f.cfg, WithMetadataCache(f.cache), WithExecAllocator(f.mem))
}

// Close stops the footer cache.
func (f *Format) Close() {
	f.cache.Stop()
}
