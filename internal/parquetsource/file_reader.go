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
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/metadata"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/cardinalhq/lakescan/internal/filescan"
	"github.com/cardinalhq/lakescan/internal/logctx"
	"github.com/cardinalhq/lakescan/internal/objectstore"
)

// openParquet opens the object behind meta, reusing cached footer metadata
// when the cache has it.
func openParquet(ctx context.Context, store objectstore.Store, meta objectstore.ObjectMeta, cache *MetadataCache) (*file.Reader, objectstore.ObjectMeta, error) {
	if meta.Size <= 0 {
		head, err := store.Head(ctx, meta.Location)
		if err != nil {
			return nil, meta, fmt.Errorf("stat %s: %w", meta.Location, err)
		}
		meta = head
	}

	var opts []file.ReadOption
	var md *metadata.FileMetaData
	if cache != nil {
		if cached, ok := cache.Get(ctx, meta); ok {
			md = cached
			opts = append(opts, file.WithMetadata(cached))
		}
	}

	pf, err := file.NewParquetReader(objectstore.NewRangeReader(ctx, store, meta), opts...)
	if err != nil {
		return nil, meta, fmt.Errorf("open parquet file %s: %w", meta.Location, err)
	}
	if cache != nil && md == nil {
		cache.Set(meta, pf.MetaData())
	}
	filesOpenedCounter.Add(ctx, 1)
	return pf, meta, nil
}

// fileReader decodes the selected row groups of one partitioned file and
// adapts every batch to the table file schema.
type fileReader struct {
	location string
	pf       *file.Reader
	rr       pqarrow.RecordReader
	adapter  *schemaAdapter
}

// newFileReader returns nil and no error when no row group of the file falls
// inside the file's range.
func newFileReader(ctx context.Context, store objectstore.Store, pfile filescan.PartitionedFile, target *arrow.Schema, cache *MetadataCache, cfg Config, mem memory.Allocator) (*fileReader, error) {
	pf, meta, err := openParquet(ctx, store, pfile.Object, cache)
	if err != nil {
		return nil, err
	}
	pfile.Object = meta

	rowGroups, err := selectRowGroups(ctx, pf.MetaData(), pfile.EffectiveRange())
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("%s: %w", meta.Location, err)
	}
	if len(rowGroups) == 0 {
		logctx.FromContext(ctx).Debug("No row groups in range",
			slog.String("file", pfile.String()))
		_ = pf.Close()
		return nil, nil
	}

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: int64(cfg.BatchSize)}, mem)
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("create arrow reader for %s: %w", meta.Location, err)
	}
	fileSchema, err := fr.Schema()
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("read arrow schema of %s: %w", meta.Location, err)
	}

	columns := fileColumnIndices(fileSchema, pf.MetaData().Schema.ColumnIndexByName, target)
	rr, err := fr.GetRecordReader(ctx, columns, rowGroups)
	if err != nil {
		_ = pf.Close()
		return nil, fmt.Errorf("create record reader for %s: %w", meta.Location, err)
	}

	return &fileReader{
		location: meta.Location,
		pf:       pf,
		rr:       rr,
		adapter:  newSchemaAdapter(target, mem),
	}, nil
}

// next returns the next adapted batch or io.EOF.
func (r *fileReader) next(ctx context.Context) (arrow.RecordBatch, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.rr.Read()
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read %s: %w", r.location, err)
		}
		if rec == nil {
			return nil, io.EOF
		}
		if rec.NumRows() == 0 {
			continue
		}
		rowsReadCounter.Add(ctx, rec.NumRows())
		// the reader owns rec and reuses it on the next Read
		adapted, aerr := r.adapter.adapt(ctx, rec)
		if aerr != nil {
			return nil, fmt.Errorf("%s: %w", r.location, aerr)
		}
		return adapted, nil
	}
}

func (r *fileReader) close() error {
	r.rr.Release()
	return r.pf.Close()
}
