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
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/cardinalhq/lakescan/internal/filescan"
	"github.com/cardinalhq/lakescan/internal/logctx"
	"github.com/cardinalhq/lakescan/internal/objectstore"
	"github.com/cardinalhq/lakescan/internal/physicalplan"
)

// Exec scans parquet files. Each file group is one partition; the files of
// a group are read one after another.
type Exec struct {
	config     *filescan.ScanConfig
	registry   *objectstore.Registry
	cache      *MetadataCache
	opts       Config
	mem        memory.Allocator
	projected  filescan.Projected
	fileSchema *arrow.Schema
}

var (
	_ physicalplan.ExecutionPlan = (*Exec)(nil)
	_ physicalplan.FileScanner   = (*Exec)(nil)
)

// ExecOption configures an Exec.
type ExecOption func(*Exec)

// WithExecAllocator sets the allocator used for decoding.
func WithExecAllocator(mem memory.Allocator) ExecOption {
	return func(e *Exec) {
		e.mem = mem
	}
}

// WithMetadataCache shares a footer cache between scans.
func WithMetadataCache(cache *MetadataCache) ExecOption {
	return func(e *Exec) {
		e.cache = cache
	}
}

// NewExec validates cfg and derives the projected output of the scan.
func NewExec(cfg *filescan.ScanConfig, registry *objectstore.Registry, opts Config, options ...ExecOption) (*Exec, error) {
	projected, err := cfg.Project()
	if err != nil {
		return nil, err
	}
	fileSchema, err := cfg.ProjectedFileSchema()
	if err != nil {
		return nil, err
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultConfig().BatchSize
	}
	e := &Exec{
		config:     cfg,
		registry:   registry,
		opts:       opts,
		mem:        memory.DefaultAllocator,
		projected:  projected,
		fileSchema: fileSchema,
	}
	for _, o := range options {
		o(e)
	}
	return e, nil
}

func (e *Exec) Schema() *arrow.Schema { return e.projected.Schema }

func (e *Exec) Statistics() filescan.Statistics { return e.projected.Statistics }

func (e *Exec) OutputOrdering() []filescan.LexOrdering { return e.projected.Orderings }

func (e *Exec) PartitionCount() int { return len(e.config.FileGroups) }

func (e *Exec) Children() []physicalplan.ExecutionPlan { return nil }

func (e *Exec) FileScanConfig() *filescan.ScanConfig { return e.config }

// Repartitioned returns a scan over byte ranges of the files spread across
// target partitions, or the receiver and false when the scan is left as is.
func (e *Exec) Repartitioned(target int, minSize int64) (*Exec, bool) {
	cfg, changed := e.config.WithRepartitionedFileGroups(target, minSize)
	if !changed {
		return e, false
	}
	next := *e
	next.config = cfg
	// ordering does not survive splitting a file across partitions
	next.projected.Orderings = nil
	return &next, true
}

// Execute opens the stream for one file group.
func (e *Exec) Execute(ctx context.Context, partition int) (physicalplan.RecordStream, error) {
	if partition < 0 || partition >= e.PartitionCount() {
		return nil, fmt.Errorf("%w: %d of %d", physicalplan.ErrInvalidPartition, partition, e.PartitionCount())
	}
	store, err := e.registry.Resolve(e.config.ObjectStoreURL)
	if err != nil {
		return nil, err
	}

	group := e.config.FileGroups[partition]
	logctx.FromContext(ctx).Debug("Executing parquet partition",
		slog.Int("partition", partition),
		slog.Int("files", len(group)),
		slog.Int64("bytes", group.TotalSize()))

	s := &partitionStream{
		exec:      e,
		store:     store,
		files:     group,
		projector: filescan.NewPartitionColumnProjector(e.projected.Schema, e.config.PartitionColumnNames(), filescan.WithAllocator(e.mem)),
	}
	if e.config.Limit != nil {
		return physicalplan.NewLimitStream(s, *e.config.Limit), nil
	}
	return s, nil
}

func (e *Exec) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ParquetExec: file_groups={%d group%s: [", len(e.config.FileGroups), plural(len(e.config.FileGroups)))
	for i, g := range e.config.FileGroups {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(g.String())
	}
	sb.WriteString("]}")
	if e.config.Projection != nil {
		names := make([]string, e.projected.Schema.NumFields())
		for i, f := range e.projected.Schema.Fields() {
			names[i] = f.Name
		}
		fmt.Fprintf(&sb, ", projection=[%s]", strings.Join(names, ", "))
	}
	if e.config.Limit != nil {
		fmt.Fprintf(&sb, ", limit=%d", *e.config.Limit)
	}
	return sb.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

type partitionStream struct {
	exec      *Exec
	store     objectstore.Store
	files     filescan.FileGroup
	next      int
	current   *fileReader
	projector *filescan.PartitionColumnProjector
	closed    bool
}

func (s *partitionStream) Next(ctx context.Context) (arrow.RecordBatch, error) {
	if s.closed {
		return nil, io.EOF
	}
	for {
		if s.current == nil {
			if s.next >= len(s.files) {
				return nil, io.EOF
			}
			f := s.files[s.next]
			s.next++
			r, err := newFileReader(ctx, s.store, f, s.exec.fileSchema, s.exec.cache, s.exec.opts, s.exec.mem)
			if err != nil {
				return nil, err
			}
			if r == nil {
				continue
			}
			s.current = r
		}

		rec, err := s.current.next(ctx)
		if errors.Is(err, io.EOF) {
			cerr := s.current.close()
			s.current = nil
			if cerr != nil {
				return nil, cerr
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		out, err := s.projector.Project(ctx, rec, s.files[s.next-1].PartitionValues)
		rec.Release()
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}

func (s *partitionStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.projector.Release()
	if s.current != nil {
		err := s.current.close()
		s.current = nil
		return err
	}
	return nil
}
