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

// Package physicalplan defines the contract between scan planning and the
// code that drives partitions to completion.
package physicalplan

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/cardinalhq/lakescan/internal/filescan"
)

// RecordStream yields the batches of one partition. Next returns io.EOF
// once the stream is exhausted. The caller owns every returned batch and
// must release it.
type RecordStream interface {
	Next(ctx context.Context) (arrow.RecordBatch, error)
	Close() error
}

// ExecutionPlan is a node of a physical plan.
type ExecutionPlan interface {
	Schema() *arrow.Schema
	Statistics() filescan.Statistics
	OutputOrdering() []filescan.LexOrdering
	// PartitionCount is the number of independent streams Execute can open.
	PartitionCount() int
	Children() []ExecutionPlan
	// Execute opens the stream of one partition in [0, PartitionCount).
	Execute(ctx context.Context, partition int) (RecordStream, error)
}

// FileScanner is implemented by plans that read files.
type FileScanner interface {
	FileScanConfig() *filescan.ScanConfig
}

// ScanFiles returns the file groups of every file scan in the plan tree,
// in depth-first order. It does not look below a file scan.
func ScanFiles(plan ExecutionPlan) [][]filescan.FileGroup {
	var out [][]filescan.FileGroup
	Walk(plan, func(p ExecutionPlan) bool {
		if fs, ok := p.(FileScanner); ok {
			out = append(out, fs.FileScanConfig().FileGroups)
			return false
		}
		return true
	})
	return out
}

// Walk visits plan and its descendants depth first. Children of a node are
// skipped when fn returns false for it.
func Walk(plan ExecutionPlan, fn func(ExecutionPlan) bool) {
	if !fn(plan) {
		return
	}
	for _, child := range plan.Children() {
		Walk(child, fn)
	}
}

// Describe renders the plan tree one node per line, children indented.
// Nodes implementing fmt.Stringer describe themselves.
func Describe(plan ExecutionPlan) string {
	var sb strings.Builder
	describe(&sb, plan, 0)
	return sb.String()
}

func describe(sb *strings.Builder, plan ExecutionPlan, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if s, ok := plan.(fmt.Stringer); ok {
		sb.WriteString(s.String())
	} else {
		fmt.Fprintf(sb, "%T: partitions=%d", plan, plan.PartitionCount())
	}
	sb.WriteByte('\n')
	for _, child := range plan.Children() {
		describe(sb, child, depth+1)
	}
}
