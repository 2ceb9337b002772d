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

// Package filescan holds the physical scan configuration for file backed
// tables: the projected output schema and statistics, byte-range
// repartitioning of file groups, and the projector that materializes
// constant partition columns into decoded batches.
//
// Nothing in this package performs I/O. A ScanConfig is immutable once
// built and may be shared between partitions; a PartitionColumnProjector
// belongs to exactly one partition.
package filescan
