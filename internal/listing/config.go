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

package listing

import "runtime"

// Config controls how a listed table is split into scan partitions.
type Config struct {
	// TargetPartitions is the number of partitions a scan aims for.
	TargetPartitions int `mapstructure:"target_partitions"`
	// Repartition enables splitting files into byte ranges.
	Repartition bool `mapstructure:"repartition"`
	// MinRepartitionSize is the total size below which files are not split.
	MinRepartitionSize int64 `mapstructure:"min_repartition_size"`
	// FileExtension overrides the format's extension when set.
	FileExtension string `mapstructure:"file_extension"`
}

func DefaultConfig() Config {
	return Config{
		TargetPartitions:   runtime.GOMAXPROCS(0),
		Repartition:        true,
		MinRepartitionSize: 10 * 1024 * 1024,
	}
}
