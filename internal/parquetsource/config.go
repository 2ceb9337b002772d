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

import "time"

// Config tunes parquet reading.
type Config struct {
	// BatchSize is the maximum number of rows per decoded batch.
	BatchSize int `mapstructure:"batch_size"`
	// MetadataCacheTTL is how long parsed footers stay cached.
	MetadataCacheTTL time.Duration `mapstructure:"metadata_cache_ttl"`
	// MetadataCacheSize caps the number of cached footers.
	MetadataCacheSize uint64 `mapstructure:"metadata_cache_size"`
}

func DefaultConfig() Config {
	return Config{
		BatchSize:         8192,
		MetadataCacheTTL:  5 * time.Minute,
		MetadataCacheSize: 10_000,
	}
}
