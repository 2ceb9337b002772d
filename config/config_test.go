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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakescan/internal/listing"
	"github.com/cardinalhq/lakescan/internal/parquetsource"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, listing.DefaultConfig(), cfg.Listing)
	require.Equal(t, parquetsource.DefaultConfig(), cfg.Parquet)
	require.Equal(t, "/", cfg.ObjectStore.LocalRoot)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LAKESCAN_LISTING_TARGET_PARTITIONS", "12")
	t.Setenv("LAKESCAN_LISTING_REPARTITION", "false")
	t.Setenv("LAKESCAN_PARQUET_BATCH_SIZE", "1024")
	t.Setenv("LAKESCAN_PARQUET_METADATA_CACHE_TTL", "90s")
	t.Setenv("LAKESCAN_OBJECTSTORE_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("LAKESCAN_OBJECTSTORE_S3_PATH_STYLE", "true")
	t.Setenv("LAKESCAN_OBJECTSTORE_LOCAL_ROOT", "/data")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 12, cfg.Listing.TargetPartitions)
	require.False(t, cfg.Listing.Repartition)
	require.Equal(t, 1024, cfg.Parquet.BatchSize)
	require.Equal(t, 90*time.Second, cfg.Parquet.MetadataCacheTTL)
	require.Equal(t, "http://localhost:9000", cfg.ObjectStore.S3.Endpoint)
	require.True(t, cfg.ObjectStore.S3.PathStyle)
	require.Equal(t, "/data", cfg.ObjectStore.LocalRoot)
}
