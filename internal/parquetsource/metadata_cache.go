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
	"encoding/binary"

	"github.com/apache/arrow-go/v18/parquet/metadata"
	"github.com/cespare/xxhash/v2"
	"github.com/jellydator/ttlcache/v3"

	"github.com/cardinalhq/lakescan/internal/objectstore"
)

// MetadataCache keeps parsed parquet footers so that every partition
// reading a piece of the same file parses its footer once.
type MetadataCache struct {
	cache *ttlcache.Cache[uint64, *metadata.FileMetaData]
}

// NewMetadataCache returns a started cache. Call Stop to end its expiry loop.
func NewMetadataCache(cfg Config) *MetadataCache {
	c := &MetadataCache{
		cache: ttlcache.New(
			ttlcache.WithTTL[uint64, *metadata.FileMetaData](cfg.MetadataCacheTTL),
			ttlcache.WithDisableTouchOnHit[uint64, *metadata.FileMetaData](),
			ttlcache.WithCapacity[uint64, *metadata.FileMetaData](cfg.MetadataCacheSize),
		),
	}
	go c.cache.Start()
	return c
}

// metadataKey identifies one version of an object. A rewritten object
// usually changes size, which changes the key.
func metadataKey(meta objectstore.ObjectMeta) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(meta.Location)
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(meta.Size))
	_, _ = h.Write(size[:])
	return h.Sum64()
}

func (c *MetadataCache) Get(ctx context.Context, meta objectstore.ObjectMeta) (*metadata.FileMetaData, bool) {
	item := c.cache.Get(metadataKey(meta))
	if item == nil {
		metadataCacheCounter.Add(ctx, 1, missAttrs)
		return nil, false
	}
	metadataCacheCounter.Add(ctx, 1, hitAttrs)
	return item.Value(), true
}

func (c *MetadataCache) Set(meta objectstore.ObjectMeta, md *metadata.FileMetaData) {
	c.cache.Set(metadataKey(meta), md, ttlcache.DefaultTTL)
}

// Len returns the number of cached footers.
func (c *MetadataCache) Len() int {
	return c.cache.Len()
}

func (c *MetadataCache) Stop() {
	c.cache.Stop()
}
