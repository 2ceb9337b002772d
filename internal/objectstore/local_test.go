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

package objectstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, root, "t/a=1/x.parquet", "0123456789")
	writeFile(t, root, "t/a=2/y.parquet", "abc")
	writeFile(t, root, "other/z.parquet", "zz")
	store := NewLocalStore(root)

	meta, err := store.Head(ctx, "t/a=1/x.parquet")
	require.NoError(t, err)
	assert.Equal(t, "t/a=1/x.parquet", meta.Location)
	assert.Equal(t, int64(10), meta.Size)

	_, err = store.Head(ctx, "t/missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Head(ctx, "t")
	assert.ErrorIs(t, err, ErrNotFound)

	data, err := store.GetRange(ctx, "t/a=1/x.parquet", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, "234", string(data))

	data, err = store.GetRange(ctx, "t/a=1/x.parquet", 8, 20)
	require.NoError(t, err)
	assert.Equal(t, "89", string(data))

	_, err = store.GetRange(ctx, "t/a=1/x.parquet", 5, 2)
	assert.Error(t, err)
	_, err = store.GetRange(ctx, "nope", 0, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	objects, err := store.List(ctx, "t/")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "t/a=1/x.parquet", objects[0].Location)
	assert.Equal(t, "t/a=2/y.parquet", objects[1].Location)
	assert.Equal(t, int64(3), objects[1].Size)

	objects, err = store.List(ctx, "t/a=2")
	require.NoError(t, err)
	require.Len(t, objects, 1)

	objects, err = store.List(ctx, "absent/")
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestRangeReader(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFile(t, root, "f", "hello world")
	store := NewLocalStore(root)
	meta, err := store.Head(ctx, "f")
	require.NoError(t, err)

	r := NewRangeReader(ctx, store, meta)
	assert.Equal(t, int64(11), r.Size())

	buf := make([]byte, 5)
	n, err := r.ReadAt(buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "world", string(buf[:n]))

	n, err = r.ReadAt(buf, 9)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "ld", string(buf[:n]))

	_, err = r.ReadAt(buf, 11)
	assert.ErrorIs(t, err, io.EOF)
	_, err = r.ReadAt(buf, -1)
	assert.Error(t, err)

	pos, err := r.Seek(-5, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)
	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "world", string(all))

	_, err = r.Seek(0, 42)
	assert.Error(t, err)
}

func TestRegistryAndOpen(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistry()

	_, err := registry.Resolve(MustParseURL("file://"))
	assert.ErrorContains(t, err, "no object store registered for file:///")

	cfg := DefaultConfig()
	cfg.LocalRoot = t.TempDir()
	store, err := Open(ctx, registry, MustParseURL("file://"), cfg)
	require.NoError(t, err)

	again, err := Open(ctx, registry, MustParseURL("file://"), cfg)
	require.NoError(t, err)
	assert.Same(t, store, again)

	resolved, err := registry.Resolve(MustParseURL("file://"))
	require.NoError(t, err)
	assert.Same(t, store, resolved)

	_, err = Open(ctx, registry, MustParseURL("ftp://host"), cfg)
	assert.ErrorContains(t, err, "unsupported object store scheme")

	_, err = Open(ctx, registry, MustParseURL("azure://container"), cfg)
	assert.ErrorContains(t, err, "service url")
}
