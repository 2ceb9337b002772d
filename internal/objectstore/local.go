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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore serves objects from a directory on the local filesystem.
// Locations are slash separated paths relative to the root.
type LocalStore struct {
	root string
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore returns a store rooted at root.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(location string) string {
	return filepath.Join(s.root, filepath.FromSlash(location))
}

// Head stats the file at location.
func (s *LocalStore) Head(ctx context.Context, location string) (ObjectMeta, error) {
	fi, err := os.Stat(s.path(location))
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectMeta{}, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return ObjectMeta{}, err
	}
	if fi.IsDir() {
		return ObjectMeta{}, fmt.Errorf("%w: %s is a directory", ErrNotFound, location)
	}
	return ObjectMeta{Location: location, Size: fi.Size(), LastModified: fi.ModTime()}, nil
}

// GetRange reads [start, end) from the file at location.
func (s *LocalStore) GetRange(ctx context.Context, location string, start, end int64) ([]byte, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid range [%d, %d) for %s", start, end, location)
	}
	f, err := os.Open(s.path(location))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, location)
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, end-start)
	n, err := f.ReadAt(buf, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s [%d, %d): %w", location, start, end, err)
	}
	recordRead(ctx, "file", int64(n))
	return buf[:n], nil
}

// List walks the directory under prefix and returns every regular file.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]ObjectMeta, error) {
	// The prefix may end inside a file name, so walk from its directory.
	dir := prefix
	if !strings.HasSuffix(dir, "/") {
		dir = filepath.ToSlash(filepath.Dir(filepath.FromSlash(prefix)))
		if dir == "." {
			dir = ""
		}
	}

	var out []ObjectMeta
	walkRoot := s.path(dir)
	err := filepath.WalkDir(walkRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == walkRoot {
				return fs.SkipDir
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		location := filepath.ToSlash(rel)
		if !strings.HasPrefix(location, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, ObjectMeta{Location: location, Size: info.Size(), LastModified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out, nil
}
