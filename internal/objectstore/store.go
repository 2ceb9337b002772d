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
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned by a Store when the requested object does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectMeta describes one object in a store.
type ObjectMeta struct {
	// Location is the store-relative, slash separated path of the object.
	Location     string
	Size         int64
	LastModified time.Time
}

// Store is the minimal object-store surface the scan layer needs.
type Store interface {
	// Head returns the metadata of a single object.
	Head(ctx context.Context, location string) (ObjectMeta, error)

	// GetRange returns the bytes in [start, end) of the object.
	GetRange(ctx context.Context, location string, start, end int64) ([]byte, error)

	// List returns all objects whose location starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectMeta, error)
}

// URL identifies a store instance, e.g. "s3://bucket" or "file://".
// Only the scheme and host are significant.
type URL struct {
	Scheme string
	Host   string
}

// ParseURL parses a store URL. Paths, queries and fragments are rejected.
func ParseURL(s string) (URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return URL{}, fmt.Errorf("parse object store url %q: %w", s, err)
	}
	if u.Scheme == "" {
		return URL{}, fmt.Errorf("object store url %q has no scheme", s)
	}
	if u.Path != "" && u.Path != "/" {
		return URL{}, fmt.Errorf("object store url %q must not contain a path", s)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return URL{}, fmt.Errorf("object store url %q must not contain a query or fragment", s)
	}
	return URL{Scheme: strings.ToLower(u.Scheme), Host: u.Host}, nil
}

// MustParseURL is like ParseURL but panics on error. Intended for tests and constants.
func MustParseURL(s string) URL {
	u, err := ParseURL(s)
	if err != nil {
		panic(err)
	}
	return u
}

func (u URL) String() string {
	return u.Scheme + "://" + u.Host + "/"
}

// SplitTableURL splits a table location such as "s3://bucket/path/to/table"
// into the store URL and the table prefix inside that store.
func SplitTableURL(s string) (URL, string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return URL{}, "", fmt.Errorf("parse table url %q: %w", s, err)
	}
	if u.Scheme == "" {
		return URL{}, "", fmt.Errorf("table url %q has no scheme", s)
	}
	prefix := strings.TrimPrefix(u.Path, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return URL{Scheme: strings.ToLower(u.Scheme), Host: u.Host}, prefix, nil
}
