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
	"fmt"
	"sync"
)

// Registry resolves store URLs to Store instances. It is safe for concurrent use.
type Registry struct {
	sync.RWMutex
	stores map[URL]Store
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[URL]Store)}
}

// Register adds or replaces the store for u.
func (r *Registry) Register(u URL, store Store) {
	r.Lock()
	defer r.Unlock()
	r.stores[u] = store
}

// Resolve returns the store registered for u.
func (r *Registry) Resolve(u URL) (Store, error) {
	r.RLock()
	defer r.RUnlock()
	store, ok := r.stores[u]
	if !ok {
		return nil, fmt.Errorf("no object store registered for %s", u)
	}
	return store, nil
}
