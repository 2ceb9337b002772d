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

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGCPercent(t *testing.T) {
	pct, ok := gcPercent("")
	assert.True(t, ok)
	assert.Equal(t, defaultGCPercent, pct)

	_, ok = gcPercent("100")
	assert.False(t, ok)
	_, ok = gcPercent("off")
	assert.False(t, ok)
}

func TestStartupVerbose(t *testing.T) {
	t.Setenv("DEBUG", "")
	t.Setenv("LAKESCAN_DEBUG", "")
	assert.False(t, startupVerbose())

	t.Setenv("LAKESCAN_DEBUG", "1")
	assert.True(t, startupVerbose())

	t.Setenv("LAKESCAN_DEBUG", "")
	t.Setenv("DEBUG", "true")
	assert.True(t, startupVerbose())
}
