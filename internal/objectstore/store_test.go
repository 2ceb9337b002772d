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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    URL
		wantErr bool
	}{
		{"s3://bucket", URL{Scheme: "s3", Host: "bucket"}, false},
		{"S3://bucket/", URL{Scheme: "s3", Host: "bucket"}, false},
		{"file://", URL{Scheme: "file"}, false},
		{"azure://container", URL{Scheme: "azure", Host: "container"}, false},
		{"s3://bucket/path", URL{}, true},
		{"s3://bucket?x=1", URL{}, true},
		{"bucket", URL{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "s3://bucket/", MustParseURL("s3://bucket").String())
	assert.Panics(t, func() { MustParseURL("nope") })
}

func TestSplitTableURL(t *testing.T) {
	u, prefix, err := SplitTableURL("s3://bucket/path/to/table")
	require.NoError(t, err)
	assert.Equal(t, URL{Scheme: "s3", Host: "bucket"}, u)
	assert.Equal(t, "path/to/table/", prefix)

	u, prefix, err = SplitTableURL("file:///data/t/")
	require.NoError(t, err)
	assert.Equal(t, URL{Scheme: "file"}, u)
	assert.Equal(t, "data/t/", prefix)

	_, prefix, err = SplitTableURL("s3://bucket")
	require.NoError(t, err)
	assert.Equal(t, "", prefix)

	_, _, err = SplitTableURL("/no/scheme")
	assert.Error(t, err)
}
