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

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/scalar"

	"github.com/cardinalhq/lakescan/internal/filescan"
)

// HiveDefaultPartition is the directory value hive writes for a null
// partition value.
const HiveDefaultPartition = "__HIVE_DEFAULT_PARTITION__"

// ParsePartitionValues extracts the values of cols from the directories of
// location below tablePrefix. The directories must start with one
// "name=value" segment per column in declaration order; ok is false for
// files that do not follow that layout.
func ParsePartitionValues(location, tablePrefix string, cols []filescan.PartitionColumn) (values []filescan.PartitionValue, ok bool, err error) {
	rel, found := strings.CutPrefix(location, tablePrefix)
	if !found {
		return nil, false, nil
	}
	segments := strings.Split(strings.TrimPrefix(rel, "/"), "/")
	// the last segment is the file name
	dirs := segments[:len(segments)-1]
	if len(dirs) < len(cols) {
		return nil, false, nil
	}

	values = make([]filescan.PartitionValue, len(cols))
	for i, col := range cols {
		name, raw, found := strings.Cut(dirs[i], "=")
		if !found || name != col.Name {
			return nil, false, nil
		}
		if unescaped, uerr := url.PathUnescape(raw); uerr == nil {
			raw = unescaped
		}
		v, err := parsePartitionValue(col, raw)
		if err != nil {
			return nil, false, fmt.Errorf("partition column %q of %s: %w", col.Name, location, err)
		}
		values[i] = v
	}
	return values, true, nil
}

func parsePartitionValue(col filescan.PartitionColumn, raw string) (filescan.PartitionValue, error) {
	valueType := col.Type
	dict, isDict := col.Type.(*arrow.DictionaryType)
	if isDict {
		valueType = dict.ValueType
	}

	var s scalar.Scalar
	if raw == HiveDefaultPartition {
		s = scalar.MakeNullScalar(valueType)
	} else {
		var err error
		s, err = scalar.ParseScalar(valueType, raw)
		if err != nil {
			return filescan.PartitionValue{}, fmt.Errorf("parse %q as %s: %w", raw, valueType, err)
		}
	}

	if isDict {
		return filescan.PartitionValue{Value: s, DictKey: dict.IndexType}, nil
	}
	return filescan.PlainPartitionValue(s), nil
}

// SplitFiles chunks files into at most n groups of near equal length,
// keeping their order.
func SplitFiles(files []filescan.PartitionedFile, n int) []filescan.FileGroup {
	if len(files) == 0 {
		return nil
	}
	n = max(n, 1)
	chunk := (len(files) + n - 1) / n
	groups := make([]filescan.FileGroup, 0, n)
	for start := 0; start < len(files); start += chunk {
		end := min(start+chunk, len(files))
		groups = append(groups, filescan.FileGroup(files[start:end:end]))
	}
	return groups
}
