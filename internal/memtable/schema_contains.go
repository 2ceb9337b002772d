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

package memtable

import (
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// SchemaContains reports whether a batch with schema candidate may be
// stored in a table declared with schema declared. Both must have the same
// number of fields, every field pair must satisfy FieldContains, and the
// declared schema metadata must hold every candidate entry.
func SchemaContains(declared, candidate *arrow.Schema) bool {
	if declared.NumFields() != candidate.NumFields() {
		return false
	}
	for i := range declared.NumFields() {
		if !FieldContains(declared.Field(i), candidate.Field(i)) {
			return false
		}
	}
	return metadataContains(declared.Metadata(), candidate.Metadata())
}

// FieldContains reports whether candidate is compatible with declared.
// Qualified names match their unqualified form, an Int64 declared field
// accepts an Uint64 candidate, and a nullable declared field accepts a
// non-nullable candidate but not the other way around.
func FieldContains(declared, candidate arrow.Field) bool {
	if declared.Equal(candidate) {
		return true
	}

	ok := normalizeName(declared.Name) == normalizeName(candidate.Name)
	ok = ok && dictOrdered(declared.Type) == dictOrdered(candidate.Type)
	ok = ok && (arrow.TypeEqual(declared.Type, candidate.Type) ||
		(declared.Type.ID() == arrow.INT64 && candidate.Type.ID() == arrow.UINT64))
	ok = ok && (declared.Nullable || !candidate.Nullable)
	ok = ok && metadataContains(declared.Metadata, candidate.Metadata)
	return ok
}

type dictFlag int

const (
	notDict dictFlag = iota
	dictUnordered
	dictOrderedFlag
)

func dictOrdered(t arrow.DataType) dictFlag {
	dt, ok := t.(*arrow.DictionaryType)
	switch {
	case !ok:
		return notDict
	case dt.Ordered:
		return dictOrderedFlag
	default:
		return dictUnordered
	}
}

func metadataContains(declared, candidate arrow.Metadata) bool {
	keys, values := candidate.Keys(), candidate.Values()
	for i, k := range keys {
		idx := declared.FindKey(k)
		if idx < 0 || declared.Values()[idx] != values[i] {
			return false
		}
	}
	return true
}

// normalizeName maps "t.col" to "col" and "fn(t.col)" to "fn(col)". Names
// with a comma are not calls, so "fn(t.a, t.b)" only loses its first
// qualifier. A qualified call whose argument has no qualifier or closing
// parenthesis is returned unchanged.
func normalizeName(name string) string {
	if !isQualified(name) {
		return name
	}
	if isCall(name) {
		fn, arg, ok := splitCall(name)
		if !ok {
			return name
		}
		return fn + "(" + arg + ")"
	}
	_, rest, _ := strings.Cut(name, ".")
	return rest
}

func isQualified(name string) bool {
	return strings.Contains(name, ".")
}

func isCall(name string) bool {
	return strings.Contains(name, "(") && !strings.Contains(name, ",")
}

// splitCall returns the function name and the unqualified argument of a
// qualified call.
func splitCall(name string) (fn, arg string, ok bool) {
	fn, rest, found := strings.Cut(name, "(")
	if !found {
		return "", "", false
	}
	_, rest, found = strings.Cut(rest, ".")
	if !found {
		return "", "", false
	}
	arg, _, found = strings.Cut(rest, ")")
	if !found {
		return "", "", false
	}
	return fn, arg, true
}
