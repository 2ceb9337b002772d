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

package filescan

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/scalar"
)

// PartitionColumn is a table column whose value is constant per file and
// supplied out of band, usually from the file path.
type PartitionColumn struct {
	Name string
	Type arrow.DataType
}

// PartitionValue is the constant value of a partition column for one file.
// A non-nil DictKey marks the value as dictionary encoded with that index type.
type PartitionValue struct {
	Value   scalar.Scalar
	DictKey arrow.DataType
}

// PlainPartitionValue returns an unwrapped value.
func PlainPartitionValue(v scalar.Scalar) PartitionValue {
	return PartitionValue{Value: v}
}

// WrapPartitionValueInDict returns v dictionary encoded with a Uint16 key,
// matching WrapPartitionTypeInDict.
func WrapPartitionValueInDict(v scalar.Scalar) PartitionValue {
	return PartitionValue{Value: v, DictKey: arrow.PrimitiveTypes.Uint16}
}

// WrapPartitionTypeInDict returns the dictionary type used for partition
// columns of the given value type. Partition values repeat for every row of a
// file, so dictionary encoding them is much cheaper than materializing them.
func WrapPartitionTypeInDict(valueType arrow.DataType) arrow.DataType {
	return &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Uint16, ValueType: valueType}
}

// IsDictionary reports whether the value is dictionary encoded.
func (v PartitionValue) IsDictionary() bool {
	return v.DictKey != nil
}

// DataType returns the arrow type of the column the value produces.
func (v PartitionValue) DataType() arrow.DataType {
	if v.DictKey != nil {
		return &arrow.DictionaryType{IndexType: v.DictKey, ValueType: v.Value.DataType()}
	}
	return v.Value.DataType()
}

func (v PartitionValue) String() string {
	if v.Value == nil {
		return "<nil>"
	}
	if !v.Value.IsValid() {
		return "NULL"
	}
	if v.DictKey != nil {
		return fmt.Sprintf("Dictionary(%s, %s)", v.DictKey, v.Value)
	}
	return v.Value.String()
}
