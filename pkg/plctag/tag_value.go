// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plctag

import "fmt"

// TagValue is a scalar tag value tagged with its TagType. The held Go value
// always matches the type: bool for Bit, int8 for Int8, ..., string for String.
type TagValue struct {
	typ   TagType
	value any
}

// NewTagValue pairs v with t, rejecting Go types that do not belong to t.
func NewTagValue(t TagType, v any) (TagValue, error) {
	if !t.Valid() {
		return TagValue{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	if !holds(t, v) {
		return TagValue{}, fmt.Errorf("%T is not a %s value", v, t)
	}
	return TagValue{typ: t, value: v}, nil
}

// Type returns the tag type of the value.
func (v TagValue) Type() TagType { return v.typ }

// Value returns the underlying Go scalar.
func (v TagValue) Value() any { return v.value }

func holds(t TagType, v any) bool {
	switch v.(type) {
	case bool:
		return t == Bit
	case int8:
		return t == Int8
	case int16:
		return t == Int16
	case int32:
		return t == Int32
	case int64:
		return t == Int64
	case uint8:
		return t == UInt8
	case uint16:
		return t == UInt16
	case uint32:
		return t == UInt32
	case uint64:
		return t == UInt64
	case float32:
		return t == Float32
	case float64:
		return t == Float64
	case string:
		return t == String
	default:
		return false
	}
}
