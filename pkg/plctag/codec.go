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

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	errInvalidBool  = errors.New(`expected "true" or "false"`)
	errHexFloat     = errors.New("hexadecimal floats are not accepted")
	errNonFiniteNum = errors.New("infinity and NaN are not accepted")
)

// Parse converts raw operator input into a value of type t.
// Numeric and Bit input may carry surrounding whitespace; String input is
// taken verbatim and may be empty.
func Parse(t TagType, s string) (TagValue, error) {
	in := strings.TrimSpace(s)

	switch t {
	case Bit:
		switch {
		case strings.EqualFold(in, "true"):
			return TagValue{typ: Bit, value: true}, nil
		case strings.EqualFold(in, "false"):
			return TagValue{typ: Bit, value: false}, nil
		}
		return TagValue{}, &ParseError{Type: t, Input: s, Err: errInvalidBool}
	case Int8:
		n, err := strconv.ParseInt(in, 10, 8)
		if err != nil {
			return TagValue{}, newParseError(t, s, err)
		}
		return TagValue{typ: t, value: int8(n)}, nil
	case Int16:
		n, err := strconv.ParseInt(in, 10, 16)
		if err != nil {
			return TagValue{}, newParseError(t, s, err)
		}
		return TagValue{typ: t, value: int16(n)}, nil
	case Int32:
		n, err := strconv.ParseInt(in, 10, 32)
		if err != nil {
			return TagValue{}, newParseError(t, s, err)
		}
		return TagValue{typ: t, value: int32(n)}, nil
	case Int64:
		n, err := strconv.ParseInt(in, 10, 64)
		if err != nil {
			return TagValue{}, newParseError(t, s, err)
		}
		return TagValue{typ: t, value: n}, nil
	case UInt8:
		n, err := parseUnsigned(in, 8)
		if err != nil {
			return TagValue{}, newParseError(t, s, err)
		}
		return TagValue{typ: t, value: uint8(n)}, nil
	case UInt16:
		n, err := parseUnsigned(in, 16)
		if err != nil {
			return TagValue{}, newParseError(t, s, err)
		}
		return TagValue{typ: t, value: uint16(n)}, nil
	case UInt32:
		n, err := parseUnsigned(in, 32)
		if err != nil {
			return TagValue{}, newParseError(t, s, err)
		}
		return TagValue{typ: t, value: uint32(n)}, nil
	case UInt64:
		n, err := parseUnsigned(in, 64)
		if err != nil {
			return TagValue{}, newParseError(t, s, err)
		}
		return TagValue{typ: t, value: n}, nil
	case Float32:
		f, err := parseDecimalFloat(in, 32)
		if err != nil {
			return TagValue{}, newParseError(t, s, err)
		}
		return TagValue{typ: t, value: float32(f)}, nil
	case Float64:
		f, err := parseDecimalFloat(in, 64)
		if err != nil {
			return TagValue{}, newParseError(t, s, err)
		}
		return TagValue{typ: t, value: f}, nil
	case String:
		return TagValue{typ: t, value: s}, nil
	default:
		return TagValue{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

// parseUnsigned accepts an optional leading '+', like the signed parser does.
func parseUnsigned(s string, bits int) (uint64, error) {
	return strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, bits)
}

// parseDecimalFloat accepts decimal and scientific notation only. Hex floats,
// infinities and NaN are rejected even though strconv understands them.
func parseDecimalFloat(s string, bits int) (float64, error) {
	unsigned := strings.TrimLeft(s, "+-")
	if len(unsigned) >= 2 && unsigned[0] == '0' && (unsigned[1] == 'x' || unsigned[1] == 'X') {
		return 0, errHexFloat
	}

	f, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return 0, err
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errNonFiniteNum
	}
	return f, nil
}

func newParseError(t TagType, input string, err error) *ParseError {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		err = numErr.Err
	}
	return &ParseError{Type: t, Input: input, Err: err}
}

// Format renders v as text: "True"/"False" for Bit, canonical decimal for the
// integer types, the shortest round-tripping representation for floats and the
// raw text for String.
func Format(v TagValue) (string, error) {
	switch v.typ {
	case Bit:
		if v.value.(bool) {
			return "True", nil
		}
		return "False", nil
	case Int8:
		return strconv.FormatInt(int64(v.value.(int8)), 10), nil
	case Int16:
		return strconv.FormatInt(int64(v.value.(int16)), 10), nil
	case Int32:
		return strconv.FormatInt(int64(v.value.(int32)), 10), nil
	case Int64:
		return strconv.FormatInt(v.value.(int64), 10), nil
	case UInt8:
		return strconv.FormatUint(uint64(v.value.(uint8)), 10), nil
	case UInt16:
		return strconv.FormatUint(uint64(v.value.(uint16)), 10), nil
	case UInt32:
		return strconv.FormatUint(uint64(v.value.(uint32)), 10), nil
	case UInt64:
		return strconv.FormatUint(v.value.(uint64), 10), nil
	case Float32:
		return strconv.FormatFloat(float64(v.value.(float32)), 'g', -1, 32), nil
	case Float64:
		return strconv.FormatFloat(v.value.(float64), 'g', -1, 64), nil
	case String:
		return v.value.(string), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, v.typ)
	}
}

// Canonicalize parses s as t and formats it again.
func Canonicalize(t TagType, s string) (string, error) {
	v, err := Parse(t, s)
	if err != nil {
		return "", err
	}
	return Format(v)
}

// decode pulls the scalar at offset 0 out of a tag that has just been read.
func decode(tag Tag, t TagType) (TagValue, error) {
	var (
		v   any
		err error
	)

	switch t {
	case Bit:
		v, err = tag.GetBit(0)
	case Int8:
		v, err = tag.GetInt8(0)
	case Int16:
		v, err = tag.GetInt16(0)
	case Int32:
		v, err = tag.GetInt32(0)
	case Int64:
		v, err = tag.GetInt64(0)
	case UInt8:
		v, err = tag.GetUInt8(0)
	case UInt16:
		v, err = tag.GetUInt16(0)
	case UInt32:
		v, err = tag.GetUInt32(0)
	case UInt64:
		v, err = tag.GetUInt64(0)
	case Float32:
		v, err = tag.GetFloat32(0)
	case Float64:
		v, err = tag.GetFloat64(0)
	case String:
		v, err = tag.GetString(0)
	default:
		return TagValue{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	if err != nil {
		return TagValue{}, err
	}
	return TagValue{typ: t, value: v}, nil
}

// encode pushes v into the tag buffer at offset 0 ahead of a write.
func encode(tag Tag, v TagValue) error {
	switch v.typ {
	case Bit:
		return tag.SetBit(0, v.value.(bool))
	case Int8:
		return tag.SetInt8(0, v.value.(int8))
	case Int16:
		return tag.SetInt16(0, v.value.(int16))
	case Int32:
		return tag.SetInt32(0, v.value.(int32))
	case Int64:
		return tag.SetInt64(0, v.value.(int64))
	case UInt8:
		return tag.SetUInt8(0, v.value.(uint8))
	case UInt16:
		return tag.SetUInt16(0, v.value.(uint16))
	case UInt32:
		return tag.SetUInt32(0, v.value.(uint32))
	case UInt64:
		return tag.SetUInt64(0, v.value.(uint64))
	case Float32:
		return tag.SetFloat32(0, v.value.(float32))
	case Float64:
		return tag.SetFloat64(0, v.value.(float64))
	case String:
		return tag.SetString(0, v.value.(string))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, v.typ)
	}
}
