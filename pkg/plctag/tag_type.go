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

// Package plctag reads and writes scalar tags of Logix controllers. The wire
// protocol lives behind the Transport interface; this package owns the typed
// value codec, the per-request session handling and the error taxonomy.
package plctag

import (
	"fmt"
	"strings"

	"github.com/danomagnum/gologix"
	"golang.org/x/exp/slices"
)

// TagType is the declared type of a scalar PLC tag.
type TagType int

const (
	Bit TagType = iota + 1
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
	String
)

// tagTypes is ordered the way the types are offered to an operator.
var tagTypes = []TagType{
	Bit, Float32, Float64,
	Int8, Int16, Int32, Int64,
	UInt8, UInt16, UInt32, UInt64,
	String,
}

var tagTypeNames = map[TagType]string{
	Bit:     "Bit",
	Int8:    "Int8",
	Int16:   "Int16",
	Int32:   "Int32",
	Int64:   "Int64",
	UInt8:   "UInt8",
	UInt16:  "UInt16",
	UInt32:  "UInt32",
	UInt64:  "UInt64",
	Float32: "Float32",
	Float64: "Float64",
	String:  "String",
}

// logixTypeNames maps the Logix atomic type names onto the closed set.
var logixTypeNames = map[string]TagType{
	"BOOL":   Bit,
	"SINT":   Int8,
	"INT":    Int16,
	"DINT":   Int32,
	"LINT":   Int64,
	"USINT":  UInt8,
	"UINT":   UInt16,
	"UDINT":  UInt32,
	"ULINT":  UInt64,
	"REAL":   Float32,
	"LREAL":  Float64,
	"STRING": String,
}

// TagTypes returns every supported tag type.
func TagTypes() []TagType {
	return slices.Clone(tagTypes)
}

// Valid reports whether t is one of the supported tag types.
func (t TagType) Valid() bool {
	return slices.Contains(tagTypes, t)
}

func (t TagType) String() string {
	if name, ok := tagTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TagType(%d)", int(t))
}

// ParseTagType resolves a type name such as "Int32", "uint16" or "DINT".
func ParseTagType(name string) (TagType, error) {
	trimmed := strings.TrimSpace(name)

	idx := slices.IndexFunc(tagTypes, func(t TagType) bool {
		return strings.EqualFold(tagTypeNames[t], trimmed)
	})
	if idx != -1 {
		return tagTypes[idx], nil
	}

	if t, ok := logixTypeNames[strings.ToUpper(trimmed)]; ok {
		return t, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

// CIPType returns the CIP data type the controller uses for t.
func (t TagType) CIPType() gologix.CIPType {
	switch t {
	case Bit:
		return gologix.CIPTypeBOOL
	case Int8:
		return gologix.CIPTypeSINT
	case Int16:
		return gologix.CIPTypeINT
	case Int32:
		return gologix.CIPTypeDINT
	case Int64:
		return gologix.CIPTypeLINT
	case UInt8:
		return gologix.CIPTypeUSINT
	case UInt16:
		return gologix.CIPTypeUINT
	case UInt32:
		return gologix.CIPTypeUDINT
	case UInt64:
		return gologix.CIPTypeULINT
	case Float32:
		return gologix.CIPTypeREAL
	case Float64:
		return gologix.CIPTypeLREAL
	case String:
		return gologix.CIPTypeSTRING
	default:
		return gologix.CIPTypeUnknown
	}
}
