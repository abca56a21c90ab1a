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
)

// ErrUnsupportedType is returned for tag types outside the supported set.
var ErrUnsupportedType = errors.New("unsupported tag type")

// ParseError reports input that does not satisfy a tag type's grammar or range.
// It is produced before any I/O happens.
type ParseError struct {
	Type  TagType
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid %s value %q", e.Type, e.Input)
	}
	return fmt.Sprintf("invalid %s value %q: %v", e.Type, e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CommunicationError wraps any failure that happened while talking to the PLC:
// refused connections, timeouts, unknown tag names, protocol violations.
type CommunicationError struct {
	Op      string // "read" or "write"
	Tag     string
	Gateway string
	Err     error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("error %s tag %s at %s: %v", opVerb(e.Op), e.Tag, e.Gateway, e.Err)
}

func (e *CommunicationError) Unwrap() error { return e.Err }

func opVerb(op string) string {
	switch op {
	case opRead:
		return "reading"
	case opWrite:
		return "writing"
	default:
		return op
	}
}

// IsParseError reports whether err is, or wraps, a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsCommunicationError reports whether err is, or wraps, a *CommunicationError.
func IsCommunicationError(err error) bool {
	var ce *CommunicationError
	return errors.As(err, &ce)
}
