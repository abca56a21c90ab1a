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

import "time"

// SessionAttributes is everything a transport needs to open a session to one
// tag. It is comparable so it can key a session pool.
type SessionAttributes struct {
	TagName  string
	Gateway  string
	Path     string
	PLC      PLCFamily
	Protocol Protocol
	Type     TagType
	Timeout  time.Duration
}

func sessionAttributes(req TagRequest) SessionAttributes {
	return SessionAttributes{
		TagName:  req.TagName,
		Gateway:  req.Connection.GatewayAddress,
		Path:     req.Connection.RoutingPath(),
		PLC:      req.Connection.PLC,
		Protocol: req.Connection.Protocol,
		Type:     req.Type,
		Timeout:  req.Connection.Timeout,
	}
}

// Transport opens sessions against a controller. Implementations wrap the
// library that speaks the wire protocol.
type Transport interface {
	Open(attrs SessionAttributes) (Tag, error)
}

// Tag is an open session bound to one tag. Read and Write block until the
// controller answers or the session timeout elapses. The accessors work on
// the local buffer and take an element offset; only offset 0 (scalar tags)
// is used by this package.
type Tag interface {
	Read() error
	Write() error
	Close() error

	GetBit(offset int) (bool, error)
	GetInt8(offset int) (int8, error)
	GetInt16(offset int) (int16, error)
	GetInt32(offset int) (int32, error)
	GetInt64(offset int) (int64, error)
	GetUInt8(offset int) (uint8, error)
	GetUInt16(offset int) (uint16, error)
	GetUInt32(offset int) (uint32, error)
	GetUInt64(offset int) (uint64, error)
	GetFloat32(offset int) (float32, error)
	GetFloat64(offset int) (float64, error)
	GetString(offset int) (string, error)

	SetBit(offset int, v bool) error
	SetInt8(offset int, v int8) error
	SetInt16(offset int, v int16) error
	SetInt32(offset int, v int32) error
	SetInt64(offset int, v int64) error
	SetUInt8(offset int, v uint8) error
	SetUInt16(offset int, v uint16) error
	SetUInt32(offset int, v uint32) error
	SetUInt64(offset int, v uint64) error
	SetFloat32(offset int, v float32) error
	SetFloat64(offset int, v float64) error
	SetString(offset int, v string) error
}
