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
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/danomagnum/gologix"
)

const (
	vendorIdDefault      = 0x9999
	connSizeLargeDefault = 4000
	keepAliveFreq        = time.Second * 30
	rpiDefault           = time.Millisecond * 2500
	socketTimeoutDefault = time.Second * 10
)

// GologixTransport opens one gologix client per session.
type GologixTransport struct {
	// Logger is handed to gologix. Defaults to slog.Default().
	Logger *slog.Logger

	// KeepAlive keeps idle sessions registered with the controller and lets
	// gologix reconnect a dropped one. Set it when sessions outlive a single
	// request, e.g. behind a SessionPool.
	KeepAlive bool
}

// NewGologixTransport returns a transport logging through logger.
func NewGologixTransport(logger *slog.Logger) *GologixTransport {
	return &GologixTransport{Logger: logger}
}

func (t *GologixTransport) Open(attrs SessionAttributes) (Tag, error) {
	if attrs.Protocol != ProtocolEtherNetIP {
		return nil, fmt.Errorf("protocol %s is not supported by gologix", attrs.Protocol)
	}
	if attrs.PLC != PLCControlLogix {
		return nil, fmt.Errorf("PLC family %s is not supported by gologix", attrs.PLC)
	}

	controller, err := parseController(attrs.Gateway, attrs.Path)
	if err != nil {
		return nil, err
	}

	client := t.newClient(*controller, attrs.Timeout)
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", attrs.Gateway, err)
	}

	return &gologixTag{
		client: client,
		name:   attrs.TagName,
		typ:    attrs.Type,
	}, nil
}

func (t *GologixTransport) newClient(controller gologix.Controller, timeout time.Duration) *gologix.Client {
	if timeout <= 0 {
		timeout = socketTimeoutDefault
	}

	logger := t.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &gologix.Client{
		Controller:         controller,
		VendorId:           vendorIdDefault,
		ConnectionSize:     connSizeLargeDefault,
		AutoConnect:        t.KeepAlive,
		KeepAliveAutoStart: t.KeepAlive,
		KeepAliveFrequency: keepAliveFreq,
		KeepAliveProps:     []gologix.CIPAttribute{1, 2, 3, 4, 10},
		RPI:                rpiDefault,
		SocketTimeout:      timeout,
		KnownTags:          make(map[string]gologix.KnownTag),
		Logger:             logger,
	}
}

func parseController(endpoint string, pathStr string) (*gologix.Controller, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		host = endpoint
		portStr = strconv.Itoa(DefaultPort)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid port in gateway %q: %w", endpoint, err)
	}

	path, err := buildCIPPath(pathStr)
	if err != nil {
		return nil, err
	}

	return &gologix.Controller{
		IpAddress: host,
		Port:      uint(port),
		Path:      path,
	}, nil
}

func buildCIPPath(pathStr string) (*bytes.Buffer, error) {
	if pathStr == "" {
		return nil, fmt.Errorf("path is empty")
	}

	path := new(bytes.Buffer)
	for _, p := range strings.Split(pathStr, ",") {
		val, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid CIP path %q: %w", pathStr, err)
		}
		path.WriteByte(byte(val))
	}

	return path, nil
}

// gologixTag buffers one scalar between the accessors and the client.
type gologixTag struct {
	client *gologix.Client
	name   string
	typ    TagType
	value  any
}

func (t *gologixTag) Read() error {
	var err error
	switch t.typ {
	case Bit:
		t.value, err = readAs[bool](t)
	case Int8:
		t.value, err = readAs[int8](t)
	case Int16:
		t.value, err = readAs[int16](t)
	case Int32:
		t.value, err = readAs[int32](t)
	case Int64:
		t.value, err = readAs[int64](t)
	case UInt8:
		t.value, err = readAs[uint8](t)
	case UInt16:
		t.value, err = readAs[uint16](t)
	case UInt32:
		t.value, err = readAs[uint32](t)
	case UInt64:
		t.value, err = readAs[uint64](t)
	case Float32:
		t.value, err = readAs[float32](t)
	case Float64:
		t.value, err = readAs[float64](t)
	case String:
		t.value, err = readAs[string](t)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t.typ)
	}
	return err
}

func readAs[T any](t *gologixTag) (any, error) {
	var v T
	if err := t.client.Read(t.name, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (t *gologixTag) Write() error {
	if t.value == nil {
		return fmt.Errorf("tag %s: nothing to write", t.name)
	}
	return t.client.Write(t.name, t.value)
}

func (t *gologixTag) Close() error {
	return t.client.Disconnect()
}

func get[T any](t *gologixTag, offset int) (T, error) {
	var zero T
	if offset != 0 {
		return zero, fmt.Errorf("tag %s: offset %d: only scalar tags are supported", t.name, offset)
	}
	v, ok := t.value.(T)
	if !ok {
		return zero, fmt.Errorf("tag %s holds %T, not %T", t.name, t.value, zero)
	}
	return v, nil
}

func set[T any](t *gologixTag, offset int, v T) error {
	if offset != 0 {
		return fmt.Errorf("tag %s: offset %d: only scalar tags are supported", t.name, offset)
	}
	t.value = v
	return nil
}

func (t *gologixTag) GetBit(offset int) (bool, error)        { return get[bool](t, offset) }
func (t *gologixTag) GetInt8(offset int) (int8, error)       { return get[int8](t, offset) }
func (t *gologixTag) GetInt16(offset int) (int16, error)     { return get[int16](t, offset) }
func (t *gologixTag) GetInt32(offset int) (int32, error)     { return get[int32](t, offset) }
func (t *gologixTag) GetInt64(offset int) (int64, error)     { return get[int64](t, offset) }
func (t *gologixTag) GetUInt8(offset int) (uint8, error)     { return get[uint8](t, offset) }
func (t *gologixTag) GetUInt16(offset int) (uint16, error)   { return get[uint16](t, offset) }
func (t *gologixTag) GetUInt32(offset int) (uint32, error)   { return get[uint32](t, offset) }
func (t *gologixTag) GetUInt64(offset int) (uint64, error)   { return get[uint64](t, offset) }
func (t *gologixTag) GetFloat32(offset int) (float32, error) { return get[float32](t, offset) }
func (t *gologixTag) GetFloat64(offset int) (float64, error) { return get[float64](t, offset) }
func (t *gologixTag) GetString(offset int) (string, error)   { return get[string](t, offset) }

func (t *gologixTag) SetBit(offset int, v bool) error        { return set(t, offset, v) }
func (t *gologixTag) SetInt8(offset int, v int8) error       { return set(t, offset, v) }
func (t *gologixTag) SetInt16(offset int, v int16) error     { return set(t, offset, v) }
func (t *gologixTag) SetInt32(offset int, v int32) error     { return set(t, offset, v) }
func (t *gologixTag) SetInt64(offset int, v int64) error     { return set(t, offset, v) }
func (t *gologixTag) SetUInt8(offset int, v uint8) error     { return set(t, offset, v) }
func (t *gologixTag) SetUInt16(offset int, v uint16) error   { return set(t, offset, v) }
func (t *gologixTag) SetUInt32(offset int, v uint32) error   { return set(t, offset, v) }
func (t *gologixTag) SetUInt64(offset int, v uint64) error   { return set(t, offset, v) }
func (t *gologixTag) SetFloat32(offset int, v float32) error { return set(t, offset, v) }
func (t *gologixTag) SetFloat64(offset int, v float64) error { return set(t, offset, v) }
func (t *gologixTag) SetString(offset int, v string) error   { return set(t, offset, v) }
