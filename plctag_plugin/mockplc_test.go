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

package plctag_plugin_test

import (
	"fmt"
	"sync"

	"github.com/united-manufacturing-hub/benthos-plctag/pkg/plctag"
)

// FakePLC is an in-memory controller behind the plctag.Transport interface.
type FakePLC struct {
	mu sync.Mutex

	Values  map[string]any
	OpenErr error

	Opened int
	Closed int
}

func NewFakePLC(values map[string]any) *FakePLC {
	if values == nil {
		values = map[string]any{}
	}
	return &FakePLC{Values: values}
}

func (f *FakePLC) Open(attrs plctag.SessionAttributes) (plctag.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Opened++
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	return &fakeTag{plc: f, name: attrs.TagName}, nil
}

func (f *FakePLC) Set(name string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Values[name] = v
}

func (f *FakePLC) Get(name string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Values[name]
}

func (f *FakePLC) OpenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Opened
}

type fakeTag struct {
	plc    *FakePLC
	name   string
	buffer any
}

func (t *fakeTag) Read() error {
	t.plc.mu.Lock()
	defer t.plc.mu.Unlock()

	v, ok := t.plc.Values[t.name]
	if !ok {
		return fmt.Errorf("path destination unknown: %s", t.name)
	}
	t.buffer = v
	return nil
}

func (t *fakeTag) Write() error {
	t.plc.mu.Lock()
	defer t.plc.mu.Unlock()
	t.plc.Values[t.name] = t.buffer
	return nil
}

func (t *fakeTag) Close() error {
	t.plc.mu.Lock()
	defer t.plc.mu.Unlock()
	t.plc.Closed++
	return nil
}

func fakeGet[T any](t *fakeTag) (T, error) {
	v, ok := t.buffer.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("tag %s holds %T, not %T", t.name, t.buffer, zero)
	}
	return v, nil
}

func fakeSet[T any](t *fakeTag, v T) error {
	t.buffer = v
	return nil
}

func (t *fakeTag) GetBit(int) (bool, error)        { return fakeGet[bool](t) }
func (t *fakeTag) GetInt8(int) (int8, error)       { return fakeGet[int8](t) }
func (t *fakeTag) GetInt16(int) (int16, error)     { return fakeGet[int16](t) }
func (t *fakeTag) GetInt32(int) (int32, error)     { return fakeGet[int32](t) }
func (t *fakeTag) GetInt64(int) (int64, error)     { return fakeGet[int64](t) }
func (t *fakeTag) GetUInt8(int) (uint8, error)     { return fakeGet[uint8](t) }
func (t *fakeTag) GetUInt16(int) (uint16, error)   { return fakeGet[uint16](t) }
func (t *fakeTag) GetUInt32(int) (uint32, error)   { return fakeGet[uint32](t) }
func (t *fakeTag) GetUInt64(int) (uint64, error)   { return fakeGet[uint64](t) }
func (t *fakeTag) GetFloat32(int) (float32, error) { return fakeGet[float32](t) }
func (t *fakeTag) GetFloat64(int) (float64, error) { return fakeGet[float64](t) }
func (t *fakeTag) GetString(int) (string, error)   { return fakeGet[string](t) }

func (t *fakeTag) SetBit(_ int, v bool) error        { return fakeSet(t, v) }
func (t *fakeTag) SetInt8(_ int, v int8) error       { return fakeSet(t, v) }
func (t *fakeTag) SetInt16(_ int, v int16) error     { return fakeSet(t, v) }
func (t *fakeTag) SetInt32(_ int, v int32) error     { return fakeSet(t, v) }
func (t *fakeTag) SetInt64(_ int, v int64) error     { return fakeSet(t, v) }
func (t *fakeTag) SetUInt8(_ int, v uint8) error     { return fakeSet(t, v) }
func (t *fakeTag) SetUInt16(_ int, v uint16) error   { return fakeSet(t, v) }
func (t *fakeTag) SetUInt32(_ int, v uint32) error   { return fakeSet(t, v) }
func (t *fakeTag) SetUInt64(_ int, v uint64) error   { return fakeSet(t, v) }
func (t *fakeTag) SetFloat32(_ int, v float32) error { return fakeSet(t, v) }
func (t *fakeTag) SetFloat64(_ int, v float64) error { return fakeSet(t, v) }
func (t *fakeTag) SetString(_ int, v string) error   { return fakeSet(t, v) }
