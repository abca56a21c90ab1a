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
	"context"
	"sync"
	"time"
)

// ConnectionState is the coarse connectivity reported by a Monitor.
type ConnectionState int

const (
	StateNotConnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "not_connected"
	}
}

// Status is the outcome of one connectivity check.
type Status struct {
	State     ConnectionState
	Message   string // failure cause, empty unless State is StateFailed
	Tag       string
	Gateway   string
	Value     string // value read from the check tag when connected
	CheckedAt time.Time
}

// String renders the status the way an operator sees it.
func (s Status) String() string {
	switch s.State {
	case StateConnecting:
		return "Connecting..."
	case StateConnected:
		return "Connected"
	case StateFailed:
		return "Failed: " + s.Message
	default:
		return "Not connected"
	}
}

// DefaultPollInterval is how often a Monitor checks connectivity.
const DefaultPollInterval = 5 * time.Second

// Monitor periodically reads a well-known tag to report connectivity. The
// request is rebuilt on every check so it always reflects the caller's
// current connection settings.
type Monitor struct {
	dispatcher *Dispatcher
	request    func() TagRequest
	interval   time.Duration

	mu       sync.RWMutex
	status   Status
	onStatus func(Status)
}

// NewMonitor creates a monitor. A non-positive interval means
// DefaultPollInterval.
func NewMonitor(dispatcher *Dispatcher, request func() TagRequest, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Monitor{
		dispatcher: dispatcher,
		request:    request,
		interval:   interval,
		status:     Status{State: StateNotConnected},
	}
}

// OnStatus registers fn to receive every status change. Call it before Run.
func (m *Monitor) OnStatus(fn func(Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStatus = fn
}

// Status returns the most recent status.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Check performs one connectivity check and returns its result.
func (m *Monitor) Check() Status {
	req := m.request()

	m.set(Status{
		State:     StateConnecting,
		Tag:       req.TagName,
		Gateway:   req.Connection.GatewayAddress,
		CheckedAt: time.Now(),
	})

	value, err := m.dispatcher.Read(req)

	result := Status{
		State:     StateConnected,
		Tag:       req.TagName,
		Gateway:   req.Connection.GatewayAddress,
		Value:     value,
		CheckedAt: time.Now(),
	}
	if err != nil {
		result.State = StateFailed
		result.Message = err.Error()
		result.Value = ""
	}

	m.set(result)
	return result
}

// Run checks connectivity immediately and then once per interval until ctx is
// done. Checks are not throttled: a check that outlasts the interval overlaps
// with the next one. Run returns after in-flight checks have finished.
func (m *Monitor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	defer wg.Wait()

	check := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Check()
		}()
	}

	check()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

func (m *Monitor) set(s Status) {
	m.mu.Lock()
	m.status = s
	fn := m.onStatus
	m.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}
