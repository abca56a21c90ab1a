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

package plctag_plugin

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redpanda-data/benthos/v4/public/service"

	"github.com/united-manufacturing-hub/benthos-plctag/pkg/plctag"
)

const statusBufferSize = 16

// PLCTagStatusInput emits the connectivity status of a controller, checked by
// reading a well-known tag every interval.
type PLCTagStatusInput struct {
	Session    *PLCTagConnection
	DefaultTag string
	TagType    plctag.TagType
	Interval   time.Duration

	// Dispatcher is created on Connect unless already set.
	Dispatcher *plctag.Dispatcher
	Log        *service.Logger

	pool     *plctag.SessionPool
	monitor  *plctag.Monitor
	statuses chan plctag.Status
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
}

// StatusPayload is the JSON body of a plctag_status message.
type StatusPayload struct {
	Status      string `json:"status"`
	State       string `json:"state"`
	Message     string `json:"message,omitempty"`
	Tag         string `json:"tag"`
	Gateway     string `json:"gateway"`
	Value       string `json:"value,omitempty"`
	TimestampMs int64  `json:"timestamp_ms"`
}

func PLCTagStatusInputConfig() *service.ConfigSpec {
	defaults := plctag.DefaultConfig()

	return service.NewConfigSpec().
		Summary("Reports whether an Allen-Bradley ControlLogix PLC is reachable.").
		Description("The plctag_status input reads defaultTag every intervalMs milliseconds and emits one JSON message per result, "+
			"with status `Connected` or `Failed: <reason>`. Checks are not throttled, a slow check may overlap with the next one.").
		Fields(connectionFields()...).
		Field(service.NewStringField("defaultTag").
			Description("Tag read to check the connection.").
			Default(defaults.DefaultTag)).
		Field(service.NewStringField("defaultType").
			Description("Type of defaultTag.").
			Default(defaults.DefaultTagType.String())).
		Field(service.NewIntField("intervalMs").
			Description("Time between two checks, in milliseconds.").
			Default(int(defaults.PollInterval / time.Millisecond)))
}

// NewPLCTagStatusInput parses the plugin configuration into a PLCTagStatusInput.
func NewPLCTagStatusInput(conf *service.ParsedConfig, mgr *service.Resources) (*PLCTagStatusInput, error) {
	session, err := ParseConnectionConfig(conf)
	if err != nil {
		return nil, err
	}

	defaultTag, err := conf.FieldString("defaultTag")
	if err != nil {
		return nil, err
	}

	typeName, err := conf.FieldString("defaultType")
	if err != nil {
		return nil, err
	}
	tagType, err := plctag.ParseTagType(typeName)
	if err != nil {
		return nil, err
	}

	intervalMs, err := conf.FieldInt("intervalMs")
	if err != nil {
		return nil, err
	}

	return &PLCTagStatusInput{
		Session:    session,
		DefaultTag: defaultTag,
		TagType:    tagType,
		Interval:   time.Duration(intervalMs) * time.Millisecond,
		Log:        mgr.Logger(),
	}, nil
}

func init() {
	err := service.RegisterBatchInput(
		"plctag_status", PLCTagStatusInputConfig(),
		func(conf *service.ParsedConfig, mgr *service.Resources) (service.BatchInput, error) {
			input, err := NewPLCTagStatusInput(conf, mgr)
			if err != nil {
				return nil, err
			}
			return service.AutoRetryNacksBatched(input), nil
		})
	if err != nil {
		panic(err)
	}
}

func (s *PLCTagStatusInput) request() plctag.TagRequest {
	return plctag.TagRequest{
		TagName:    s.DefaultTag,
		Type:       s.TagType,
		Connection: s.Session.Connection,
	}
}

// Connect starts the monitor. It keeps running until Close.
func (s *PLCTagStatusInput) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.monitor != nil {
		return nil
	}

	if s.Dispatcher == nil {
		dispatcher, pool, err := s.Session.newDispatcher()
		if err != nil {
			s.Log.Errorf("Failed to set up plctag dispatcher: %v", err)
			return err
		}
		s.Dispatcher = dispatcher
		s.pool = pool
	}

	s.statuses = make(chan plctag.Status, statusBufferSize)
	s.monitor = plctag.NewMonitor(s.Dispatcher, s.request, s.Interval)
	s.monitor.OnStatus(s.publish)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.monitor.Run(runCtx)
	}()

	s.Log.Infof("plctag status monitor checking %s at %s every %s",
		s.DefaultTag, s.Session.Connection.GatewayAddress, s.Interval)
	return nil
}

// publish forwards finished checks. When nobody reads, statuses are dropped.
func (s *PLCTagStatusInput) publish(status plctag.Status) {
	if status.State != plctag.StateConnected && status.State != plctag.StateFailed {
		return
	}

	select {
	case s.statuses <- status:
	default:
		s.Log.Debugf("Dropping plctag status %q, buffer full", status.String())
	}
}

func (s *PLCTagStatusInput) ReadBatch(ctx context.Context) (service.MessageBatch, service.AckFunc, error) {
	s.mu.Lock()
	statuses := s.statuses
	s.mu.Unlock()

	if statuses == nil {
		return nil, nil, service.ErrNotConnected
	}

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case status := <-statuses:
		msg, err := createStatusMessage(status)
		if err != nil {
			return nil, nil, err
		}
		return service.MessageBatch{msg}, func(ctx context.Context, err error) error {
			return nil
		}, nil
	}
}

func createStatusMessage(status plctag.Status) (*service.Message, error) {
	payload := StatusPayload{
		Status:      status.String(),
		State:       status.State.String(),
		Message:     status.Message,
		Tag:         status.Tag,
		Gateway:     status.Gateway,
		Value:       status.Value,
		TimestampMs: status.CheckedAt.UnixMilli(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	msg := service.NewMessage(data)
	msg.MetaSet("plctag_status", status.State.String())
	msg.MetaSet("plctag_tag_name", status.Tag)
	msg.MetaSet("plctag_gateway", status.Gateway)
	return msg, nil
}

// Close stops the monitor and waits for in-flight checks.
func (s *PLCTagStatusInput) Close(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if s.pool != nil {
		return s.pool.Close()
	}
	return nil
}
