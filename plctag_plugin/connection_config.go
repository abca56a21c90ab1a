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
	"fmt"
	"log/slog"
	"time"

	"github.com/redpanda-data/benthos/v4/public/service"

	"github.com/united-manufacturing-hub/benthos-plctag/pkg/plctag"
)

const (
	sessionPoolSizeDefault = 8
)

// connectionFields are shared by every plctag component.
func connectionFields() []*service.ConfigField {
	return []*service.ConfigField{
		service.NewStringField("address").
			Description("IP address or hostname of the EtherNet/IP communication module, optionally with a port.").
			Example("10.0.241.12").
			Example("10.0.241.12:44818"),
		service.NewIntField("channel").
			Description("Backplane port of the routing path.").
			Default(1),
		service.NewIntField("slot").
			Description("Slot of the controller in the chassis.").
			Default(1),
		service.NewIntField("timeoutMs").
			Description("Upper bound for a single read or write, in milliseconds.").
			Default(10000),
		service.NewBoolField("reuseSessions").
			Description("Keep sessions open between requests instead of opening a fresh one per read or write.").
			Default(false).
			Advanced(),
		service.NewIntField("sessionPoolSize").
			Description("Maximum number of idle sessions kept open when reuseSessions is enabled.").
			Default(sessionPoolSizeDefault).
			Advanced(),
	}
}

// PLCTagConnection is the parsed connection part of a plctag config.
type PLCTagConnection struct {
	Connection      plctag.ConnectionDescriptor
	ReuseSessions   bool
	SessionPoolSize int
}

// ParseConnectionConfig reads the shared connection fields and validates them.
func ParseConnectionConfig(conf *service.ParsedConfig) (*PLCTagConnection, error) {
	address, err := conf.FieldString("address")
	if err != nil {
		return nil, err
	}
	channel, err := conf.FieldInt("channel")
	if err != nil {
		return nil, err
	}
	slot, err := conf.FieldInt("slot")
	if err != nil {
		return nil, err
	}
	timeoutMs, err := conf.FieldInt("timeoutMs")
	if err != nil {
		return nil, err
	}
	reuse, err := conf.FieldBool("reuseSessions")
	if err != nil {
		return nil, err
	}
	poolSize, err := conf.FieldInt("sessionPoolSize")
	if err != nil {
		return nil, err
	}

	connection := plctag.NewConnectionDescriptor(address, channel, slot, time.Duration(timeoutMs)*time.Millisecond)
	if err := connection.Validate(); err != nil {
		return nil, fmt.Errorf("invalid connection: %w", err)
	}
	if reuse && poolSize <= 0 {
		return nil, fmt.Errorf("sessionPoolSize must be positive, got %d", poolSize)
	}

	return &PLCTagConnection{
		Connection:      connection,
		ReuseSessions:   reuse,
		SessionPoolSize: poolSize,
	}, nil
}

// newTransport returns the gologix transport for this connection. Pooled
// sessions stay open between requests, so they need gologix keepalives.
func (c *PLCTagConnection) newTransport() *plctag.GologixTransport {
	return &plctag.GologixTransport{
		Logger:    slog.Default(),
		KeepAlive: c.ReuseSessions,
	}
}

// dispatcherLogger silences the dispatcher's own request log. The plugins
// report failed requests through the Benthos logger instead.
func dispatcherLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newDispatcher wires a gologix transport, optionally behind a session pool.
// The returned pool is nil unless sessions are reused.
func (c *PLCTagConnection) newDispatcher() (*plctag.Dispatcher, *plctag.SessionPool, error) {
	transport := c.newTransport()
	if !c.ReuseSessions {
		return plctag.NewDispatcher(transport, dispatcherLogger()), nil, nil
	}

	pool, err := plctag.NewSessionPool(transport, c.SessionPoolSize)
	if err != nil {
		return nil, nil, err
	}
	return plctag.NewDispatcher(pool, dispatcherLogger()), pool, nil
}
