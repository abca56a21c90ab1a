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
	"fmt"
	"log/slog"
	"time"
)

const (
	opRead  = "read"
	opWrite = "write"
)

// Dispatcher performs typed reads and writes. Every call opens its own
// session through the Transport and closes it before returning; nothing is
// shared between calls, so concurrent calls are neither ordered nor locked.
type Dispatcher struct {
	transport Transport
	log       *slog.Logger
}

// NewDispatcher returns a dispatcher using transport. A nil logger falls back
// to slog.Default().
func NewDispatcher(transport Transport, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		transport: transport,
		log:       logger,
	}
}

// Read fetches the tag and returns its value formatted for its type.
func (d *Dispatcher) Read(req TagRequest) (value string, err error) {
	started := time.Now()
	defer func() { d.finish(opRead, req, started, err) }()

	if !req.Type.Valid() {
		return "", fmt.Errorf("reading tag %s: %w: %s", req.TagName, ErrUnsupportedType, req.Type)
	}

	tag, err := d.transport.Open(sessionAttributes(req))
	if err != nil {
		return "", communicationError(opRead, req, err)
	}
	defer d.release(tag, req)

	if err := tag.Read(); err != nil {
		return "", communicationError(opRead, req, err)
	}

	v, err := decode(tag, req.Type)
	if err != nil {
		return "", communicationError(opRead, req, err)
	}

	return Format(v)
}

// Write parses raw as the request's type and pushes it to the tag. Input that
// does not parse is rejected before any session is opened.
func (d *Dispatcher) Write(req TagRequest, raw string) (err error) {
	started := time.Now()
	defer func() { d.finish(opWrite, req, started, err) }()

	v, err := Parse(req.Type, raw)
	if err != nil {
		return fmt.Errorf("writing tag %s: %w", req.TagName, err)
	}

	tag, err := d.transport.Open(sessionAttributes(req))
	if err != nil {
		return communicationError(opWrite, req, err)
	}
	defer d.release(tag, req)

	if err := encode(tag, v); err != nil {
		return communicationError(opWrite, req, err)
	}

	if err := tag.Write(); err != nil {
		return communicationError(opWrite, req, err)
	}

	return nil
}

// ReadResult is delivered by ReadAsync.
type ReadResult struct {
	Value string
	Err   error
}

// ReadAsync runs Read on its own goroutine. The channel receives exactly one
// result and is then closed. There is no way to abort the read; the
// descriptor's timeout bounds how long it can block.
func (d *Dispatcher) ReadAsync(req TagRequest) <-chan ReadResult {
	ch := make(chan ReadResult, 1)
	go func() {
		defer close(ch)
		v, err := d.Read(req)
		ch <- ReadResult{Value: v, Err: err}
	}()
	return ch
}

// WriteAsync runs Write on its own goroutine, see ReadAsync.
func (d *Dispatcher) WriteAsync(req TagRequest, raw string) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		ch <- d.Write(req, raw)
	}()
	return ch
}

func (d *Dispatcher) release(tag Tag, req TagRequest) {
	if err := tag.Close(); err != nil {
		d.log.Warn("failed to close PLC session",
			"tag", req.TagName, "gateway", req.Connection.GatewayAddress, "error", err)
	}
}

func (d *Dispatcher) finish(op string, req TagRequest, started time.Time, err error) {
	recordRequest(op, req.Type, started, err)

	if err != nil {
		d.log.Warn("PLC tag request failed",
			"operation", op, "tag", req.TagName, "type", req.Type.String(),
			"gateway", req.Connection.GatewayAddress, "error", err)
		return
	}
	d.log.Debug("PLC tag request finished",
		"operation", op, "tag", req.TagName, "type", req.Type.String(),
		"gateway", req.Connection.GatewayAddress, "duration", time.Since(started))
}

func communicationError(op string, req TagRequest, err error) *CommunicationError {
	return &CommunicationError{
		Op:      op,
		Tag:     req.TagName,
		Gateway: req.Connection.GatewayAddress,
		Err:     err,
	}
}
