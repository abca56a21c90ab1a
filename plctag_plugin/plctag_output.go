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
	"fmt"

	"github.com/redpanda-data/benthos/v4/public/service"

	"github.com/united-manufacturing-hub/benthos-plctag/pkg/plctag"
)

// PLCTagOutput writes each message payload to one tag.
type PLCTagOutput struct {
	Session *PLCTagConnection
	TagName *service.InterpolatedString
	Type    plctag.TagType

	// Dispatcher is created on Connect unless already set.
	Dispatcher *plctag.Dispatcher
	Log        *service.Logger

	pool *plctag.SessionPool
}

// PLCTagOutputConfig describes the plctag output.
func PLCTagOutputConfig() *service.ConfigSpec {
	return service.NewConfigSpec().
		Summary("Writes message payloads to tags of an Allen-Bradley ControlLogix PLC over EtherNet/IP.").
		Description("The payload is parsed as the configured tag type before anything is sent. "+
			"A payload that does not parse is rejected without contacting the PLC.").
		Fields(connectionFields()...).
		Field(service.NewInterpolatedStringField("tagName").
			Description("Tag to write to. Supports interpolation functions.").
			Example("HMI.Setpoint").
			Example(`${! meta("plctag_tag_name") }`)).
		Field(service.NewStringField("type").
			Description("Tag type the payload is parsed as.").
			Example("Float32"))
}

// NewPLCTagOutput parses the plugin configuration into a PLCTagOutput.
func NewPLCTagOutput(conf *service.ParsedConfig, mgr *service.Resources) (*PLCTagOutput, error) {
	session, err := ParseConnectionConfig(conf)
	if err != nil {
		return nil, err
	}

	tagName, err := conf.FieldInterpolatedString("tagName")
	if err != nil {
		return nil, err
	}

	typeName, err := conf.FieldString("type")
	if err != nil {
		return nil, err
	}
	tagType, err := plctag.ParseTagType(typeName)
	if err != nil {
		return nil, err
	}

	return &PLCTagOutput{
		Session:    session,
		TagName:    tagName,
		Type:       tagType,
		Log:        mgr.Logger(),
	}, nil
}

func init() {
	err := service.RegisterOutput(
		"plctag",
		PLCTagOutputConfig(),
		func(conf *service.ParsedConfig, mgr *service.Resources) (out service.Output, maxInFlight int, err error) {
			output, err := NewPLCTagOutput(conf, mgr)
			if err != nil {
				return nil, 0, err
			}
			return output, 1, nil
		})
	if err != nil {
		panic(err)
	}
}

func (o *PLCTagOutput) Connect(ctx context.Context) error {
	if o.Dispatcher != nil {
		return nil
	}

	dispatcher, pool, err := o.Session.newDispatcher()
	if err != nil {
		o.Log.Errorf("Failed to set up plctag dispatcher: %v", err)
		return err
	}
	o.Dispatcher = dispatcher
	o.pool = pool

	o.Log.Infof("plctag output writing %s tags to %s (path %s)",
		o.Type, o.Session.Connection.GatewayAddress, o.Session.Connection.RoutingPath())
	return nil
}

func (o *PLCTagOutput) Write(ctx context.Context, msg *service.Message) error {
	tagName, err := o.TagName.TryString(msg)
	if err != nil {
		return fmt.Errorf("resolving tagName: %w", err)
	}

	payload, err := msg.AsBytes()
	if err != nil {
		return err
	}

	err = o.Dispatcher.Write(plctag.TagRequest{
		TagName:    tagName,
		Type:       o.Type,
		Connection: o.Session.Connection,
	}, string(payload))
	if err != nil {
		if plctag.IsParseError(err) {
			o.Log.Warnf("Rejected payload for tag %s: %v", tagName, err)
		} else {
			o.Log.Errorf("Failed to write tag %s: %v", tagName, err)
		}
		return err
	}

	o.Log.Debugf("Wrote %q to tag %s", payload, tagName)
	return nil
}

func (o *PLCTagOutput) Close(ctx context.Context) error {
	if o.pool != nil {
		return o.pool.Close()
	}
	return nil
}
