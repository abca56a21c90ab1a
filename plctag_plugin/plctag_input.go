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
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redpanda-data/benthos/v4/public/service"
	"golang.org/x/time/rate"

	"github.com/united-manufacturing-hub/benthos-plctag/pkg/plctag"
)

const pollRateDefault = 1000

// PLCTagInput polls a fixed list of tags and emits one message per tag.
type PLCTagInput struct {
	Session     *PLCTagConnection
	Items       []*TagItem
	PollRate    time.Duration
	OnlyChanges bool

	// Dispatcher is created on Connect unless already set.
	Dispatcher *plctag.Dispatcher
	Log        *service.Logger

	limiter *rate.Limiter
	pool    *plctag.SessionPool
	// last fingerprint per tag name, only used with OnlyChanges
	fingerprints map[string]uint64
}

// TagItem is one configured tag of the input.
type TagItem struct {
	Name string
	Type plctag.TagType
}

// PLCTagInputConfig describes the plctag input.
func PLCTagInputConfig() *service.ConfigSpec {
	return service.NewConfigSpec().
		Summary("Reads tags from an Allen-Bradley ControlLogix PLC over EtherNet/IP.").
		Description("The plctag input polls the configured tags every pollRate milliseconds. "+
			"Each tag becomes one message whose payload is the formatted value, e.g. `True`, `42` or `3.14`. "+
			"A fresh session is opened for every read unless reuseSessions is set.").
		Fields(connectionFields()...).
		Field(service.NewObjectListField("tags",
			service.NewStringField("name").
				Description("Symbolic tag name as defined in the controller.").
				Example("HMI.PLCWatchdogCounter"),
			service.NewStringField("type").
				Description("Tag type: Bit, Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64, Float32, Float64 or String. Logix names like DINT or REAL are accepted too.").
				Example("Int32"),
		).Description("Tags to read on every poll.")).
		Field(service.NewIntField("pollRate").
			Description("Minimum time between two polls, in milliseconds.").
			Default(pollRateDefault)).
		Field(service.NewBoolField("onlyChanges").
			Description("Only emit a tag when its value differs from the previous poll.").
			Default(false))
}

// NewPLCTagInput parses the plugin configuration into a PLCTagInput.
func NewPLCTagInput(conf *service.ParsedConfig, mgr *service.Resources) (*PLCTagInput, error) {
	session, err := ParseConnectionConfig(conf)
	if err != nil {
		return nil, err
	}

	tagsConf, err := conf.FieldObjectList("tags")
	if err != nil {
		return nil, err
	}
	items, err := parseTagItems(tagsConf)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.New("no tags to read provided")
	}

	pollRate, err := conf.FieldInt("pollRate")
	if err != nil {
		return nil, err
	}
	if pollRate < 0 {
		return nil, fmt.Errorf("pollRate must not be negative, got %d", pollRate)
	}

	onlyChanges, err := conf.FieldBool("onlyChanges")
	if err != nil {
		return nil, err
	}

	rateDuration := time.Duration(pollRate) * time.Millisecond
	return &PLCTagInput{
		Session:      session,
		Items:        items,
		PollRate:     rateDuration,
		OnlyChanges:  onlyChanges,
		Log:          mgr.Logger(),
		limiter:      rate.NewLimiter(rate.Every(rateDuration), 1),
		fingerprints: make(map[string]uint64),
	}, nil
}

func parseTagItems(tagsConf []*service.ParsedConfig) ([]*TagItem, error) {
	var items []*TagItem

	for _, tag := range tagsConf {
		name, err := tag.FieldString("name")
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, errors.New("tag name must not be empty")
		}
		typeName, err := tag.FieldString("type")
		if err != nil {
			return nil, err
		}
		tagType, err := plctag.ParseTagType(typeName)
		if err != nil {
			return nil, fmt.Errorf("tag %s: %w", name, err)
		}

		items = append(items, &TagItem{Name: name, Type: tagType})
	}
	return items, nil
}

func init() {
	err := service.RegisterBatchInput(
		"plctag", PLCTagInputConfig(),
		func(conf *service.ParsedConfig, mgr *service.Resources) (service.BatchInput, error) {
			input, err := NewPLCTagInput(conf, mgr)
			if err != nil {
				return nil, err
			}
			return service.AutoRetryNacksBatched(input), nil
		})
	if err != nil {
		panic(err)
	}
}

// Connect prepares the dispatcher. No session is held open here: sessions
// are opened per request, or borrowed from the pool when reuseSessions is set.
func (g *PLCTagInput) Connect(ctx context.Context) error {
	if g.Dispatcher != nil {
		return nil
	}

	dispatcher, pool, err := g.Session.newDispatcher()
	if err != nil {
		g.Log.Errorf("Failed to set up plctag dispatcher: %v", err)
		return err
	}
	g.Dispatcher = dispatcher
	g.pool = pool

	g.Log.Infof("plctag input reading %d tags from %s (path %s)",
		len(g.Items), g.Session.Connection.GatewayAddress, g.Session.Connection.RoutingPath())
	return nil
}

func (g *PLCTagInput) ReadBatch(ctx context.Context) (service.MessageBatch, service.AckFunc, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, nil, err
		}
	}

	batch := make(service.MessageBatch, 0, len(g.Items))
	failed := 0

	for _, item := range g.Items {
		value, err := g.Dispatcher.Read(plctag.TagRequest{
			TagName:    item.Name,
			Type:       item.Type,
			Connection: g.Session.Connection,
		})
		if err != nil {
			g.Log.Warnf("Failed to read tag %s: %v", item.Name, err)
			failed++
			continue
		}

		if g.OnlyChanges && !g.changed(item.Name, value) {
			continue
		}

		batch = append(batch, g.createMessage(item, value))
	}

	if failed > 0 && failed == len(g.Items) {
		return nil, nil, service.ErrNotConnected
	}

	return batch, func(ctx context.Context, err error) error {
		return nil
	}, nil
}

func (g *PLCTagInput) changed(name string, value string) bool {
	if g.fingerprints == nil {
		g.fingerprints = make(map[string]uint64)
	}

	sum := xxhash.Sum64String(value)
	prev, seen := g.fingerprints[name]
	g.fingerprints[name] = sum
	return !seen || prev != sum
}

func (g *PLCTagInput) createMessage(item *TagItem, value string) *service.Message {
	msg := service.NewMessage([]byte(value))
	msg.MetaSet("plctag_tag_name", item.Name)
	msg.MetaSet("plctag_tag_type", item.Type.String())
	msg.MetaSet("plctag_gateway", g.Session.Connection.GatewayAddress)
	msg.MetaSet("plctag_path", g.Session.Connection.RoutingPath())
	return msg
}

func (g *PLCTagInput) Close(ctx context.Context) error {
	if g.pool != nil {
		return g.pool.Close()
	}
	return nil
}
