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
	"net"
	"strconv"
	"time"
)

// Protocol selects the transport protocol spoken to the gateway.
type Protocol int

const (
	ProtocolEtherNetIP Protocol = iota
)

func (p Protocol) String() string {
	switch p {
	case ProtocolEtherNetIP:
		return "ab_eip"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// PLCFamily identifies the controller family behind the gateway.
type PLCFamily int

const (
	PLCControlLogix PLCFamily = iota
)

func (f PLCFamily) String() string {
	switch f {
	case PLCControlLogix:
		return "ControlLogix"
	default:
		return fmt.Sprintf("PLCFamily(%d)", int(f))
	}
}

// DefaultPort is the EtherNet/IP explicit messaging port.
const DefaultPort = 44818

// ConnectionDescriptor describes how to reach one controller. It is built
// fresh for every request and passed by value.
type ConnectionDescriptor struct {
	// GatewayAddress is the IP or hostname of the communication module,
	// optionally followed by ":port".
	GatewayAddress string
	Channel        int
	Slot           int
	Timeout        time.Duration
	Protocol       Protocol
	PLC            PLCFamily
}

// NewConnectionDescriptor builds an EtherNet/IP ControlLogix descriptor.
// It performs no validation; see Validate.
func NewConnectionDescriptor(address string, channel, slot int, timeout time.Duration) ConnectionDescriptor {
	return ConnectionDescriptor{
		GatewayAddress: address,
		Channel:        channel,
		Slot:           slot,
		Timeout:        timeout,
		Protocol:       ProtocolEtherNetIP,
		PLC:            PLCControlLogix,
	}
}

// RoutingPath returns the backplane route in "channel,slot" form.
func (c ConnectionDescriptor) RoutingPath() string {
	return strconv.Itoa(c.Channel) + "," + strconv.Itoa(c.Slot)
}

// Validate checks the fields a caller should gate on before issuing requests.
// The dispatcher itself never validates descriptors.
func (c ConnectionDescriptor) Validate() error {
	var errs []error
	if c.GatewayAddress == "" {
		errs = append(errs, errors.New("gateway address is empty"))
	}
	if c.Channel < 0 || c.Channel > 255 {
		errs = append(errs, fmt.Errorf("channel %d out of range 0-255", c.Channel))
	}
	if c.Slot < 0 || c.Slot > 255 {
		errs = append(errs, fmt.Errorf("slot %d out of range 0-255", c.Slot))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("negative timeout %s", c.Timeout))
	}
	return errors.Join(errs...)
}

// Config holds the connection settings an operator starts from.
type Config struct {
	PLCIPAddress   string
	Port           int
	Channel        int
	Slot           int
	DefaultTag     string
	DefaultTagType TagType
	Timeout        time.Duration
	PollInterval   time.Duration
}

// DefaultConfig returns the factory defaults.
func DefaultConfig() Config {
	return Config{
		PLCIPAddress:   "10.0.241.12",
		Port:           DefaultPort,
		Channel:        1,
		Slot:           1,
		DefaultTag:     "HMI.PLCWatchdogCounter",
		DefaultTagType: Int32,
		Timeout:        10 * time.Second,
		PollInterval:   5 * time.Second,
	}
}

// ConnectionDescriptor builds a descriptor from the current settings.
// The port is only spelled out when it differs from DefaultPort.
func (c Config) ConnectionDescriptor() ConnectionDescriptor {
	address := c.PLCIPAddress
	if c.Port != 0 && c.Port != DefaultPort {
		address = net.JoinHostPort(address, strconv.Itoa(c.Port))
	}
	return NewConnectionDescriptor(address, c.Channel, c.Slot, c.Timeout)
}

// DefaultTagRequest is the request used for connectivity checks.
func (c Config) DefaultTagRequest() TagRequest {
	return TagRequest{
		TagName:    c.DefaultTag,
		Type:       c.DefaultTagType,
		Connection: c.ConnectionDescriptor(),
	}
}

// TagRequest addresses one typed tag on one controller.
type TagRequest struct {
	TagName    string
	Type       TagType
	Connection ConnectionDescriptor
}
