/*
 * Copyright 2018-2023 Open Networking Foundation (ONF) and the ONF Contributors

 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at

 * http://www.apache.org/licenses/LICENSE-2.0

 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package extension

import (
	"bytes"
	"fmt"
	"math"
	"net"

	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Sentinel errors of the extension framework
var (
	ErrUnsupportedType   = pi.ErrUnsupportedType
	ErrMissingField      = pi.ErrMissingField
	ErrNullArgument      = pi.ErrNullArgument
	ErrMalformedValue    = pi.ErrMalformedValue
	ErrExtensionProperty = pi.ErrExtensionProperty
)

// Instruction is an extension instruction. The set of implementations is closed:
// *TunnelSetSMac, *TunnelSetDMac, *TunnelSetSIP, *TunnelSetDIP, *SetMulticastGroup and *TunnelDecap.
type Instruction interface {
	// Type returns the kind of this instruction
	Type() Type
	// Serialize returns the binary form of the payload
	Serialize() ([]byte, error)
	// Deserialize replaces the payload with the one decoded from data
	Deserialize(data []byte) error
	// Equal compares kind and payload
	Equal(other Instruction) bool
	// PropertyNames lists the names accepted by Property and SetProperty
	PropertyNames() []string
	// Property returns the value of the named property
	Property(name string) (interface{}, error)
	// SetProperty replaces the value of the named property
	SetProperty(name string, value interface{}) error
	String() string

	isInstruction()
}

var zeroMAC = net.HardwareAddr{0, 0, 0, 0, 0, 0}

var marshalOptions = proto.MarshalOptions{Deterministic: true}

// TunnelSetSMac sets the outer source MAC address of the tunnel header
type TunnelSetSMac struct {
	MAC net.HardwareAddr
}

// TunnelSetDMac sets the outer destination MAC address of the tunnel header
type TunnelSetDMac struct {
	MAC net.HardwareAddr
}

// TunnelSetSIP sets the outer source IPv4 address of the tunnel header
type TunnelSetSIP struct {
	IP net.IP
}

// TunnelSetDIP sets the outer destination IPv4 address of the tunnel header
type TunnelSetDIP struct {
	IP net.IP
}

// SetMulticastGroup replicates the packet to a multicast group
type SetMulticastGroup struct {
	Group uint16
}

// TunnelDecap strips the tunnel header. Value is a placeholder carrying no meaning.
type TunnelDecap struct {
	Value int32
}

func NewTunnelSetSMac(mac net.HardwareAddr) *TunnelSetSMac { return &TunnelSetSMac{MAC: mac} }
func NewTunnelSetDMac(mac net.HardwareAddr) *TunnelSetDMac { return &TunnelSetDMac{MAC: mac} }
func NewTunnelSetSIP(ip net.IP) *TunnelSetSIP              { return &TunnelSetSIP{IP: ip.To4()} }
func NewTunnelSetDIP(ip net.IP) *TunnelSetDIP              { return &TunnelSetDIP{IP: ip.To4()} }
func NewSetMulticastGroup(group uint16) *SetMulticastGroup { return &SetMulticastGroup{Group: group} }
func NewTunnelDecap(value int32) *TunnelDecap              { return &TunnelDecap{Value: value} }

func (*TunnelSetSMac) Type() Type     { return TypeTunnelSetSMac }
func (*TunnelSetDMac) Type() Type     { return TypeTunnelSetDMac }
func (*TunnelSetSIP) Type() Type      { return TypeTunnelSetSIP }
func (*TunnelSetDIP) Type() Type      { return TypeTunnelSetDIP }
func (*SetMulticastGroup) Type() Type { return TypeSetMulticastGroup }
func (*TunnelDecap) Type() Type       { return TypeTunnelDecap }

func (*TunnelSetSMac) isInstruction()     {}
func (*TunnelSetDMac) isInstruction()     {}
func (*TunnelSetSIP) isInstruction()      {}
func (*TunnelSetDIP) isInstruction()      {}
func (*SetMulticastGroup) isInstruction() {}
func (*TunnelDecap) isInstruction()       {}

func (i *TunnelSetSMac) Serialize() ([]byte, error) { return serializeMAC(i.MAC) }
func (i *TunnelSetDMac) Serialize() ([]byte, error) { return serializeMAC(i.MAC) }
func (i *TunnelSetSIP) Serialize() ([]byte, error)  { return serializeIP(i.IP) }
func (i *TunnelSetDIP) Serialize() ([]byte, error)  { return serializeIP(i.IP) }

func (i *SetMulticastGroup) Serialize() ([]byte, error) {
	return marshalOptions.Marshal(wrapperspb.UInt32(uint32(i.Group)))
}

func (i *TunnelDecap) Serialize() ([]byte, error) {
	return marshalOptions.Marshal(wrapperspb.Int32(i.Value))
}

func (i *TunnelSetSMac) Deserialize(data []byte) (err error) {
	i.MAC, err = deserializeMAC(data)
	return err
}

func (i *TunnelSetDMac) Deserialize(data []byte) (err error) {
	i.MAC, err = deserializeMAC(data)
	return err
}

func (i *TunnelSetSIP) Deserialize(data []byte) (err error) {
	i.IP, err = deserializeIP(data)
	return err
}

func (i *TunnelSetDIP) Deserialize(data []byte) (err error) {
	i.IP, err = deserializeIP(data)
	return err
}

func (i *SetMulticastGroup) Deserialize(data []byte) error {
	v := &wrapperspb.UInt32Value{}
	if err := proto.Unmarshal(data, v); err != nil {
		return fmt.Errorf("multicast group payload: %v: %w", err, ErrMalformedValue)
	}
	if v.GetValue() > math.MaxUint16 {
		return fmt.Errorf("multicast group %d out of range: %w", v.GetValue(), ErrMalformedValue)
	}
	i.Group = uint16(v.GetValue())
	return nil
}

func (i *TunnelDecap) Deserialize(data []byte) error {
	v := &wrapperspb.Int32Value{}
	if err := proto.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decap payload: %v: %w", err, ErrMalformedValue)
	}
	i.Value = v.GetValue()
	return nil
}

func (i *TunnelSetSMac) Equal(o Instruction) bool {
	that, ok := o.(*TunnelSetSMac)
	return ok && that != nil && bytes.Equal(macOrZero(i.MAC), macOrZero(that.MAC))
}

func (i *TunnelSetDMac) Equal(o Instruction) bool {
	that, ok := o.(*TunnelSetDMac)
	return ok && that != nil && bytes.Equal(macOrZero(i.MAC), macOrZero(that.MAC))
}

func (i *TunnelSetSIP) Equal(o Instruction) bool {
	that, ok := o.(*TunnelSetSIP)
	return ok && that != nil && ipEqual(i.IP, that.IP)
}

func (i *TunnelSetDIP) Equal(o Instruction) bool {
	that, ok := o.(*TunnelSetDIP)
	return ok && that != nil && ipEqual(i.IP, that.IP)
}

func (i *SetMulticastGroup) Equal(o Instruction) bool {
	that, ok := o.(*SetMulticastGroup)
	return ok && that != nil && i.Group == that.Group
}

func (i *TunnelDecap) Equal(o Instruction) bool {
	that, ok := o.(*TunnelDecap)
	return ok && that != nil && i.Value == that.Value
}

func (i *TunnelSetSMac) String() string {
	return fmt.Sprintf("%s = %s", FieldTunnelSMac, macOrZero(i.MAC))
}

func (i *TunnelSetDMac) String() string {
	return fmt.Sprintf("%s = %s", FieldTunnelDMac, macOrZero(i.MAC))
}

func (i *TunnelSetSIP) String() string {
	return fmt.Sprintf("%s = %s", FieldTunnelSIP, i.IP)
}

func (i *TunnelSetDIP) String() string {
	return fmt.Sprintf("%s = %s", FieldTunnelDIP, i.IP)
}

func (i *SetMulticastGroup) String() string {
	return fmt.Sprintf("%s = %d", FieldMulticastGrp, i.Group)
}

func (i *TunnelDecap) String() string {
	return fmt.Sprintf("%s = %d", FieldDummy, i.Value)
}

func macOrZero(mac net.HardwareAddr) net.HardwareAddr {
	if mac == nil {
		return zeroMAC
	}
	return mac
}

func ipEqual(a, b net.IP) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func serializeMAC(mac net.HardwareAddr) ([]byte, error) {
	mac = macOrZero(mac)
	if len(mac) != 6 {
		return nil, fmt.Errorf("mac %s is not 6 bytes long: %w", mac, ErrMalformedValue)
	}
	return marshalOptions.Marshal(wrapperspb.Bytes(mac))
}

func deserializeMAC(data []byte) (net.HardwareAddr, error) {
	v := &wrapperspb.BytesValue{}
	if err := proto.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("mac payload: %v: %w", err, ErrMalformedValue)
	}
	if len(v.GetValue()) != 6 {
		return nil, fmt.Errorf("mac payload of %d bytes: %w", len(v.GetValue()), ErrMalformedValue)
	}
	return net.HardwareAddr(v.GetValue()), nil
}

func serializeIP(ip net.IP) ([]byte, error) {
	if ip == nil {
		return marshalOptions.Marshal(&wrapperspb.BytesValue{})
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%s is not an ipv4 address: %w", ip, ErrMalformedValue)
	}
	return marshalOptions.Marshal(wrapperspb.Bytes(ip4))
}

func deserializeIP(data []byte) (net.IP, error) {
	v := &wrapperspb.BytesValue{}
	if err := proto.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("ipv4 payload: %v: %w", err, ErrMalformedValue)
	}
	switch len(v.GetValue()) {
	case 0:
		return nil, nil
	case net.IPv4len:
		return net.IP(v.GetValue()), nil
	}
	return nil, fmt.Errorf("ipv4 payload of %d bytes: %w", len(v.GetValue()), ErrMalformedValue)
}
