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
	"fmt"
	"math"
	"net"
)

func (i *TunnelSetSMac) PropertyNames() []string     { return []string{FieldTunnelSMac} }
func (i *TunnelSetDMac) PropertyNames() []string     { return []string{FieldTunnelDMac} }
func (i *TunnelSetSIP) PropertyNames() []string      { return []string{FieldTunnelSIP} }
func (i *TunnelSetDIP) PropertyNames() []string      { return []string{FieldTunnelDIP} }
func (i *SetMulticastGroup) PropertyNames() []string { return []string{FieldMulticastGrp} }
func (i *TunnelDecap) PropertyNames() []string       { return []string{FieldDummy} }

func (i *TunnelSetSMac) Property(name string) (interface{}, error) {
	if err := checkName(i, name); err != nil {
		return nil, err
	}
	return macOrZero(i.MAC), nil
}

func (i *TunnelSetDMac) Property(name string) (interface{}, error) {
	if err := checkName(i, name); err != nil {
		return nil, err
	}
	return macOrZero(i.MAC), nil
}

func (i *TunnelSetSIP) Property(name string) (interface{}, error) {
	return ipProperty(i, name, i.IP)
}

func (i *TunnelSetDIP) Property(name string) (interface{}, error) {
	return ipProperty(i, name, i.IP)
}

func (i *SetMulticastGroup) Property(name string) (interface{}, error) {
	if err := checkName(i, name); err != nil {
		return nil, err
	}
	return i.Group, nil
}

func (i *TunnelDecap) Property(name string) (interface{}, error) {
	if err := checkName(i, name); err != nil {
		return nil, err
	}
	return i.Value, nil
}

func (i *TunnelSetSMac) SetProperty(name string, value interface{}) error {
	mac, err := macValue(i, name, value)
	if err == nil {
		i.MAC = mac
	}
	return err
}

func (i *TunnelSetDMac) SetProperty(name string, value interface{}) error {
	mac, err := macValue(i, name, value)
	if err == nil {
		i.MAC = mac
	}
	return err
}

func (i *TunnelSetSIP) SetProperty(name string, value interface{}) error {
	ip, err := ipValue(i, name, value)
	if err == nil {
		i.IP = ip
	}
	return err
}

func (i *TunnelSetDIP) SetProperty(name string, value interface{}) error {
	ip, err := ipValue(i, name, value)
	if err == nil {
		i.IP = ip
	}
	return err
}

func (i *SetMulticastGroup) SetProperty(name string, value interface{}) error {
	if err := checkName(i, name); err != nil {
		return err
	}
	v, err := integerValue(i, value, 0, math.MaxUint16)
	if err == nil {
		i.Group = uint16(v)
	}
	return err
}

func (i *TunnelDecap) SetProperty(name string, value interface{}) error {
	if err := checkName(i, name); err != nil {
		return err
	}
	v, err := integerValue(i, value, math.MinInt32, math.MaxInt32)
	if err == nil {
		i.Value = int32(v)
	}
	return err
}

func checkName(i Instruction, name string) error {
	if name != i.Type().Name() {
		return fmt.Errorf("%s has no property %q: %w", i.Type(), name, ErrExtensionProperty)
	}
	return nil
}

// an absent address cannot be read
func ipProperty(i Instruction, name string, ip net.IP) (interface{}, error) {
	if err := checkName(i, name); err != nil {
		return nil, err
	}
	if ip == nil {
		return nil, fmt.Errorf("%s: address not set: %w", i.Type(), ErrExtensionProperty)
	}
	return ip.To4(), nil
}

func macValue(i Instruction, name string, value interface{}) (net.HardwareAddr, error) {
	if err := checkName(i, name); err != nil {
		return nil, err
	}
	var mac net.HardwareAddr
	switch v := value.(type) {
	case net.HardwareAddr:
		mac = v
	case []byte:
		mac = net.HardwareAddr(v)
	case string:
		parsed, err := net.ParseMAC(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %v: %w", i.Type(), err, ErrExtensionProperty)
		}
		mac = parsed
	default:
		return nil, fmt.Errorf("%s: unexpected value type %T: %w", i.Type(), value, ErrExtensionProperty)
	}
	if len(mac) != 6 {
		return nil, fmt.Errorf("%s: mac %s is not 6 bytes long: %w", i.Type(), mac, ErrExtensionProperty)
	}
	return append(net.HardwareAddr(nil), mac...), nil
}

// nil clears the address
func ipValue(i Instruction, name string, value interface{}) (net.IP, error) {
	if err := checkName(i, name); err != nil {
		return nil, err
	}
	var ip net.IP
	switch v := value.(type) {
	case nil:
		return nil, nil
	case net.IP:
		ip = v
	case string:
		ip = net.ParseIP(v)
	default:
		return nil, fmt.Errorf("%s: unexpected value type %T: %w", i.Type(), value, ErrExtensionProperty)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%s: %v is not an ipv4 address: %w", i.Type(), value, ErrExtensionProperty)
	}
	return append(net.IP(nil), ip4...), nil
}

func integerValue(i Instruction, value interface{}, lo, hi int64) (int64, error) {
	var v int64
	switch n := value.(type) {
	case int:
		v = int64(n)
	case int32:
		v = int64(n)
	case int64:
		v = n
	case uint16:
		v = int64(n)
	case uint32:
		v = int64(n)
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("%s: %v is not an integer: %w", i.Type(), n, ErrExtensionProperty)
		}
		if n < float64(lo) || n > float64(hi) {
			return 0, fmt.Errorf("%s: %v out of range [%d, %d]: %w", i.Type(), n, lo, hi, ErrExtensionProperty)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%s: unexpected value type %T: %w", i.Type(), value, ErrExtensionProperty)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s: %d out of range [%d, %d]: %w", i.Type(), v, lo, hi, ErrExtensionProperty)
	}
	return v, nil
}
