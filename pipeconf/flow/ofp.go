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

package flow

import (
	"encoding/binary"
	"fmt"
	"net"

	fu "github.com/opencord/voltha-lib-go/v7/pkg/flows"
	ofp "github.com/opencord/voltha-protos/v5/go/openflow_13"
	"github.com/opencord/vxlan-pipeconf/pipeconf/extension"
	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
)

var (
	ErrUnsupportedMatch  = pi.ErrUnsupportedMatch
	ErrUnsupportedAction = pi.ErrUnsupportedAction
)

// FromOfpFlow converts an OpenFlow 1.3 flow into a rule of the given device.
// Only the match fields and apply-actions this pipeline can express are accepted.
func FromOfpFlow(deviceID, appID string, flow *ofp.OfpFlowStats) (*Rule, error) {
	if flow == nil {
		return nil, fmt.Errorf("flow cannot be nil: %w", pi.ErrNullArgument)
	}
	criteria := make([]Criterion, 0)
	for _, field := range fu.GetOfbFields(flow) {
		c, err := criterionFromOfb(field)
		if err != nil {
			return nil, err
		}
		criteria = append(criteria, c)
	}

	treatment := make([]Instruction, 0)
	for _, action := range fu.GetActions(flow) {
		i, err := instructionFromAction(action)
		if err != nil {
			return nil, err
		}
		treatment = append(treatment, i)
	}

	b := NewRuleBuilder().
		ForDevice(deviceID).
		ForTable(int(flow.TableId)).
		WithPriority(int32(flow.Priority)).
		FromApp(appID).
		WithSelector(NewSelector(criteria...)).
		WithTreatment(treatment...)
	if timeout := max(flow.HardTimeout, flow.IdleTimeout); timeout > 0 {
		b.MakeTemporary(timeout)
	}
	return b.Build()
}

func criterionFromOfb(field *ofp.OfpOxmOfbField) (Criterion, error) {
	if field == nil {
		return nil, fmt.Errorf("empty match field: %w", ErrUnsupportedMatch)
	}
	switch field.GetType() {
	case InPort:
		return MatchInPort(PortNumber(field.GetPort())), nil
	case EthDst:
		return MatchEthDst(net.HardwareAddr(field.GetEthDst())), nil
	case EthSrc:
		return MatchEthSrc(net.HardwareAddr(field.GetEthSrc())), nil
	case EthType:
		return MatchEthType(uint16(field.GetEthType())), nil
	case IPv4Dst:
		mask := ^uint32(0)
		if field.GetHasMask() {
			mask = field.GetIpv4DstMask()
		}
		return MatchIPDst(prefixOf(field.GetIpv4Dst(), mask)), nil
	case IPv4Src:
		mask := ^uint32(0)
		if field.GetHasMask() {
			mask = field.GetIpv4SrcMask()
		}
		return MatchIPSrc(prefixOf(field.GetIpv4Src(), mask)), nil
	case ArpTpa:
		return MatchArpTpa(uint32ToIP(field.GetArpTpa())), nil
	case TunnelID:
		return MatchTunnelID(field.GetTunnelId()), nil
	}
	return nil, fmt.Errorf("match field %s: %w", field.GetType(), ErrUnsupportedMatch)
}

func instructionFromAction(action *ofp.OfpAction) (Instruction, error) {
	switch action.GetType() {
	case fu.OUTPUT:
		return Output{Port: PortNumber(action.GetOutput().GetPort())}, nil
	case fu.SET_FIELD:
		field := action.GetSetField().GetField().GetOfbField()
		switch field.GetType() {
		case EthDst:
			return ModEthDst{MAC: net.HardwareAddr(field.GetEthDst())}, nil
		case TunnelID:
			return ModTunnelID{ID: field.GetTunnelId()}, nil
		}
		return nil, fmt.Errorf("set-field %s: %w", field.GetType(), ErrUnsupportedAction)
	case fu.EXPERIMENTER:
		exp := action.GetExperimenter()
		if exp.GetExperimenter() != extension.ExperimenterID {
			return nil, fmt.Errorf("experimenter 0x%08x: %w", exp.GetExperimenter(), ErrUnsupportedAction)
		}
		ext, err := extension.Unmarshal(exp.GetData())
		if err != nil {
			return nil, err
		}
		return Extension{Ext: ext}, nil
	}
	return nil, fmt.Errorf("action %s: %w", action.GetType(), ErrUnsupportedAction)
}

// ToOfpFlow renders the rule as an OpenFlow 1.3 flow, extensions become experimenter actions
func ToOfpFlow(rule *Rule) (*ofp.OfpFlowStats, error) {
	fa := &fu.FlowArgs{
		KV: fu.OfpFlowModArgs{"priority": uint64(rule.Priority()), "table_id": uint64(rule.Table())},
	}
	if !rule.IsPermanent() {
		fa.KV["hard_timeout"] = uint64(rule.Timeout())
	}
	for _, c := range rule.Selector().Criteria() {
		fa.MatchFields = append(fa.MatchFields, ofbFromCriterion(c))
	}
	for _, i := range rule.Treatment() {
		action, err := actionFromInstruction(i)
		if err != nil {
			return nil, err
		}
		fa.Actions = append(fa.Actions, action)
	}
	return fu.MkFlowStat(fa)
}

func ofbFromCriterion(c Criterion) *ofp.OfpOxmOfbField {
	switch v := c.(type) {
	case *PortCriterion:
		return fu.InPort(uint32(v.Port))
	case *EthCriterion:
		if v.Kind == EthSrc {
			return &ofp.OfpOxmOfbField{Type: EthSrc, Value: &ofp.OfpOxmOfbField_EthSrc{EthSrc: v.MAC}}
		}
		return ethDstField(v.MAC)
	case *EthTypeCriterion:
		return fu.EthType(uint32(v.EthType))
	case *IPCriterion:
		addr, mask := ipToUint32(v.Prefix.IP), binary.BigEndian.Uint32(maskOf(v.Prefix))
		if v.Kind == IPv4Src {
			field := fu.Ipv4Src(addr)
			if mask != ^uint32(0) {
				field.HasMask = true
				field.Mask = &ofp.OfpOxmOfbField_Ipv4SrcMask{Ipv4SrcMask: mask}
			}
			return field
		}
		field := fu.Ipv4Dst(addr)
		if mask != ^uint32(0) {
			field.HasMask = true
			field.Mask = &ofp.OfpOxmOfbField_Ipv4DstMask{Ipv4DstMask: mask}
		}
		return field
	case *ArpPaCriterion:
		return fu.ArpTpa(ipToUint32(v.IP))
	case *TunnelIDCriterion:
		return fu.TunnelId(v.ID)
	}
	return nil
}

func actionFromInstruction(i Instruction) (*ofp.OfpAction, error) {
	switch v := i.(type) {
	case Output:
		return fu.Output(uint32(v.Port)), nil
	case ModEthDst:
		return fu.SetField(ethDstField(v.MAC)), nil
	case ModTunnelID:
		return fu.SetField(fu.TunnelId(v.ID)), nil
	case Extension:
		data, err := extension.Marshal(v.Ext)
		if err != nil {
			return nil, err
		}
		return fu.Experimenter(extension.ExperimenterID, data), nil
	}
	return nil, fmt.Errorf("instruction %v: %w", i, ErrUnsupportedAction)
}

// fu.EthDst carries the address as table metadata, not usable here
func ethDstField(mac net.HardwareAddr) *ofp.OfpOxmOfbField {
	return &ofp.OfpOxmOfbField{Type: EthDst, Value: &ofp.OfpOxmOfbField_EthDst{EthDst: mac}}
}

func prefixOf(addr, mask uint32) *net.IPNet {
	m := make(net.IPMask, net.IPv4len)
	binary.BigEndian.PutUint32(m, mask)
	ip := uint32ToIP(addr & mask)
	return &net.IPNet{IP: ip, Mask: m}
}

func maskOf(prefix *net.IPNet) net.IPMask {
	if len(prefix.Mask) == net.IPv6len {
		return prefix.Mask[12:]
	}
	return prefix.Mask
}

func uint32ToIP(v uint32) net.IP {
	ip := make(net.IP, net.IPv4len)
	binary.BigEndian.PutUint32(ip, v)
	return ip
}

func ipToUint32(ip net.IP) uint32 {
	ip4 := ip.To4()
	if ip4 == nil {
		return 0
	}
	return binary.BigEndian.Uint32(ip4)
}
