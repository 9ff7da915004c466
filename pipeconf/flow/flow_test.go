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
	"errors"
	"net"
	"testing"

	fu "github.com/opencord/voltha-lib-go/v7/pkg/flows"
	ofp "github.com/opencord/voltha-protos/v5/go/openflow_13"
	"github.com/opencord/vxlan-pipeconf/pipeconf/extension"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mac(t *testing.T, s string) net.HardwareAddr {
	m, err := net.ParseMAC(s)
	require.Nil(t, err)
	return m
}

func prefix(t *testing.T, s string) *net.IPNet {
	_, p, err := net.ParseCIDR(s)
	require.Nil(t, err)
	return p
}

func s2ForwardRule(t *testing.T) *Rule {
	rule, err := NewRuleBuilder().
		ForDevice("device:s2").
		ForTable(1).
		WithPriority(40005).
		FromApp("nctu.pncourse.vxlan").
		WithSelector(NewSelector(MatchEthType(0x0800), MatchIPDst(prefix(t, "192.169.1.2/32")))).
		WithTreatment(ModEthDst{MAC: mac(t, "00:00:00:00:00:03")}, Output{Port: 2}).
		Build()
	require.Nil(t, err)
	return rule
}

func TestPorts(t *testing.T) {
	assert.True(t, PortController.IsLogical())
	assert.True(t, PortFlood.IsLogical())
	assert.False(t, PortNumber(2).IsLogical())
	assert.False(t, PortMax.IsLogical())
	assert.Equal(t, "FLOOD", PortFlood.String())
	assert.Equal(t, "12", PortNumber(12).String())

	p, err := ParsePort("controller")
	assert.Nil(t, err)
	assert.Equal(t, PortController, p)
	p, err = ParsePort("3")
	assert.Nil(t, err)
	assert.Equal(t, PortNumber(3), p)
	_, err = ParsePort("north")
	assert.NotNil(t, err)

	assert.Equal(t, "device:s1/1", ConnectPoint{DeviceID: "device:s1", Port: 1}.String())
}

func TestSelectorLaterCriterionWins(t *testing.T) {
	s := NewSelector(MatchInPort(1), MatchEthType(0x0806), MatchInPort(2), nil)
	assert.Equal(t, 2, s.Len())
	c, have := s.Get(InPort)
	assert.True(t, have)
	assert.Equal(t, PortNumber(2), c.(*PortCriterion).Port)
	_, have = s.Get(EthDst)
	assert.False(t, have)

	criteria := s.Criteria()
	assert.Equal(t, InPort, criteria[0].Type())
	assert.Equal(t, EthType, criteria[1].Type())
}

func TestRuleBuilder(t *testing.T) {
	rule := s2ForwardRule(t)
	assert.Equal(t, "device:s2", rule.DeviceID())
	assert.Equal(t, 1, rule.Table())
	assert.Equal(t, int32(40005), rule.Priority())
	assert.True(t, rule.IsPermanent())
	assert.Equal(t, 2, len(rule.Treatment()))
	assert.Equal(t, "device=device:s2 table=1 priority=40005 selector=[ETH_TYPE:0x0800, IPV4_DST:192.169.1.2/32] treatment=[ETH_DST:00:00:00:00:00:03, OUTPUT:2]", rule.String())

	// the returned treatment is a copy
	treatment := rule.Treatment()
	treatment[0] = Output{Port: 9}
	assert.Equal(t, ModEthDst{MAC: mac(t, "00:00:00:00:00:03")}, rule.Treatment()[0])
}

func TestRuleBuilderValidation(t *testing.T) {
	_, err := NewRuleBuilder().Build()
	assert.True(t, errors.Is(err, ErrInvalidRule))

	_, err = NewRuleBuilder().ForDevice("device:s1").ForTable(-1).Build()
	assert.True(t, errors.Is(err, ErrInvalidRule))

	_, err = NewRuleBuilder().ForDevice("device:s1").WithPriority(70000).Build()
	assert.True(t, errors.Is(err, ErrInvalidRule))

	_, err = NewRuleBuilder().ForDevice("device:s1").MakeTemporary(0).Build()
	assert.True(t, errors.Is(err, ErrInvalidRule))

	_, err = NewRuleBuilder().ForDevice("device:s1").WithTreatment(Extension{}).Build()
	assert.True(t, errors.Is(err, ErrInvalidRule))

	_, err = NewRuleBuilder().ForDevice("device:s1").WithTreatment(nil).Build()
	assert.True(t, errors.Is(err, ErrInvalidRule))

	_, err = NewRuleBuilder().ForDevice("device:s1").
		WithTreatment(Extension{Ext: (*extension.TunnelSetSMac)(nil)}).Build()
	assert.True(t, errors.Is(err, ErrInvalidRule))

	_, err = NewRuleBuilder().ForDevice("device:s1").
		WithTreatment(Extension{Ext: extension.NewTunnelSetDMac(net.HardwareAddr{1, 2, 3})}).Build()
	assert.True(t, errors.Is(err, ErrInvalidRule))

	rule, err := NewRuleBuilder().ForDevice("device:s1").MakeTemporary(10).Build()
	assert.Nil(t, err)
	assert.False(t, rule.IsPermanent())
	assert.Equal(t, uint32(10), rule.Timeout())
	assert.Equal(t, 0, rule.Selector().Len())
}

func TestRuleID(t *testing.T) {
	a, b := s2ForwardRule(t), s2ForwardRule(t)
	assert.Equal(t, a.ID(), b.ID())

	retreated, err := NewRuleBuilder().
		ForDevice("device:s2").
		ForTable(1).
		WithPriority(40005).
		FromApp("nctu.pncourse.vxlan").
		WithSelector(NewSelector(MatchEthType(0x0800), MatchIPDst(prefix(t, "192.169.1.2/32")))).
		WithTreatment(ModEthDst{MAC: mac(t, "00:00:00:00:00:04")}, Output{Port: 2}).
		Build()
	require.Nil(t, err)
	// same table entry, new treatment
	assert.Equal(t, a.ID(), retreated.ID())

	for name, b := range map[string]*RuleBuilder{
		"device":   NewRuleBuilder().ForDevice("device:s1").ForTable(1).WithPriority(40005),
		"table":    NewRuleBuilder().ForDevice("device:s2").ForTable(0).WithPriority(40005),
		"priority": NewRuleBuilder().ForDevice("device:s2").ForTable(1).WithPriority(40006),
		"app":      NewRuleBuilder().ForDevice("device:s2").ForTable(1).WithPriority(40005).FromApp("other"),
	} {
		if name != "app" {
			b.FromApp("nctu.pncourse.vxlan")
		}
		other, err := b.WithSelector(NewSelector(MatchEthType(0x0800), MatchIPDst(prefix(t, "192.169.1.2/32")))).Build()
		require.Nil(t, err, name)
		assert.NotEqual(t, a.ID(), other.ID(), name)
	}

	selector, err := NewRuleBuilder().ForDevice("device:s2").ForTable(1).WithPriority(40005).FromApp("nctu.pncourse.vxlan").
		WithSelector(NewSelector(MatchEthType(0x0800), MatchIPDst(prefix(t, "192.169.1.3/32")))).Build()
	require.Nil(t, err)
	assert.NotEqual(t, a.ID(), selector.ID())
}

func TestRuleTreatmentIsCopied(t *testing.T) {
	smac := extension.NewTunnelSetSMac(mac(t, "00:00:00:00:00:01"))
	rule, err := NewRuleBuilder().ForDevice("device:s1").ForTable(3).
		WithTreatment(Extension{Ext: smac}).Build()
	require.Nil(t, err)

	// neither the instruction given to the builder nor a returned one reach the rule
	require.Nil(t, smac.SetProperty(smac.Type().Name(), mac(t, "00:00:00:00:00:09")))
	got := rule.Treatment()[0].(Extension).Ext
	assert.True(t, got.Equal(extension.NewTunnelSetSMac(mac(t, "00:00:00:00:00:01"))))

	require.Nil(t, got.SetProperty(got.Type().Name(), mac(t, "00:00:00:00:00:09")))
	again := rule.Treatment()[0].(Extension).Ext
	assert.True(t, again.Equal(extension.NewTunnelSetSMac(mac(t, "00:00:00:00:00:01"))))
}

func TestOfpRoundTrip(t *testing.T) {
	rule, err := NewRuleBuilder().
		ForDevice("device:s1").
		ForTable(3).
		WithPriority(40001).
		FromApp("nctu.pncourse.vxlan").
		WithSelector(NewSelector(
			MatchInPort(1),
			MatchEthDst(mac(t, "00:00:00:00:00:02")),
			MatchIPDst(prefix(t, "192.169.0.0/16")),
			MatchArpTpa(net.ParseIP("192.169.1.2")),
			MatchTunnelID(30))).
		WithTreatment(
			Extension{Ext: extension.NewTunnelSetSMac(mac(t, "00:00:00:00:00:01"))},
			Extension{Ext: extension.NewTunnelSetDIP(net.ParseIP("192.168.50.2"))},
			ModTunnelID{ID: 30},
			Output{Port: 2}).
		MakeTemporary(60).
		Build()
	require.Nil(t, err)

	flow, err := ToOfpFlow(rule)
	require.Nil(t, err)
	assert.Equal(t, uint32(3), flow.TableId)
	assert.Equal(t, uint32(40001), flow.Priority)
	assert.Equal(t, uint32(60), flow.HardTimeout)
	assert.Equal(t, uint32(2), fu.GetOutPort(flow))
	assert.Equal(t, 5, len(fu.GetOfbFields(flow)))

	back, err := FromOfpFlow("device:s1", "nctu.pncourse.vxlan", flow)
	require.Nil(t, err)
	assert.Equal(t, rule.ID(), back.ID())
	assert.Equal(t, rule.String(), back.String())
	assert.False(t, back.IsPermanent())
}

func TestFromOfpFlow(t *testing.T) {
	fa := &fu.FlowArgs{
		KV: fu.OfpFlowModArgs{"priority": 40003, "table_id": 0},
		MatchFields: []*ofp.OfpOxmOfbField{
			fu.InPort(1),
			{Type: EthDst, Value: &ofp.OfpOxmOfbField_EthDst{EthDst: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}}},
		},
		Actions: []*ofp.OfpAction{
			fu.Output(uint32(ofp.OfpPortNo_OFPP_CONTROLLER)),
		},
	}
	flow, err := fu.MkFlowStat(fa)
	require.Nil(t, err)

	rule, err := FromOfpFlow("device:s1", "app", flow)
	require.Nil(t, err)
	assert.Equal(t, 0, rule.Table())
	assert.Equal(t, int32(40003), rule.Priority())
	assert.True(t, rule.IsPermanent())
	assert.Equal(t, []Instruction{Output{Port: PortController}}, rule.Treatment())
	c, have := rule.Selector().Get(EthDst)
	assert.True(t, have)
	assert.Equal(t, "ff:ff:ff:ff:ff:ff", c.(*EthCriterion).MAC.String())
}

func TestFromOfpFlowMaskedPrefix(t *testing.T) {
	field := fu.Ipv4Dst(0xc0a90102)
	field.HasMask = true
	field.Mask = &ofp.OfpOxmOfbField_Ipv4DstMask{Ipv4DstMask: 0xffffff00}
	flow, err := fu.MkFlowStat(&fu.FlowArgs{
		KV:          fu.OfpFlowModArgs{"priority": 10, "table_id": 1},
		MatchFields: []*ofp.OfpOxmOfbField{field},
		Actions:     []*ofp.OfpAction{fu.Output(2)},
	})
	require.Nil(t, err)

	rule, err := FromOfpFlow("device:s1", "app", flow)
	require.Nil(t, err)
	c, have := rule.Selector().Get(IPv4Dst)
	assert.True(t, have)
	assert.Equal(t, "192.169.1.0/24", c.(*IPCriterion).Prefix.String())
}

func TestFromOfpFlowUnsupported(t *testing.T) {
	_, err := FromOfpFlow("device:s1", "app", nil)
	assert.NotNil(t, err)

	flow, err := fu.MkFlowStat(&fu.FlowArgs{
		KV:          fu.OfpFlowModArgs{"priority": 10},
		MatchFields: []*ofp.OfpOxmOfbField{fu.VlanVid(uint32(ofp.OfpVlanId_OFPVID_PRESENT) | 100)},
		Actions:     []*ofp.OfpAction{fu.Output(2)},
	})
	require.Nil(t, err)
	_, err = FromOfpFlow("device:s1", "app", flow)
	assert.True(t, errors.Is(err, ErrUnsupportedMatch))

	flow, err = fu.MkFlowStat(&fu.FlowArgs{
		KV:      fu.OfpFlowModArgs{"priority": 10},
		Actions: []*ofp.OfpAction{fu.PopVlan()},
	})
	require.Nil(t, err)
	_, err = FromOfpFlow("device:s1", "app", flow)
	assert.True(t, errors.Is(err, ErrUnsupportedAction))

	flow, err = fu.MkFlowStat(&fu.FlowArgs{
		KV:      fu.OfpFlowModArgs{"priority": 10},
		Actions: []*ofp.OfpAction{fu.Experimenter(0x2320, []byte{0, 0, 0, 4})},
	})
	require.Nil(t, err)
	_, err = FromOfpFlow("device:s1", "app", flow)
	assert.True(t, errors.Is(err, ErrUnsupportedAction))

	flow, err = fu.MkFlowStat(&fu.FlowArgs{
		KV:      fu.OfpFlowModArgs{"priority": 10},
		Actions: []*ofp.OfpAction{fu.Experimenter(extension.ExperimenterID, []byte{0, 0, 0, 42})},
	})
	require.Nil(t, err)
	_, err = FromOfpFlow("device:s1", "app", flow)
	assert.True(t, errors.Is(err, extension.ErrUnsupportedType))
}
