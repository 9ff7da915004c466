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

package translator

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/opencord/vxlan-pipeconf/pipeconf/extension"
	"github.com/opencord/vxlan-pipeconf/pipeconf/flow"
	"github.com/opencord/vxlan-pipeconf/pipeconf/interpreter"
	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
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

func newTestTranslator(t *testing.T) (*Translator, *Metrics) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.Nil(t, err)
	interp := interpreter.New(interpreter.WithSkipHook(m.ExtensionSkipped))
	return NewTranslator(interp, WithMetrics(m)), m
}

func TestTranslateIPv4Forward(t *testing.T) {
	tr, m := newTestTranslator(t)
	rule, err := flow.NewRuleBuilder().
		ForDevice("device:s2").
		ForTable(1).
		WithPriority(40005).
		FromApp("nctu.pncourse.vxlan").
		WithSelector(flow.NewSelector(
			flow.MatchEthType(0x0800),
			flow.MatchIPDst(prefix(t, "192.169.1.2/32")),
		)).
		WithTreatment(flow.ModEthDst{MAC: mac(t, "00:00:00:00:00:03")}, flow.Output{Port: 2}).
		Build()
	require.Nil(t, err)

	entry, err := tr.Translate(context.Background(), rule)
	require.Nil(t, err)
	assert.Equal(t, rule.ID(), entry.RuleID)
	assert.Equal(t, "device:s2", entry.DeviceID)
	assert.Equal(t, "nctu.pncourse.vxlan", entry.AppID)
	assert.Equal(t, interpreter.TableIPv4Forward, entry.Table)
	assert.Equal(t, int32(40005), entry.Priority)
	assert.True(t, entry.Permanent)

	expected := []pi.FieldMatch{
		pi.ExactMatch(interpreter.FieldEthType, []byte{0x08, 0x00}),
		pi.LPMMatch(interpreter.FieldIPv4Dst, []byte{192, 169, 1, 2}, 32),
	}
	require.Equal(t, len(expected), len(entry.Matches))
	for i := range expected {
		assert.True(t, expected[i].Equal(entry.Matches[i]), "%s != %s", expected[i], entry.Matches[i])
	}

	assert.True(t, entry.Action.Equal(pi.NewAction(interpreter.ActionL3Forward,
		pi.ActionParam{ID: interpreter.ParamDmac, Value: []byte{0, 0, 0, 0, 0, 3}},
		pi.ActionParam{ID: interpreter.ParamPort, Value: []byte{0, 0, 0, 0, 0, 0, 0, 2}},
	)), "action %s", entry.Action)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Translations.WithLabelValues(KindFlowRule, ResultSuccess)))
}

func TestTranslateMatchEncoding(t *testing.T) {
	tr, _ := newTestTranslator(t)
	rule, err := flow.NewRuleBuilder().
		ForDevice("device:s1").
		ForTable(0).
		WithSelector(flow.NewSelector(
			flow.MatchInPort(1),
			flow.MatchEthDst(mac(t, "00:00:00:00:00:02")),
			flow.MatchEthSrc(mac(t, "00:00:00:00:00:01")),
			flow.MatchArpTpa(net.ParseIP("10.0.0.2")),
			flow.MatchTunnelID(30),
		)).
		WithTreatment(flow.Output{Port: 2}).
		Build()
	require.Nil(t, err)

	entry, err := tr.Translate(context.Background(), rule)
	require.Nil(t, err)
	// eth src and tunnel id have no match field
	require.Equal(t, 3, len(entry.Matches))
	byField := map[pi.MatchFieldID]pi.FieldMatch{}
	for _, m := range entry.Matches {
		byField[m.FieldID] = m
	}
	assert.Equal(t, []byte{1}, byField[interpreter.FieldEgressPort].Value)
	assert.Equal(t, pi.MatchExact, byField[interpreter.FieldEgressPort].Type)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 2}, byField[interpreter.FieldEthDst].Value)
	assert.Equal(t, []byte{10, 0, 0, 2}, byField[interpreter.FieldArpTpa].Value)
	assert.Equal(t, interpreter.ActionSetOutPort, entry.Action.ID())
}

func TestTranslateMasksPrefix(t *testing.T) {
	tr, _ := newTestTranslator(t)
	rule, err := flow.NewRuleBuilder().
		ForDevice("device:s1").
		ForTable(1).
		WithSelector(flow.NewSelector(flow.MatchIPDst(&net.IPNet{
			IP:   net.IPv4(10, 1, 2, 3),
			Mask: net.CIDRMask(16, 32),
		}))).
		WithTreatment(flow.ModEthDst{MAC: mac(t, "00:00:00:00:00:03")}).
		Build()
	require.Nil(t, err)

	entry, err := tr.Translate(context.Background(), rule)
	require.Nil(t, err)
	require.Equal(t, 1, len(entry.Matches))
	assert.Equal(t, []byte{10, 1, 0, 0}, entry.Matches[0].Value)
	assert.Equal(t, int32(16), entry.Matches[0].PrefixLen)
	assert.Equal(t, pi.MatchLPM, entry.Matches[0].Type)
}

func TestTranslateErrors(t *testing.T) {
	tr, m := newTestTranslator(t)

	_, err := tr.Translate(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNullArgument))

	rule, err := flow.NewRuleBuilder().ForDevice("device:s1").ForTable(7).WithTreatment(flow.Output{Port: 1}).Build()
	require.Nil(t, err)
	entry, err := tr.Translate(context.Background(), rule)
	assert.Nil(t, entry)
	assert.True(t, errors.Is(err, ErrUnmappedTable))

	rule, err = flow.NewRuleBuilder().ForDevice("device:s1").ForTable(0).WithTreatment(flow.Output{Port: flow.PortAll}).Build()
	require.Nil(t, err)
	_, err = tr.Translate(context.Background(), rule)
	assert.True(t, errors.Is(err, pi.ErrUnsupportedOutput))

	rule, err = flow.NewRuleBuilder().
		ForDevice("device:s1").
		ForTable(1).
		WithSelector(flow.NewSelector(flow.MatchIPDst(prefix(t, "2001:db8::/32")))).
		Build()
	require.Nil(t, err)
	_, err = tr.Translate(context.Background(), rule)
	assert.True(t, errors.Is(err, ErrMalformedValue))

	assert.Equal(t, float64(4), testutil.ToFloat64(m.Translations.WithLabelValues(KindFlowRule, ResultFailure)))
}

func TestTranslateAllStopsOnFailure(t *testing.T) {
	tr, _ := newTestTranslator(t)
	good, err := flow.NewRuleBuilder().ForDevice("device:s1").ForTable(0).WithTreatment(flow.Output{Port: 1}).Build()
	require.Nil(t, err)
	bad, err := flow.NewRuleBuilder().ForDevice("device:s1").ForTable(9).Build()
	require.Nil(t, err)

	entries, err := tr.TranslateAll(context.Background(), []*flow.Rule{good, good})
	assert.Nil(t, err)
	assert.Equal(t, 2, len(entries))

	entries, err = tr.TranslateAll(context.Background(), []*flow.Rule{good, bad, good})
	assert.Nil(t, entries)
	assert.True(t, errors.Is(err, ErrUnmappedTable))
}

func TestTranslateCountsSkippedExtensions(t *testing.T) {
	tr, m := newTestTranslator(t)
	rule, err := flow.NewRuleBuilder().
		ForDevice("device:s1").
		ForTable(3).
		WithTreatment(
			flow.Extension{Ext: &extension.TunnelSetSIP{}},
			flow.Extension{Ext: extension.NewTunnelSetDIP(net.ParseIP("192.168.50.2"))},
			flow.ModTunnelID{ID: 30},
		).
		Build()
	require.Nil(t, err)

	entry, err := tr.Translate(context.Background(), rule)
	require.Nil(t, err)
	assert.Equal(t, interpreter.ActionVxlanEncap, entry.Action.ID())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ExtensionsSkipped.WithLabelValues(extension.TypeTunnelSetSIP.String())))
}

func TestPacketTranslations(t *testing.T) {
	tr, m := newTestTranslator(t)
	ops, err := tr.MapOutbound(context.Background(), interpreter.OutboundPacket{
		DeviceID:  "device:s1",
		Treatment: []flow.Instruction{flow.Output{Port: flow.PortFlood}},
		Data:      []byte{1, 2, 3},
	})
	require.Nil(t, err)
	require.Equal(t, 1, len(ops))

	_, err = tr.MapInbound(context.Background(), pi.PacketOperation{Type: pi.PacketIn, Data: []byte{1}}, "device:s1")
	assert.NotNil(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Translations.WithLabelValues(KindPacketOut, ResultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Translations.WithLabelValues(KindPacketIn, ResultFailure)))
}

func TestNilMetrics(t *testing.T) {
	tr := NewTranslator(interpreter.New())
	rule, err := flow.NewRuleBuilder().ForDevice("device:s1").ForTable(0).Build()
	require.Nil(t, err)
	entry, err := tr.Translate(context.Background(), rule)
	require.Nil(t, err)
	assert.Equal(t, interpreter.ActionNoAction, entry.Action.ID())

	var m *Metrics
	m.ExtensionSkipped(context.Background(), extension.TypeTunnelDecap, nil)
}

func TestNewMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.Nil(t, err)
	_, err = NewMetrics(reg)
	assert.NotNil(t, err)
}
