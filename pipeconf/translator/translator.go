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
	"fmt"
	"net"

	"github.com/opencord/voltha-lib-go/v7/pkg/log"
	"github.com/opencord/vxlan-pipeconf/pipeconf/flow"
	"github.com/opencord/vxlan-pipeconf/pipeconf/interpreter"
	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
)

var (
	ErrUnmappedTable  = pi.ErrUnmappedTable
	ErrMalformedValue = pi.ErrMalformedValue
	ErrNullArgument   = pi.ErrNullArgument
)

// Translator converts flow rules into pipeline table entries
type Translator struct {
	interp  *interpreter.Interpreter
	metrics *Metrics
}

// Option configures a Translator
type Option func(*Translator)

// WithMetrics counts every translation on m
func WithMetrics(m *Metrics) Option {
	return func(t *Translator) {
		t.metrics = m
	}
}

// NewTranslator creates a translator on top of the given interpreter
func NewTranslator(interp *interpreter.Interpreter, opts ...Option) *Translator {
	t := &Translator{interp: interp}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate returns the table entry programming the given rule. Criteria the pipeline has no
// match field for are left out of the entry.
func (t *Translator) Translate(ctx context.Context, rule *flow.Rule) (*pi.TableEntry, error) {
	span, ctx := log.CreateChildSpan(ctx, "translate-flow-rule")
	defer span.Finish()

	entry, err := t.translate(ctx, rule)
	t.metrics.observe(KindFlowRule, err)
	if err != nil {
		logger.Warnw(ctx, "flow-rule-translation-failed", log.Fields{"rule": fmt.Sprint(rule), "error": err})
		return nil, err
	}
	logger.Debugw(ctx, "flow-rule-translated", log.Fields{"rule-id": entry.RuleID, "entry": entry.String()})
	return entry, nil
}

func (t *Translator) translate(ctx context.Context, rule *flow.Rule) (*pi.TableEntry, error) {
	if rule == nil {
		return nil, fmt.Errorf("flow rule: %w", ErrNullArgument)
	}
	table, have := t.interp.MapTable(rule.Table())
	if !have {
		return nil, fmt.Errorf("table %d of rule %d: %w", rule.Table(), rule.ID(), ErrUnmappedTable)
	}

	entry := &pi.TableEntry{
		RuleID:    rule.ID(),
		DeviceID:  rule.DeviceID(),
		AppID:     rule.AppID(),
		Table:     table,
		Priority:  rule.Priority(),
		Permanent: rule.IsPermanent(),
		Timeout:   rule.Timeout(),
	}
	for _, c := range rule.Selector().Criteria() {
		field, have := t.interp.MapCriterion(c.Type())
		if !have {
			logger.Debugw(ctx, "skipping-unmapped-criterion", log.Fields{"criterion": c.String(), "table": table})
			continue
		}
		m, err := fieldMatch(field, c)
		if err != nil {
			return nil, err
		}
		entry.Matches = append(entry.Matches, m)
	}
	entry.SortMatches()

	action, err := t.interp.MapTreatment(ctx, rule.Treatment(), table)
	if err != nil {
		return nil, err
	}
	entry.Action = action
	return entry, nil
}

func fieldMatch(field pi.MatchFieldID, c flow.Criterion) (pi.FieldMatch, error) {
	switch c := c.(type) {
	case *flow.PortCriterion:
		return pi.ExactMatch(field, pi.Canonical(pi.CopyFromUint32(uint32(c.Port)))), nil
	case *flow.EthCriterion:
		if len(c.MAC) != 6 {
			return pi.FieldMatch{}, fmt.Errorf("criterion %s: %w", c, ErrMalformedValue)
		}
		return pi.ExactMatch(field, append([]byte(nil), c.MAC...)), nil
	case *flow.EthTypeCriterion:
		return pi.ExactMatch(field, pi.CopyFromUint16(c.EthType)), nil
	case *flow.IPCriterion:
		if c.Prefix == nil || c.Prefix.IP.To4() == nil {
			return pi.FieldMatch{}, fmt.Errorf("criterion %s: %w", c, ErrMalformedValue)
		}
		ones, bits := c.Prefix.Mask.Size()
		if bits != 8*net.IPv4len {
			return pi.FieldMatch{}, fmt.Errorf("criterion %s has a non ipv4 mask: %w", c, ErrMalformedValue)
		}
		return pi.LPMMatch(field, append([]byte(nil), c.Prefix.IP.Mask(c.Prefix.Mask).To4()...), int32(ones)), nil
	case *flow.ArpPaCriterion:
		if c.IP.To4() == nil {
			return pi.FieldMatch{}, fmt.Errorf("criterion %s: %w", c, ErrMalformedValue)
		}
		return pi.ExactMatch(field, append([]byte(nil), c.IP.To4()...)), nil
	}
	return pi.FieldMatch{}, fmt.Errorf("criterion %s: %w", c, pi.ErrUnsupportedMatch)
}

// TranslateAll translates the rules in order, stopping on the first failure
func (t *Translator) TranslateAll(ctx context.Context, rules []*flow.Rule) ([]*pi.TableEntry, error) {
	entries := make([]*pi.TableEntry, 0, len(rules))
	for _, rule := range rules {
		entry, err := t.Translate(ctx, rule)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MapOutbound returns the packet-out operations emitting pkt
func (t *Translator) MapOutbound(ctx context.Context, pkt interpreter.OutboundPacket) ([]pi.PacketOperation, error) {
	ops, err := t.interp.MapOutboundPacket(ctx, pkt)
	t.metrics.observe(KindPacketOut, err)
	return ops, err
}

// MapInbound decodes a packet-in operation received from deviceID
func (t *Translator) MapInbound(ctx context.Context, op pi.PacketOperation, deviceID string) (*interpreter.InboundPacket, error) {
	pkt, err := t.interp.MapInboundPacket(ctx, op, deviceID)
	t.metrics.observe(KindPacketIn, err)
	return pkt, err
}
