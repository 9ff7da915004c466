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

package p4rt

import (
	"fmt"

	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
	p4config "github.com/p4lang/p4runtime/go/p4/config/v1"
	p4 "github.com/p4lang/p4runtime/go/p4/v1"
)

var (
	ErrUnknownEntity    = pi.ErrUnknownEntity
	ErrUnsupportedMatch = pi.ErrUnsupportedMatch
	ErrNullArgument     = pi.ErrNullArgument
)

const (
	packetInHeader  = "packet_in"
	packetOutHeader = "packet_out"
)

type field struct {
	id        uint32
	bitwidth  int
	matchType p4config.MatchField_MatchType
}

type table struct {
	id     uint32
	fields map[pi.MatchFieldID]field
	// ids of the actions the table may run
	actions map[uint32]bool
	// priority is only set on tables with ternary or range fields
	needsPriority bool
}

type param struct {
	id       uint32
	bitwidth int
}

type action struct {
	id     uint32
	params map[pi.ActionParamID]param
}

type metadata struct {
	id       uint32
	name     pi.PacketMetadataID
	bitwidth int
}

// Resolver maps the names used by the interpreter to the ids of a P4Info.
// It is read only once built and safe for concurrent use.
type Resolver struct {
	tables    map[pi.TableID]table
	actions   map[pi.ActionID]action
	packetOut map[pi.PacketMetadataID]metadata
	packetIn  map[uint32]metadata
}

// NewResolver indexes the given P4Info
func NewResolver(info *p4config.P4Info) (*Resolver, error) {
	if info == nil {
		return nil, fmt.Errorf("p4info: %w", ErrNullArgument)
	}
	r := &Resolver{
		tables:    make(map[pi.TableID]table, len(info.GetTables())),
		actions:   make(map[pi.ActionID]action, len(info.GetActions())),
		packetOut: make(map[pi.PacketMetadataID]metadata),
		packetIn:  make(map[uint32]metadata),
	}
	for _, t := range info.GetTables() {
		tbl := table{
			id:      t.GetPreamble().GetId(),
			fields:  make(map[pi.MatchFieldID]field, len(t.GetMatchFields())),
			actions: make(map[uint32]bool, len(t.GetActionRefs())),
		}
		for _, ref := range t.GetActionRefs() {
			tbl.actions[ref.GetId()] = true
		}
		for _, mf := range t.GetMatchFields() {
			mt := mf.GetMatchType()
			tbl.fields[pi.MatchFieldID(mf.GetName())] = field{id: mf.GetId(), bitwidth: int(mf.GetBitwidth()), matchType: mt}
			if mt == p4config.MatchField_TERNARY || mt == p4config.MatchField_RANGE || mt == p4config.MatchField_OPTIONAL {
				tbl.needsPriority = true
			}
		}
		r.tables[pi.TableID(t.GetPreamble().GetName())] = tbl
	}
	for _, a := range info.GetActions() {
		act := action{id: a.GetPreamble().GetId(), params: make(map[pi.ActionParamID]param, len(a.GetParams()))}
		for _, p := range a.GetParams() {
			act.params[pi.ActionParamID(p.GetName())] = param{id: p.GetId(), bitwidth: int(p.GetBitwidth())}
		}
		r.actions[pi.ActionID(a.GetPreamble().GetName())] = act
	}
	for _, cpm := range info.GetControllerPacketMetadata() {
		for _, m := range cpm.GetMetadata() {
			md := metadata{id: m.GetId(), name: pi.PacketMetadataID(m.GetName()), bitwidth: int(m.GetBitwidth())}
			switch cpm.GetPreamble().GetName() {
			case packetOutHeader:
				r.packetOut[md.name] = md
			case packetInHeader:
				r.packetIn[md.id] = md
			}
		}
	}
	return r, nil
}

// TableEntry renders a pipeline entry as a P4Runtime table entry
func (r *Resolver) TableEntry(entry *pi.TableEntry) (*p4.TableEntry, error) {
	if entry == nil {
		return nil, fmt.Errorf("table entry: %w", ErrNullArgument)
	}
	tbl, have := r.tables[entry.Table]
	if !have {
		return nil, fmt.Errorf("table %q: %w", entry.Table, ErrUnknownEntity)
	}

	out := &p4.TableEntry{TableId: tbl.id}
	for _, m := range entry.Matches {
		f, have := tbl.fields[m.FieldID]
		if !have {
			return nil, fmt.Errorf("match field %q of table %q: %w", m.FieldID, entry.Table, ErrUnknownEntity)
		}
		fm, err := fieldMatch(f, m)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", entry.Table, err)
		}
		if fm != nil {
			out.Match = append(out.Match, fm)
		}
	}

	act, err := r.tableAction(tbl, entry.Action)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", entry.Table, err)
	}
	out.Action = act
	if tbl.needsPriority {
		out.Priority = entry.Priority
	}
	if !entry.Permanent {
		out.IdleTimeoutNs = int64(entry.Timeout) * 1e9
	}
	return out, nil
}

// Update wraps the rendering of entry in a write update of the given type
func (r *Resolver) Update(t p4.Update_Type, entry *pi.TableEntry) (*p4.Update, error) {
	te, err := r.TableEntry(entry)
	if err != nil {
		return nil, err
	}
	return &p4.Update{
		Type:   t,
		Entity: &p4.Entity{Entity: &p4.Entity_TableEntry{TableEntry: te}},
	}, nil
}

// fieldMatch converts m to the match kind of the field. A nil match means "don't care".
func fieldMatch(f field, m pi.FieldMatch) (*p4.FieldMatch, error) {
	value, err := pi.Fit(m.Value, f.bitwidth)
	if err != nil {
		return nil, fmt.Errorf("match field %q: %w", m.FieldID, err)
	}
	prefixLen := int32(f.bitwidth)
	var mask []byte
	switch m.Type {
	case pi.MatchLPM:
		prefixLen = m.PrefixLen
		if prefixLen < 0 || int(prefixLen) > f.bitwidth {
			return nil, fmt.Errorf("prefix length %d of field %q wider than %d: %w", prefixLen, m.FieldID, f.bitwidth, ErrUnsupportedMatch)
		}
		mask = prefixMask(int(prefixLen), f.bitwidth)
	case pi.MatchTernary:
		if mask, err = pi.Fit(m.Mask, f.bitwidth); err != nil {
			return nil, fmt.Errorf("mask of field %q: %w", m.FieldID, err)
		}
	default:
		mask = prefixMask(f.bitwidth, f.bitwidth)
	}

	fm := &p4.FieldMatch{FieldId: f.id}
	switch f.matchType {
	case p4config.MatchField_EXACT:
		if m.Type == pi.MatchTernary || int(prefixLen) != f.bitwidth {
			return nil, fmt.Errorf("%s match on exact field %q: %w", m.Type, m.FieldID, ErrUnsupportedMatch)
		}
		fm.FieldMatchType = &p4.FieldMatch_Exact_{Exact: &p4.FieldMatch_Exact{Value: pi.Canonical(value)}}
	case p4config.MatchField_LPM:
		if m.Type == pi.MatchTernary {
			return nil, fmt.Errorf("ternary match on lpm field %q: %w", m.FieldID, ErrUnsupportedMatch)
		}
		if prefixLen == 0 {
			return nil, nil
		}
		fm.FieldMatchType = &p4.FieldMatch_Lpm{Lpm: &p4.FieldMatch_LPM{Value: masked(value, mask), PrefixLen: prefixLen}}
	case p4config.MatchField_TERNARY:
		if isZero(mask) {
			return nil, nil
		}
		fm.FieldMatchType = &p4.FieldMatch_Ternary_{Ternary: &p4.FieldMatch_Ternary{Value: masked(value, mask), Mask: pi.Canonical(mask)}}
	default:
		return nil, fmt.Errorf("field %q is a %s match: %w", m.FieldID, f.matchType, ErrUnsupportedMatch)
	}
	return fm, nil
}

func (r *Resolver) tableAction(tbl table, a pi.Action) (*p4.TableAction, error) {
	act, have := r.actions[a.ID()]
	if !have {
		return nil, fmt.Errorf("action %q: %w", a.ID(), ErrUnknownEntity)
	}
	if !tbl.actions[act.id] {
		return nil, fmt.Errorf("action %q not referenced by the table: %w", a.ID(), ErrUnknownEntity)
	}
	out := &p4.Action{ActionId: act.id}
	for _, p := range a.Params() {
		pp, have := act.params[p.ID]
		if !have {
			return nil, fmt.Errorf("param %q of action %q: %w", p.ID, a.ID(), ErrUnknownEntity)
		}
		value, err := fit(p.Value, pp.bitwidth)
		if err != nil {
			return nil, fmt.Errorf("param %q of action %q: %w", p.ID, a.ID(), err)
		}
		out.Params = append(out.Params, &p4.Action_Param{ParamId: pp.id, Value: value})
	}
	return &p4.TableAction{Type: &p4.TableAction_Action{Action: out}}, nil
}

// PacketOut renders a packet-out operation
func (r *Resolver) PacketOut(op pi.PacketOperation) (*p4.PacketOut, error) {
	if op.Type != pi.PacketOut {
		return nil, fmt.Errorf("%s is not a packet-out: %w", op.Type, pi.ErrMalformedValue)
	}
	out := &p4.PacketOut{Payload: op.Data}
	for _, m := range op.Metadata {
		md, have := r.packetOut[m.ID]
		if !have {
			return nil, fmt.Errorf("packet-out metadata %q: %w", m.ID, ErrUnknownEntity)
		}
		value, err := fit(m.Value, md.bitwidth)
		if err != nil {
			return nil, fmt.Errorf("packet-out metadata %q: %w", m.ID, err)
		}
		out.Metadata = append(out.Metadata, &p4.PacketMetadata{MetadataId: md.id, Value: value})
	}
	return out, nil
}

// PacketOperation converts a received packet-in into a packet operation, naming its metadata
func (r *Resolver) PacketOperation(in *p4.PacketIn) (pi.PacketOperation, error) {
	if in == nil {
		return pi.PacketOperation{}, fmt.Errorf("packet-in: %w", ErrNullArgument)
	}
	op := pi.PacketOperation{Type: pi.PacketIn, Data: in.GetPayload()}
	for _, m := range in.GetMetadata() {
		md, have := r.packetIn[m.GetMetadataId()]
		if !have {
			return pi.PacketOperation{}, fmt.Errorf("packet-in metadata %d: %w", m.GetMetadataId(), ErrUnknownEntity)
		}
		op.Metadata = append(op.Metadata, pi.PacketMetadata{ID: md.name, Value: m.GetValue()})
	}
	return op, nil
}

// fit checks b holds in bitwidth bits and returns its canonical, minimal length, encoding
func fit(b []byte, bitwidth int) ([]byte, error) {
	v, err := pi.Fit(b, bitwidth)
	if err != nil {
		return nil, err
	}
	return pi.Canonical(v), nil
}

func prefixMask(prefixLen, bitwidth int) []byte {
	size := (bitwidth + 7) / 8
	mask := make([]byte, size)
	// the value is right aligned: skip the unused high bits of the first byte
	offset := size*8 - bitwidth
	for i := 0; i < prefixLen; i++ {
		bit := offset + i
		mask[bit/8] |= 0x80 >> uint(bit%8)
	}
	return mask
}

// masked ands value and mask, both of the width of the field, and returns the canonical result
func masked(value, mask []byte) []byte {
	out := make([]byte, len(value))
	for i := range out {
		out[i] = value[i] & mask[i]
	}
	return pi.Canonical(out)
}

func isZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}
