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

package pi

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// MatchType is the kind of a field match
type MatchType int

const (
	MatchExact MatchType = iota
	MatchLPM
	MatchTernary
)

func (t MatchType) String() string {
	switch t {
	case MatchExact:
		return "exact"
	case MatchLPM:
		return "lpm"
	case MatchTernary:
		return "ternary"
	}
	return fmt.Sprintf("MatchType(%d)", int(t))
}

// FieldMatch is a match on one field of a table key.
// PrefixLen is only meaningful for LPM matches, Mask only for ternary ones.
type FieldMatch struct {
	FieldID   MatchFieldID
	Type      MatchType
	Value     []byte
	Mask      []byte
	PrefixLen int32
}

// ExactMatch builds an exact field match
func ExactMatch(id MatchFieldID, value []byte) FieldMatch {
	return FieldMatch{FieldID: id, Type: MatchExact, Value: value}
}

// LPMMatch builds a longest-prefix field match
func LPMMatch(id MatchFieldID, value []byte, prefixLen int32) FieldMatch {
	return FieldMatch{FieldID: id, Type: MatchLPM, Value: value, PrefixLen: prefixLen}
}

// TernaryMatch builds a value/mask field match
func TernaryMatch(id MatchFieldID, value, mask []byte) FieldMatch {
	return FieldMatch{FieldID: id, Type: MatchTernary, Value: value, Mask: mask}
}

// Equal compares all the attributes of two field matches
func (m FieldMatch) Equal(o FieldMatch) bool {
	return m.FieldID == o.FieldID && m.Type == o.Type && m.PrefixLen == o.PrefixLen &&
		bytes.Equal(m.Value, o.Value) && bytes.Equal(m.Mask, o.Mask)
}

func (m FieldMatch) String() string {
	switch m.Type {
	case MatchLPM:
		return fmt.Sprintf("%s=0x%x/%d", m.FieldID, m.Value, m.PrefixLen)
	case MatchTernary:
		return fmt.Sprintf("%s=0x%x&&&0x%x", m.FieldID, m.Value, m.Mask)
	}
	return fmt.Sprintf("%s=0x%x", m.FieldID, m.Value)
}

// TableEntry is a translated flow rule, ready to be handed to the device programming interface
type TableEntry struct {
	RuleID    uint64
	DeviceID  string
	AppID     string
	Table     TableID
	Matches   []FieldMatch
	Action    Action
	Priority  int32
	Permanent bool
	Timeout   uint32
}

// SortMatches orders the field matches by field id
func (e *TableEntry) SortMatches() {
	sort.SliceStable(e.Matches, func(i, j int) bool { return e.Matches[i].FieldID < e.Matches[j].FieldID })
}

// Equal tells whether the two entries program the device identically
func (e *TableEntry) Equal(o *TableEntry) bool {
	if e == nil || o == nil {
		return e == o
	}
	if e.DeviceID != o.DeviceID || e.Table != o.Table || e.Priority != o.Priority ||
		e.Permanent != o.Permanent || e.Timeout != o.Timeout || len(e.Matches) != len(o.Matches) {
		return false
	}
	for i := range e.Matches {
		if !e.Matches[i].Equal(o.Matches[i]) {
			return false
		}
	}
	return e.Action.Equal(o.Action)
}

func (e *TableEntry) String() string {
	strs := make([]string, 0, len(e.Matches))
	for _, m := range e.Matches {
		strs = append(strs, m.String())
	}
	return fmt.Sprintf("%s[%s] -> %s priority=%d", e.Table, strings.Join(strs, ", "), e.Action, e.Priority)
}
