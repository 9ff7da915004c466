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
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/opencord/vxlan-pipeconf/pipeconf/extension"
	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
)

const (
	MinPriority = 0
	MaxPriority = 65535
)

// ErrInvalidRule is returned by RuleBuilder.Build for incomplete or inconsistent rules
var ErrInvalidRule = pi.ErrInvalidRule

// Rule is an abstract flow rule: a selector and a treatment installed in a table of a device.
// A Rule is immutable, use a RuleBuilder to create one.
type Rule struct {
	deviceID  string
	table     int
	selector  Selector
	treatment []Instruction
	priority  int32
	appID     string
	permanent bool
	timeout   uint32
}

func (r *Rule) DeviceID() string   { return r.deviceID }
func (r *Rule) Table() int         { return r.table }
func (r *Rule) Selector() Selector { return r.selector }
func (r *Rule) Priority() int32    { return r.priority }
func (r *Rule) AppID() string      { return r.appID }
func (r *Rule) IsPermanent() bool  { return r.permanent }
func (r *Rule) Timeout() uint32    { return r.timeout }

// Treatment returns a copy of the instructions in application order
func (r *Rule) Treatment() []Instruction {
	ret := make([]Instruction, len(r.treatment))
	for idx, i := range r.treatment {
		// validated by Build
		ret[idx], _ = cloneInstruction(i)
	}
	return ret
}

// ID returns a stable identifier of the table entry the rule programs.
// Two rules with the same device, table, priority, selector and app share their id,
// whatever their treatments: installing one over the other modifies the entry.
func (r *Rule) ID() uint64 {
	h := xxhash.New()
	_, _ = h.Write([]byte(r.canonical()))
	return h.Sum64()
}

func (r *Rule) canonical() string {
	var sb strings.Builder
	sb.WriteString(r.deviceID)
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(r.table))
	sb.WriteByte('|')
	sb.WriteString(strconv.FormatInt(int64(r.priority), 10))
	for _, c := range r.selector.Criteria() {
		sb.WriteByte('|')
		sb.WriteString(c.String())
	}
	sb.WriteString("||")
	sb.WriteString(r.appID)
	return sb.String()
}

// cloneInstruction copies extension instructions through their binary form,
// the other instructions are values
func cloneInstruction(i Instruction) (Instruction, error) {
	ext, ok := i.(Extension)
	if !ok {
		return i, nil
	}
	data, err := extension.Marshal(ext.Ext)
	if err != nil {
		return nil, err
	}
	clone, err := extension.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return Extension{Ext: clone}, nil
}

func (r *Rule) String() string {
	strs := make([]string, 0, len(r.treatment))
	for _, i := range r.treatment {
		strs = append(strs, i.String())
	}
	criteria := make([]string, 0, r.selector.Len())
	for _, c := range r.selector.Criteria() {
		criteria = append(criteria, c.String())
	}
	return fmt.Sprintf("device=%s table=%d priority=%d selector=[%s] treatment=[%s]",
		r.deviceID, r.table, r.priority, strings.Join(criteria, ", "), strings.Join(strs, ", "))
}

// RuleBuilder assembles a Rule. Rules are permanent unless MakeTemporary is called.
type RuleBuilder struct {
	rule Rule
}

// NewRuleBuilder returns a builder for a permanent rule of priority MinPriority in table 0
func NewRuleBuilder() *RuleBuilder {
	return &RuleBuilder{rule: Rule{permanent: true}}
}

func (b *RuleBuilder) ForDevice(deviceID string) *RuleBuilder {
	b.rule.deviceID = deviceID
	return b
}

func (b *RuleBuilder) ForTable(table int) *RuleBuilder {
	b.rule.table = table
	return b
}

func (b *RuleBuilder) WithSelector(selector Selector) *RuleBuilder {
	b.rule.selector = selector
	return b
}

func (b *RuleBuilder) WithTreatment(instructions ...Instruction) *RuleBuilder {
	b.rule.treatment = append([]Instruction(nil), instructions...)
	return b
}

func (b *RuleBuilder) WithPriority(priority int32) *RuleBuilder {
	b.rule.priority = priority
	return b
}

func (b *RuleBuilder) FromApp(appID string) *RuleBuilder {
	b.rule.appID = appID
	return b
}

func (b *RuleBuilder) MakePermanent() *RuleBuilder {
	b.rule.permanent = true
	b.rule.timeout = 0
	return b
}

// MakeTemporary makes the rule expire after timeout seconds
func (b *RuleBuilder) MakeTemporary(timeout uint32) *RuleBuilder {
	b.rule.permanent = false
	b.rule.timeout = timeout
	return b
}

// Build validates and returns the rule
func (b *RuleBuilder) Build() (*Rule, error) {
	r := b.rule
	if r.deviceID == "" {
		return nil, fmt.Errorf("device id is required: %w", ErrInvalidRule)
	}
	if r.table < 0 {
		return nil, fmt.Errorf("table %d is negative: %w", r.table, ErrInvalidRule)
	}
	if r.priority < MinPriority || r.priority > MaxPriority {
		return nil, fmt.Errorf("priority %d out of range [%d, %d]: %w", r.priority, MinPriority, MaxPriority, ErrInvalidRule)
	}
	if !r.permanent && r.timeout == 0 {
		return nil, fmt.Errorf("temporary rule needs a timeout: %w", ErrInvalidRule)
	}
	if r.selector.criteria == nil {
		r.selector = NewSelector()
	}
	treatment := make([]Instruction, len(r.treatment))
	for idx, i := range r.treatment {
		if i == nil {
			return nil, fmt.Errorf("instruction %d is nil: %w", idx, ErrInvalidRule)
		}
		clone, err := cloneInstruction(i)
		if err != nil {
			return nil, fmt.Errorf("extension instruction %d: %v: %w", idx, err, ErrInvalidRule)
		}
		treatment[idx] = clone
	}
	r.treatment = treatment
	return &r, nil
}
