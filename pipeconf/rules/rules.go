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

// Package rules reads flow rules from YAML documents.
package rules

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opencord/vxlan-pipeconf/pipeconf/extension"
	"github.com/opencord/vxlan-pipeconf/pipeconf/flow"
	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v2"
)

var ErrInvalidRule = pi.ErrInvalidRule

// Document is the layout of a rules file
type Document struct {
	Rules []Rule `yaml:"rules"`
}

// Rule is one rule of a rules file. Match keys are in_port, eth_dst, eth_src, eth_type,
// ipv4_src, ipv4_dst, arp_tpa and tunnel_id.
type Rule struct {
	Device    string            `yaml:"device"`
	Table     int               `yaml:"table"`
	Priority  int32             `yaml:"priority"`
	App       string            `yaml:"app,omitempty"`
	Permanent *bool             `yaml:"permanent,omitempty"`
	Timeout   uint32            `yaml:"timeout,omitempty"`
	Match     map[string]string `yaml:"match,omitempty"`
	Treatment []Instruction     `yaml:"treatment,omitempty"`
}

// Instruction sets exactly one of its members. Extension holds a typed extension
// document, whose type may be given by code or by name.
type Instruction struct {
	Output    string                      `yaml:"output,omitempty"`
	EthDst    string                      `yaml:"eth_dst,omitempty"`
	TunnelID  string                      `yaml:"tunnel_id,omitempty"`
	Extension map[interface{}]interface{} `yaml:"extension,omitempty"`
}

// ParseFile reads the rules of a YAML file
func ParseFile(path string) ([]*flow.Rule, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	rules, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}

// Parse reads the rules of a YAML document
func Parse(data []byte) ([]*flow.Rule, error) {
	var doc Document
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidRule)
	}
	rules := make([]*flow.Rule, 0, len(doc.Rules))
	for idx, r := range doc.Rules {
		rule, err := r.Build()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", idx, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// Build converts the rule into a flow rule
func (r Rule) Build() (*flow.Rule, error) {
	criteria := make([]flow.Criterion, 0, len(r.Match))
	for key, value := range r.Match {
		c, err := criterion(key, value)
		if err != nil {
			return nil, err
		}
		criteria = append(criteria, c)
	}
	treatment := make([]flow.Instruction, 0, len(r.Treatment))
	for idx, i := range r.Treatment {
		instr, err := i.build()
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", idx, err)
		}
		treatment = append(treatment, instr)
	}

	b := flow.NewRuleBuilder().
		ForDevice(r.Device).
		ForTable(r.Table).
		WithPriority(r.Priority).
		FromApp(r.App).
		WithSelector(flow.NewSelector(criteria...)).
		WithTreatment(treatment...)
	if r.Permanent != nil && !*r.Permanent {
		b.MakeTemporary(r.Timeout)
	}
	return b.Build()
}

func criterion(key, value string) (flow.Criterion, error) {
	switch key {
	case "in_port":
		port, err := flow.ParsePort(value)
		if err != nil {
			return nil, fmt.Errorf("in_port %q: %v: %w", value, err, ErrInvalidRule)
		}
		return flow.MatchInPort(port), nil
	case "eth_dst", "eth_src":
		mac, err := parseMAC(value)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", key, value, err)
		}
		if key == "eth_src" {
			return flow.MatchEthSrc(mac), nil
		}
		return flow.MatchEthDst(mac), nil
	case "eth_type":
		v, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("eth_type %q: %v: %w", value, err, ErrInvalidRule)
		}
		return flow.MatchEthType(uint16(v)), nil
	case "ipv4_dst", "ipv4_src":
		prefix, err := parsePrefix(value)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", key, value, err)
		}
		if key == "ipv4_src" {
			return flow.MatchIPSrc(prefix), nil
		}
		return flow.MatchIPDst(prefix), nil
	case "arp_tpa":
		ip := net.ParseIP(value).To4()
		if ip == nil {
			return nil, fmt.Errorf("arp_tpa %q is not an ipv4 address: %w", value, ErrInvalidRule)
		}
		return flow.MatchArpTpa(ip), nil
	case "tunnel_id":
		v, err := strconv.ParseUint(value, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("tunnel_id %q: %v: %w", value, err, ErrInvalidRule)
		}
		return flow.MatchTunnelID(v), nil
	}
	return nil, fmt.Errorf("match key %q: %w", key, ErrInvalidRule)
}

func parseMAC(s string) (net.HardwareAddr, error) {
	mac, err := net.ParseMAC(s)
	if err != nil || len(mac) != 6 {
		return nil, fmt.Errorf("not an ethernet address: %w", ErrInvalidRule)
	}
	return mac, nil
}

// parsePrefix accepts an address, taken as a /32, or a CIDR prefix
func parsePrefix(s string) (*net.IPNet, error) {
	if !strings.Contains(s, "/") {
		s += "/32"
	}
	ip, prefix, err := net.ParseCIDR(s)
	if err != nil || ip.To4() == nil {
		return nil, fmt.Errorf("not an ipv4 prefix: %w", ErrInvalidRule)
	}
	return prefix, nil
}

func (i Instruction) build() (flow.Instruction, error) {
	set := 0
	for _, s := range []string{i.Output, i.EthDst, i.TunnelID} {
		if s != "" {
			set++
		}
	}
	if i.Extension != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("%d members set instead of one: %w", set, ErrInvalidRule)
	}

	switch {
	case i.Output != "":
		port, err := flow.ParsePort(i.Output)
		if err != nil {
			return nil, fmt.Errorf("output %q: %v: %w", i.Output, err, ErrInvalidRule)
		}
		return flow.Output{Port: port}, nil
	case i.EthDst != "":
		mac, err := parseMAC(i.EthDst)
		if err != nil {
			return nil, fmt.Errorf("eth_dst %q: %w", i.EthDst, err)
		}
		return flow.ModEthDst{MAC: mac}, nil
	case i.TunnelID != "":
		v, err := strconv.ParseUint(i.TunnelID, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("tunnel_id %q: %v: %w", i.TunnelID, err, ErrInvalidRule)
		}
		return flow.ModTunnelID{ID: v}, nil
	}

	ext, err := decodeExtension(i.Extension)
	if err != nil {
		return nil, err
	}
	return flow.Extension{Ext: ext}, nil
}

func decodeExtension(m map[interface{}]interface{}) (extension.Instruction, error) {
	fields, err := normalize(m)
	if err != nil {
		return nil, err
	}
	if name, ok := fields[extension.FieldType].(string); ok {
		t, have := typeByName(name)
		if !have {
			return nil, fmt.Errorf("extension type %q: %w", name, extension.ErrUnsupportedType)
		}
		fields[extension.FieldType] = uint32(t)
	}
	doc, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("extension document: %v: %w", err, ErrInvalidRule)
	}
	return extension.Decode(doc)
}

func typeByName(name string) (extension.Type, bool) {
	for _, t := range extension.Types() {
		if strings.EqualFold(t.String(), name) {
			return t, true
		}
	}
	return 0, false
}

// normalize turns the maps produced by yaml into string keyed ones, as structpb wants them
func normalize(m map[interface{}]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		key, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("extension key %v is not a string: %w", k, ErrInvalidRule)
		}
		value, err := normalizeValue(v)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

func normalizeValue(v interface{}) (interface{}, error) {
	switch v := v.(type) {
	case map[interface{}]interface{}:
		return normalize(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for idx, e := range v {
			n, err := normalizeValue(e)
			if err != nil {
				return nil, err
			}
			out[idx] = n
		}
		return out, nil
	}
	return v, nil
}
