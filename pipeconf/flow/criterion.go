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
	"net"
	"sort"

	ofp "github.com/opencord/voltha-protos/v5/go/openflow_13"
)

// CriterionType is the kind of header field a criterion matches on
type CriterionType = ofp.OxmOfbFieldTypes

const (
	InPort   = ofp.OxmOfbFieldTypes_OFPXMT_OFB_IN_PORT
	EthDst   = ofp.OxmOfbFieldTypes_OFPXMT_OFB_ETH_DST
	EthSrc   = ofp.OxmOfbFieldTypes_OFPXMT_OFB_ETH_SRC
	EthType  = ofp.OxmOfbFieldTypes_OFPXMT_OFB_ETH_TYPE
	IPv4Src  = ofp.OxmOfbFieldTypes_OFPXMT_OFB_IPV4_SRC
	IPv4Dst  = ofp.OxmOfbFieldTypes_OFPXMT_OFB_IPV4_DST
	ArpTpa   = ofp.OxmOfbFieldTypes_OFPXMT_OFB_ARP_TPA
	TunnelID = ofp.OxmOfbFieldTypes_OFPXMT_OFB_TUNNEL_ID
)

// Criterion is one match condition of a selector
type Criterion interface {
	Type() CriterionType
	String() string
	isCriterion()
}

// PortCriterion matches the ingress port
type PortCriterion struct {
	Port PortNumber
}

// EthCriterion matches a MAC address, Kind tells which one
type EthCriterion struct {
	Kind CriterionType
	MAC  net.HardwareAddr
}

// EthTypeCriterion matches the ethertype
type EthTypeCriterion struct {
	EthType uint16
}

// IPCriterion matches an IPv4 prefix, Kind tells source or destination
type IPCriterion struct {
	Kind   CriterionType
	Prefix *net.IPNet
}

// ArpPaCriterion matches the ARP target protocol address
type ArpPaCriterion struct {
	IP net.IP
}

// TunnelIDCriterion matches the tunnel id (the VNI)
type TunnelIDCriterion struct {
	ID uint64
}

// MatchInPort matches the ingress port
func MatchInPort(port PortNumber) *PortCriterion {
	return &PortCriterion{Port: port}
}

// MatchEthDst matches the destination MAC address
func MatchEthDst(mac net.HardwareAddr) *EthCriterion {
	return &EthCriterion{Kind: EthDst, MAC: mac}
}

// MatchEthSrc matches the source MAC address
func MatchEthSrc(mac net.HardwareAddr) *EthCriterion {
	return &EthCriterion{Kind: EthSrc, MAC: mac}
}

func MatchEthType(ethType uint16) *EthTypeCriterion {
	return &EthTypeCriterion{EthType: ethType}
}

// MatchIPDst matches an IPv4 destination prefix
func MatchIPDst(prefix *net.IPNet) *IPCriterion {
	return &IPCriterion{Kind: IPv4Dst, Prefix: prefix}
}

// MatchIPSrc matches an IPv4 source prefix
func MatchIPSrc(prefix *net.IPNet) *IPCriterion {
	return &IPCriterion{Kind: IPv4Src, Prefix: prefix}
}

func MatchArpTpa(ip net.IP) *ArpPaCriterion {
	return &ArpPaCriterion{IP: ip.To4()}
}

func MatchTunnelID(id uint64) *TunnelIDCriterion {
	return &TunnelIDCriterion{ID: id}
}

func (*PortCriterion) Type() CriterionType     { return InPort }
func (c *EthCriterion) Type() CriterionType    { return c.Kind }
func (*EthTypeCriterion) Type() CriterionType  { return EthType }
func (c *IPCriterion) Type() CriterionType     { return c.Kind }
func (*ArpPaCriterion) Type() CriterionType    { return ArpTpa }
func (*TunnelIDCriterion) Type() CriterionType { return TunnelID }

func (*PortCriterion) isCriterion()     {}
func (*EthCriterion) isCriterion()      {}
func (*EthTypeCriterion) isCriterion()  {}
func (*IPCriterion) isCriterion()       {}
func (*ArpPaCriterion) isCriterion()    {}
func (*TunnelIDCriterion) isCriterion() {}

func (c *PortCriterion) String() string     { return fmt.Sprintf("IN_PORT:%s", c.Port) }
func (c *EthCriterion) String() string      { return fmt.Sprintf("%s:%s", criterionName(c.Kind), c.MAC) }
func (c *EthTypeCriterion) String() string  { return fmt.Sprintf("ETH_TYPE:0x%04x", c.EthType) }
func (c *IPCriterion) String() string       { return fmt.Sprintf("%s:%s", criterionName(c.Kind), c.Prefix) }
func (c *ArpPaCriterion) String() string    { return fmt.Sprintf("ARP_TPA:%s", c.IP) }
func (c *TunnelIDCriterion) String() string { return fmt.Sprintf("TUNNEL_ID:%d", c.ID) }

func criterionName(t CriterionType) string {
	switch t {
	case EthDst:
		return "ETH_DST"
	case EthSrc:
		return "ETH_SRC"
	case IPv4Dst:
		return "IPV4_DST"
	case IPv4Src:
		return "IPV4_SRC"
	}
	return t.String()
}

// Selector is a set of criteria, at most one per criterion type
type Selector struct {
	criteria map[CriterionType]Criterion
}

// NewSelector builds a selector. A later criterion replaces an earlier one of the same type.
func NewSelector(criteria ...Criterion) Selector {
	s := Selector{criteria: make(map[CriterionType]Criterion, len(criteria))}
	for _, c := range criteria {
		if c != nil {
			s.criteria[c.Type()] = c
		}
	}
	return s
}

// Criteria returns the criteria ordered by type
func (s Selector) Criteria() []Criterion {
	ret := make([]Criterion, 0, len(s.criteria))
	for _, c := range s.criteria {
		ret = append(ret, c)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Type() < ret[j].Type() })
	return ret
}

// Get returns the criterion of the given type
func (s Selector) Get(t CriterionType) (Criterion, bool) {
	c, have := s.criteria[t]
	return c, have
}

// Len returns the number of criteria
func (s Selector) Len() int {
	return len(s.criteria)
}
