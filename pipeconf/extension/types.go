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

// Package extension implements the pipeline specific extension instructions:
// tunnel header rewrites, multicast group selection and tunnel decapsulation.
// Every kind is identified by a stable type code and owns its binary and
// structured document encodings.
package extension

import "fmt"

// Type is the stable code of an extension instruction kind.
// Codes are never changed nor reused.
type Type uint32

const (
	TypeTunnelSetSMac     Type = 0
	TypeTunnelSetDMac     Type = 1
	TypeTunnelSetSIP      Type = 2
	TypeTunnelSetDIP      Type = 3
	TypeSetMulticastGroup Type = 4
	TypeTunnelDecap       Type = 5
)

// document field carrying the value of each kind
const (
	FieldTunnelSMac   = "tunnelSmac"
	FieldTunnelDMac   = "tunnelDmac"
	FieldTunnelSIP    = "tunnelSIP"
	FieldTunnelDIP    = "tunnelDIP"
	FieldMulticastGrp = "multicastGrp"
	FieldDummy        = "dummyVal"

	// FieldType carries the type code in a typed document
	FieldType = "type"
)

var typeNames = map[Type]struct{ kind, field string }{
	TypeTunnelSetSMac:     {"TUNNEL_SET_SMAC", FieldTunnelSMac},
	TypeTunnelSetDMac:     {"TUNNEL_SET_DMAC", FieldTunnelDMac},
	TypeTunnelSetSIP:      {"TUNNEL_SET_SIP", FieldTunnelSIP},
	TypeTunnelSetDIP:      {"TUNNEL_SET_DIP", FieldTunnelDIP},
	TypeSetMulticastGroup: {"SET_MULTICAST_GROUP", FieldMulticastGrp},
	TypeTunnelDecap:       {"TUNNEL_DECAP", FieldDummy},
}

// Types returns every registered kind, ordered by code
func Types() []Type {
	return []Type{
		TypeTunnelSetSMac,
		TypeTunnelSetDMac,
		TypeTunnelSetSIP,
		TypeTunnelSetDIP,
		TypeSetMulticastGroup,
		TypeTunnelDecap,
	}
}

// Known tells whether t is a registered kind
func (t Type) Known() bool {
	_, have := typeNames[t]
	return have
}

// Name returns the name of the document field holding the value of this kind
func (t Type) Name() string {
	if n, have := typeNames[t]; have {
		return n.field
	}
	return ""
}

func (t Type) String() string {
	if n, have := typeNames[t]; have {
		return n.kind
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint32(t))
}
