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

package interpreter

import (
	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
)

// Tables
const (
	TableL2Forward   pi.TableID = "MyIngress.l2_forward"
	TableIPv4Forward pi.TableID = "MyIngress.ipv4_lpm"
	TableDecap       pi.TableID = "MyIngress.decap_table"
	TableEncap       pi.TableID = "MyEgress.encap_table"
)

// Match fields
const (
	FieldEgressPort pi.MatchFieldID = "standard_metadata.egress_port"
	FieldEthDst     pi.MatchFieldID = "hdr.ethernet.dstAddr"
	FieldEthType    pi.MatchFieldID = "hdr.ethernet.etherType"
	FieldIPv4Dst    pi.MatchFieldID = "hdr.ipv4.dstAddr"
	FieldArpTpa     pi.MatchFieldID = "hdr.arp.dstProtoAddr"
)

// Actions
const (
	ActionNoAction    pi.ActionID = pi.NoAction
	ActionSetOutPort  pi.ActionID = "MyIngress.set_out_port"
	ActionSendToCPU   pi.ActionID = "MyIngress.send_to_cpu"
	ActionVxlanEncap  pi.ActionID = "MyEgress.vxlan_encap"
	ActionVxlanDecap  pi.ActionID = "MyIngress.vxlan_decap"
	ActionL2Multicast pi.ActionID = "MyIngress.l2_multicast"
	ActionL3Forward   pi.ActionID = "MyIngress.l3_forward"
)

// Action parameters
const (
	ParamPort  pi.ActionParamID = "port"
	ParamVni   pi.ActionParamID = "vni"
	ParamSmac  pi.ActionParamID = "smac"
	ParamDmac  pi.ActionParamID = "dmac"
	ParamSrcIP pi.ActionParamID = "srcIP"
	ParamDstIP pi.ActionParamID = "dstIP"
	ParamGrp   pi.ActionParamID = "grp"
)

// Packet-I/O metadata
const (
	MetadataEgressPort  pi.PacketMetadataID = "egress_port"
	MetadataIngressPort pi.PacketMetadataID = "ingress_port"

	// PortFieldBitwidth is the width of the port metadata fields
	PortFieldBitwidth = 9

	// FloodPort is where packets sent to the FLOOD logical port go:
	// the pipeline cannot flood by itself, ports are not enumerated.
	FloodPort = 500
)
