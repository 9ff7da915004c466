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

	"github.com/opencord/vxlan-pipeconf/pipeconf/extension"
)

// Instruction is one step of a treatment. The set of implementations is closed.
type Instruction interface {
	String() string
	isInstruction()
}

// Output forwards the packet to a port
type Output struct {
	Port PortNumber
}

// ModEthDst rewrites the destination MAC address
type ModEthDst struct {
	MAC net.HardwareAddr
}

// ModTunnelID sets the tunnel id (the VNI)
type ModTunnelID struct {
	ID uint64
}

// Extension carries a pipeline specific extension instruction
type Extension struct {
	Ext extension.Instruction
}

func (Output) isInstruction()      {}
func (ModEthDst) isInstruction()   {}
func (ModTunnelID) isInstruction() {}
func (Extension) isInstruction()   {}

func (i Output) String() string      { return fmt.Sprintf("OUTPUT:%s", i.Port) }
func (i ModEthDst) String() string   { return fmt.Sprintf("ETH_DST:%s", i.MAC) }
func (i ModTunnelID) String() string { return fmt.Sprintf("TUNNEL_ID:%d", i.ID) }

func (i Extension) String() string {
	if extension.IsNil(i.Ext) {
		return "EXTENSION:<nil>"
	}
	return fmt.Sprintf("EXTENSION:%s{%s}", i.Ext.Type(), i.Ext)
}
