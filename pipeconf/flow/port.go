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

// Package flow holds the abstract, device independent flow rule model:
// selectors built from match criteria, treatments built from instructions and
// the rule that binds them to a device table.
package flow

import (
	"fmt"
	"strconv"
	"strings"

	ofp "github.com/opencord/voltha-protos/v5/go/openflow_13"
)

// PortNumber is a device port. Numbers above PortMax are logical ports.
type PortNumber uint32

const (
	PortMax        = PortNumber(ofp.OfpPortNo_OFPP_MAX)
	PortInPort     = PortNumber(ofp.OfpPortNo_OFPP_IN_PORT)
	PortTable      = PortNumber(ofp.OfpPortNo_OFPP_TABLE)
	PortNormal     = PortNumber(ofp.OfpPortNo_OFPP_NORMAL)
	PortFlood      = PortNumber(ofp.OfpPortNo_OFPP_FLOOD)
	PortAll        = PortNumber(ofp.OfpPortNo_OFPP_ALL)
	PortController = PortNumber(ofp.OfpPortNo_OFPP_CONTROLLER)
	PortLocal      = PortNumber(ofp.OfpPortNo_OFPP_LOCAL)
	PortAny        = PortNumber(ofp.OfpPortNo_OFPP_ANY)
)

var logicalPortNames = map[PortNumber]string{
	PortInPort:     "IN_PORT",
	PortTable:      "TABLE",
	PortNormal:     "NORMAL",
	PortFlood:      "FLOOD",
	PortAll:        "ALL",
	PortController: "CONTROLLER",
	PortLocal:      "LOCAL",
	PortAny:        "ANY",
}

// IsLogical tells whether the port is a reserved, non physical port
func (p PortNumber) IsLogical() bool {
	return p > PortMax
}

func (p PortNumber) String() string {
	if name, have := logicalPortNames[p]; have {
		return name
	}
	return strconv.FormatUint(uint64(p), 10)
}

// ParsePort accepts a port number or the name of a logical port
func ParsePort(s string) (PortNumber, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for p, name := range logicalPortNames {
		if name == upper {
			return p, nil
		}
	}
	n, err := strconv.ParseUint(upper, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", s, err)
	}
	return PortNumber(n), nil
}

// ConnectPoint is a port of a given device
type ConnectPoint struct {
	DeviceID string
	Port     PortNumber
}

func (cp ConnectPoint) String() string {
	return fmt.Sprintf("%s/%s", cp.DeviceID, cp.Port)
}
