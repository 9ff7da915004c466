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

import "fmt"

// PacketOperationType tells the direction of a packet operation
type PacketOperationType int

const (
	// PacketOut is a packet sent by the controller to the device
	PacketOut PacketOperationType = iota
	// PacketIn is a packet punted by the device to the controller
	PacketIn
)

func (t PacketOperationType) String() string {
	switch t {
	case PacketOut:
		return "PACKET_OUT"
	case PacketIn:
		return "PACKET_IN"
	}
	return fmt.Sprintf("PacketOperationType(%d)", int(t))
}

// PacketMetadata is one controller packet metadata field
type PacketMetadata struct {
	ID    PacketMetadataID
	Value []byte
}

// PacketOperation is a packet exchanged with the device along with its metadata
type PacketOperation struct {
	Type     PacketOperationType
	Data     []byte
	Metadata []PacketMetadata
}

// MetadataByID returns the first metadata field with the given id
func (op PacketOperation) MetadataByID(id PacketMetadataID) (PacketMetadata, bool) {
	for _, m := range op.Metadata {
		if m.ID == id {
			return m, true
		}
	}
	return PacketMetadata{}, false
}
