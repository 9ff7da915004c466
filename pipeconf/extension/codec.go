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

package extension

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ExperimenterID identifies extension instructions carried as OpenFlow experimenter actions
const ExperimenterID uint32 = 0x4f4e4600

// InstructionFor returns a fresh, default valued instruction of the given kind
func InstructionFor(t Type) (Instruction, error) {
	switch t {
	case TypeTunnelSetSMac:
		return &TunnelSetSMac{}, nil
	case TypeTunnelSetDMac:
		return &TunnelSetDMac{}, nil
	case TypeTunnelSetSIP:
		return &TunnelSetSIP{}, nil
	case TypeTunnelSetDIP:
		return &TunnelSetDIP{}, nil
	case TypeSetMulticastGroup:
		return &SetMulticastGroup{}, nil
	case TypeTunnelDecap:
		return &TunnelDecap{}, nil
	}
	return nil, fmt.Errorf("extension type %d: %w", uint32(t), ErrUnsupportedType)
}

// Encode renders the instruction as a document holding its single value field
func Encode(i Instruction) (*structpb.Struct, error) {
	v, err := encodeValue(i)
	if err != nil {
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{i.Type().Name(): v}}, nil
}

// EncodeTyped is Encode plus the type code, which makes the document decodable on its own
func EncodeTyped(i Instruction) (*structpb.Struct, error) {
	doc, err := Encode(i)
	if err != nil {
		return nil, err
	}
	doc.Fields[FieldType] = structpb.NewNumberValue(float64(i.Type()))
	return doc, nil
}

func encodeValue(i Instruction) (*structpb.Value, error) {
	switch v := i.(type) {
	case *TunnelSetSMac:
		if v != nil {
			return structpb.NewStringValue(macOrZero(v.MAC).String()), nil
		}
	case *TunnelSetDMac:
		if v != nil {
			return structpb.NewStringValue(macOrZero(v.MAC).String()), nil
		}
	case *TunnelSetSIP:
		if v != nil {
			return ipDocValue(v.IP), nil
		}
	case *TunnelSetDIP:
		if v != nil {
			return ipDocValue(v.IP), nil
		}
	case *SetMulticastGroup:
		if v != nil {
			return structpb.NewNumberValue(float64(v.Group)), nil
		}
	case *TunnelDecap:
		if v != nil {
			return structpb.NewNumberValue(float64(v.Value)), nil
		}
	}
	return nil, fmt.Errorf("extension instruction cannot be nil: %w", ErrNullArgument)
}

// IsNil tells whether i is nil or a nil pointer to one of the instruction kinds
func IsNil(i Instruction) bool {
	switch v := i.(type) {
	case *TunnelSetSMac:
		return v == nil
	case *TunnelSetDMac:
		return v == nil
	case *TunnelSetSIP:
		return v == nil
	case *TunnelSetDIP:
		return v == nil
	case *SetMulticastGroup:
		return v == nil
	case *TunnelDecap:
		return v == nil
	}
	return i == nil
}

func ipDocValue(ip net.IP) *structpb.Value {
	if ip == nil {
		return structpb.NewNullValue()
	}
	return structpb.NewStringValue(ip.String())
}

// Decode builds an instruction from a typed document
func Decode(doc *structpb.Struct) (Instruction, error) {
	if doc == nil {
		return nil, fmt.Errorf("extension document cannot be nil: %w", ErrNullArgument)
	}
	tv, have := doc.GetFields()[FieldType]
	if !have {
		return nil, fmt.Errorf("%q member is required: %w", FieldType, ErrMissingField)
	}
	n, ok := tv.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != math.Trunc(n.NumberValue) || n.NumberValue < 0 || n.NumberValue > math.MaxUint32 {
		return nil, fmt.Errorf("%q member must be an unsigned integer, got %v: %w", FieldType, tv.AsInterface(), ErrMalformedValue)
	}
	i, err := InstructionFor(Type(n.NumberValue))
	if err != nil {
		return nil, err
	}
	if err := DecodeValue(i, doc); err != nil {
		return nil, err
	}
	return i, nil
}

// DecodeValue reads the value field of doc into i
func DecodeValue(i Instruction, doc *structpb.Struct) error {
	name := i.Type().Name()
	v, have := doc.GetFields()[name]
	if !have {
		return fmt.Errorf("%q member is required for %s: %w", name, i.Type(), ErrMissingField)
	}
	if err := i.SetProperty(name, v.AsInterface()); err != nil {
		if errors.Is(err, ErrExtensionProperty) {
			return fmt.Errorf("%s: %v: %w", name, err, ErrMalformedValue)
		}
		return err
	}
	return nil
}

// MarshalJSON renders the typed document of i as JSON
func MarshalJSON(i Instruction) ([]byte, error) {
	doc, err := EncodeTyped(i)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(doc)
}

// UnmarshalJSON decodes an instruction from the JSON form of a typed document
func UnmarshalJSON(data []byte) (Instruction, error) {
	doc := &structpb.Struct{}
	if err := protojson.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("extension document: %v: %w", err, ErrMalformedValue)
	}
	return Decode(doc)
}

// Marshal frames the binary payload of i behind its 4 byte big-endian type code
func Marshal(i Instruction) ([]byte, error) {
	if _, err := encodeValue(i); err != nil {
		return nil, err
	}
	payload, err := i.Serialize()
	if err != nil {
		return nil, err
	}
	data := make([]byte, 4, 4+len(payload))
	binary.BigEndian.PutUint32(data, uint32(i.Type()))
	return append(data, payload...), nil
}

// Unmarshal decodes a type framed payload produced by Marshal
func Unmarshal(data []byte) (Instruction, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("extension payload of %d bytes: %w", len(data), ErrMalformedValue)
	}
	i, err := InstructionFor(Type(binary.BigEndian.Uint32(data)))
	if err != nil {
		return nil, err
	}
	if err := i.Deserialize(data[4:]); err != nil {
		return nil, err
	}
	return i, nil
}
