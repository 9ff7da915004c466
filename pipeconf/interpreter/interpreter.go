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
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/opencord/voltha-lib-go/v7/pkg/log"
	"github.com/opencord/vxlan-pipeconf/pipeconf/extension"
	"github.com/opencord/vxlan-pipeconf/pipeconf/flow"
	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
)

// Errors returned by the interpreter, all of them abort the mapping except ErrExtensionProperty
var (
	ErrUnsupportedOutput    = pi.ErrUnsupportedOutput
	ErrUnsupportedTreatment = pi.ErrUnsupportedTreatment
	ErrMissingMetadata      = pi.ErrMissingMetadata
	ErrMalformedFrame       = pi.ErrMalformedFrame
	ErrPortTooLarge         = pi.ErrPortTooLarge
	ErrMalformedValue       = pi.ErrMalformedValue
	ErrExtensionProperty    = pi.ErrExtensionProperty
)

// SkipHook is told about every extension instruction dropped from a treatment
type SkipHook func(ctx context.Context, t extension.Type, err error)

// Interpreter translates between the abstract flow and packet model and the pipeline.
// It holds read only lookup tables and is safe for concurrent use.
type Interpreter struct {
	tables   map[int]pi.TableID
	criteria map[flow.CriterionType]pi.MatchFieldID
	onSkip   SkipHook
}

// Option configures an Interpreter
type Option func(*Interpreter)

// WithSkipHook registers a hook called when an extension instruction is skipped
func WithSkipHook(hook SkipHook) Option {
	return func(in *Interpreter) {
		in.onSkip = hook
	}
}

// New creates an interpreter for the tunnelling pipeline
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		tables: map[int]pi.TableID{
			0: TableL2Forward,
			1: TableIPv4Forward,
			2: TableDecap,
			3: TableEncap,
		},
		criteria: map[flow.CriterionType]pi.MatchFieldID{
			flow.InPort:  FieldEgressPort,
			flow.EthDst:  FieldEthDst,
			flow.EthType: FieldEthType,
			flow.IPv4Dst: FieldIPv4Dst,
			flow.ArpTpa:  FieldArpTpa,
		},
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// MapCriterion returns the match field of the given criterion type, if the pipeline has one
func (in *Interpreter) MapCriterion(t flow.CriterionType) (pi.MatchFieldID, bool) {
	id, have := in.criteria[t]
	return id, have
}

// MapTable returns the pipeline table bound to a flow rule table index
func (in *Interpreter) MapTable(index int) (pi.TableID, bool) {
	id, have := in.tables[index]
	return id, have
}

// actionAccumulator is the partial action threaded through the treatment fold.
// Every step returns a new value, the receiver is never modified.
type actionAccumulator struct {
	id     pi.ActionID
	params map[pi.ActionParamID][]byte
}

func (a actionAccumulator) withID(id pi.ActionID) actionAccumulator {
	return actionAccumulator{id: id, params: a.params}
}

func (a actionAccumulator) withParam(id pi.ActionParamID, value []byte) actionAccumulator {
	params := make(map[pi.ActionParamID][]byte, len(a.params)+1)
	for k, v := range a.params {
		params[k] = v
	}
	params[id] = value
	return actionAccumulator{id: a.id, params: params}
}

func (a actionAccumulator) build() (pi.Action, error) {
	if a.id == "" {
		return pi.Action{}, fmt.Errorf("no action selected by the treatment: %w", ErrUnsupportedTreatment)
	}
	params := make([]pi.ActionParam, 0, len(a.params))
	for id, v := range a.params {
		params = append(params, pi.ActionParam{ID: id, Value: v})
	}
	return pi.NewAction(a.id, params...), nil
}

// MapTreatment folds the instructions, in order, into a single pipeline action of the given table.
// The last instruction touching the action id or a parameter wins. An empty treatment maps to NoAction.
func (in *Interpreter) MapTreatment(ctx context.Context, treatment []flow.Instruction, table pi.TableID) (pi.Action, error) {
	if len(treatment) == 0 {
		return pi.NewAction(ActionNoAction), nil
	}
	acc := actionAccumulator{}
	for _, instr := range treatment {
		var err error
		if acc, err = in.step(ctx, acc, instr, table); err != nil {
			return pi.Action{}, err
		}
	}
	action, err := acc.build()
	if err != nil {
		return pi.Action{}, fmt.Errorf("table %s, treatment %v: %w", table, treatment, err)
	}
	logger.Debugw(ctx, "treatment-mapped", log.Fields{"table": table, "action": action.String()})
	return action, nil
}

func (in *Interpreter) step(ctx context.Context, acc actionAccumulator, instr flow.Instruction, table pi.TableID) (actionAccumulator, error) {
	switch i := instr.(type) {
	case flow.Output:
		switch {
		case !i.Port.IsLogical():
			// on the ipv4 table the action is chosen by the l2 rewrite
			if table != TableIPv4Forward {
				acc = acc.withID(ActionSetOutPort)
			}
			return acc.withParam(ParamPort, pi.CopyFromUint64(uint64(i.Port))), nil
		case i.Port == flow.PortController:
			return acc.withID(ActionSendToCPU), nil
		}
		return acc, fmt.Errorf("output on logical port %s: %w", i.Port, ErrUnsupportedOutput)

	case flow.ModEthDst:
		if len(i.MAC) != 6 {
			return acc, fmt.Errorf("eth dst %s is not 6 bytes long: %w", i.MAC, ErrMalformedValue)
		}
		return acc.withID(ActionL3Forward).withParam(ParamDmac, []byte(i.MAC)), nil

	case flow.ModTunnelID:
		return acc.withID(ActionVxlanEncap).withParam(ParamVni, pi.CopyFromUint64(i.ID)), nil

	case flow.Extension:
		next, err := in.extensionStep(acc, i.Ext)
		if err != nil {
			if !errors.Is(err, ErrExtensionProperty) {
				return acc, err
			}
			logger.Warnw(ctx, "skipping-extension-instruction", log.Fields{"table": table, "extension": i.String(), "error": err})
			if in.onSkip != nil && !extension.IsNil(i.Ext) {
				in.onSkip(ctx, i.Ext.Type(), err)
			}
			return acc, nil
		}
		return next, nil
	}
	return acc, fmt.Errorf("instruction %v: %w", instr, ErrUnsupportedTreatment)
}

func (in *Interpreter) extensionStep(acc actionAccumulator, ext extension.Instruction) (actionAccumulator, error) {
	if extension.IsNil(ext) {
		return acc, fmt.Errorf("empty extension instruction: %w", ErrExtensionProperty)
	}
	if _, ok := ext.(*extension.TunnelDecap); ok {
		return acc.withID(ActionVxlanDecap), nil
	}

	value, err := ext.Property(ext.Type().Name())
	if err != nil {
		return acc, err
	}
	switch ext.(type) {
	case *extension.TunnelSetSMac:
		if mac, ok := value.(net.HardwareAddr); ok {
			return acc.withParam(ParamSmac, []byte(mac)), nil
		}
	case *extension.TunnelSetDMac:
		if mac, ok := value.(net.HardwareAddr); ok {
			return acc.withParam(ParamDmac, []byte(mac)), nil
		}
	case *extension.TunnelSetSIP:
		if ip, ok := value.(net.IP); ok {
			return acc.withParam(ParamSrcIP, []byte(ip.To4())), nil
		}
	case *extension.TunnelSetDIP:
		if ip, ok := value.(net.IP); ok {
			return acc.withParam(ParamDstIP, []byte(ip.To4())), nil
		}
	case *extension.SetMulticastGroup:
		if grp, ok := value.(uint16); ok {
			return acc.withID(ActionL2Multicast).withParam(ParamGrp, pi.CopyFromUint16(grp)), nil
		}
	default:
		return acc, fmt.Errorf("extension %s: %w", ext.Type(), pi.ErrUnsupportedType)
	}
	return acc, fmt.Errorf("%s holds a %T: %w", ext.Type(), value, ErrExtensionProperty)
}

// OutboundPacket is a packet the controller wants the device to emit
type OutboundPacket struct {
	DeviceID  string
	Treatment []flow.Instruction
	Data      []byte
}

// MapOutboundPacket returns the packet-out operations emitting the packet.
// The treatment must be a single Output, to a physical port or FLOOD.
func (in *Interpreter) MapOutboundPacket(ctx context.Context, pkt OutboundPacket) ([]pi.PacketOperation, error) {
	if len(pkt.Treatment) != 1 {
		return nil, fmt.Errorf("packet-out with %d instructions: %w", len(pkt.Treatment), ErrUnsupportedTreatment)
	}
	out, ok := pkt.Treatment[0].(flow.Output)
	if !ok {
		return nil, fmt.Errorf("packet-out with %v: %w", pkt.Treatment[0], ErrUnsupportedTreatment)
	}

	var port uint64
	switch {
	case !out.Port.IsLogical():
		port = uint64(out.Port)
	case out.Port == flow.PortFlood:
		port = FloodPort
	default:
		return nil, fmt.Errorf("packet-out on logical port %s: %w", out.Port, ErrUnsupportedTreatment)
	}

	op, err := packetOut(pkt.Data, port)
	if err != nil {
		return nil, err
	}
	logger.Debugw(ctx, "packet-out-mapped", log.Fields{"device-id": pkt.DeviceID, "port": port, "size": len(pkt.Data)})
	return []pi.PacketOperation{op}, nil
}

func packetOut(data []byte, port uint64) (pi.PacketOperation, error) {
	value, err := pi.Fit(pi.CopyFromUint64(port), PortFieldBitwidth)
	if err != nil {
		return pi.PacketOperation{}, fmt.Errorf("port number %d too big: %v: %w", port, err, ErrPortTooLarge)
	}
	return pi.PacketOperation{
		Type:     pi.PacketOut,
		Data:     append([]byte(nil), data...),
		Metadata: []pi.PacketMetadata{{ID: MetadataEgressPort, Value: value}},
	}, nil
}

// InboundPacket is a packet received by the device and punted to the controller
type InboundPacket struct {
	ReceivedFrom flow.ConnectPoint
	Frame        *layers.Ethernet
	Data         []byte
}

// Packet decodes every layer of the received frame
func (p *InboundPacket) Packet() gopacket.Packet {
	return gopacket.NewPacket(p.Data, layers.LayerTypeEthernet, gopacket.Default)
}

// MapInboundPacket decodes a packet-in operation received from the given device.
// The ingress port is read from the ingress_port metadata as an unsigned big-endian number.
func (in *Interpreter) MapInboundPacket(ctx context.Context, op pi.PacketOperation, deviceID string) (*InboundPacket, error) {
	data := append([]byte(nil), op.Data...)
	eth := &layers.Ethernet{}
	if err := eth.DecodeFromBytes(data, gopacket.NilDecodeFeedback); err != nil {
		return nil, fmt.Errorf("packet-in from %s: %v: %w", deviceID, err, ErrMalformedFrame)
	}

	md, have := op.MetadataByID(MetadataIngressPort)
	if !have || len(md.Value) == 0 {
		return nil, fmt.Errorf("missing metadata %q in packet-in received from %q: %w", MetadataIngressPort, deviceID, ErrMissingMetadata)
	}
	port, err := pi.Uint64(md.Value)
	if err != nil || port > uint64(^uint32(0)) {
		return nil, fmt.Errorf("ingress port 0x%x from %q: %w", md.Value, deviceID, ErrPortTooLarge)
	}

	pkt := &InboundPacket{
		ReceivedFrom: flow.ConnectPoint{DeviceID: deviceID, Port: flow.PortNumber(port)},
		Frame:        eth,
		Data:         data,
	}
	logger.Debugw(ctx, "packet-in-mapped", log.Fields{"received-from": pkt.ReceivedFrom.String(), "size": len(data)})
	return pkt, nil
}
