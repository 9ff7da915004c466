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

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/opencord/voltha-lib-go/v7/pkg/log"
	"github.com/opencord/vxlan-pipeconf/pipeconf/config"
	"github.com/opencord/vxlan-pipeconf/pipeconf/flow"
	"github.com/opencord/vxlan-pipeconf/pipeconf/interpreter"
	"github.com/opencord/vxlan-pipeconf/pipeconf/p4rt"
	"github.com/opencord/vxlan-pipeconf/pipeconf/pi"
	"github.com/opencord/vxlan-pipeconf/pipeconf/rules"
	p4 "github.com/p4lang/p4runtime/go/p4/v1"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

var errMissingInput = errors.New("missing-input")

func newTranslateCommand(tool *pipeconfTool) *cobra.Command {
	return &cobra.Command{
		Use:   "translate [rules.yaml]",
		Short: "Translate the rules of a file into table entries",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, s, err := tool.startServices(cmd.Context())
			if err != nil {
				return err
			}
			defer s.stop(ctx)

			flowRules, err := tool.loadRules(args)
			if err != nil {
				return err
			}
			entries, err := s.translator.TranslateAll(ctx, flowRules)
			if err != nil {
				return err
			}
			resolver, err := tool.resolver()
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if resolver == nil {
					if err := tool.printEntry(entry); err != nil {
						return err
					}
					continue
				}
				te, err := resolver.TableEntry(entry)
				if err != nil {
					return err
				}
				if err := tool.printMessage(te); err != nil {
					return err
				}
			}
			logger.Infow(ctx, "rules-translated", log.Fields{"count": len(entries)})
			return nil
		},
	}
}

// printingClient stands for the device: it prints the write requests it receives
type printingClient struct {
	tool *pipeconfTool
}

func (c printingClient) Write(_ context.Context, req *p4.WriteRequest, _ ...grpc.CallOption) (*p4.WriteResponse, error) {
	return &p4.WriteResponse{}, c.tool.printMessage(req)
}

func newInstallCommand(tool *pipeconfTool) *cobra.Command {
	return &cobra.Command{
		Use:   "install [rules.yaml]",
		Short: "Install the rules of a file, printing the P4Runtime write requests instead of sending them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, s, err := tool.startServices(cmd.Context())
			if err != nil {
				return err
			}
			defer s.stop(ctx)

			resolver, err := tool.resolver()
			if err != nil {
				return err
			}
			if resolver == nil {
				return fmt.Errorf("install needs --p4info: %w", errMissingInput)
			}
			flowRules, err := tool.loadRules(args)
			if err != nil {
				return err
			}
			devices := map[string]uint64{}
			for _, r := range flowRules {
				if _, have := devices[r.DeviceID()]; !have {
					devices[r.DeviceID()] = uint64(len(devices) + 1)
				}
			}
			writer := p4rt.NewWriter(printingClient{tool: tool}, resolver, devices, &p4.Uint128{Low: 1})
			results, err := s.installer(ctx, writer).Install(ctx, flowRules...)
			if err != nil {
				return err
			}
			logger.Infow(ctx, "rules-installed", log.Fields{"count": len(results)})
			return nil
		},
	}
}

func newPacketInCommand(tool *pipeconfTool) *cobra.Command {
	var port uint32
	cmd := &cobra.Command{
		Use:   "packet-in <hex frame>",
		Short: "Decode a frame punted by the device on the given ingress port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, s, err := tool.startServices(cmd.Context())
			if err != nil {
				return err
			}
			defer s.stop(ctx)

			data, err := decodeHex(args[0])
			if err != nil {
				return err
			}
			value, err := pi.Fit(pi.CopyFromUint32(port), interpreter.PortFieldBitwidth)
			if err != nil {
				return fmt.Errorf("ingress port %d: %w", port, pi.ErrPortTooLarge)
			}
			op := pi.PacketOperation{
				Type:     pi.PacketIn,
				Data:     data,
				Metadata: []pi.PacketMetadata{{ID: interpreter.MetadataIngressPort, Value: value}},
			}
			pkt, err := s.translator.MapInbound(ctx, op, tool.config.DeviceID)
			if err != nil {
				return err
			}
			return tool.printInbound(pkt)
		},
	}
	cmd.Flags().Uint32Var(&port, "port", 1, "Ingress port")
	return cmd
}

func newPacketOutCommand(tool *pipeconfTool) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "packet-out <hex frame>",
		Short: "Build the packet-out operations emitting a frame on a port, or FLOOD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, s, err := tool.startServices(cmd.Context())
			if err != nil {
				return err
			}
			defer s.stop(ctx)

			data, err := decodeHex(args[0])
			if err != nil {
				return err
			}
			out, err := flow.ParsePort(port)
			if err != nil {
				return err
			}
			ops, err := s.translator.MapOutbound(ctx, interpreter.OutboundPacket{
				DeviceID:  tool.config.DeviceID,
				Treatment: []flow.Instruction{flow.Output{Port: out}},
				Data:      data,
			})
			if err != nil {
				return err
			}
			resolver, err := tool.resolver()
			if err != nil {
				return err
			}
			for _, op := range ops {
				if resolver == nil {
					if err := tool.printDoc(packetDoc(op)); err != nil {
						return err
					}
					continue
				}
				msg, err := resolver.PacketOut(op)
				if err != nil {
					return err
				}
				if err := tool.printMessage(msg); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "FLOOD", "Output port, a number or FLOOD")
	return cmd
}

func decodeHex(s string) ([]byte, error) {
	s = strings.NewReplacer(":", "", " ", "").Replace(strings.TrimPrefix(s, "0x"))
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("frame: %v: %w", err, pi.ErrMalformedFrame)
	}
	return data, nil
}

func (tool *pipeconfTool) loadRules(args []string) ([]*flow.Rule, error) {
	path := tool.config.RulesFile
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		return nil, fmt.Errorf("no rules file given: %w", errMissingInput)
	}
	return rules.ParseFile(path)
}

// resolver returns nil when no P4Info is configured
func (tool *pipeconfTool) resolver() (*p4rt.Resolver, error) {
	if tool.config.P4InfoFile == "" {
		return nil, nil
	}
	info, err := p4rt.LoadP4Info(tool.config.P4InfoFile)
	if err != nil {
		return nil, err
	}
	return p4rt.NewResolver(info)
}

func (tool *pipeconfTool) printMessage(m proto.Message) error {
	var data []byte
	var err error
	if tool.config.OutputFormat == config.OutputText {
		data, err = prototext.MarshalOptions{Multiline: true}.Marshal(m)
	} else {
		data, err = protojson.Marshal(m)
	}
	if err != nil {
		return err
	}
	return writeLine(tool.out, data)
}

func (tool *pipeconfTool) printDoc(doc map[string]interface{}) error {
	s, err := structpb.NewStruct(doc)
	if err != nil {
		return err
	}
	return tool.printMessage(s)
}

func (tool *pipeconfTool) printEntry(entry *pi.TableEntry) error {
	if tool.config.OutputFormat == config.OutputText {
		return writeLine(tool.out, []byte(entry.String()))
	}
	return tool.printDoc(entryDoc(entry))
}

func (tool *pipeconfTool) printInbound(pkt *interpreter.InboundPacket) error {
	if tool.config.OutputFormat == config.OutputText {
		return writeLine(tool.out, []byte(fmt.Sprintf("received from %s\n%s", pkt.ReceivedFrom, pkt.Packet())))
	}
	return tool.printDoc(map[string]interface{}{
		"receivedFrom": pkt.ReceivedFrom.String(),
		"ethSrc":       pkt.Frame.SrcMAC.String(),
		"ethDst":       pkt.Frame.DstMAC.String(),
		"ethType":      pkt.Frame.EthernetType.String(),
		"size":         len(pkt.Data),
	})
}

func writeLine(w io.Writer, data []byte) error {
	_, err := fmt.Fprintln(w, string(data))
	return err
}

func entryDoc(entry *pi.TableEntry) map[string]interface{} {
	matches := make([]interface{}, 0, len(entry.Matches))
	for _, m := range entry.Matches {
		doc := map[string]interface{}{
			"field": string(m.FieldID),
			"type":  m.Type.String(),
			"value": hex.EncodeToString(m.Value),
		}
		switch m.Type {
		case pi.MatchLPM:
			doc["prefixLen"] = m.PrefixLen
		case pi.MatchTernary:
			doc["mask"] = hex.EncodeToString(m.Mask)
		}
		matches = append(matches, doc)
	}
	params := map[string]interface{}{}
	for _, p := range entry.Action.Params() {
		params[string(p.ID)] = hex.EncodeToString(p.Value)
	}
	return map[string]interface{}{
		"ruleId":    fmt.Sprintf("%016x", entry.RuleID),
		"deviceId":  entry.DeviceID,
		"table":     string(entry.Table),
		"matches":   matches,
		"action":    map[string]interface{}{"id": string(entry.Action.ID()), "params": params},
		"priority":  entry.Priority,
		"permanent": entry.Permanent,
	}
}

func packetDoc(op pi.PacketOperation) map[string]interface{} {
	metadata := map[string]interface{}{}
	for _, m := range op.Metadata {
		metadata[string(m.ID)] = hex.EncodeToString(m.Value)
	}
	return map[string]interface{}{
		"type":     op.Type.String(),
		"payload":  hex.EncodeToString(op.Data),
		"metadata": metadata,
	}
}
