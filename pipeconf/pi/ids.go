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

// Package pi models the pipeline-independent view of a programmable
// forwarding pipeline: named tables, match fields, actions and the packet-I/O
// metadata those entities carry.
package pi

// TableID names a match-action table of the pipeline
type TableID string

// MatchFieldID names a header or metadata field a table matches on
type MatchFieldID string

// ActionID names an action of the pipeline
type ActionID string

// ActionParamID names a runtime parameter of an action
type ActionParamID string

// PacketMetadataID names a controller packet metadata field
type PacketMetadataID string

func (id TableID) String() string          { return string(id) }
func (id MatchFieldID) String() string     { return string(id) }
func (id ActionID) String() string         { return string(id) }
func (id ActionParamID) String() string    { return string(id) }
func (id PacketMetadataID) String() string { return string(id) }
