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

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// NoAction is the canonical no-op action of the pipeline
const NoAction ActionID = "NoAction"

// ActionParam is a named runtime parameter with its binary value
type ActionParam struct {
	ID    ActionParamID
	Value []byte
}

func (p ActionParam) String() string {
	return fmt.Sprintf("%s=0x%x", p.ID, p.Value)
}

// Action is a pipeline action: an action id and its parameter set.
// An Action is immutable once built.
type Action struct {
	id     ActionID
	params map[ActionParamID][]byte
}

// NewAction builds an action. A later parameter replaces an earlier one with the same id.
func NewAction(id ActionID, params ...ActionParam) Action {
	a := Action{id: id, params: make(map[ActionParamID][]byte, len(params))}
	for _, p := range params {
		a.params[p.ID] = append([]byte(nil), p.Value...)
	}
	return a
}

// ID returns the action id
func (a Action) ID() ActionID {
	return a.id
}

// Param returns the value of the named parameter
func (a Action) Param(id ActionParamID) ([]byte, bool) {
	v, have := a.params[id]
	return v, have
}

// Params returns the parameters ordered by id
func (a Action) Params() []ActionParam {
	ret := make([]ActionParam, 0, len(a.params))
	for id, v := range a.params {
		ret = append(ret, ActionParam{ID: id, Value: v})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret
}

// Equal compares id and parameter values
func (a Action) Equal(o Action) bool {
	if a.id != o.id || len(a.params) != len(o.params) {
		return false
	}
	for id, v := range a.params {
		ov, have := o.params[id]
		if !have || !bytes.Equal(v, ov) {
			return false
		}
	}
	return true
}

func (a Action) String() string {
	params := a.Params()
	strs := make([]string, 0, len(params))
	for _, p := range params {
		strs = append(strs, p.String())
	}
	return fmt.Sprintf("%s(%s)", a.id, strings.Join(strs, ", "))
}
