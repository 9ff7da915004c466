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

package p4rt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	p4config "github.com/p4lang/p4runtime/go/p4/config/v1"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
)

// LoadP4Info reads a P4Info file, in JSON when the name ends in .json and in protobuf text format otherwise
func LoadP4Info(path string) (*p4config.P4Info, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	info := &p4config.P4Info{}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = protojson.Unmarshal(data, info)
	} else {
		err = prototext.Unmarshal(data, info)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing p4info %s: %w", path, err)
	}
	return info, nil
}
