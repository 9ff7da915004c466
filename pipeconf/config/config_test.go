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

package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cf := NewPipeconfFlags()
	assert.Equal(t, "WARN", cf.LogLevel)
	assert.Equal(t, OutputJSON, cf.OutputFormat)
	assert.Equal(t, "device:s1", cf.DeviceID)
	assert.True(t, cf.LogCorrelationEnabled)
	assert.False(t, cf.TraceEnabled)
	assert.Nil(t, cf.Validate())
}

func TestParseCommandArguments(t *testing.T) {
	cf := NewPipeconfFlags()
	err := cf.ParseCommandArguments([]string{
		"--log_level", "DEBUG",
		"-r", "rules.yaml",
		"--p4info=mytunnel.p4info.txt",
		"-o", "text",
		"--device_id", "device:s2",
		"--trace_enabled",
		"--probe_address", ":8080",
		"--metrics_address", ":9090",
	})
	assert.Nil(t, err)
	assert.Equal(t, "DEBUG", cf.LogLevel)
	assert.Equal(t, "rules.yaml", cf.RulesFile)
	assert.Equal(t, "mytunnel.p4info.txt", cf.P4InfoFile)
	assert.Equal(t, OutputText, cf.OutputFormat)
	assert.Equal(t, "device:s2", cf.DeviceID)
	assert.True(t, cf.TraceEnabled)
	assert.Equal(t, ":8080", cf.ProbeAddress)
	assert.Equal(t, ":9090", cf.MetricsAddress)
}

func TestParseCommandArgumentsErrors(t *testing.T) {
	assert.NotNil(t, NewPipeconfFlags().ParseCommandArguments([]string{"--kafka_host", "x"}))
	assert.NotNil(t, NewPipeconfFlags().ParseCommandArguments([]string{"--log_level", "LOUD"}))
	assert.NotNil(t, NewPipeconfFlags().ParseCommandArguments([]string{"-o", "xml"}))
	assert.NotNil(t, NewPipeconfFlags().ParseCommandArguments([]string{"--probe_address", ":80", "--metrics_address", ":80"}))
}

func TestAddFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cf := NewPipeconfFlags()
	cf.AddFlags(fs)
	for _, name := range []string{"log_level", "rules", "p4info", "output", "device_id", "trace_enabled",
		"trace_agent_address", "log_correlation_enabled", "probe_address", "metrics_address", "version"} {
		assert.NotNil(t, fs.Lookup(name), name)
	}
	assert.Equal(t, "r", fs.Lookup("rules").Shorthand)
}
