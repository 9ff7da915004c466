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

// Package config holds the command line configuration of the pipeconf tool.
package config

import (
	"fmt"

	"github.com/opencord/voltha-lib-go/v7/pkg/log"
	"github.com/spf13/pflag"
)

// Output formats
const (
	OutputJSON = "json"
	OutputText = "text"
)

// pipeconf default constants
const (
	defaultLogLevel              = "WARN"
	defaultRulesFile             = ""
	defaultP4InfoFile            = ""
	defaultOutputFormat          = OutputJSON
	defaultDeviceID              = "device:s1"
	defaultTraceEnabled          = false
	defaultTraceAgentAddress     = "127.0.0.1:6831"
	defaultLogCorrelationEnabled = true
	defaultProbeAddress          = ""
	defaultMetricsAddress        = ""
	defaultDisplayVersionOnly    = false
)

// PipeconfFlags represents the set of configurations used by the pipeconf tool
type PipeconfFlags struct {
	LogLevel              string
	RulesFile             string
	P4InfoFile            string
	OutputFormat          string
	DeviceID              string
	TraceEnabled          bool
	TraceAgentAddress     string
	LogCorrelationEnabled bool
	ProbeAddress          string
	MetricsAddress        string
	DisplayVersionOnly    bool
}

// NewPipeconfFlags returns a new pipeconf config holding the defaults
func NewPipeconfFlags() *PipeconfFlags {
	var pipeconfFlags = PipeconfFlags{ // Default values
		LogLevel:              defaultLogLevel,
		RulesFile:             defaultRulesFile,
		P4InfoFile:            defaultP4InfoFile,
		OutputFormat:          defaultOutputFormat,
		DeviceID:              defaultDeviceID,
		TraceEnabled:          defaultTraceEnabled,
		TraceAgentAddress:     defaultTraceAgentAddress,
		LogCorrelationEnabled: defaultLogCorrelationEnabled,
		ProbeAddress:          defaultProbeAddress,
		MetricsAddress:        defaultMetricsAddress,
		DisplayVersionOnly:    defaultDisplayVersionOnly,
	}
	return &pipeconfFlags
}

// AddFlags registers the configuration flags on fs
func (cf *PipeconfFlags) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&cf.LogLevel, "log_level", defaultLogLevel, "Log level")

	fs.StringVarP(&cf.RulesFile, "rules", "r", defaultRulesFile, "YAML file holding the flow rules")

	fs.StringVar(&cf.P4InfoFile, "p4info", defaultP4InfoFile,
		"P4Info of the pipeline, JSON when the name ends in .json, protobuf text otherwise. Entries are printed as P4Runtime messages when set")

	fs.StringVarP(&cf.OutputFormat, "output", "o", defaultOutputFormat, "Output format, json or text")

	fs.StringVar(&cf.DeviceID, "device_id", defaultDeviceID, "Device receiving the packets")

	fs.BoolVar(&cf.TraceEnabled, "trace_enabled", defaultTraceEnabled, "Whether to send traces to the tracing agent")

	fs.StringVar(&cf.TraceAgentAddress, "trace_agent_address", defaultTraceAgentAddress, "The address of the tracing agent")

	fs.BoolVar(&cf.LogCorrelationEnabled, "log_correlation_enabled", defaultLogCorrelationEnabled,
		"Whether to enrich log statements with fields denoting operation being executed for achieving correlation")

	fs.StringVar(&cf.ProbeAddress, "probe_address", defaultProbeAddress,
		"The address on which to listen to answer liveness and readiness probe queries over HTTP, disabled when empty")

	fs.StringVar(&cf.MetricsAddress, "metrics_address", defaultMetricsAddress,
		"The address on which to serve the prometheus metrics, disabled when empty")

	fs.BoolVar(&cf.DisplayVersionOnly, "version", defaultDisplayVersionOnly, "Show version information and exit")
}

// ParseCommandArguments parses the given command line arguments
func (cf *PipeconfFlags) ParseCommandArguments(args []string) error {
	fs := pflag.NewFlagSet("pipeconf", pflag.ContinueOnError)
	cf.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	return cf.Validate()
}

// Validate checks the values of the configuration
func (cf *PipeconfFlags) Validate() error {
	if _, err := log.StringToLogLevel(cf.LogLevel); err != nil {
		return fmt.Errorf("log_level %q: %w", cf.LogLevel, err)
	}
	if cf.OutputFormat != OutputJSON && cf.OutputFormat != OutputText {
		return fmt.Errorf("output format %q is neither %s nor %s", cf.OutputFormat, OutputJSON, OutputText)
	}
	if cf.ProbeAddress != "" && cf.ProbeAddress == cf.MetricsAddress {
		return fmt.Errorf("probe and metrics cannot share the address %s", cf.ProbeAddress)
	}
	return nil
}
