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
	"fmt"
	"io"
	"os"

	"github.com/opencord/voltha-lib-go/v7/pkg/log"
	"github.com/opencord/voltha-lib-go/v7/pkg/version"
	"github.com/opencord/vxlan-pipeconf/pipeconf/config"
	"github.com/spf13/cobra"
)

type pipeconfTool struct {
	config *config.PipeconfFlags
	out    io.Writer
	tracer io.Closer
}

func newRootCommand(tool *pipeconfTool) *cobra.Command {
	root := &cobra.Command{
		Use:           "pipeconf",
		Short:         "Translates flow rules and packets for the VXLAN tunnelling pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return tool.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			tool.teardown(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if tool.config.DisplayVersionOnly {
				printVersion(tool.out)
				return nil
			}
			return cmd.Help()
		},
	}
	tool.config.AddFlags(root.PersistentFlags())
	root.SetOut(tool.out)

	root.AddCommand(
		newTranslateCommand(tool),
		newInstallCommand(tool),
		newPacketInCommand(tool),
		newPacketOutCommand(tool),
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				printVersion(tool.out)
			},
		},
	)
	return root
}

func (tool *pipeconfTool) setup(ctx context.Context) error {
	cf := tool.config
	if err := cf.Validate(); err != nil {
		return err
	}
	logLevel, err := log.StringToLogLevel(cf.LogLevel)
	if err != nil {
		return err
	}

	//Setup default logger - applies for packages that do not have specific logger set
	if _, err := log.SetDefaultLogger(log.JSON, logLevel, log.Fields{"component": "pipeconf"}); err != nil {
		return fmt.Errorf("cannot setup logging: %w", err)
	}
	// Update all loggers (provisioned via init) with a common field
	if err := log.UpdateAllLoggers(log.Fields{"component": "pipeconf"}); err != nil {
		return fmt.Errorf("cannot setup logging: %w", err)
	}
	// Update all loggers to log level specified as input parameter
	log.SetAllLogLevel(logLevel)

	closer, err := log.GetGlobalLFM().InitTracingAndLogCorrelation(cf.TraceEnabled, cf.TraceAgentAddress, cf.LogCorrelationEnabled)
	if err != nil {
		logger.Warnw(ctx, "unable-to-initialize-tracing-and-log-correlation-module", log.Fields{"error": err})
	} else {
		tool.tracer = closer
	}
	logger.Infow(ctx, "pipeconf-config", log.Fields{"config": *cf})
	return nil
}

func (tool *pipeconfTool) teardown(ctx context.Context) {
	if tool.tracer != nil {
		log.TerminateTracing(tool.tracer)
	}
	if err := log.CleanUp(); err != nil {
		logger.Errorw(ctx, "unable-to-flush-any-buffered-log-entries", log.Fields{"error": err})
	}
}

func printVersion(out io.Writer) {
	fmt.Fprintln(out, "VXLAN Pipeconf")
	fmt.Fprintln(out, version.VersionInfo.String("  "))
}

func main() {
	tool := &pipeconfTool{config: config.NewPipeconfFlags(), out: os.Stdout}
	if err := newRootCommand(tool).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
