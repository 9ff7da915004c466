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
	"net/http"
	"testing"
	"time"

	"github.com/opencord/voltha-lib-go/v7/pkg/probe"
	"github.com/opencord/vxlan-pipeconf/pipeconf/config"
	"github.com/opencord/vxlan-pipeconf/pipeconf/flow"
	"github.com/opencord/vxlan-pipeconf/pipeconf/interpreter"
	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func httpGet(url string) (int, string) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, ""
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestStartServices(t *testing.T) {
	probePort, err := freeport.GetFreePort()
	require.Nil(t, err)
	metricsPort, err := freeport.GetFreePort()
	require.Nil(t, err)

	cf := config.NewPipeconfFlags()
	cf.ProbeAddress = fmt.Sprintf("127.0.0.1:%d", probePort)
	cf.MetricsAddress = fmt.Sprintf("127.0.0.1:%d", metricsPort)
	tool := &pipeconfTool{config: cf, out: io.Discard}

	ctx, s, err := tool.startServices(context.Background())
	require.Nil(t, err)
	p := probe.GetProbeFromContext(ctx)
	require.NotNil(t, p)
	assert.Equal(t, probe.ServiceStatusRunning, p.GetStatus(serviceTranslator))

	readz := fmt.Sprintf("http://%s/readz", cf.ProbeAddress)
	assert.Eventually(t, func() bool {
		code, _ := httpGet(readz)
		return code == http.StatusTeapot
	}, 5*time.Second, 10*time.Millisecond)

	s.installer(ctx, nil)
	assert.Equal(t, probe.ServiceStatusRunning, p.GetStatus(serviceInstaller))
	code, _ := httpGet(readz)
	assert.Equal(t, http.StatusOK, code)

	_, err = s.translator.MapOutbound(ctx, interpreter.OutboundPacket{
		DeviceID:  cf.DeviceID,
		Treatment: []flow.Instruction{flow.Output{Port: flow.PortFlood}},
	})
	require.Nil(t, err)
	metrics := fmt.Sprintf("http://%s/metrics", cf.MetricsAddress)
	assert.Eventually(t, func() bool {
		_, body := httpGet(metrics)
		return containsLine(body, `pipeconf_translations_total{kind="packet-out",result="success"} 1`)
	}, 5*time.Second, 10*time.Millisecond)

	s.stop(ctx)
	assert.Equal(t, probe.ServiceStatusStopped, p.GetStatus(serviceTranslator))
	code, _ = httpGet(fmt.Sprintf("http://%s/healthz", cf.ProbeAddress))
	assert.Equal(t, http.StatusTeapot, code)
	code, _ = httpGet(metrics)
	assert.Equal(t, 0, code)
}

func TestStartServicesDisabled(t *testing.T) {
	tool := &pipeconfTool{config: config.NewPipeconfFlags(), out: io.Discard}
	ctx, s, err := tool.startServices(context.Background())
	require.Nil(t, err)
	assert.Nil(t, probe.GetProbeFromContext(ctx))
	assert.Nil(t, s.metricsSrv)
	s.stop(ctx)
}

func containsLine(body, line string) bool {
	for _, l := range lines(body) {
		if l == line {
			return true
		}
	}
	return false
}
