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
	"errors"
	"net/http"
	"time"

	"github.com/opencord/voltha-lib-go/v7/pkg/log"
	"github.com/opencord/voltha-lib-go/v7/pkg/probe"
	"github.com/opencord/vxlan-pipeconf/pipeconf/installer"
	"github.com/opencord/vxlan-pipeconf/pipeconf/interpreter"
	"github.com/opencord/vxlan-pipeconf/pipeconf/translator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	serviceTranslator = "translator"
	serviceInstaller  = "installer"
)

// services are the long lived pieces shared by the commands
type services struct {
	registry   *prometheus.Registry
	metrics    *translator.Metrics
	translator *translator.Translator
	metricsSrv *http.Server
}

// startServices builds the translation stack and starts the probe and metrics listeners when configured.
// The returned context carries the probe.
func (tool *pipeconfTool) startServices(ctx context.Context) (context.Context, *services, error) {
	registry := prometheus.NewRegistry()
	metrics, err := translator.NewMetrics(registry)
	if err != nil {
		return ctx, nil, err
	}
	interp := interpreter.New(interpreter.WithSkipHook(metrics.ExtensionSkipped))
	s := &services{
		registry:   registry,
		metrics:    metrics,
		translator: translator.NewTranslator(interp, translator.WithMetrics(metrics)),
	}

	if addr := tool.config.ProbeAddress; addr != "" {
		/*
		 * The probe answers liveness and readiness queries for as long as the command runs.
		 */
		p := &probe.Probe{}
		go p.ListenAndServe(ctx, addr)
		ctx = context.WithValue(ctx, probe.ProbeContextKey, p)
		p.RegisterService(ctx, serviceTranslator, serviceInstaller)
	}
	probe.UpdateStatusFromContext(ctx, serviceTranslator, probe.ServiceStatusRunning)

	if addr := tool.config.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		s.metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := s.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Errorw(ctx, "metrics-server-failed", log.Fields{"address": addr, "error": err})
			}
		}()
	}
	return ctx, s, nil
}

func (s *services) installer(ctx context.Context, w installer.DeviceWriter) *installer.Installer {
	probe.UpdateStatusFromContext(ctx, serviceInstaller, probe.ServiceStatusRunning)
	return installer.NewInstaller(s.translator, w)
}

func (s *services) stop(ctx context.Context) {
	probe.UpdateStatusFromContext(ctx, serviceTranslator, probe.ServiceStatusStopped)
	probe.UpdateStatusFromContext(ctx, serviceInstaller, probe.ServiceStatusStopped)
	if s.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := s.metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warnw(ctx, "metrics-server-shutdown-failed", log.Fields{"error": err})
		}
	}
}
