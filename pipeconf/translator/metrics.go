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

package translator

import (
	"context"

	"github.com/opencord/vxlan-pipeconf/pipeconf/extension"
	"github.com/prometheus/client_golang/prometheus"
)

// Translation kinds used as the "kind" label
const (
	KindFlowRule  = "flow-rule"
	KindPacketOut = "packet-out"
	KindPacketIn  = "packet-in"
)

// Translation results used as the "result" label
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the translation counters. A nil *Metrics counts nothing.
type Metrics struct {
	Translations      *prometheus.CounterVec
	ExtensionsSkipped *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them on reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Translations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeconf_translations_total",
				Help: "Number of flow rules and packets translated, by kind and result.",
			},
			[]string{"kind", "result"},
		),
		ExtensionsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeconf_extension_skipped_total",
				Help: "Number of extension instructions dropped from a treatment, by extension type.",
			},
			[]string{"type"},
		),
	}
	for _, c := range []prometheus.Collector{m.Translations, m.ExtensionsSkipped} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(kind string, err error) {
	if m == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.Translations.WithLabelValues(kind, result).Inc()
}

// ExtensionSkipped counts a skipped extension instruction.
// Its signature matches interpreter.SkipHook.
func (m *Metrics) ExtensionSkipped(_ context.Context, t extension.Type, _ error) {
	if m == nil {
		return
	}
	m.ExtensionsSkipped.WithLabelValues(t.String()).Inc()
}
