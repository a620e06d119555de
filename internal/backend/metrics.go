/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"opsdash/internal/layout"
)

var (
	metricOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdash",
		Subsystem: "layout",
		Name:      "operations_total",
		Help:      "Layout controller operations by name and outcome.",
	}, []string{"op", "outcome"})
	metricNotices = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdash",
		Subsystem: "layout",
		Name:      "notices_total",
		Help:      "User-facing layout notices by kind.",
	}, []string{"kind"})
	metricControllers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "opsdash",
		Subsystem: "layout",
		Name:      "controllers_active",
		Help:      "Number of per-user layout controllers held in memory.",
	})
)

// metricsObserver counts controller operations.
var metricsObserver = layout.ObserverFunc(func(op, outcome string) {
	metricOperations.WithLabelValues(op, outcome).Inc()
})

// metricsNotifier counts notices by kind.
var metricsNotifier = layout.NotifierFunc(func(n layout.Notice) {
	metricNotices.WithLabelValues(string(n.Kind)).Inc()
})
