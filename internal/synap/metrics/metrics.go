// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes process-wide Prometheus series for the node:
// command throughput and latency through the dispatcher, and periodic
// gauge samples of each engine's size (key count, queue depth, stream
// backlog, subscriber count). Per-engine packages (pubsub, replication)
// register their own narrowly-scoped counters directly; this package
// covers the cross-cutting, dispatcher-level and node-level series.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	commandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "synap_commands_total",
		Help: "Total commands handled by the dispatcher, by command and outcome",
	}, []string{"command", "outcome"})

	commandDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "synap_command_duration_seconds",
		Help:    "Command handling latency in seconds, by command",
		Buckets: prometheus.DefBuckets,
	}, []string{"command"})

	admissionRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "synap_admission_rejected_total",
		Help: "Total requests rejected by admission control before dispatch",
	})

	idempotentHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "synap_idempotent_cache_hits_total",
		Help: "Total requests served from the idempotency cache instead of re-executing",
	})

	kvKeysGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "synap_kv_keys",
		Help: "Number of live keys currently held by the KV engine",
	})

	queueDepthGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "synap_queue_depth",
		Help: "Pending, in-flight and dead-lettered message counts, by queue and state",
	}, []string{"queue", "state"})

	streamBacklogGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "synap_stream_partition_offset",
		Help: "Next write offset of a stream partition, by room and partition",
	}, []string{"room", "partition"})

	pubsubSubscribersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "synap_pubsub_subscribers",
		Help: "Number of distinct pub/sub subscriber ids with at least one active pattern",
	})
)

func init() {
	prometheus.MustRegister(
		commandsTotal,
		commandDuration,
		admissionRejectedTotal,
		idempotentHitsTotal,
		kvKeysGauge,
		queueDepthGauge,
		streamBacklogGauge,
		pubsubSubscribersGauge,
	)
}

// ObserveCommand records one command's outcome and latency. Call it once
// per dispatched request, success or failure.
func ObserveCommand(command string, success bool, d time.Duration) {
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	commandsTotal.WithLabelValues(command, outcome).Inc()
	commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// ObserveAdmissionRejected increments the admission-control rejection
// counter. Call it whenever a request is turned away before reaching the
// command registry.
func ObserveAdmissionRejected() {
	admissionRejectedTotal.Inc()
}

// ObserveIdempotentHit increments the idempotency-cache hit counter.
// Call it whenever a request id is served from cache instead of
// re-executing its handler.
func ObserveIdempotentHit() {
	idempotentHitsTotal.Inc()
}
