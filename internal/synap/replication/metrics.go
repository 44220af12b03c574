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

package replication

import "github.com/prometheus/client_golang/prometheus"

var (
	replicaOperationsLag = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "synap_replica_operations_lag",
		Help: "master_offset - replica_offset for each connected replica",
	}, []string{"replica_id"})
	replicaTimeLagMs = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "synap_replica_time_lag_ms",
		Help: "Milliseconds between now and the commit time of the replica's next unapplied record",
	}, []string{"replica_id"})
	mirrorErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "synap_mirror_errors_total",
		Help: "Total mirror sink apply failures",
	})
)

func init() {
	prometheus.MustRegister(replicaOperationsLag, replicaTimeLagMs, mirrorErrorsTotal)
}

// reportLag publishes replicaID's current lag to Prometheus; called
// wherever Lag is computed so the gauges stay fresh without a separate
// export loop.
func reportLag(replicaID string, stats LagStats) {
	replicaOperationsLag.WithLabelValues(replicaID).Set(float64(stats.OperationsLag))
	replicaTimeLagMs.WithLabelValues(replicaID).Set(float64(stats.TimeLagMs))
}
