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

package metrics

import (
	"strconv"
	"time"

	"synap/internal/synap/kv"
	"synap/internal/synap/pubsub"
	"synap/internal/synap/queue"
	"synap/internal/synap/stream"
)

// Sampler periodically reads engine sizes and publishes them as gauges.
// It is a ticker-driven background loop, not a hot-path instrumentation
// point: ObserveCommand and friends are called directly by the
// dispatcher, but gauges like queue depth are cheap to sample every few
// seconds instead of updating on every Publish/Consume call.
type Sampler struct {
	kv     *kv.Store
	queue  *queue.Manager
	stream *stream.Manager
	pubsub *pubsub.Router

	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSampler builds a Sampler over the given engines. Any of them may be
// nil, in which case that engine's gauges are simply never updated.
func NewSampler(kvStore *kv.Store, queueMgr *queue.Manager, streamMgr *stream.Manager, router *pubsub.Router, interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Sampler{
		kv:       kvStore,
		queue:    queueMgr,
		stream:   streamMgr,
		pubsub:   router,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the sampling loop in a background goroutine until Stop is
// called.
func (s *Sampler) Start() {
	go s.loop()
}

// Stop halts the sampling loop and waits for it to exit.
func (s *Sampler) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Sampler) loop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sampleOnce()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Sampler) sampleOnce() {
	if s.kv != nil {
		kvKeysGauge.Set(float64(s.kv.KeyCount()))
	}
	if s.queue != nil {
		for _, name := range s.queue.List() {
			st, err := s.queue.Stats(name)
			if err != nil {
				continue
			}
			queueDepthGauge.WithLabelValues(name, "pending").Set(float64(st.Pending))
			queueDepthGauge.WithLabelValues(name, "in_flight").Set(float64(st.InFlight))
			queueDepthGauge.WithLabelValues(name, "dlq").Set(float64(st.DLQ))
		}
	}
	if s.stream != nil {
		for _, room := range s.stream.ListRooms() {
			st, err := s.stream.Stats(room)
			if err != nil {
				continue
			}
			for partIdx, p := range st.Partitions {
				streamBacklogGauge.WithLabelValues(room, strconv.Itoa(partIdx)).Set(float64(p.NextOffset))
			}
		}
	}
	if s.pubsub != nil {
		pubsubSubscribersGauge.Set(float64(s.pubsub.SubscriberCount()))
	}
}
