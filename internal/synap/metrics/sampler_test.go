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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"synap/internal/synap/kv"
	"synap/internal/synap/pubsub"
	"synap/internal/synap/queue"
	"synap/internal/synap/stream"
)

func TestSampleOnceUpdatesGauges(t *testing.T) {
	kvStore := kv.NewStore(kv.Options{}, nil)
	defer kvStore.Close()
	_, err := kvStore.Set("a", []byte("1"), 0, false, false)
	require.NoError(t, err)
	_, err = kvStore.Set("b", []byte("2"), 0, false, false)
	require.NoError(t, err)

	queueMgr := queue.NewManager(queue.Options{}, nil)
	defer queueMgr.Close()
	require.NoError(t, queueMgr.Create("jobs"))
	_, err = queueMgr.Publish("jobs", []byte("x"), 0, 3)
	require.NoError(t, err)

	streamMgr := stream.NewManager(stream.Options{}, nil)
	defer streamMgr.Close()
	streamMgr.CreateRoom("events", 1)
	_, _, err = streamMgr.Publish("events", "k", "created", []byte("e"), nil)
	require.NoError(t, err)

	router := pubsub.NewRouter(pubsub.Options{})
	router.Subscribe("s1", "orders.*")

	sampler := NewSampler(kvStore, queueMgr, streamMgr, router, time.Second)
	sampler.sampleOnce()

	require.Equal(t, float64(2), testutil.ToFloat64(kvKeysGauge))
	require.Equal(t, float64(1), testutil.ToFloat64(queueDepthGauge.WithLabelValues("jobs", "pending")))
	require.Equal(t, float64(1), testutil.ToFloat64(streamBacklogGauge.WithLabelValues("events", "0")))
	require.Equal(t, float64(1), testutil.ToFloat64(pubsubSubscribersGauge))
}

func TestObserveCommandRecordsOutcome(t *testing.T) {
	before := testutil.ToFloat64(commandsTotal.WithLabelValues("kv.set", "ok"))
	ObserveCommand("kv.set", true, 10*time.Millisecond)
	after := testutil.ToFloat64(commandsTotal.WithLabelValues("kv.set", "ok"))
	require.Equal(t, before+1, after)
}
