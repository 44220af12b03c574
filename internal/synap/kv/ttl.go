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

package kv

import (
	"math/rand"
	"time"
)

// ttlSweepSample is how many keys the sweeper inspects per shard, per
// tick — a bounded sample rather than a full scan, so the sweeper's cost
// does not grow with shard size.
const ttlSweepSample = 20

// sweepLoop periodically scans a random sample of keys in each shard and
// reclaims the ones that have expired. Lazy expiry on
// the read path covers keys the sample misses between ticks.
func (s *Store) sweepLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.opts.TTLSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Store) sweepOnce() {
	now := time.Now()
	for _, sh := range s.shards {
		sh.mu.Lock()
		if len(sh.data) == 0 {
			sh.mu.Unlock()
			continue
		}
		sampled := 0
		for key, e := range sh.data {
			if sampled >= ttlSweepSample {
				break
			}
			sampled++
			if e.expired(now) {
				sz := entrySize(key, e)
				delete(sh.data, key)
				s.evictor.forget(key, sz)
			}
		}
		sh.mu.Unlock()
	}
}

// jitter spreads sweep start times across shards when many Stores share
// a process (tests spin up several); not load-bearing, just avoids a
// thundering-herd tick across instances started in the same call.
func jitter(base time.Duration) time.Duration {
	n := int64(base) / 10
	if n <= 0 {
		return base
	}
	return base + time.Duration(rand.Int63n(n))
}
