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
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// EvictionPolicy selects what happens when the store exceeds its memory
// budget. NoEviction leaves the budget advisory only: writes keep
// succeeding and MEMORY_LIMIT_EXCEEDED is never raised by the evictor
// (callers may still enforce a hard cap at admission time).
type EvictionPolicy string

const (
	NoEviction  EvictionPolicy = "none"
	EvictLRU    EvictionPolicy = "lru"
	EvictLFU    EvictionPolicy = "lfu"
)

// evictor tracks approximate memory usage and reclaims keys once the
// configured budget is exceeded. Recency for the LRU policy is exact,
// via hashicorp/golang-lru, decoupled from the LRU cache's own capacity
// bound (that bound is set high and RemoveOldest is called manually —
// the cache here is a pure recency tracker, not itself the store of
// record). LFU uses a sampled approximation, matching the deliberate
// trade-off for bounding memory under pressure without an exact index.
type evictor struct {
	policy   EvictionPolicy
	budget   int64
	approx   atomic.Int64
	onEvict  func(key string)

	recency *lru.Cache[string, struct{}]

	lfuMu   sync.Mutex
	lfuFreq map[string]int64
}

// recencyTrackerCapacity bounds the exact-LRU tracker well above any
// realistic working set so its own eviction never fires; the evictor
// decides when to reclaim, the tracker only orders candidates.
const recencyTrackerCapacity = 1 << 20

func newEvictor(policy EvictionPolicy, budgetBytes int64, onEvict func(key string)) *evictor {
	ev := &evictor{policy: policy, budget: budgetBytes, onEvict: onEvict}
	if policy == EvictLRU {
		c, _ := lru.New[string, struct{}](recencyTrackerCapacity)
		ev.recency = c
	}
	if policy == EvictLFU {
		ev.lfuFreq = make(map[string]int64)
	}
	return ev
}

// touch records an access to key for recency/frequency purposes and
// charges or discharges delta bytes against the running total.
func (ev *evictor) touch(key string, delta int64) {
	if delta != 0 {
		ev.approx.Add(delta)
	}
	switch ev.policy {
	case EvictLRU:
		ev.recency.Add(key, struct{}{})
	case EvictLFU:
		ev.lfuMu.Lock()
		ev.lfuFreq[key]++
		ev.lfuMu.Unlock()
	}
}

// forget drops bookkeeping for a key that was deleted directly (not via
// eviction), e.g. DEL or expiry.
func (ev *evictor) forget(key string, size int64) {
	ev.approx.Add(-size)
	switch ev.policy {
	case EvictLRU:
		ev.recency.Remove(key)
	case EvictLFU:
		ev.lfuMu.Lock()
		delete(ev.lfuFreq, key)
		ev.lfuMu.Unlock()
	}
}

// maybeEvict reclaims keys one at a time while usage exceeds budget,
// calling onEvict (which removes the key from its owning shard) for
// each. It returns the number of keys evicted.
func (ev *evictor) maybeEvict() int {
	if ev.policy == NoEviction || ev.budget <= 0 {
		return 0
	}
	evicted := 0
	for ev.approx.Load() > ev.budget {
		key, ok := ev.evictOne()
		if !ok {
			break
		}
		ev.onEvict(key)
		evicted++
	}
	return evicted
}

func (ev *evictor) evictOne() (string, bool) {
	switch ev.policy {
	case EvictLRU:
		key, _, ok := ev.recency.RemoveOldest()
		return key, ok
	case EvictLFU:
		return ev.sampleLFUVictim()
	default:
		return "", false
	}
}

// sampleLFUVictim samples a handful of tracked keys and evicts the one
// with the lowest access count, an approximate LFU in the style of
// Redis's own sampled eviction rather than maintaining an exact
// frequency-ordered structure.
const lfuSampleSize = 5

func (ev *evictor) sampleLFUVictim() (string, bool) {
	ev.lfuMu.Lock()
	defer ev.lfuMu.Unlock()
	if len(ev.lfuFreq) == 0 {
		return "", false
	}
	best := ""
	bestFreq := int64(-1)
	sampled := 0
	for k, f := range ev.lfuFreq {
		sampled++
		if bestFreq == -1 || f < bestFreq {
			best, bestFreq = k, f
		}
		if sampled >= lfuSampleSize {
			break
		}
	}
	delete(ev.lfuFreq, best)
	return best, true
}
