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
	"time"
)

// ShardCount is the fixed number of independent shards the key space is
// partitioned into.
const ShardCount = 64

// shard owns an independent map and lock; it is the unit of concurrency
// for the KV engine.
type shard struct {
	mu   sync.RWMutex
	data map[string]*entry
}

func newShard() *shard {
	return &shard{data: make(map[string]*entry)}
}

// getLive returns the entry for key if present and not expired. It does
// not remove expired entries itself (callers that hold a write lock do
// that); read-only callers rely on the TTL sweeper to eventually reclaim
// the slot (expired entries are treated as absent everywhere else).
func (s *shard) getLive(key string, now time.Time) (*entry, bool) {
	e, ok := s.data[key]
	if !ok || e.expired(now) {
		return nil, false
	}
	return e, true
}

// deleteIfExpired removes key if its entry is expired. Must be called
// under a write lock. Returns true if it removed something.
func (s *shard) deleteIfExpired(key string, now time.Time) bool {
	e, ok := s.data[key]
	if ok && e.expired(now) {
		delete(s.data, key)
		return true
	}
	return false
}

// lockMany locks shards in ascending index order to avoid deadlocks on
// multi-key operations. Callers must supply shards already
// sorted and de-duplicated by shard index (Store.shardsFor does this).
func lockMany(shards []*shard) func() {
	for _, s := range shards {
		s.mu.Lock()
	}
	return func() {
		for i := len(shards) - 1; i >= 0; i-- {
			shards[i].mu.Unlock()
		}
	}
}
