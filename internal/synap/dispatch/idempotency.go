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

package dispatch

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// idempotentCommands are the ones whose effect is safe to cache and
// replay verbatim for a repeated request_id. Commands that mutate state
// in a way a blind replay would double-apply (kv.incr, queue.publish,
// stream.publish) are deliberately absent.
var idempotentCommands = map[string]bool{
	"kv.set":     true,
	"kv.del":     true,
	"queue.ack":  true,
	"queue.nack": true,
}

// idempotencyCache caches Response by request_id so a duplicate delivery
// of an idempotent command returns the original result instead of
// re-executing.
type idempotencyCache struct {
	cache *expirable.LRU[string, Response]
}

func newIdempotencyCache(size int, ttl time.Duration) *idempotencyCache {
	return &idempotencyCache{cache: expirable.NewLRU[string, Response](size, nil, ttl)}
}

func (c *idempotencyCache) get(requestID string) (Response, bool) {
	return c.cache.Get(requestID)
}

func (c *idempotencyCache) put(requestID string, resp Response) {
	c.cache.Add(requestID, resp)
}
