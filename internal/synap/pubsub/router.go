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

// Package pubsub implements a hierarchical topic router: subscribers
// register dot-segmented patterns with "*" and "#" wildcards, and a
// publish fans out to every matching, currently-connected subscriber.
// Delivery is best-effort and unpersisted.
package pubsub

import (
	"sync"
	"time"
)

const DefaultSinkBufferSize = 64

// Options configures a Router.
type Options struct {
	// SinkBufferSize bounds each subscriber's delivery channel.
	SinkBufferSize int
	// BlockOnFull delivers by blocking the publisher when a sink is
	// full instead of dropping; off by default.
	BlockOnFull bool
}

func (o Options) withDefaults() Options {
	if o.SinkBufferSize <= 0 {
		o.SinkBufferSize = DefaultSinkBufferSize
	}
	return o
}

// Router matches published topics against subscriber patterns and
// delivers to each subscriber's sink channel at most once per publish.
type Router struct {
	opts Options

	mu       sync.RWMutex
	root     *trieNode
	sinks    map[string]chan Message    // subscriber id -> delivery channel
	patterns map[string]map[string]bool // subscriber id -> set of patterns held
}

// NewRouter builds an empty Router.
func NewRouter(opts Options) *Router {
	return &Router{
		opts:     opts.withDefaults(),
		root:     newTrieNode(),
		sinks:    make(map[string]chan Message),
		patterns: make(map[string]map[string]bool),
	}
}

// Subscribe registers subscriberID for pattern and returns the channel
// it will receive matching messages on. Calling Subscribe again for the
// same subscriberID, with a different pattern, reuses the same channel.
func (r *Router) Subscribe(subscriberID, pattern string) chan Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	sink, ok := r.sinks[subscriberID]
	if !ok {
		sink = make(chan Message, r.opts.SinkBufferSize)
		r.sinks[subscriberID] = sink
		r.patterns[subscriberID] = make(map[string]bool)
	}
	if r.patterns[subscriberID][pattern] {
		return sink
	}
	r.patterns[subscriberID][pattern] = true
	r.root.insert(pattern, &Subscription{SubscriberID: subscriberID, Pattern: pattern, Sink: sink})
	return sink
}

// Unsubscribe removes one pattern for subscriberID. If that was the
// subscriber's last pattern, its sink is closed and removed.
func (r *Router) Unsubscribe(subscriberID, pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pats, ok := r.patterns[subscriberID]
	if !ok || !pats[pattern] {
		return
	}
	r.root.remove(pattern, subscriberID)
	delete(pats, pattern)
	if len(pats) == 0 {
		delete(r.patterns, subscriberID)
		if sink, ok := r.sinks[subscriberID]; ok {
			close(sink)
			delete(r.sinks, subscriberID)
		}
	}
}

// UnsubscribeAll removes every pattern held by subscriberID and closes
// its sink.
func (r *Router) UnsubscribeAll(subscriberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pats, ok := r.patterns[subscriberID]
	if !ok {
		return
	}
	for pattern := range pats {
		r.root.remove(pattern, subscriberID)
	}
	delete(r.patterns, subscriberID)
	if sink, ok := r.sinks[subscriberID]; ok {
		close(sink)
		delete(r.sinks, subscriberID)
	}
}

// SubscriberCount returns the number of distinct subscriber ids with at
// least one active pattern.
func (r *Router) SubscriberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patterns)
}

// Publish delivers payload to every subscriber whose pattern matches
// topic and returns how many subscribers were reached. A subscriber
// reached through more than one matching pattern is still counted, and
// delivered to, exactly once.
func (r *Router) Publish(topic string, payload []byte) int {
	msg := Message{Topic: topic, Payload: payload, Timestamp: time.Now()}

	r.mu.RLock()
	matched := make(map[string]*Subscription)
	r.root.match(splitTopic(topic), matched)
	r.mu.RUnlock()

	reached := 0
	for _, sub := range matched {
		if r.deliver(sub.Sink, msg) {
			reached++
		}
	}
	return reached
}

func (r *Router) deliver(sink chan Message, msg Message) bool {
	if r.opts.BlockOnFull {
		sink <- msg
		return true
	}
	select {
	case sink <- msg:
		return true
	default:
		droppedTotal.Inc()
		return false
	}
}
