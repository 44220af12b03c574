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

package stream

import (
	"sync"

	"synap/pkg/ring"
)

// partition is one append-only log within a room. minOffset is the
// lowest offset still retained; events before it have been pruned.
type partition struct {
	mu        sync.RWMutex
	events    []Event
	nextOffset int64
	minOffset  int64
}

// append assigns ev the next offset and stores it. If walFn is non-nil it
// runs while the partition lock is still held, so concurrent publishes to
// the same partition always produce WAL records in the same order as the
// offsets they describe.
func (p *partition) append(ev Event, walFn func(offset int64) error) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ev.Offset = p.nextOffset
	p.events = append(p.events, ev)
	p.nextOffset++
	if walFn != nil {
		if err := walFn(ev.Offset); err != nil {
			return ev.Offset, err
		}
	}
	return ev.Offset, nil
}

// read returns up to limit events starting at or after fromOffset.
func (p *partition) read(fromOffset int64, limit int) []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if fromOffset < p.minOffset {
		fromOffset = p.minOffset
	}
	start := int(fromOffset - p.minOffset)
	if start < 0 || start >= len(p.events) {
		return nil
	}
	end := start + limit
	if end > len(p.events) {
		end = len(p.events)
	}
	out := make([]Event, end-start)
	copy(out, p.events[start:end])
	return out
}

// pruneBefore drops events with offset < keepFrom, advancing minOffset.
func (p *partition) pruneBefore(keepFrom int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if keepFrom <= p.minOffset {
		return
	}
	if keepFrom > p.nextOffset {
		keepFrom = p.nextOffset
	}
	cut := int(keepFrom - p.minOffset)
	if cut > len(p.events) {
		cut = len(p.events)
	}
	p.events = append([]Event(nil), p.events[cut:]...)
	p.minOffset = keepFrom
}

// Room is a named partitioned event stream with zero or more consumer
// groups reading from it.
type Room struct {
	Name       string
	mu         sync.RWMutex
	partitions []*partition
	router     *ring.Router
	groups     map[string]*ConsumerGroup
}

func newRoom(name string, partitionCount int) *Room {
	r := &Room{
		Name:       name,
		partitions: make([]*partition, partitionCount),
		router:     ring.New(partitionCount),
		groups:     make(map[string]*ConsumerGroup),
	}
	for i := range r.partitions {
		r.partitions[i] = &partition{}
	}
	return r
}

func (r *Room) partitionCount() int { return len(r.partitions) }

// PartitionOffsets is a read-only view of one partition's bounds.
type PartitionOffsets struct {
	MinOffset  int64
	NextOffset int64
}

func (p *partition) offsets() PartitionOffsets {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PartitionOffsets{MinOffset: p.minOffset, NextOffset: p.nextOffset}
}

// routePartition picks a destination partition for key via rendezvous
// hashing. An empty key lands on a fixed partition, same as any other
// key value; producers that want spread across partitions should vary
// the key themselves.
func (r *Room) routePartition(key string) int {
	return r.router.Route(key)
}
