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

import "synap/internal/synap/wal"

// Apply implements wal.Applier, replaying a single stream record during
// recovery.
func (m *Manager) Apply(rec *wal.Record) error {
	if rec.Kind != wal.OpStreamPublish {
		return nil
	}
	r := m.CreateRoom(rec.Room, m.opts.DefaultPartitions)
	if rec.Partition >= r.partitionCount() {
		r = m.growRoom(rec.Room, rec.Partition+1)
	}
	_, err := r.partitions[rec.Partition].append(Event{
		Key: rec.Key, EventType: rec.EventType, Payload: rec.Payload,
		Headers: rec.Headers, Timestamp: rec.Timestamp,
	}, nil)
	return err
}

// growRoom extends an existing room to have at least n partitions; used
// only during replay when a snapshot hasn't been taken yet and the room
// was first seen with fewer partitions than the log ultimately used.
func (m *Manager) growRoom(name string, n int) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.rooms[name]
	for len(r.partitions) < n {
		r.partitions = append(r.partitions, &partition{})
	}
	return r
}
