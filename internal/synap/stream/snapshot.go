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
	"bytes"
	"encoding/gob"
	"fmt"
)

type partitionSnapshot struct {
	MinOffset  int64
	NextOffset int64
	Events     []Event
}

type roomSnapshot struct {
	Name       string
	Partitions []partitionSnapshot
}

// SnapshotState implements wal.Snapshottable. Consumer group membership
// and assignment are intentionally excluded: group state is ephemeral
// session bookkeeping, rebuilt from scratch as consumers rejoin after a
// restart, matching how the group protocol already handles any consumer
// disappearing and reappearing.
func (m *Manager) SnapshotState() ([]byte, error) {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	snaps := make([]roomSnapshot, len(rooms))
	for i, r := range rooms {
		rs := roomSnapshot{Name: r.Name}
		for _, p := range r.partitions {
			p.mu.RLock()
			rs.Partitions = append(rs.Partitions, partitionSnapshot{
				MinOffset:  p.minOffset,
				NextOffset: p.nextOffset,
				Events:     append([]Event(nil), p.events...),
			})
			p.mu.RUnlock()
		}
		snaps[i] = rs
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snaps); err != nil {
		return nil, fmt.Errorf("stream: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadSnapshotState implements wal.Snapshottable.
func (m *Manager) LoadSnapshotState(body []byte) error {
	var snaps []roomSnapshot
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&snaps); err != nil {
		return fmt.Errorf("stream: decode snapshot: %w", err)
	}
	m.mu.Lock()
	m.rooms = make(map[string]*Room, len(snaps))
	for _, rs := range snaps {
		r := newRoom(rs.Name, len(rs.Partitions))
		for i, ps := range rs.Partitions {
			r.partitions[i] = &partition{
				minOffset:  ps.MinOffset,
				nextOffset: ps.NextOffset,
				events:     ps.Events,
			}
		}
		m.rooms[rs.Name] = r
	}
	m.mu.Unlock()
	return nil
}
