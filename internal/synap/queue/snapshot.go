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

package queue

import (
	"bytes"
	"container/heap"
	"encoding/gob"
	"fmt"
)

type queueSnapshot struct {
	Name     string
	MaxDepth int
	Pending  []*Message
	InFlight []*Message
	DLQ      []*Message
}

// SnapshotState implements wal.Snapshottable.
func (m *Manager) SnapshotState() ([]byte, error) {
	m.mu.RLock()
	names := make([]string, 0, len(m.queues))
	queues := make([]*queueState, 0, len(m.queues))
	for name, q := range m.queues {
		names = append(names, name)
		queues = append(queues, q)
	}
	m.mu.RUnlock()

	snaps := make([]queueSnapshot, len(names))
	for i, q := range queues {
		q.mu.Lock()
		snaps[i] = queueSnapshot{
			Name:     names[i],
			MaxDepth: q.maxDepth,
			Pending:  append([]*Message(nil), q.pending...),
			DLQ:      append([]*Message(nil), q.dlq...),
		}
		for _, inf := range q.inFlight {
			snaps[i].InFlight = append(snaps[i].InFlight, inf.msg)
		}
		q.mu.Unlock()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snaps); err != nil {
		return nil, fmt.Errorf("queue: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadSnapshotState implements wal.Snapshottable. In-flight messages in
// the snapshot become pending again on load: their visibility deadline
// is meaningless once reloaded into a new process.
func (m *Manager) LoadSnapshotState(body []byte) error {
	var snaps []queueSnapshot
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&snaps); err != nil {
		return fmt.Errorf("queue: decode snapshot: %w", err)
	}
	m.mu.Lock()
	m.queues = make(map[string]*queueState, len(snaps))
	for _, snap := range snaps {
		q := newQueueState(snap.Name, snap.MaxDepth)
		for _, msg := range snap.Pending {
			heap.Push(&q.pending, msg)
		}
		for _, msg := range snap.InFlight {
			heap.Push(&q.pending, msg)
		}
		q.dlq = snap.DLQ
		m.queues[snap.Name] = q
	}
	m.mu.Unlock()
	return nil
}
