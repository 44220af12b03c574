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
	"container/heap"

	"synap/internal/synap/wal"
)

// Apply implements wal.Applier, replaying a single queue record during
// recovery.
func (m *Manager) Apply(rec *wal.Record) error {
	switch rec.Kind {
	case wal.OpQueuePublish:
		q := m.queueFor(rec.Queue, true)
		q.mu.Lock()
		heap.Push(&q.pending, &Message{
			ID: rec.MessageID, Queue: rec.Queue, Payload: rec.Payload,
			Priority: rec.Priority, EnqueuedAt: rec.EnqueuedAt, MaxRetries: rec.MaxRetries,
		})
		q.mu.Unlock()

	case wal.OpQueueAck:
		if q := m.queueFor(rec.Queue, false); q != nil {
			q.removeByID(rec.MessageID)
		}

	case wal.OpQueueNack:
		if q := m.queueFor(rec.Queue, false); q != nil {
			if msg, ok := q.removeByID(rec.MessageID); ok {
				msg.Retries++
				q.mu.Lock()
				if rec.Requeue && msg.Retries < msg.MaxRetries {
					heap.Push(&q.pending, msg)
				} else {
					q.dlq = append(q.dlq, msg)
				}
				q.mu.Unlock()
			}
		}
	}
	return nil
}
