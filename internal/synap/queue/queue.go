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
	"sync"
	"time"

	"synap/internal/synap/errs"
)

// DefaultVisibilityTimeout is how long a consumed message stays
// reserved before the sweeper returns it to pending (if retries remain)
// or the DLQ (if not).
const DefaultVisibilityTimeout = 30 * time.Second

// queueState is one named queue's pending/in-flight/DLQ state, each
// message accounted for in exactly one of the three at any instant.
type queueState struct {
	mu        sync.Mutex
	name      string
	maxDepth  int
	pending   pendingHeap
	inFlight  map[string]*inFlight
	dlq       []*Message
}

func newQueueState(name string, maxDepth int) *queueState {
	return &queueState{
		name:     name,
		maxDepth: maxDepth,
		inFlight: make(map[string]*inFlight),
	}
}

// depth is the total number of messages the queue is responsible for,
// across pending and in-flight (the DLQ is a separate, unbounded sink).
func (q *queueState) depth() int {
	return len(q.pending) + len(q.inFlight)
}

func (q *queueState) publish(msg *Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.maxDepth > 0 && q.depth() >= q.maxDepth {
		return errs.New(errs.QueueFull, "queue %q is at its max depth of %d", q.name, q.maxDepth)
	}
	heap.Push(&q.pending, msg)
	return nil
}

func (q *queueState) consume(visibility time.Duration) (*Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, false
	}
	msg := heap.Pop(&q.pending).(*Message)
	q.inFlight[msg.ID] = &inFlight{msg: msg, deadline: time.Now().Add(visibility)}
	return msg, true
}

func (q *queueState) ack(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.inFlight[id]; !ok {
		return false
	}
	delete(q.inFlight, id)
	return true
}

// nack returns a message to pending (if requeue and retries remain) or
// to the DLQ otherwise. It reports which outcome occurred.
func (q *queueState) nack(id string, requeue bool) (requeued, deadLettered bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	inf, ok := q.inFlight[id]
	if !ok {
		return false, false
	}
	delete(q.inFlight, id)
	msg := inf.msg
	msg.Retries++

	if requeue && msg.Retries < msg.MaxRetries {
		heap.Push(&q.pending, msg)
		return true, false
	}
	q.dlq = append(q.dlq, msg)
	return false, true
}

// sweepExpired moves every in-flight message whose deadline has passed
// back to pending or the DLQ, exactly as nack(requeue=true) would.
func (q *queueState) sweepExpired(now time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, inf := range q.inFlight {
		if now.Before(inf.deadline) {
			continue
		}
		delete(q.inFlight, id)
		inf.msg.Retries++
		if inf.msg.Retries < inf.msg.MaxRetries {
			heap.Push(&q.pending, inf.msg)
		} else {
			q.dlq = append(q.dlq, inf.msg)
		}
	}
}

// removeByID drops a message wherever it currently lives (pending or
// in-flight). Used during WAL replay, where consume checkouts are never
// logged, so an acked or nacked message may still be sitting in
// pending rather than in-flight at the point its ack/nack record is
// replayed.
func (q *queueState) removeByID(id string) (*Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if inf, ok := q.inFlight[id]; ok {
		delete(q.inFlight, id)
		return inf.msg, true
	}
	for i, msg := range q.pending {
		if msg.ID == id {
			heap.Remove(&q.pending, i)
			return msg, true
		}
	}
	return nil, false
}

func (q *queueState) snapshot() []*Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	all := make([]*Message, 0, len(q.pending)+len(q.inFlight)+len(q.dlq))
	all = append(all, q.pending...)
	for _, inf := range q.inFlight {
		all = append(all, inf.msg)
	}
	all = append(all, q.dlq...)
	return all
}
