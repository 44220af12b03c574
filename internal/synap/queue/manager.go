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
	"sync"
	"time"

	"github.com/google/uuid"

	"synap/internal/synap/errs"
	"synap/internal/synap/wal"
)

// Options configures a Manager.
type Options struct {
	DefaultMaxDepth  int
	VisibilityTimeout time.Duration
	SweepInterval     time.Duration

	// MaxPayloadBytes bounds a published message's payload size. Zero
	// means unbounded.
	MaxPayloadBytes int
}

func (o Options) withDefaults() Options {
	if o.VisibilityTimeout <= 0 {
		o.VisibilityTimeout = DefaultVisibilityTimeout
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Second
	}
	return o
}

// Manager owns every named queue in the process.
type Manager struct {
	opts Options
	log  *wal.Log

	mu     sync.RWMutex
	queues map[string]*queueState

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewManager builds a Manager. log may be nil for durability-free tests.
func NewManager(opts Options, log *wal.Log) *Manager {
	m := &Manager{
		opts:   opts.withDefaults(),
		log:    log,
		queues: make(map[string]*queueState),
		stopCh: make(chan struct{}),
	}
	m.wg.Add(1)
	go m.sweepLoop()
	return m
}

// Close stops the Manager's background sweeper.
func (m *Manager) Close() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Manager) queueFor(name string, create bool) *queueState {
	m.mu.RLock()
	q, ok := m.queues[name]
	m.mu.RUnlock()
	if ok || !create {
		return q
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[name]; ok {
		return q
	}
	q = newQueueState(name, m.opts.DefaultMaxDepth)
	m.queues[name] = q
	return q
}

// Publish enqueues payload on queue with the given priority (higher
// values are served first) and maxRetries before a redelivery goes to
// the DLQ instead. It returns the new message's id.
func (m *Manager) Publish(queueName string, payload []byte, priority uint8, maxRetries uint32) (string, error) {
	if m.opts.MaxPayloadBytes > 0 && len(payload) > m.opts.MaxPayloadBytes {
		return "", errs.New(errs.PayloadTooLarge, "payload for queue %q is %d bytes, exceeds limit of %d", queueName, len(payload), m.opts.MaxPayloadBytes)
	}
	q := m.queueFor(queueName, true)
	msg := &Message{
		ID:         uuid.NewString(),
		Queue:      queueName,
		Payload:    payload,
		Priority:   priority,
		EnqueuedAt: time.Now(),
		MaxRetries: maxRetries,
	}
	if err := q.publish(msg); err != nil {
		return "", err
	}
	rec := &wal.Record{
		Kind: wal.OpQueuePublish, Queue: queueName, MessageID: msg.ID,
		Payload: payload, Priority: priority, MaxRetries: maxRetries, EnqueuedAt: msg.EnqueuedAt,
	}
	return msg.ID, m.appendWAL(rec)
}

// Consume checks out the next eligible message from queue for up to the
// Manager's configured visibility timeout.
func (m *Manager) Consume(queueName string) (*Message, error) {
	q := m.queueFor(queueName, false)
	if q == nil {
		return nil, errs.New(errs.QueueNotFound, "queue %q not found", queueName)
	}
	msg, ok := q.consume(m.opts.VisibilityTimeout)
	if !ok {
		return nil, nil
	}
	return msg, nil
}

// Ack acknowledges successful processing of id on queue, removing it
// permanently.
func (m *Manager) Ack(queueName, id string) error {
	q := m.queueFor(queueName, false)
	if q == nil {
		return errs.New(errs.QueueNotFound, "queue %q not found", queueName)
	}
	if !q.ack(id) {
		return errs.New(errs.MessageNotFound, "message %q not in flight on queue %q", id, queueName)
	}
	return m.appendWAL(&wal.Record{Kind: wal.OpQueueAck, Queue: queueName, MessageID: id})
}

// Nack negatively acknowledges id on queue. If requeue is true and
// retries remain, the message returns to pending; otherwise it moves to
// the DLQ immediately, even with retries remaining.
func (m *Manager) Nack(queueName, id string, requeue bool) error {
	q := m.queueFor(queueName, false)
	if q == nil {
		return errs.New(errs.QueueNotFound, "queue %q not found", queueName)
	}
	requeued, deadLettered := q.nack(id, requeue)
	if !requeued && !deadLettered {
		return errs.New(errs.MessageNotFound, "message %q not in flight on queue %q", id, queueName)
	}
	return m.appendWAL(&wal.Record{Kind: wal.OpQueueNack, Queue: queueName, MessageID: id, Requeue: requeue})
}

// Depth returns the number of messages pending or in flight on queue.
func (m *Manager) Depth(queueName string) int {
	q := m.queueFor(queueName, false)
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.depth()
}

// Create registers queueName if it doesn't already exist.
func (m *Manager) Create(queueName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.queues[queueName]; ok {
		return errs.New(errs.QueueExists, "queue %q already exists", queueName)
	}
	m.queues[queueName] = newQueueState(queueName, m.opts.DefaultMaxDepth)
	return nil
}

// Delete removes queueName and everything it holds.
func (m *Manager) Delete(queueName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.queues, queueName)
}

// List returns every queue name currently known.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.queues))
	for name := range m.queues {
		names = append(names, name)
	}
	return names
}

// Stats is a point-in-time summary of one queue's sizes.
type Stats struct {
	Pending  int
	InFlight int
	DLQ      int
}

// Stats returns queueName's current pending/in-flight/DLQ counts.
func (m *Manager) Stats(queueName string) (Stats, error) {
	q := m.queueFor(queueName, false)
	if q == nil {
		return Stats{}, errs.New(errs.QueueNotFound, "queue %q not found", queueName)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{Pending: len(q.pending), InFlight: len(q.inFlight), DLQ: len(q.dlq)}, nil
}

// Purge drops every pending message on queueName (in-flight and DLQ
// messages are untouched) and returns the number removed.
func (m *Manager) Purge(queueName string) (int, error) {
	q := m.queueFor(queueName, false)
	if q == nil {
		return 0, errs.New(errs.QueueNotFound, "queue %q not found", queueName)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.pending)
	q.pending = nil
	return n, nil
}

// DLQConsume pops and returns the oldest dead-lettered message on
// queueName, or nil if the DLQ is empty.
func (m *Manager) DLQConsume(queueName string) (*Message, error) {
	q := m.queueFor(queueName, false)
	if q == nil {
		return nil, errs.New(errs.QueueNotFound, "queue %q not found", queueName)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.dlq) == 0 {
		return nil, nil
	}
	msg := q.dlq[0]
	q.dlq = q.dlq[1:]
	return msg, nil
}

// DLQPurge drops every dead-lettered message on queueName and returns
// the number removed.
func (m *Manager) DLQPurge(queueName string) (int, error) {
	q := m.queueFor(queueName, false)
	if q == nil {
		return 0, errs.New(errs.QueueNotFound, "queue %q not found", queueName)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.dlq)
	q.dlq = nil
	return n, nil
}

func (m *Manager) appendWAL(rec *wal.Record) error {
	if m.log == nil {
		return nil
	}
	_, err := m.log.Append(rec)
	return err
}
