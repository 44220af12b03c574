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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"synap/internal/synap/errs"
)

func newTestManager(t *testing.T, opts Options) *Manager {
	t.Helper()
	m := NewManager(opts, nil)
	t.Cleanup(m.Close)
	return m
}

func TestPublishConsumeAck(t *testing.T) {
	m := newTestManager(t, Options{})
	id, err := m.Publish("q1", []byte("hello"), 0, 3)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	msg, err := m.Consume("q1")
	require.NoError(t, err)
	require.Equal(t, id, msg.ID)
	require.Equal(t, []byte("hello"), msg.Payload)

	require.NoError(t, m.Ack("q1", id))
	require.Equal(t, 0, m.Depth("q1"))
}

func TestPriorityOrdering(t *testing.T) {
	m := newTestManager(t, Options{})
	_, err := m.Publish("q1", []byte("low"), 1, 0)
	require.NoError(t, err)
	_, err = m.Publish("q1", []byte("high"), 10, 0)
	require.NoError(t, err)
	_, err = m.Publish("q1", []byte("mid"), 5, 0)
	require.NoError(t, err)

	first, err := m.Consume("q1")
	require.NoError(t, err)
	require.Equal(t, []byte("high"), first.Payload)

	second, err := m.Consume("q1")
	require.NoError(t, err)
	require.Equal(t, []byte("mid"), second.Payload)
}

func TestMaxDepthRejectsOverflow(t *testing.T) {
	m := newTestManager(t, Options{DefaultMaxDepth: 1})
	_, err := m.Publish("q1", []byte("a"), 0, 0)
	require.NoError(t, err)

	_, err = m.Publish("q1", []byte("b"), 0, 0)
	require.Error(t, err)
	require.Equal(t, errs.QueueFull, errs.CodeOf(err))
}

func TestNackWithoutRequeueGoesToDLQImmediately(t *testing.T) {
	m := newTestManager(t, Options{})
	id, err := m.Publish("q1", []byte("a"), 0, 5)
	require.NoError(t, err)
	_, err = m.Consume("q1")
	require.NoError(t, err)

	require.NoError(t, m.Nack("q1", id, false))

	q := m.queueFor("q1", false)
	q.mu.Lock()
	dlqLen := len(q.dlq)
	q.mu.Unlock()
	require.Equal(t, 1, dlqLen)
}

func TestNackWithRequeueRetriesThenDeadLetters(t *testing.T) {
	m := newTestManager(t, Options{})
	id, err := m.Publish("q1", []byte("a"), 0, 2)
	require.NoError(t, err)

	_, err = m.Consume("q1")
	require.NoError(t, err)
	require.NoError(t, m.Nack("q1", id, true))

	msg, err := m.Consume("q1")
	require.NoError(t, err)
	require.Equal(t, id, msg.ID)
	require.NoError(t, m.Nack("q1", id, true))

	q := m.queueFor("q1", false)
	q.mu.Lock()
	dlqLen := len(q.dlq)
	q.mu.Unlock()
	require.Equal(t, 1, dlqLen)
}

func TestSweeperReturnsExpiredMessageToPending(t *testing.T) {
	m := newTestManager(t, Options{VisibilityTimeout: time.Millisecond})
	_, err := m.Publish("q1", []byte("a"), 0, 5)
	require.NoError(t, err)
	_, err = m.Consume("q1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	m.sweepOnce()

	require.Equal(t, 1, m.Depth("q1"))
	msg, err := m.Consume("q1")
	require.NoError(t, err)
	require.NotNil(t, msg)
	require.Equal(t, uint32(1), msg.Retries)
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := newTestManager(t, Options{})
	_, err := m.Publish("q1", []byte("a"), 3, 2)
	require.NoError(t, err)

	body, err := m.SnapshotState()
	require.NoError(t, err)

	restored := newTestManager(t, Options{})
	require.NoError(t, restored.LoadSnapshotState(body))
	require.Equal(t, 1, restored.Depth("q1"))
}
