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

func TestPublishAndReadPartition(t *testing.T) {
	m := newTestManager(t, Options{DefaultPartitions: 2})
	m.CreateRoom("orders", 2)

	pIdx, off, err := m.Publish("orders", "customer-1", "order.created", []byte("payload-1"), nil)
	require.NoError(t, err)
	require.Equal(t, int64(0), off)

	_, off2, err := m.Publish("orders", "customer-1", "order.updated", []byte("payload-2"), nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), off2)

	events, err := m.ReadPartition("orders", pIdx, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, []byte("payload-1"), events[0].Payload)
	require.Equal(t, []byte("payload-2"), events[1].Payload)
}

func TestReadUnknownRoomOrPartition(t *testing.T) {
	m := newTestManager(t, Options{})
	_, err := m.ReadPartition("ghost", 0, 0, 10)
	require.Error(t, err)
	require.Equal(t, errs.RoomNotFound, errs.CodeOf(err))

	m.CreateRoom("orders", 2)
	_, err = m.ReadPartition("orders", 5, 0, 10)
	require.Error(t, err)
	require.Equal(t, errs.PartitionNotFound, errs.CodeOf(err))
}

func TestConsumerGroupRoundRobinAssignment(t *testing.T) {
	m := newTestManager(t, Options{})
	m.CreateRoom("orders", 4)

	p1, err := m.JoinGroup("orders", "workers", "c1")
	require.NoError(t, err)
	require.ElementsMatch(t, []int{0, 1, 2, 3}, p1)

	p1, err = m.JoinGroup("orders", "workers", "c2")
	require.NoError(t, err)
	require.Len(t, p1, 2)

	p2, err := m.Heartbeat("orders", "workers", "c2")
	require.NoError(t, err)
	require.ElementsMatch(t, p1, p2)

	total := len(p1)
	firstAssignment, err := m.JoinGroup("orders", "workers", "c1")
	require.NoError(t, err)
	total += len(firstAssignment)
	require.Equal(t, 4, total)
}

func TestLeaveGroupRebalances(t *testing.T) {
	m := newTestManager(t, Options{})
	m.CreateRoom("orders", 2)

	_, err := m.JoinGroup("orders", "workers", "c1")
	require.NoError(t, err)
	p2, err := m.JoinGroup("orders", "workers", "c2")
	require.NoError(t, err)
	require.Len(t, p2, 1)

	err = m.LeaveGroup("orders", "workers", "c2")
	require.NoError(t, err)

	r := m.roomFor("orders")
	g := r.groups["workers"]
	require.ElementsMatch(t, []int{0, 1}, g.partitionsFor("c1"))
}

func TestCommitOffsetRequiresExistingGroup(t *testing.T) {
	m := newTestManager(t, Options{})
	m.CreateRoom("orders", 1)

	err := m.CommitOffset("orders", "workers", 0, 5)
	require.Error(t, err)
	require.Equal(t, errs.GroupRebalancing, errs.CodeOf(err))

	_, err = m.JoinGroup("orders", "workers", "c1")
	require.NoError(t, err)
	err = m.CommitOffset("orders", "workers", 0, 5)
	require.NoError(t, err)
}

func TestRetentionPrunesOncePastSlowestCommittedOffset(t *testing.T) {
	m := newTestManager(t, Options{DefaultPartitions: 1, RetentionSweep: time.Hour})
	m.CreateRoom("orders", 1)

	for i := 0; i < 5; i++ {
		_, _, err := m.Publish("orders", "k", "evt", []byte("p"), nil)
		require.NoError(t, err)
	}

	_, err := m.JoinGroup("orders", "workers", "c1")
	require.NoError(t, err)
	require.NoError(t, m.CommitOffset("orders", "workers", 0, 3))

	m.retentionOnce()

	r := m.roomFor("orders")
	require.Equal(t, int64(3), r.partitions[0].minOffset)

	events, err := m.ReadPartition("orders", 0, 0, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
}

func TestRetentionSkipsPartitionWithNoConsumerGroups(t *testing.T) {
	m := newTestManager(t, Options{DefaultPartitions: 1})
	m.CreateRoom("orders", 1)
	for i := 0; i < 3; i++ {
		_, _, err := m.Publish("orders", "k", "evt", []byte("p"), nil)
		require.NoError(t, err)
	}

	m.retentionOnce()

	r := m.roomFor("orders")
	require.Equal(t, int64(0), r.partitions[0].minOffset)
}

func TestHeartbeatExpiryTriggersRebalance(t *testing.T) {
	m := newTestManager(t, Options{DefaultPartitions: 2})
	m.CreateRoom("orders", 2)

	_, err := m.JoinGroup("orders", "workers", "c1")
	require.NoError(t, err)
	_, err = m.JoinGroup("orders", "workers", "c2")
	require.NoError(t, err)

	r := m.roomFor("orders")
	g := r.groups["workers"]
	g.members["c2"] = time.Now().Add(-2 * ConsumerHeartbeatTimeout)

	g.dropExpired(time.Now(), r.partitionCount())
	require.ElementsMatch(t, []int{0, 1}, g.partitionsFor("c1"))
	require.Empty(t, g.partitionsFor("c2"))
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := newTestManager(t, Options{DefaultPartitions: 2})
	m.CreateRoom("orders", 2)
	for i := 0; i < 4; i++ {
		_, _, err := m.Publish("orders", "k", "evt", []byte("p"), nil)
		require.NoError(t, err)
	}

	blob, err := m.SnapshotState()
	require.NoError(t, err)

	m2 := newTestManager(t, Options{DefaultPartitions: 2})
	require.NoError(t, m2.LoadSnapshotState(blob))

	r := m2.roomFor("orders")
	require.NotNil(t, r)
	require.Equal(t, 2, r.partitionCount())

	total := 0
	for i := 0; i < r.partitionCount(); i++ {
		events, err := m2.ReadPartition("orders", i, 0, 100)
		require.NoError(t, err)
		total += len(events)
	}
	require.Equal(t, 4, total)
}
