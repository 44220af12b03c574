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
	"time"

	"synap/internal/synap/errs"
	"synap/internal/synap/wal"
)

// Options configures a Manager.
type Options struct {
	DefaultPartitions int
	RetentionSweep    time.Duration
}

func (o Options) withDefaults() Options {
	if o.DefaultPartitions <= 0 {
		o.DefaultPartitions = 4
	}
	if o.RetentionSweep <= 0 {
		o.RetentionSweep = 10 * time.Second
	}
	return o
}

// Manager owns every room in the process.
type Manager struct {
	opts Options
	log  *wal.Log

	mu    sync.RWMutex
	rooms map[string]*Room

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewManager builds a Manager. log may be nil for durability-free tests.
func NewManager(opts Options, log *wal.Log) *Manager {
	m := &Manager{
		opts:   opts.withDefaults(),
		log:    log,
		rooms:  make(map[string]*Room),
		stopCh: make(chan struct{}),
	}
	m.wg.Add(1)
	go m.retentionLoop()
	return m
}

// Close stops the Manager's background retention sweeper.
func (m *Manager) Close() {
	close(m.stopCh)
	m.wg.Wait()
}

// CreateRoom creates a room with the given partition count if it does
// not already exist; it is a no-op if it does.
func (m *Manager) CreateRoom(name string, partitions int) *Room {
	if partitions <= 0 {
		partitions = m.opts.DefaultPartitions
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[name]; ok {
		return r
	}
	r := newRoom(name, partitions)
	m.rooms[name] = r
	return r
}

func (m *Manager) roomFor(name string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[name]
}

// DeleteRoom removes a room and everything it holds: its partitions and
// consumer groups. It is a no-op if the room doesn't exist.
func (m *Manager) DeleteRoom(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, name)
}

// ListRooms returns every room name currently known.
func (m *Manager) ListRooms() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.rooms))
	for name := range m.rooms {
		names = append(names, name)
	}
	return names
}

// RoomStats summarizes a room's current size.
type RoomStats struct {
	Partitions []PartitionOffsets
	Groups     []string
}

// Stats returns a point-in-time summary of room's partitions and
// consumer groups.
func (m *Manager) Stats(roomName string) (RoomStats, error) {
	r := m.roomFor(roomName)
	if r == nil {
		return RoomStats{}, errs.New(errs.RoomNotFound, "room %q not found", roomName)
	}
	stats := RoomStats{Partitions: make([]PartitionOffsets, len(r.partitions))}
	for i, p := range r.partitions {
		stats.Partitions[i] = p.offsets()
	}
	r.mu.RLock()
	for name := range r.groups {
		stats.Groups = append(stats.Groups, name)
	}
	r.mu.RUnlock()
	return stats, nil
}

// Assignment returns consumerID's current partition assignment in
// groupName without joining or heartbeating it.
func (m *Manager) Assignment(roomName, groupName, consumerID string) ([]int, error) {
	r := m.roomFor(roomName)
	if r == nil {
		return nil, errs.New(errs.RoomNotFound, "room %q not found", roomName)
	}
	r.mu.RLock()
	g, ok := r.groups[groupName]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return g.partitionsFor(consumerID), nil
}

// Publish appends payload to room, routing by key to a partition (an
// empty key still routes deterministically, via the empty string's
// hash, so unkeyed publishes land consistently rather than randomly).
func (m *Manager) Publish(roomName, key, eventType string, payload []byte, headers map[string]string) (partitionIdx int, offset int64, err error) {
	r := m.roomFor(roomName)
	if r == nil {
		return 0, 0, errs.New(errs.RoomNotFound, "room %q not found", roomName)
	}
	pIdx := r.routePartition(key)
	ts := time.Now()
	ev := Event{Key: key, EventType: eventType, Payload: payload, Headers: headers, Timestamp: ts}
	off, err := r.partitions[pIdx].append(ev, func(int64) error {
		rec := &wal.Record{
			Kind: wal.OpStreamPublish, Room: roomName, Partition: pIdx,
			Payload: payload, EventType: eventType, Headers: headers, Timestamp: ts, Key: key,
		}
		return m.appendWAL(rec)
	})
	return pIdx, off, err
}

// ReadPartition returns up to limit events from room's partition
// starting at fromOffset.
func (m *Manager) ReadPartition(roomName string, partitionIdx int, fromOffset int64, limit int) ([]Event, error) {
	r := m.roomFor(roomName)
	if r == nil {
		return nil, errs.New(errs.RoomNotFound, "room %q not found", roomName)
	}
	if partitionIdx < 0 || partitionIdx >= r.partitionCount() {
		return nil, errs.New(errs.PartitionNotFound, "room %q has no partition %d", roomName, partitionIdx)
	}
	return r.partitions[partitionIdx].read(fromOffset, limit), nil
}

// JoinGroup adds consumerID to room's named consumer group (creating
// the group if needed) and returns its assigned partitions.
func (m *Manager) JoinGroup(roomName, groupName, consumerID string) ([]int, error) {
	r := m.roomFor(roomName)
	if r == nil {
		return nil, errs.New(errs.RoomNotFound, "room %q not found", roomName)
	}
	r.mu.Lock()
	g, ok := r.groups[groupName]
	if !ok {
		g = newConsumerGroup(groupName)
		r.groups[groupName] = g
	}
	r.mu.Unlock()

	g.join(consumerID, r.partitionCount())
	return g.partitionsFor(consumerID), nil
}

// Heartbeat refreshes consumerID's membership in groupName and returns
// its current partition assignment.
func (m *Manager) Heartbeat(roomName, groupName, consumerID string) ([]int, error) {
	return m.JoinGroup(roomName, groupName, consumerID)
}

// LeaveGroup removes consumerID from groupName, triggering a rebalance
// of the remaining members.
func (m *Manager) LeaveGroup(roomName, groupName, consumerID string) error {
	r := m.roomFor(roomName)
	if r == nil {
		return errs.New(errs.RoomNotFound, "room %q not found", roomName)
	}
	r.mu.RLock()
	g, ok := r.groups[groupName]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	g.leave(consumerID, r.partitionCount())
	return nil
}

// CommitOffset records groupName's next-read offset for partitionIdx.
func (m *Manager) CommitOffset(roomName, groupName string, partitionIdx int, offset int64) error {
	r := m.roomFor(roomName)
	if r == nil {
		return errs.New(errs.RoomNotFound, "room %q not found", roomName)
	}
	r.mu.RLock()
	g, ok := r.groups[groupName]
	r.mu.RUnlock()
	if !ok {
		return errs.New(errs.GroupRebalancing, "group %q has no members yet", groupName)
	}
	g.commit(partitionIdx, offset)
	return nil
}

func (m *Manager) appendWAL(rec *wal.Record) error {
	if m.log == nil {
		return nil
	}
	_, err := m.log.Append(rec)
	return err
}
