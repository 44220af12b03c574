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

package replication

import (
	"fmt"
	"sync"
	"time"

	"synap/internal/synap/wal"
)

// MasterOptions configures a Master.
type MasterOptions struct {
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
}

func (o MasterOptions) withDefaults() MasterOptions {
	if o.PollInterval <= 0 {
		o.PollInterval = 50 * time.Millisecond
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 5 * time.Second
	}
	return o
}

// replicaState is the primary's bookkeeping for one connected replica,
// used to compute lag metrics.
type replicaState struct {
	id              string
	lastSentOffset  uint64
	lastAckedOffset uint64
	lastAckedAt     time.Time
	// timestamps caches CommittedAt for offsets recently streamed, so
	// Lag can compute time_lag_ms without re-reading the log.
	timestamps map[uint64]time.Time
}

// Master streams WAL records from dir to connected replicas.
type Master struct {
	dir  string
	log  *wal.Log
	opts MasterOptions

	mu       sync.Mutex
	replicas map[string]*replicaState
}

// NewMaster builds a Master over the WAL directory dir. log is used
// only to read the current durable offset for lag metrics; records
// themselves are read from disk via wal.ReadSince.
func NewMaster(dir string, log *wal.Log, opts MasterOptions) *Master {
	return &Master{
		dir:      dir,
		log:      log,
		opts:     opts.withDefaults(),
		replicas: make(map[string]*replicaState),
	}
}

// ServeReplica runs the full protocol for one replica connection:
// handshake, catch-up, then steady state with heartbeats, until conn is
// closed or a fatal protocol error occurs. It blocks until done.
func (m *Master) ServeReplica(conn Conn) error {
	hs, err := conn.Recv()
	if err != nil {
		return fmt.Errorf("replication: handshake recv: %w", err)
	}
	if hs.Kind != MsgHandshake {
		return fmt.Errorf("replication: expected handshake, got kind %d", hs.Kind)
	}

	st := &replicaState{id: hs.ReplicaID, lastAckedOffset: hs.LastAppliedOffset, timestamps: make(map[uint64]time.Time)}
	m.mu.Lock()
	m.replicas[hs.ReplicaID] = st
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		delete(m.replicas, hs.ReplicaID)
		m.mu.Unlock()
	}()

	fromOffset, err := m.catchUp(conn, hs.LastAppliedOffset)
	if err != nil {
		return err
	}
	st.lastSentOffset = fromOffset

	errCh := make(chan error, 2)
	stopCh := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		errCh <- m.streamLoop(conn, st, stopCh)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		errCh <- m.recvAcks(conn, st, stopCh)
	}()

	err = <-errCh
	close(stopCh)
	wg.Wait()
	return err
}

// catchUp sends a full snapshot (if the replica is too far behind for
// tail replay alone) followed by any records after that point, and
// returns the offset the replica is now caught up through.
func (m *Master) catchUp(conn Conn, lastApplied uint64) (uint64, error) {
	snapPath, err := wal.LatestSnapshot(m.dir)
	if err != nil {
		return 0, fmt.Errorf("replication: list snapshots: %w", err)
	}
	if snapPath != "" {
		snap, err := wal.ReadSnapshot(snapPath)
		if err != nil {
			return 0, fmt.Errorf("replication: read snapshot: %w", err)
		}
		if snap.Offset > lastApplied {
			if err := conn.Send(Envelope{Kind: MsgSnapshot, SnapshotOffset: snap.Offset, SnapshotSections: snap.Sections, SentAt: time.Now()}); err != nil {
				return 0, fmt.Errorf("replication: send snapshot: %w", err)
			}
			lastApplied = snap.Offset
		}
	}

	recs, err := wal.ReadSince(m.dir, lastApplied)
	if err != nil {
		return 0, fmt.Errorf("replication: read tail: %w", err)
	}
	if len(recs) > 0 {
		if err := conn.Send(Envelope{Kind: MsgRecords, Records: recs, SentAt: time.Now()}); err != nil {
			return 0, fmt.Errorf("replication: send tail: %w", err)
		}
		lastApplied = recs[len(recs)-1].Offset
	}
	return lastApplied, nil
}

func (m *Master) streamLoop(conn Conn, st *replicaState, stopCh <-chan struct{}) error {
	pollTicker := time.NewTicker(m.opts.PollInterval)
	defer pollTicker.Stop()
	heartbeatTicker := time.NewTicker(m.opts.HeartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case <-stopCh:
			return nil
		case <-heartbeatTicker.C:
			if err := conn.Send(Envelope{Kind: MsgHeartbeat, SentAt: time.Now()}); err != nil {
				return fmt.Errorf("replication: send heartbeat: %w", err)
			}
		case <-pollTicker.C:
			recs, err := wal.ReadSince(m.dir, st.lastSentOffset)
			if err != nil {
				return fmt.Errorf("replication: poll: %w", err)
			}
			if len(recs) == 0 {
				continue
			}
			if err := conn.Send(Envelope{Kind: MsgRecords, Records: recs, SentAt: time.Now()}); err != nil {
				return fmt.Errorf("replication: send records: %w", err)
			}
			m.mu.Lock()
			for _, r := range recs {
				st.timestamps[r.Offset] = r.CommittedAt
			}
			st.lastSentOffset = recs[len(recs)-1].Offset
			m.mu.Unlock()
		}
	}
}

func (m *Master) recvAcks(conn Conn, st *replicaState, stopCh <-chan struct{}) error {
	for {
		env, err := conn.Recv()
		if err != nil {
			select {
			case <-stopCh:
				return nil
			default:
				return fmt.Errorf("replication: recv: %w", err)
			}
		}
		switch env.Kind {
		case MsgApplyAck:
			m.mu.Lock()
			st.lastAckedOffset = env.AppliedOffset
			st.lastAckedAt = time.Now()
			m.mu.Unlock()
		case MsgHeartbeatAck:
			// no state change; heartbeat round trip alone isn't tracked.
		}
	}
}

// LagStats is a snapshot of one replica's replication lag.
type LagStats struct {
	OperationsLag int64
	TimeLagMs     int64
}

// Lag returns replicaID's current lag, or ok=false if it isn't
// connected.
func (m *Master) Lag(replicaID string) (LagStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.replicas[replicaID]
	if !ok {
		return LagStats{}, false
	}
	masterOffset := int64(0)
	if m.log != nil && m.log.NextOffset() > 0 {
		masterOffset = int64(m.log.NextOffset() - 1)
	}
	opsLag := masterOffset - int64(st.lastAckedOffset)
	timeLag := int64(0)
	if ts, ok := st.timestamps[st.lastAckedOffset+1]; ok {
		timeLag = time.Since(ts).Milliseconds()
	}
	stats := LagStats{OperationsLag: opsLag, TimeLagMs: timeLag}
	reportLag(replicaID, stats)
	return stats, true
}
