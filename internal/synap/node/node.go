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

// Package node wires the WAL, the four engines, replication, the
// command dispatcher and the metrics sampler into one runnable process.
// It is the composition root cmd/synapd builds on startup; nothing
// outside this package imports all of kv, queue, stream, pubsub,
// replication and dispatch at once.
package node

import (
	"context"
	"fmt"
	"sync"
	"time"

	"synap/internal/synap/dispatch"
	"synap/internal/synap/kv"
	"synap/internal/synap/metrics"
	"synap/internal/synap/pubsub"
	"synap/internal/synap/queue"
	"synap/internal/synap/replication"
	"synap/internal/synap/stream"
	"synap/internal/synap/wal"
)

// engineNames is the section-naming convention shared by wal.Recover,
// wal.Snapshot.Sections and replication's per-engine maps.
const (
	sectionKV     = "kv"
	sectionQueue  = "queue"
	sectionStream = "stream"
)

// Config configures a Node end to end.
type Config struct {
	WALDir          string
	SegmentMaxBytes int64
	FsyncMode       wal.FsyncMode
	FsyncInterval   time.Duration

	KV     kv.Options
	Queue  queue.Options
	Stream stream.Options
	PubSub pubsub.Options

	Dispatch dispatch.Options

	// MetricsSampleInterval controls how often the Sampler snapshots
	// engine sizes into gauges. Zero uses Sampler's own default.
	MetricsSampleInterval time.Duration

	// SnapshotCronExpr, if non-empty, schedules periodic full snapshots
	// in addition to whatever a caller triggers manually through the
	// Admin interface's Snapshot method.
	SnapshotCronExpr string

	BuildVersion string
}

// Node owns one WAL directory and every engine mounted on it. It
// implements dispatch.Admin so the dispatcher can reach process-level
// operations without importing this package.
type Node struct {
	cfg Config

	log    *wal.Log
	kv     *kv.Store
	queue  *queue.Manager
	stream *stream.Manager
	pubsub *pubsub.Router

	dispatcher *dispatch.Dispatcher
	sampler    *metrics.Sampler
	snapshotSched *wal.Scheduler

	startedAt time.Time

	mu           sync.Mutex
	replicaCount int
}

// multiApplier fans a replayed record out to every durable engine's
// Apply; each engine's switch on rec.Kind is a no-op for kinds it
// doesn't own, so calling all three unconditionally is safe — the same
// pattern replication.Replica uses for its own engines map.
type multiApplier struct {
	kv     *kv.Store
	queue  *queue.Manager
	stream *stream.Manager
}

func (a multiApplier) Apply(rec *wal.Record) error {
	if err := a.kv.Apply(rec); err != nil {
		return err
	}
	if err := a.queue.Apply(rec); err != nil {
		return err
	}
	return a.stream.Apply(rec)
}

// Open builds a Node: opens (or creates) the WAL directory, recovers
// from the newest snapshot plus any WAL tail, and starts every
// background loop (TTL sweep, queue visibility sweep, stream retention,
// metrics sampling, optional periodic snapshots).
func Open(cfg Config) (*Node, error) {
	walOpts := wal.Options{
		Dir:             cfg.WALDir,
		SegmentMaxBytes: cfg.SegmentMaxBytes,
		FsyncMode:       cfg.FsyncMode,
		FsyncInterval:   cfg.FsyncInterval,
	}
	log, err := wal.Open(walOpts)
	if err != nil {
		return nil, fmt.Errorf("node: open wal: %w", err)
	}

	kvStore := kv.NewStore(cfg.KV, log)
	queueMgr := queue.NewManager(cfg.Queue, log)
	streamMgr := stream.NewManager(cfg.Stream, log)
	pubsubRouter := pubsub.NewRouter(cfg.PubSub)

	snapshottable := map[string]wal.Snapshottable{
		sectionKV:     kvStore,
		sectionQueue:  queueMgr,
		sectionStream: streamMgr,
	}
	applier := multiApplier{kv: kvStore, queue: queueMgr, stream: streamMgr}
	appliedOffset, err := wal.Recover(cfg.WALDir, snapshottable, applier)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("node: recover: %w", err)
	}
	log.SetNextOffset(appliedOffset + 1)

	n := &Node{
		cfg:       cfg,
		log:       log,
		kv:        kvStore,
		queue:     queueMgr,
		stream:    streamMgr,
		pubsub:    pubsubRouter,
		startedAt: time.Now(),
	}
	n.dispatcher = dispatch.New(dispatch.Engines{
		KV:     kvStore,
		Queue:  queueMgr,
		Stream: streamMgr,
		PubSub: pubsubRouter,
		Admin:  n,
	}, cfg.Dispatch)
	n.sampler = metrics.NewSampler(kvStore, queueMgr, streamMgr, pubsubRouter, cfg.MetricsSampleInterval)
	n.sampler.Start()

	if cfg.SnapshotCronExpr != "" {
		sched, err := wal.NewScheduler(cfg.SnapshotCronExpr, n.snapshotTick)
		if err != nil {
			n.Close()
			return nil, fmt.Errorf("node: snapshot scheduler: %w", err)
		}
		n.snapshotSched = sched
	}

	return n, nil
}

// Dispatcher returns the command dispatcher transports mount.
func (n *Node) Dispatcher() *dispatch.Dispatcher { return n.dispatcher }

// Close stops every background loop and the WAL log. It does not flush
// a final snapshot; callers that want one should call Snapshot first.
func (n *Node) Close() error {
	if n.snapshotSched != nil {
		n.snapshotSched.Stop()
	}
	n.sampler.Stop()
	n.kv.Close()
	n.queue.Close()
	n.stream.Close()
	return n.log.Close()
}

func (n *Node) snapshotTick() {
	_, _ = n.Snapshot(context.Background())
}

// Snapshot implements dispatch.Admin: it takes a full, point-in-time
// snapshot of every durable engine at the WAL's current offset and
// writes it to the WAL directory, pruning older snapshots beyond the
// most recent few.
func (n *Node) Snapshot(_ context.Context) (uint64, error) {
	offset := n.log.NextOffset() - 1

	kvState, err := n.kv.SnapshotState()
	if err != nil {
		return 0, fmt.Errorf("node: snapshot kv: %w", err)
	}
	queueState, err := n.queue.SnapshotState()
	if err != nil {
		return 0, fmt.Errorf("node: snapshot queue: %w", err)
	}
	streamState, err := n.stream.SnapshotState()
	if err != nil {
		return 0, fmt.Errorf("node: snapshot stream: %w", err)
	}

	snap := &wal.Snapshot{
		Offset: offset,
		Sections: map[string][]byte{
			sectionKV:     kvState,
			sectionQueue:  queueState,
			sectionStream: streamState,
		},
	}
	if _, err := wal.WriteSnapshot(n.cfg.WALDir, snap); err != nil {
		return 0, fmt.Errorf("node: write snapshot: %w", err)
	}
	if err := wal.RetainNewest(n.cfg.WALDir, 3); err != nil {
		return 0, fmt.Errorf("node: prune snapshots: %w", err)
	}
	return offset, nil
}

// Info implements dispatch.Admin.
func (n *Node) Info() map[string]any {
	n.mu.Lock()
	replicas := n.replicaCount
	n.mu.Unlock()
	return map[string]any{
		"version":        n.cfg.BuildVersion,
		"uptime_seconds": time.Since(n.startedAt).Seconds(),
		"wal_offset":     n.log.NextOffset() - 1,
		"replica_count":  replicas,
	}
}

// Health implements dispatch.Admin. It always returns nil: it does not
// check whether the WAL is open, and engine-level faults surface through
// normal command errors rather than failing the whole process.
func (n *Node) Health() error {
	return nil
}

// Stats implements dispatch.Admin.
func (n *Node) Stats() map[string]any {
	return map[string]any{
		"kv_keys":     n.kv.KeyCount(),
		"queues":      n.queue.List(),
		"rooms":       n.stream.ListRooms(),
		"subscribers": n.pubsub.SubscriberCount(),
	}
}

// RegisterReplica is called by the replication transport layer when a
// new replica connects, purely so Info can report how many are attached.
func (n *Node) RegisterReplica() (release func()) {
	n.mu.Lock()
	n.replicaCount++
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		n.replicaCount--
		n.mu.Unlock()
	}
}

// ServeReplica runs the master side of the replication protocol against
// conn until it disconnects or errors. It is meant to be called in its
// own goroutine per incoming replica connection.
func (n *Node) ServeReplica(master *replication.Master, conn replication.Conn) error {
	release := n.RegisterReplica()
	defer release()
	return master.ServeReplica(conn)
}

// NewMaster builds a replication.Master bound to this node's WAL.
func (n *Node) NewMaster(opts replication.MasterOptions) *replication.Master {
	return replication.NewMaster(n.cfg.WALDir, n.log, opts)
}

// EngineMap returns the name -> replication.Engine bindings a replica
// side needs to apply a primary's record stream against this node's
// local engines.
func (n *Node) EngineMap() map[string]replication.Engine {
	return map[string]replication.Engine{
		sectionKV:     n.kv,
		sectionQueue:  n.queue,
		sectionStream: n.stream,
	}
}
