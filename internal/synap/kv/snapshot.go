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

package kv

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"time"
)

func unixNanoToTime(ns int64) time.Time { return time.Unix(0, ns) }

// shardSnapshot is the gob-serializable form of one shard's data, used
// for both SnapshotState and LoadSnapshotState.
type shardSnapshot struct {
	Entries map[string]*entrySnapshot
}

type entrySnapshot struct {
	Kind     kind
	ExpireAt int64 // UnixNano, 0 means no TTL
	Str      []byte
	Hash     map[string][]byte
	List     [][]byte
	Set      map[string]struct{}
	ZSet     map[string]float64
}

// SnapshotState implements wal.Snapshottable. It locks every shard in
// ascending order, takes a point-in-time copy, then encodes outside any
// lock.
func (s *Store) SnapshotState() ([]byte, error) {
	shards := make([]*shard, ShardCount)
	copy(shards, s.shards[:])
	unlock := lockMany(shards)
	snap := make([]shardSnapshot, ShardCount)
	for i, sh := range shards {
		entries := make(map[string]*entrySnapshot, len(sh.data))
		for k, e := range sh.data {
			entries[k] = toEntrySnapshot(e.clone())
		}
		snap[i] = shardSnapshot{Entries: entries}
	}
	unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return nil, fmt.Errorf("kv: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadSnapshotState implements wal.Snapshottable, replacing the store's
// entire contents with the decoded snapshot.
func (s *Store) LoadSnapshotState(body []byte) error {
	var snap []shardSnapshot
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&snap); err != nil {
		return fmt.Errorf("kv: decode snapshot: %w", err)
	}
	if len(snap) != ShardCount {
		return fmt.Errorf("kv: snapshot has %d shards, want %d", len(snap), ShardCount)
	}
	for i, ss := range snap {
		sh := s.shards[i]
		sh.mu.Lock()
		sh.data = make(map[string]*entry, len(ss.Entries))
		for k, es := range ss.Entries {
			sh.data[k] = fromEntrySnapshot(es)
		}
		sh.mu.Unlock()
	}
	return nil
}

func toEntrySnapshot(e *entry) *entrySnapshot {
	es := &entrySnapshot{Kind: e.kind}
	if !e.expireAt.IsZero() {
		es.ExpireAt = e.expireAt.UnixNano()
	}
	switch e.kind {
	case kindString:
		es.Str = append([]byte(nil), e.str...)
	case kindHash:
		es.Hash = e.hash
	case kindList:
		es.List = e.list
	case kindSet:
		es.Set = e.set
	case kindZSet:
		es.ZSet = e.zset
	}
	return es
}

func fromEntrySnapshot(es *entrySnapshot) *entry {
	e := &entry{kind: es.Kind}
	if es.ExpireAt != 0 {
		e.expireAt = unixNanoToTime(es.ExpireAt)
	}
	switch es.Kind {
	case kindString:
		e.str = es.Str
	case kindHash:
		e.hash = es.Hash
		if e.hash == nil {
			e.hash = map[string][]byte{}
		}
	case kindList:
		e.list = es.List
	case kindSet:
		e.set = es.Set
		if e.set == nil {
			e.set = map[string]struct{}{}
		}
	case kindZSet:
		e.zset = es.ZSet
		if e.zset == nil {
			e.zset = map[string]float64{}
		}
	}
	return e
}
