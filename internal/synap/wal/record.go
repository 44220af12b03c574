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

// Package wal implements the write-ahead log and snapshot mechanism that
// makes the KV, Queue, and Stream engines durable and recoverable.
package wal

import "time"

// OpKind tags a Record's payload so Apply can dispatch to the right engine
// without reflection.
type OpKind uint8

const (
	OpKVSet OpKind = iota + 1
	OpKVDel
	OpKVIncrBy
	OpKVRename
	OpHashSet
	OpHashDel
	OpListPush
	OpListPop
	OpSetAdd
	OpSetRem
	OpSetMove
	OpSortedSetAdd
	OpSortedSetRem
	OpSortedSetIncrBy
	OpQueuePublish
	OpQueueAck
	OpQueueNack
	OpStreamPublish
	OpSnapshotMarker
)

// Record is the in-memory form of one WAL operation record. Fields that
// don't apply to a given Kind are left zero. Offset is assigned by the
// log when the record is appended, not by the caller.
type Record struct {
	Offset uint64
	Kind   OpKind

	// CommittedAt is stamped by the log at Append time, independent of
	// any engine-specific timestamp field below. Replication lag
	// metrics key off this rather than EnqueuedAt/Timestamp, which are
	// only set for queue/stream records.
	CommittedAt time.Time

	Key      string
	Key2     string // Rename dst, SetMove dst
	Value    []byte
	Delta    int64
	TTL      time.Time // absolute expiry; zero means no TTL.
	HasTTL   bool
	Fields   map[string][]byte // hash set/del
	FieldKey string            // single hash field for incrby-style ops
	Members  [][]byte          // list/set elements, or sorted-set members
	Scores   []float64         // parallel to Members for sorted-set ops
	Head     bool              // list push/pop: true=head, false=tail

	Queue        string
	MessageID    string
	Payload      []byte
	Priority     uint8
	Retries      uint32
	MaxRetries   uint32
	EnqueuedAt   time.Time
	Requeue      bool

	Room      string
	Partition int
	EventType string
	Headers   map[string]string
	Timestamp time.Time

	SnapshotOffset uint64
}
