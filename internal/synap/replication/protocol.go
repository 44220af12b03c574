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

// Package replication implements primary-to-replica WAL streaming: a
// handshake, a catch-up phase (tail replay or full snapshot plus tail),
// a steady state that streams newly committed records, and periodic
// heartbeats, plus optional external mirror sinks fed the same record
// stream.
package replication

import (
	"time"

	"synap/internal/synap/wal"
)

// MsgKind tags an Envelope's purpose on the wire.
type MsgKind uint8

const (
	MsgHandshake MsgKind = iota + 1
	MsgSnapshot
	MsgRecords
	MsgHeartbeat
	MsgHeartbeatAck
	MsgApplyAck
)

// Envelope is the single message type exchanged between a primary and a
// replica. Only the fields relevant to Kind are populated.
type Envelope struct {
	Kind MsgKind

	// MsgHandshake
	ReplicaID         string
	LastAppliedOffset uint64

	// MsgSnapshot
	SnapshotOffset   uint64
	SnapshotSections map[string][]byte

	// MsgRecords
	Records []*wal.Record

	// MsgApplyAck
	AppliedOffset uint64
	BytesReceived int64

	SentAt time.Time
}

// Conn abstracts the transport between a primary and one replica. A
// production deployment implements this over a real connection (TCP,
// gRPC stream, etc); NewLocalPipe in pipe.go provides an in-process
// implementation used for single-binary deployments and tests — the
// handshake/catch-up/steady-state/heartbeat protocol above is identical
// either way.
type Conn interface {
	Send(Envelope) error
	Recv() (Envelope, error)
	Close() error
}
