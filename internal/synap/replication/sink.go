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
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"synap/internal/synap/wal"
)

// MirrorSink receives the same committed record stream a replica would
// and applies it to an external system, keyed by commitID (the WAL
// offset) so a retried delivery is a no-op. Implementations must be
// safe to call with a commitID they've already applied.
type MirrorSink interface {
	ApplyRecord(ctx context.Context, commitID uint64, rec *wal.Record) error
}

// RedisEvaler abstracts the minimal surface a mirror sink needs from a
// Redis client — the same narrow interface a committed-batch persister
// needs, so either a real client or a logging stand-in can be plugged
// in without the sink caring which.
type RedisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
}

// RedisMirrorSink mirrors KV SET operations into an external Redis
// instance using the same SETNX-marker-then-apply idempotency pattern:
// a commit marker is set first, and the value write only happens if the
// marker was newly created, so a redelivered record is a safe no-op.
type RedisMirrorSink struct {
	client    RedisEvaler
	markerTTL time.Duration
}

// NewRedisMirrorSink builds a sink backed by client. markerTTL bounds
// how long commit markers live; it defaults to 24h if non-positive.
func NewRedisMirrorSink(client RedisEvaler, markerTTL time.Duration) *RedisMirrorSink {
	if markerTTL <= 0 {
		markerTTL = 24 * time.Hour
	}
	return &RedisMirrorSink{client: client, markerTTL: markerTTL}
}

const mirrorSetScript = `
local valueKey = KEYS[1]
local markerKey = KEYS[2]
local value = ARGV[1]
local ttlSeconds = tonumber(ARGV[2])
local set = redis.call('SETNX', markerKey, 1)
if set == 1 then
  redis.call('SET', valueKey, value)
  if ttlSeconds and ttlSeconds > 0 then
    redis.call('EXPIRE', markerKey, ttlSeconds)
  end
  return 1
else
  return 0
end
`

// ApplyRecord mirrors a single WAL record. Only KV string writes are
// mirrored today; other op kinds are accepted and ignored rather than
// erroring, so a mixed-workload WAL can still be mirrored for the
// subset of keys it's meaningful for.
func (s *RedisMirrorSink) ApplyRecord(ctx context.Context, commitID uint64, rec *wal.Record) error {
	if rec.Kind != wal.OpKVSet {
		return nil
	}
	keys := []string{mirrorValueKey(rec.Key), mirrorMarkerKey(rec.Key, commitID)}
	args := []interface{}{string(rec.Value), int(s.markerTTL.Seconds())}
	if _, err := s.client.Eval(ctx, mirrorSetScript, keys, args...); err != nil {
		return fmt.Errorf("replication: redis mirror key=%s commit=%d: %w", rec.Key, commitID, err)
	}
	return nil
}

func mirrorValueKey(key string) string { return fmt.Sprintf("synap:mirror:%s", key) }
func mirrorMarkerKey(key string, commitID uint64) string {
	return fmt.Sprintf("synap:mirror-commit:%s:%d", key, commitID)
}

// KafkaProducer is the minimal surface a mirror sink needs from a Kafka
// client. Deliberately library-agnostic: the caller plugs in whichever
// client wraps their broker. The sink uses "<record key>:<CommitID>" as
// the message key, so a replayed commit produces the same message key.
type KafkaProducer interface {
	Produce(ctx context.Context, topic string, key []byte, value []byte, headers map[string]string) error
}

// kafkaMirrorMessage is the JSON payload published for one mirrored
// record.
type kafkaMirrorMessage struct {
	Key      string      `json:"key"`
	Value    []byte      `json:"value,omitempty"`
	Kind     wal.OpKind  `json:"kind"`
	CommitID uint64      `json:"commit_id"`
	TsUnixMs int64       `json:"ts_unix_ms"`
}

// KafkaMirrorSink publishes every committed record as a Kafka message,
// keyed by the record's key and commit offset. It does not apply state
// locally; materializing
// the mirrored stream into whatever shape downstream consumers need is
// their responsibility.
type KafkaMirrorSink struct {
	producer KafkaProducer
	topic    string
}

// NewKafkaMirrorSink builds a sink that publishes to topic via producer.
func NewKafkaMirrorSink(producer KafkaProducer, topic string) *KafkaMirrorSink {
	return &KafkaMirrorSink{producer: producer, topic: topic}
}

func (s *KafkaMirrorSink) ApplyRecord(ctx context.Context, commitID uint64, rec *wal.Record) error {
	msg := kafkaMirrorMessage{
		Key:      rec.Key,
		Value:    rec.Value,
		Kind:     rec.Kind,
		CommitID: commitID,
		TsUnixMs: rec.CommittedAt.UnixMilli(),
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("replication: marshal kafka mirror message commit=%d: %w", commitID, err)
	}
	key := fmt.Sprintf("%s:%d", rec.Key, commitID)
	if err := s.producer.Produce(ctx, s.topic, []byte(key), b, map[string]string{"content-type": "application/json"}); err != nil {
		return fmt.Errorf("replication: kafka mirror produce key=%s commit=%d: %w", rec.Key, commitID, err)
	}
	return nil
}

// PostgresMirrorSink mirrors the committed record stream into a Postgres
// table using an applied_commits marker table for idempotency, the same
// insert-marker-then-apply pattern RedisMirrorSink uses: a commit that
// replays after a crash or a redelivered replica batch is a no-op
// because the marker insert conflicts, affects no row, and the value
// upsert is then skipped.
//
// Expected schema:
//
//	CREATE TABLE IF NOT EXISTS mirror_commits (
//	  commit_id BIGINT PRIMARY KEY,
//	  mirror_key TEXT NOT NULL,
//	  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE TABLE IF NOT EXISTS mirror_values (
//	  mirror_key TEXT PRIMARY KEY,
//	  value BYTEA
//	);
type PostgresMirrorSink struct {
	db             *sql.DB
	defaultTimeout time.Duration
}

// NewPostgresMirrorSink builds a sink backed by db.
func NewPostgresMirrorSink(db *sql.DB) *PostgresMirrorSink {
	return &PostgresMirrorSink{db: db, defaultTimeout: 10 * time.Second}
}

func (s *PostgresMirrorSink) ApplyRecord(ctx context.Context, commitID uint64, rec *wal.Record) error {
	if rec.Kind != wal.OpKVSet {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok && s.defaultTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.defaultTimeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("replication: postgres mirror begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO mirror_commits(commit_id, mirror_key) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		commitID, rec.Key)
	if err != nil {
		return fmt.Errorf("replication: postgres mirror insert commit key=%s commit=%d: %w", rec.Key, commitID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return tx.Commit()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO mirror_values(mirror_key, value) VALUES ($1, $2)
		   ON CONFLICT (mirror_key) DO UPDATE SET value = EXCLUDED.value
		   WHERE EXISTS (SELECT 1 FROM mirror_commits WHERE commit_id = $3)`,
		rec.Key, rec.Value, commitID); err != nil {
		return fmt.Errorf("replication: postgres mirror upsert value key=%s commit=%d: %w", rec.Key, commitID, err)
	}
	return tx.Commit()
}
