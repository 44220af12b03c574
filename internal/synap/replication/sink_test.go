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
	"testing"

	"github.com/stretchr/testify/require"

	"synap/internal/synap/wal"
)

type fakeRedisEvaler struct {
	calls int
}

func (f *fakeRedisEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	f.calls++
	return int64(1), nil
}

func TestRedisMirrorSinkOnlyMirrorsKVSet(t *testing.T) {
	evaler := &fakeRedisEvaler{}
	sink := NewRedisMirrorSink(evaler, 0)

	require.NoError(t, sink.ApplyRecord(context.Background(), 1, &wal.Record{Kind: wal.OpKVSet, Key: "a", Value: []byte("v")}))
	require.Equal(t, 1, evaler.calls)

	require.NoError(t, sink.ApplyRecord(context.Background(), 2, &wal.Record{Kind: wal.OpQueuePublish, Key: "q"}))
	require.Equal(t, 1, evaler.calls)
}

type fakeKafkaProducer struct {
	topics []string
}

func (f *fakeKafkaProducer) Produce(ctx context.Context, topic string, key, value []byte, headers map[string]string) error {
	f.topics = append(f.topics, topic)
	return nil
}

func TestKafkaMirrorSinkPublishesEveryRecord(t *testing.T) {
	producer := &fakeKafkaProducer{}
	sink := NewKafkaMirrorSink(producer, "synap-commits")

	require.NoError(t, sink.ApplyRecord(context.Background(), 1, &wal.Record{Kind: wal.OpKVSet, Key: "a", Value: []byte("v")}))
	require.NoError(t, sink.ApplyRecord(context.Background(), 2, &wal.Record{Kind: wal.OpStreamPublish, Key: "room"}))
	require.Equal(t, []string{"synap-commits", "synap-commits"}, producer.topics)
}
