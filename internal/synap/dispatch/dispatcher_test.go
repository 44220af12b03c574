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

package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"synap/internal/synap/kv"
	"synap/internal/synap/pubsub"
	"synap/internal/synap/queue"
	"synap/internal/synap/stream"
)

type fakeAdmin struct {
	snapshotOffset uint64
	healthErr      error
}

func (a *fakeAdmin) Snapshot(context.Context) (uint64, error) { return a.snapshotOffset, nil }
func (a *fakeAdmin) Info() map[string]any                     { return map[string]any{"version": "test"} }
func (a *fakeAdmin) Health() error                            { return a.healthErr }
func (a *fakeAdmin) Stats() map[string]any                    { return map[string]any{"ok": true} }

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	kvStore := kv.NewStore(kv.Options{}, nil)
	t.Cleanup(kvStore.Close)
	queueMgr := queue.NewManager(queue.Options{}, nil)
	t.Cleanup(queueMgr.Close)
	streamMgr := stream.NewManager(stream.Options{}, nil)
	t.Cleanup(streamMgr.Close)
	pubsubRouter := pubsub.NewRouter(pubsub.Options{})

	return New(Engines{
		KV:     kvStore,
		Queue:  queueMgr,
		Stream: streamMgr,
		PubSub: pubsubRouter,
		Admin:  &fakeAdmin{snapshotOffset: 42},
	}, Options{RateLimitPerSecond: 1000, RateLimitBurst: 1000})
}

func TestKVSetGetRoundTrip(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	resp := d.Handle(ctx, Request{Command: "kv.set", RequestID: "r1", Payload: KVSetPayload{Key: "a", Value: []byte("1")}})
	require.True(t, resp.Success)

	resp = d.Handle(ctx, Request{Command: "kv.get", RequestID: "r2", Payload: KVKeyPayload{Key: "a"}})
	require.True(t, resp.Success)
	require.Equal(t, []byte("1"), resp.Payload)
}

func TestUnknownCommandReturnsInvalidCommand(t *testing.T) {
	d := newTestDispatcher(t)
	resp := d.Handle(context.Background(), Request{Command: "bogus.thing", RequestID: "r1"})
	require.False(t, resp.Success)
	require.Equal(t, "INVALID_COMMAND", resp.Error.Code)
}

func TestWrongPayloadTypeReturnsInvalidPayload(t *testing.T) {
	d := newTestDispatcher(t)
	resp := d.Handle(context.Background(), Request{Command: "kv.set", RequestID: "r1", Payload: "not a struct"})
	require.False(t, resp.Success)
	require.Equal(t, "INVALID_PAYLOAD", resp.Error.Code)
}

func TestDuplicateRequestIDReturnsCachedResponseForIdempotentCommand(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	first := d.Handle(ctx, Request{Command: "kv.set", RequestID: "dup-1", Payload: KVSetPayload{Key: "k", Value: []byte("v1")}})
	require.True(t, first.Success)

	// A second kv.set under the same request id with a different value
	// must NOT re-execute; it should return the first response verbatim.
	second := d.Handle(ctx, Request{Command: "kv.set", RequestID: "dup-1", Payload: KVSetPayload{Key: "k", Value: []byte("v2")}})
	require.Equal(t, first, second)

	getResp := d.Handle(ctx, Request{Command: "kv.get", RequestID: "r-get", Payload: KVKeyPayload{Key: "k"}})
	require.Equal(t, []byte("v1"), getResp.Payload)
}

func TestNonIdempotentCommandAlwaysReexecutes(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	_, err := d.engines.KV.Set("counter", []byte("0"), 0, false, false)
	require.NoError(t, err)

	first := d.Handle(ctx, Request{Command: "kv.incr", RequestID: "same-id", Payload: KVDeltaPayload{Key: "counter", Delta: 1}})
	second := d.Handle(ctx, Request{Command: "kv.incr", RequestID: "same-id", Payload: KVDeltaPayload{Key: "counter", Delta: 1}})
	require.True(t, first.Success)
	require.True(t, second.Success)
	require.Equal(t, int64(1), first.Payload)
	require.Equal(t, int64(2), second.Payload)
}

func TestQueuePublishConsumeAck(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	require.NoError(t, getErr(d.Handle(ctx, Request{Command: "queue.create", Payload: QueueNamePayload{Queue: "jobs"}})))

	pubResp := d.Handle(ctx, Request{Command: "queue.publish", Payload: QueuePublishPayload{Queue: "jobs", Payload: []byte("work"), MaxRetries: 3}})
	require.True(t, pubResp.Success)
	id := pubResp.Payload.(string)
	require.NotEmpty(t, id)

	consumeResp := d.Handle(ctx, Request{Command: "queue.consume", Payload: QueueNamePayload{Queue: "jobs"}})
	require.True(t, consumeResp.Success)
	msg := consumeResp.Payload.(*queue.Message)
	require.Equal(t, id, msg.ID)

	ackResp := d.Handle(ctx, Request{Command: "queue.ack", RequestID: "ack-1", Payload: QueueMessagePayload{Queue: "jobs", ID: id}})
	require.True(t, ackResp.Success)
}

func TestStreamPublishAndConsume(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	d.engines.Stream.CreateRoom("events", 2)

	pubResp := d.Handle(ctx, Request{Command: "stream.publish", Payload: StreamPublishPayload{Room: "events", Key: "k1", Payload: []byte("hi")}})
	require.True(t, pubResp.Success)
	result := pubResp.Payload.(StreamPublishResult)

	readResp := d.Handle(ctx, Request{Command: "stream.consume", Payload: StreamConsumePayload{Room: "events", Partition: result.Partition, FromOffset: 0, Limit: 10}})
	require.True(t, readResp.Success)
	events := readResp.Payload.([]stream.Event)
	require.Len(t, events, 1)
	require.Equal(t, []byte("hi"), events[0].Payload)
}

func TestPubSubPublishDeliversToSubscriber(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	subResp := d.Handle(ctx, Request{Command: "pubsub.subscribe", Payload: PubSubSubscribePayload{SubscriberID: "s1", Pattern: "orders.*"}})
	require.True(t, subResp.Success)
	sink := subResp.Payload.(chan pubsub.Message)

	pubResp := d.Handle(ctx, Request{Command: "pubsub.publish", Payload: PubSubPublishPayload{Topic: "orders.created", Payload: []byte("hello")}})
	require.True(t, pubResp.Success)
	require.Equal(t, 1, pubResp.Payload.(int))

	msg := <-sink
	require.Equal(t, "orders.created", msg.Topic)
}

func TestAdminCommands(t *testing.T) {
	d := newTestDispatcher(t)
	ctx := context.Background()

	snapResp := d.Handle(ctx, Request{Command: "snapshot"})
	require.True(t, snapResp.Success)
	require.Equal(t, uint64(42), snapResp.Payload)

	infoResp := d.Handle(ctx, Request{Command: "info"})
	require.True(t, infoResp.Success)

	healthResp := d.Handle(ctx, Request{Command: "health"})
	require.True(t, healthResp.Success)
}

func TestAdmissionControlRejectsOverBudget(t *testing.T) {
	kvStore := kv.NewStore(kv.Options{}, nil)
	t.Cleanup(kvStore.Close)
	d := New(Engines{KV: kvStore}, Options{RateLimitPerSecond: 0.0001, RateLimitBurst: 1})

	first := d.Handle(context.Background(), Request{Command: "kv.get", Payload: KVKeyPayload{Key: "x"}})
	require.True(t, first.Success || first.Error.Code == "KEY_NOT_FOUND")

	second := d.Handle(context.Background(), Request{Command: "kv.get", Payload: KVKeyPayload{Key: "x"}})
	require.False(t, second.Success)
	require.Equal(t, "RATE_LIMIT_EXCEEDED", second.Error.Code)
}

func getErr(resp Response) error {
	if resp.Success {
		return nil
	}
	return &testError{msg: resp.Error.Message}
}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
