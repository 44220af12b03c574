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

package pubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWildcardMatching(t *testing.T) {
	r := NewRouter(Options{})
	s1 := r.Subscribe("s1", "notifications.*")
	s2 := r.Subscribe("s2", "notifications.#")
	s3 := r.Subscribe("s3", "notifications.email")

	n := r.Publish("notifications.email", []byte("hi"))
	require.Equal(t, 3, n)
	requireReceived(t, s1, "notifications.email")
	requireReceived(t, s2, "notifications.email")
	requireReceived(t, s3, "notifications.email")

	n = r.Publish("notifications.email.user", []byte("hi2"))
	require.Equal(t, 1, n)
	requireReceived(t, s2, "notifications.email.user")
	requireNoMessage(t, s1)
	requireNoMessage(t, s3)
}

func TestSameSubscriberMultiplePatternsDeliveredOnce(t *testing.T) {
	r := NewRouter(Options{})
	sink := r.Subscribe("s1", "a.*")
	r.Subscribe("s1", "a.#")

	n := r.Publish("a.b", []byte("x"))
	require.Equal(t, 1, n)
	requireReceived(t, sink, "a.b")
	requireNoMessage(t, sink)
}

func TestUnsubscribeRemovesPattern(t *testing.T) {
	r := NewRouter(Options{})
	sink := r.Subscribe("s1", "a.b")
	r.Unsubscribe("s1", "a.b")

	n := r.Publish("a.b", []byte("x"))
	require.Equal(t, 0, n)

	_, open := <-sink
	require.False(t, open)
}

func TestUnsubscribeAll(t *testing.T) {
	r := NewRouter(Options{})
	r.Subscribe("s1", "a.*")
	r.Subscribe("s1", "b.*")
	r.UnsubscribeAll("s1")

	require.Equal(t, 0, r.Publish("a.x", nil))
	require.Equal(t, 0, r.Publish("b.x", nil))
}

func TestDropsOnFullSinkIncrementsCounter(t *testing.T) {
	r := NewRouter(Options{SinkBufferSize: 1})
	sink := r.Subscribe("s1", "a.b")

	require.Equal(t, 1, r.Publish("a.b", []byte("1")))
	require.Equal(t, 0, r.Publish("a.b", []byte("2")))

	msg := <-sink
	require.Equal(t, []byte("1"), msg.Payload)
}

func TestHashRequiresAtLeastOneSegment(t *testing.T) {
	r := NewRouter(Options{})
	sink := r.Subscribe("s1", "a.#")

	require.Equal(t, 0, r.Publish("a", nil))
	requireNoMessage(t, sink)

	require.Equal(t, 1, r.Publish("a.b", nil))
	requireReceived(t, sink, "a.b")
}

func requireReceived(t *testing.T, sink chan Message, topic string) {
	t.Helper()
	select {
	case msg := <-sink:
		require.Equal(t, topic, msg.Topic)
	case <-time.After(time.Second):
		t.Fatalf("expected a message on sink for topic %q", topic)
	}
}

func requireNoMessage(t *testing.T, sink chan Message) {
	t.Helper()
	select {
	case msg := <-sink:
		t.Fatalf("unexpected message: %+v", msg)
	default:
	}
}
