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

// Package queue implements the priority message queue: per-queue
// pending/in-flight/DLQ state, ACK-deadline sweeping, and retry counting
// with dead-lettering. A requeued message is not delayed (no backoff).
package queue

import "time"

// Message is one unit of work. A message is, at any instant, in exactly
// one of a queue's pending heap, its in-flight table, or its DLQ.
type Message struct {
	ID         string
	Queue      string
	Payload    []byte
	Priority   uint8
	EnqueuedAt time.Time
	Retries    uint32
	MaxRetries uint32
}

// inFlight wraps a Message with its delivery deadline while it is
// checked out by a consumer.
type inFlight struct {
	msg      *Message
	deadline time.Time
}
