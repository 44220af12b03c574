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

// Package dispatch maps command envelopes onto the KV, queue, stream, and
// pub/sub engines. It owns request-id based idempotency, admission
// control, and the flat error shape external callers see, so a wire
// transport (HTTP, WebSocket, or anything else) only has to encode and
// decode Request/Response, never touch an engine directly.
package dispatch

import "time"

// Request is one command invocation. Payload's concrete type is defined
// alongside the handler that consumes it; the dispatcher type-asserts it
// on lookup.
type Request struct {
	Command   string
	RequestID string
	Payload   any

	// Deadline, if non-zero, is checked before a handler that would
	// block; a request received after it passes fails with TIMEOUT
	// instead of being handled.
	Deadline time.Time
}

// Error is the flat, wire-shaped error an external caller sees.
type Error struct {
	Code    string
	Message string
	Details map[string]any
}

// Response is the result of one Request.
type Response struct {
	Success   bool
	RequestID string
	Payload   any
	Error     *Error
}

// BatchRequest runs several commands under one request id, in order.
type BatchRequest struct {
	RequestID string
	Commands  []Request
}

// BatchResponse carries one Response per BatchRequest.Commands entry, in
// the same order.
type BatchResponse struct {
	RequestID string
	Results   []Response
}
