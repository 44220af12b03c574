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
	"time"

	"synap/internal/synap/errs"
	"synap/internal/synap/kv"
	"synap/internal/synap/metrics"
	"synap/internal/synap/pubsub"
	"synap/internal/synap/queue"
	"synap/internal/synap/stream"
)

// Engines bundles every engine a command might touch. None are optional
// once wired by the node package, but tests may leave ones they don't
// exercise nil — handlers that touch a nil engine panic, which is
// preferable to silently no-op-ing a misconfigured dispatcher.
type Engines struct {
	KV     *kv.Store
	Queue  *queue.Manager
	Stream *stream.Manager
	PubSub *pubsub.Router
	Admin  Admin
}

// Admin is the narrow surface the admin.* commands need from the node
// that wires everything together: triggering an out-of-band snapshot
// and reporting process-level info the engines themselves don't know
// about (uptime, replica count, build version).
type Admin interface {
	Snapshot(ctx context.Context) (uint64, error)
	Info() map[string]any
	Health() error
	Stats() map[string]any
}

// Options configures a Dispatcher.
type Options struct {
	IdempotencyCacheSize int
	IdempotencyTTL       time.Duration
	RateLimitPerSecond   float64
	RateLimitBurst       int
}

func (o Options) withDefaults() Options {
	if o.IdempotencyCacheSize <= 0 {
		o.IdempotencyCacheSize = 10_000
	}
	if o.IdempotencyTTL <= 0 {
		o.IdempotencyTTL = 5 * time.Minute
	}
	if o.RateLimitBurst <= 0 {
		o.RateLimitBurst = 1
	}
	return o
}

// Dispatcher is the single entry point external transports wrap.
type Dispatcher struct {
	engines    Engines
	idempotent *idempotencyCache
	admission  *admission
}

// New builds a Dispatcher over engines.
func New(engines Engines, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{
		engines:    engines,
		idempotent: newIdempotencyCache(opts.IdempotencyCacheSize, opts.IdempotencyTTL),
		admission:  newAdmission(opts.RateLimitPerSecond, opts.RateLimitBurst),
	}
}

// Handle routes req to its registered handler, applying admission
// control and idempotency caching first.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Response {
	if !req.Deadline.IsZero() && time.Now().After(req.Deadline) {
		return errorResponseCode(req.RequestID, errs.Timeout, "deadline exceeded before dispatch")
	}
	if d.admission != nil && !d.admission.allow() {
		metrics.ObserveAdmissionRejected()
		return errorResponseCode(req.RequestID, errs.RateLimitExceeded, "admission control rejected request")
	}

	cacheable := idempotentCommands[req.Command]
	if cacheable {
		if cached, ok := d.idempotent.get(req.RequestID); ok {
			metrics.ObserveIdempotentHit()
			return cached
		}
	}

	start := time.Now()
	handler, ok := registry[req.Command]
	if !ok {
		resp := errorResponseCode(req.RequestID, errs.InvalidCommand, "unknown command %q", req.Command)
		metrics.ObserveCommand(req.Command, false, time.Since(start))
		return resp
	}

	result, err := handler(ctx, d, req.Payload)
	var resp Response
	if err != nil {
		resp = errorResponse(req.RequestID, err)
	} else {
		resp = Response{Success: true, RequestID: req.RequestID, Payload: result}
	}
	metrics.ObserveCommand(req.Command, err == nil, time.Since(start))

	if cacheable {
		d.idempotent.put(req.RequestID, resp)
	}
	return resp
}

// HandleBatch runs every command in req through Handle, in order,
// returning one Response per command.
func (d *Dispatcher) HandleBatch(ctx context.Context, req BatchRequest) BatchResponse {
	results := make([]Response, len(req.Commands))
	for i, cmd := range req.Commands {
		results[i] = d.Handle(ctx, cmd)
	}
	return BatchResponse{RequestID: req.RequestID, Results: results}
}
