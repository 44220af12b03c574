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

	"synap/internal/synap/errs"
)

// Handler executes one command against the dispatcher's engines and
// returns the payload for a successful Response.
type Handler func(ctx context.Context, d *Dispatcher, payload any) (any, error)

var registry = make(map[string]Handler)

// registerHandler is called from each handlers_*.go file's init(). A
// command name registered twice is a programming error caught at
// startup, not something a caller can trigger.
func registerHandler(command string, h Handler) {
	if _, exists := registry[command]; exists {
		panic("dispatch: command " + command + " registered twice")
	}
	registry[command] = h
}

// payloadAs type-asserts payload to T, returning INVALID_PAYLOAD if it
// doesn't match the shape the handler expects.
func payloadAs[T any](payload any) (T, error) {
	v, ok := payload.(T)
	if !ok {
		var zero T
		return zero, errs.New(errs.InvalidPayload, "payload does not match expected type %T", zero)
	}
	return v, nil
}
