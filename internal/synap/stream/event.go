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

// Package stream implements the partitioned, append-only event stream:
// rooms, per-partition monotonic offsets, and consumer groups with
// round-robin partition assignment.
package stream

import "time"

// Event is one record appended to a partition. Offset is assigned by
// the partition it lands in and is monotonic within that partition only
// (Open Question resolved: offsets are per-partition, not per-room).
type Event struct {
	Offset    int64
	Partition int
	Key       string
	EventType string
	Payload   []byte
	Headers   map[string]string
	Timestamp time.Time
}
