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

// Package errs defines the machine-readable error codes shared by every
// engine and by the command dispatcher. Engines never panic or abort the
// process on a client-triggered fault; they return an *errs.Error instead.
package errs

import (
	"errors"
	"fmt"
)

// Code is one of the error codes from the command catalog.
type Code string

const (
	InvalidRequest       Code = "INVALID_REQUEST"
	InvalidCommand       Code = "INVALID_COMMAND"
	InvalidPayload       Code = "INVALID_PAYLOAD"
	Unauthorized         Code = "UNAUTHORIZED"
	Forbidden            Code = "FORBIDDEN"
	KeyNotFound          Code = "KEY_NOT_FOUND"
	QueueNotFound        Code = "QUEUE_NOT_FOUND"
	RoomNotFound         Code = "ROOM_NOT_FOUND"
	TopicNotFound        Code = "TOPIC_NOT_FOUND"
	KeyExists            Code = "KEY_EXISTS"
	QueueExists          Code = "QUEUE_EXISTS"
	MessageNotFound      Code = "MESSAGE_NOT_FOUND"
	WrongType            Code = "WRONG_TYPE"
	Overflow             Code = "OVERFLOW"
	PayloadTooLarge      Code = "PAYLOAD_TOO_LARGE"
	RateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"
	Timeout              Code = "TIMEOUT"
	InternalError        Code = "INTERNAL_ERROR"
	ServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	QueueFull            Code = "QUEUE_FULL"
	MemoryLimitExceeded  Code = "MEMORY_LIMIT_EXCEEDED"
	ReplicationError     Code = "REPLICATION_ERROR"
	OffsetOutOfRange     Code = "OFFSET_OUT_OF_RANGE"
	GroupRebalancing     Code = "GROUP_REBALANCING"
	KeyTooLarge          Code = "KEY_TOO_LARGE"
	ValueTooLarge        Code = "VALUE_TOO_LARGE"
	PartitionNotFound    Code = "PARTITION_NOT_FOUND"
	RecoveryFailed       Code = "RECOVERY_FAILED"
)

// Error is the concrete error type every engine returns for client- and
// resource-level faults. It carries a machine-readable Code plus a
// human-readable Message, shaped to map directly onto a wire error
// envelope without this package knowing anything about wire framing.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an *Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches structured details to an error, used sparingly for
// things like the key that triggered a WRONG_TYPE.
func (e *Error) WithDetails(d map[string]any) *Error {
	e.Details = d
	return e
}

// CodeOf extracts the Code from err if it is (or wraps) an *Error, and
// InternalError otherwise. Fatal process-aborting faults (recovery
// corruption, out-of-order replication) never flow through this path;
// those are logged and the process exits.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InternalError
}
