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

import "context"

func init() {
	registerHandler("stream.create", handleStreamCreate)
	registerHandler("stream.delete", handleStreamDelete)
	registerHandler("stream.publish", handleStreamPublish)
	registerHandler("stream.consume", handleStreamConsume)
	registerHandler("stream.history", handleStreamConsume)
	registerHandler("stream.stats", handleStreamStats)
	registerHandler("stream.list", handleStreamList)
	registerHandler("group.create", handleGroupJoin)
	registerHandler("group.join", handleGroupJoin)
	registerHandler("group.leave", handleGroupLeave)
	registerHandler("group.heartbeat", handleGroupHeartbeat)
	registerHandler("group.commit", handleGroupCommit)
	registerHandler("group.assignment", handleGroupAssignment)
}

type StreamCreatePayload struct {
	Room       string
	Partitions int
}

func handleStreamCreate(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[StreamCreatePayload](payload)
	if err != nil {
		return nil, err
	}
	d.engines.Stream.CreateRoom(p.Room, p.Partitions)
	return nil, nil
}

type StreamNamePayload struct{ Room string }

func handleStreamDelete(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[StreamNamePayload](payload)
	if err != nil {
		return nil, err
	}
	d.engines.Stream.DeleteRoom(p.Room)
	return nil, nil
}

type StreamPublishPayload struct {
	Room      string
	Key       string
	EventType string
	Payload   []byte
	Headers   map[string]string
}

type StreamPublishResult struct {
	Partition int
	Offset    int64
}

func handleStreamPublish(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[StreamPublishPayload](payload)
	if err != nil {
		return nil, err
	}
	partition, offset, err := d.engines.Stream.Publish(p.Room, p.Key, p.EventType, p.Payload, p.Headers)
	return StreamPublishResult{Partition: partition, Offset: offset}, err
}

type StreamConsumePayload struct {
	Room       string
	Partition  int
	FromOffset int64
	Limit      int
}

func handleStreamConsume(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[StreamConsumePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.Stream.ReadPartition(p.Room, p.Partition, p.FromOffset, p.Limit)
}

func handleStreamStats(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[StreamNamePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.Stream.Stats(p.Room)
}

func handleStreamList(_ context.Context, d *Dispatcher, _ any) (any, error) {
	return d.engines.Stream.ListRooms(), nil
}

type GroupMemberPayload struct {
	Room       string
	Group      string
	ConsumerID string
}

func handleGroupJoin(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[GroupMemberPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.Stream.JoinGroup(p.Room, p.Group, p.ConsumerID)
}

func handleGroupLeave(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[GroupMemberPayload](payload)
	if err != nil {
		return nil, err
	}
	return nil, d.engines.Stream.LeaveGroup(p.Room, p.Group, p.ConsumerID)
}

func handleGroupHeartbeat(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[GroupMemberPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.Stream.Heartbeat(p.Room, p.Group, p.ConsumerID)
}

type GroupCommitPayload struct {
	Room      string
	Group     string
	Partition int
	Offset    int64
}

func handleGroupCommit(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[GroupCommitPayload](payload)
	if err != nil {
		return nil, err
	}
	return nil, d.engines.Stream.CommitOffset(p.Room, p.Group, p.Partition, p.Offset)
}

func handleGroupAssignment(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[GroupMemberPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.Stream.Assignment(p.Room, p.Group, p.ConsumerID)
}
