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
	registerHandler("queue.create", handleQueueCreate)
	registerHandler("queue.delete", handleQueueDelete)
	registerHandler("queue.publish", handleQueuePublish)
	registerHandler("queue.consume", handleQueueConsume)
	registerHandler("queue.ack", handleQueueAck)
	registerHandler("queue.nack", handleQueueNack)
	registerHandler("queue.stats", handleQueueStats)
	registerHandler("queue.list", handleQueueList)
	registerHandler("queue.purge", handleQueuePurge)
	registerHandler("queue.dlq.consume", handleQueueDLQConsume)
	registerHandler("queue.dlq.purge", handleQueueDLQPurge)
}

type QueueNamePayload struct{ Queue string }

func handleQueueCreate(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[QueueNamePayload](payload)
	if err != nil {
		return nil, err
	}
	return nil, d.engines.Queue.Create(p.Queue)
}

func handleQueueDelete(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[QueueNamePayload](payload)
	if err != nil {
		return nil, err
	}
	d.engines.Queue.Delete(p.Queue)
	return nil, nil
}

type QueuePublishPayload struct {
	Queue      string
	Payload    []byte
	Priority   uint8
	MaxRetries uint32
}

func handleQueuePublish(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[QueuePublishPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.Queue.Publish(p.Queue, p.Payload, p.Priority, p.MaxRetries)
}

func handleQueueConsume(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[QueueNamePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.Queue.Consume(p.Queue)
}

type QueueMessagePayload struct {
	Queue string
	ID    string
}

func handleQueueAck(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[QueueMessagePayload](payload)
	if err != nil {
		return nil, err
	}
	return nil, d.engines.Queue.Ack(p.Queue, p.ID)
}

type QueueNackPayload struct {
	Queue   string
	ID      string
	Requeue bool
}

func handleQueueNack(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[QueueNackPayload](payload)
	if err != nil {
		return nil, err
	}
	return nil, d.engines.Queue.Nack(p.Queue, p.ID, p.Requeue)
}

func handleQueueStats(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[QueueNamePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.Queue.Stats(p.Queue)
}

func handleQueueList(_ context.Context, d *Dispatcher, _ any) (any, error) {
	return d.engines.Queue.List(), nil
}

func handleQueuePurge(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[QueueNamePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.Queue.Purge(p.Queue)
}

func handleQueueDLQConsume(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[QueueNamePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.Queue.DLQConsume(p.Queue)
}

func handleQueueDLQPurge(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[QueueNamePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.Queue.DLQPurge(p.Queue)
}
