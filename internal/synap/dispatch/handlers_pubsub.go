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
	registerHandler("pubsub.publish", handlePubSubPublish)
	registerHandler("pubsub.subscribe", handlePubSubSubscribe)
	registerHandler("pubsub.unsubscribe", handlePubSubUnsubscribe)
}

type PubSubPublishPayload struct {
	Topic   string
	Payload []byte
}

func handlePubSubPublish(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[PubSubPublishPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.PubSub.Publish(p.Topic, p.Payload), nil
}

type PubSubSubscribePayload struct {
	SubscriberID string
	Pattern      string
}

func handlePubSubSubscribe(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[PubSubSubscribePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.PubSub.Subscribe(p.SubscriberID, p.Pattern), nil
}

func handlePubSubUnsubscribe(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[PubSubSubscribePayload](payload)
	if err != nil {
		return nil, err
	}
	d.engines.PubSub.Unsubscribe(p.SubscriberID, p.Pattern)
	return nil, nil
}
