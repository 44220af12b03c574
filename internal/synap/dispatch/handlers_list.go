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
	registerHandler("list.lpush", handleListLPush)
	registerHandler("list.rpush", handleListRPush)
	registerHandler("list.lpop", handleListLPop)
	registerHandler("list.rpop", handleListRPop)
	registerHandler("list.range", handleListRange)
	registerHandler("list.len", handleListLen)
	registerHandler("list.index", handleListIndex)
	registerHandler("list.set", handleListSet)
	registerHandler("list.trim", handleListTrim)
}

type ListPushPayload struct {
	Key    string
	Values [][]byte
}

func handleListLPush(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ListPushPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.LPush(p.Key, p.Values...)
}

func handleListRPush(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ListPushPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.RPush(p.Key, p.Values...)
}

type ListPopPayload struct {
	Key   string
	Count int
}

func handleListLPop(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ListPopPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.LPop(p.Key, p.Count)
}

func handleListRPop(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ListPopPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.RPop(p.Key, p.Count)
}

type ListRangePayload struct {
	Key   string
	Start int
	End   int
}

func handleListRange(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ListRangePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.LRange(p.Key, p.Start, p.End)
}

func handleListLen(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.LLen(p.Key)
}

type ListIndexPayload struct {
	Key   string
	Index int
}

func handleListIndex(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ListIndexPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.LIndex(p.Key, p.Index)
}

type ListSetPayload struct {
	Key   string
	Index int
	Value []byte
}

func handleListSet(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ListSetPayload](payload)
	if err != nil {
		return nil, err
	}
	return nil, d.engines.KV.LSet(p.Key, p.Index, p.Value)
}

func handleListTrim(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ListRangePayload](payload)
	if err != nil {
		return nil, err
	}
	return nil, d.engines.KV.LTrim(p.Key, p.Start, p.End)
}
