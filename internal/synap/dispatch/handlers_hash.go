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
	registerHandler("hash.set", handleHashSet)
	registerHandler("hash.get", handleHashGet)
	registerHandler("hash.getall", handleHashGetAll)
	registerHandler("hash.del", handleHashDel)
	registerHandler("hash.exists", handleHashExists)
	registerHandler("hash.keys", handleHashKeys)
	registerHandler("hash.values", handleHashValues)
	registerHandler("hash.len", handleHashLen)
	registerHandler("hash.mset", handleHashSet)
	registerHandler("hash.mget", handleHashMGet)
	registerHandler("hash.incrby", handleHashIncrBy)
	registerHandler("hash.incrbyfloat", handleHashIncrByFloat)
	registerHandler("hash.setnx", handleHashSetNX)
}

type HashSetPayload struct {
	Key    string
	Fields map[string][]byte
}

func handleHashSet(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[HashSetPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.HSet(p.Key, p.Fields)
}

type HashFieldPayload struct {
	Key   string
	Field string
}

func handleHashGet(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[HashFieldPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.HGet(p.Key, p.Field)
}

func handleHashGetAll(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.HGetAll(p.Key)
}

type HashFieldsPayload struct {
	Key    string
	Fields []string
}

func handleHashDel(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[HashFieldsPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.HDel(p.Key, p.Fields...)
}

func handleHashExists(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[HashFieldPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.HExists(p.Key, p.Field)
}

func handleHashKeys(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.HKeys(p.Key)
}

func handleHashValues(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.HVals(p.Key)
}

func handleHashLen(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.HLen(p.Key)
}

func handleHashMGet(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[HashFieldsPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.HMGet(p.Key, p.Fields...)
}

type HashIncrByPayload struct {
	Key   string
	Field string
	Delta int64
}

func handleHashIncrBy(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[HashIncrByPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.HIncrBy(p.Key, p.Field, p.Delta)
}

type HashIncrByFloatPayload struct {
	Key   string
	Field string
	Delta float64
}

func handleHashIncrByFloat(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[HashIncrByFloatPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.HIncrByFloat(p.Key, p.Field, p.Delta)
}

type HashSetNXPayload struct {
	Key   string
	Field string
	Value []byte
}

func handleHashSetNX(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[HashSetNXPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.HSetNX(p.Key, p.Field, p.Value)
}
