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
)

func init() {
	registerHandler("kv.set", handleKVSet)
	registerHandler("kv.get", handleKVGet)
	registerHandler("kv.del", handleKVDel)
	registerHandler("kv.exists", handleKVExists)
	registerHandler("kv.incr", handleKVIncr)
	registerHandler("kv.decr", handleKVDecr)
	registerHandler("kv.expire", handleKVExpire)
	registerHandler("kv.persist", handleKVPersist)
	registerHandler("kv.ttl", handleKVTTL)
	registerHandler("kv.rename", handleKVRename)
	registerHandler("kv.scan", handleKVScan)
	registerHandler("kv.mset", handleKVMSet)
	registerHandler("kv.mget", handleKVMGet)
	registerHandler("kv.mdel", handleKVMDel)
	registerHandler("kv.msetnx", handleKVMSetNX)
	registerHandler("kv.append", handleKVAppend)
	registerHandler("kv.getrange", handleKVGetRange)
	registerHandler("kv.setrange", handleKVSetRange)
	registerHandler("kv.getset", handleKVGetSet)
	registerHandler("kv.strlen", handleKVStrLen)
}

type KVSetPayload struct {
	Key   string
	Value []byte
	TTL   time.Duration
	NX    bool
	XX    bool
}

func handleKVSet(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVSetPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.Set(p.Key, p.Value, p.TTL, p.NX, p.XX)
}

type KVKeyPayload struct{ Key string }

func handleKVGet(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.Get(p.Key)
}

type KVKeysPayload struct{ Keys []string }

func handleKVDel(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeysPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.Del(p.Keys...)
}

func handleKVExists(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeysPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.Exists(p.Keys...), nil
}

type KVDeltaPayload struct {
	Key   string
	Delta int64
}

func handleKVIncr(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVDeltaPayload](payload)
	if err != nil {
		return nil, err
	}
	if p.Delta == 0 {
		p.Delta = 1
	}
	return d.engines.KV.IncrBy(p.Key, p.Delta)
}

func handleKVDecr(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVDeltaPayload](payload)
	if err != nil {
		return nil, err
	}
	if p.Delta == 0 {
		p.Delta = 1
	}
	return d.engines.KV.IncrBy(p.Key, -p.Delta)
}

type KVExpirePayload struct {
	Key string
	TTL time.Duration
}

func handleKVExpire(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVExpirePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.Expire(p.Key, p.TTL)
}

func handleKVPersist(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.Persist(p.Key)
}

func handleKVTTL(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.TTL(p.Key)
}

type KVRenamePayload struct {
	Src string
	Dst string
}

func handleKVRename(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVRenamePayload](payload)
	if err != nil {
		return nil, err
	}
	return nil, d.engines.KV.Rename(p.Src, p.Dst)
}

type KVScanPayload struct {
	Cursor string
	Limit  int
}

type KVScanResult struct {
	Keys       []string
	NextCursor string
}

func handleKVScan(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVScanPayload](payload)
	if err != nil {
		return nil, err
	}
	keys, next := d.engines.KV.Scan(p.Cursor, p.Limit)
	return KVScanResult{Keys: keys, NextCursor: next}, nil
}

type KVPairsPayload struct{ Pairs map[string][]byte }

func handleKVMSet(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVPairsPayload](payload)
	if err != nil {
		return nil, err
	}
	return nil, d.engines.KV.MSet(p.Pairs)
}

func handleKVMGet(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeysPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.MGet(p.Keys...), nil
}

func handleKVMDel(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeysPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.MDel(p.Keys...)
}

func handleKVMSetNX(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVPairsPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.MSetNX(p.Pairs)
}

type KVAppendPayload struct {
	Key    string
	Suffix []byte
}

func handleKVAppend(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVAppendPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.Append(p.Key, p.Suffix)
}

type KVRangePayload struct {
	Key   string
	Start int
	End   int
}

func handleKVGetRange(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVRangePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.GetRange(p.Key, p.Start, p.End)
}

type KVSetRangePayload struct {
	Key    string
	Offset int
	Value  []byte
}

func handleKVSetRange(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVSetRangePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SetRange(p.Key, p.Offset, p.Value)
}

type KVGetSetPayload struct {
	Key   string
	Value []byte
}

func handleKVGetSet(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVGetSetPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.GetSet(p.Key, p.Value)
}

func handleKVStrLen(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.StrLen(p.Key)
}
