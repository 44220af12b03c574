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
	registerHandler("set.add", handleSetAdd)
	registerHandler("set.rem", handleSetRem)
	registerHandler("set.ismember", handleSetIsMember)
	registerHandler("set.members", handleSetMembers)
	registerHandler("set.card", handleSetCard)
	registerHandler("set.pop", handleSetPop)
	registerHandler("set.randmember", handleSetRandMember)
	registerHandler("set.move", handleSetMove)
	registerHandler("set.inter", handleSetInter)
	registerHandler("set.union", handleSetUnion)
	registerHandler("set.diff", handleSetDiff)
	registerHandler("set.interstore", handleSetInterStore)
	registerHandler("set.unionstore", handleSetUnionStore)
	registerHandler("set.diffstore", handleSetDiffStore)
}

type SetMembersPayload struct {
	Key     string
	Members [][]byte
}

func handleSetAdd(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[SetMembersPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SAdd(p.Key, p.Members...)
}

func handleSetRem(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[SetMembersPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SRem(p.Key, p.Members...)
}

type SetMemberPayload struct {
	Key    string
	Member []byte
}

func handleSetIsMember(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[SetMemberPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SIsMember(p.Key, p.Member)
}

func handleSetMembers(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SMembers(p.Key)
}

func handleSetCard(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SCard(p.Key)
}

func handleSetPop(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SPop(p.Key)
}

func handleSetRandMember(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SRandMember(p.Key)
}

type SetMovePayload struct {
	Src    string
	Dst    string
	Member []byte
}

func handleSetMove(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[SetMovePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SMove(p.Src, p.Dst, p.Member)
}

type SetKeysPayload struct{ Keys []string }

func handleSetInter(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[SetKeysPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SInter(p.Keys...)
}

func handleSetUnion(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[SetKeysPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SUnion(p.Keys...)
}

func handleSetDiff(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[SetKeysPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SDiff(p.Keys...)
}

type SetStorePayload struct {
	Dst  string
	Keys []string
}

func handleSetInterStore(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[SetStorePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SInterStore(p.Dst, p.Keys...)
}

func handleSetUnionStore(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[SetStorePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SUnionStore(p.Dst, p.Keys...)
}

func handleSetDiffStore(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[SetStorePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.SDiffStore(p.Dst, p.Keys...)
}
