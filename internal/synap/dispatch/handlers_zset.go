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
	registerHandler("zadd", handleZAdd)
	registerHandler("zrem", handleZRem)
	registerHandler("zscore", handleZScore)
	registerHandler("zcard", handleZCard)
	registerHandler("zincrby", handleZIncrBy)
	registerHandler("zrange", handleZRange)
	registerHandler("zrangebyscore", handleZRangeByScore)
	registerHandler("zrank", handleZRank)
	registerHandler("zrevrank", handleZRevRank)
	registerHandler("zcount", handleZCount)
	registerHandler("zpopmin", handleZPopMin)
	registerHandler("zpopmax", handleZPopMax)
}

type ZAddPayload struct {
	Key    string
	Scores map[string]float64
}

func handleZAdd(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ZAddPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.ZAdd(p.Key, p.Scores)
}

type ZMembersPayload struct {
	Key     string
	Members []string
}

func handleZRem(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ZMembersPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.ZRem(p.Key, p.Members...)
}

type ZMemberPayload struct {
	Key    string
	Member string
}

type ZScoreResult struct {
	Score float64
	Found bool
}

func handleZScore(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ZMemberPayload](payload)
	if err != nil {
		return nil, err
	}
	score, found, err := d.engines.KV.ZScore(p.Key, p.Member)
	return ZScoreResult{Score: score, Found: found}, err
}

func handleZCard(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[KVKeyPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.ZCard(p.Key)
}

type ZIncrByPayload struct {
	Key    string
	Member string
	Delta  float64
}

func handleZIncrBy(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ZIncrByPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.ZIncrBy(p.Key, p.Member, p.Delta)
}

type ZRangePayload struct {
	Key   string
	Start int
	End   int
}

func handleZRange(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ZRangePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.ZRange(p.Key, p.Start, p.End)
}

type ZRangeByScorePayload struct {
	Key string
	Min float64
	Max float64
}

func handleZRangeByScore(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ZRangeByScorePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.ZRangeByScore(p.Key, p.Min, p.Max)
}

type ZRankResult struct {
	Rank  int
	Found bool
}

func handleZRank(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ZMemberPayload](payload)
	if err != nil {
		return nil, err
	}
	rank, found, err := d.engines.KV.ZRank(p.Key, p.Member)
	return ZRankResult{Rank: rank, Found: found}, err
}

func handleZRevRank(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ZMemberPayload](payload)
	if err != nil {
		return nil, err
	}
	rank, found, err := d.engines.KV.ZRevRank(p.Key, p.Member)
	return ZRankResult{Rank: rank, Found: found}, err
}

func handleZCount(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ZRangeByScorePayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.ZCount(p.Key, p.Min, p.Max)
}

type ZPopPayload struct {
	Key   string
	Count int
}

func handleZPopMin(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ZPopPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.ZPopMin(p.Key, p.Count)
}

func handleZPopMax(_ context.Context, d *Dispatcher, payload any) (any, error) {
	p, err := payloadAs[ZPopPayload](payload)
	if err != nil {
		return nil, err
	}
	return d.engines.KV.ZPopMax(p.Key, p.Count)
}
