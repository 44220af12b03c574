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

package kv

import (
	"math"
	"sort"
	"time"

	"synap/internal/synap/errs"
	"synap/internal/synap/wal"
)

// scoredMember is one (member, score) pair in sorted order.
type scoredMember struct {
	Member string
	Score  float64
}

func (s *Store) zsetEntry(sh *shard, key string, create bool) (*entry, error) {
	e, ok := sh.getLive(key, time.Now())
	if !ok {
		if !create {
			return nil, nil
		}
		e = newZSetEntry()
		sh.data[key] = e
		return e, nil
	}
	if e.kind != kindZSet {
		return nil, errs.New(errs.WrongType, "key %q is a %s, not a sorted set", key, e.kind)
	}
	return e, nil
}

// sortedView produces a score-ordered, then lexicographically-ordered
// snapshot of e.zset. Computed on demand rather than maintained
// incrementally — see DESIGN.md for the trade-off this makes.
func sortedView(e *entry) []scoredMember {
	out := make([]scoredMember, 0, len(e.zset))
	for m, sc := range e.zset {
		out = append(out, scoredMember{m, sc})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Member < out[j].Member
	})
	return out
}

// ZAdd sets the score of members in the sorted set at key, returning the
// number of members newly added.
func (s *Store) ZAdd(key string, scores map[string]float64) (int, error) {
	for m, sc := range scores {
		if math.IsNaN(sc) {
			return 0, errs.New(errs.InvalidRequest, "score for member %q is NaN", m)
		}
	}
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, err := s.zsetEntry(sh, key, true)
	if err != nil {
		sh.mu.Unlock()
		return 0, err
	}
	added := 0
	members := make([][]byte, 0, len(scores))
	scoreList := make([]float64, 0, len(scores))
	for m, sc := range scores {
		if sc == 0 {
			sc = 0 // collapse -0 to +0 so ZSCORE/ZRANK comparisons are stable
		}
		if _, exists := e.zset[m]; !exists {
			added++
		}
		e.zset[m] = sc
		members = append(members, []byte(m))
		scoreList = append(scoreList, sc)
	}
	rec := &wal.Record{Kind: wal.OpSortedSetAdd, Key: key, Members: members, Scores: scoreList}
	err = s.appendWAL(rec)
	sh.mu.Unlock()
	return added, err
}

// ZRem removes members from the sorted set at key, returning the number
// removed.
func (s *Store) ZRem(key string, members ...string) (int, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, err := s.zsetEntry(sh, key, false)
	if err != nil {
		sh.mu.Unlock()
		return 0, err
	}
	if e == nil {
		sh.mu.Unlock()
		return 0, nil
	}
	removed := 0
	for _, m := range members {
		if _, ok := e.zset[m]; ok {
			delete(e.zset, m)
			removed++
		}
	}
	if removed == 0 {
		sh.mu.Unlock()
		return 0, nil
	}
	err = s.appendWAL(&wal.Record{Kind: wal.OpSortedSetRem, Key: key, Members: stringsToBytes(members)})
	sh.mu.Unlock()
	return removed, err
}

// ZScore returns the score of member in the sorted set at key.
func (s *Store) ZScore(key, member string) (float64, bool, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.zsetEntry(sh, key, false)
	if err != nil || e == nil {
		return 0, false, err
	}
	sc, ok := e.zset[member]
	return sc, ok, nil
}

// ZCard returns the number of members in the sorted set at key.
func (s *Store) ZCard(key string) (int, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.zsetEntry(sh, key, false)
	if err != nil || e == nil {
		return 0, err
	}
	return len(e.zset), nil
}

// ZIncrBy adds delta to member's score (creating it at 0 first) and
// returns the new score.
func (s *Store) ZIncrBy(key, member string, delta float64) (float64, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, err := s.zsetEntry(sh, key, true)
	if err != nil {
		return 0, err
	}
	next := e.zset[member] + delta
	if math.IsNaN(next) {
		return 0, errs.New(errs.InvalidRequest, "resulting score for member %q is NaN", member)
	}
	e.zset[member] = next

	rec := &wal.Record{Kind: wal.OpSortedSetIncrBy, Key: key, FieldKey: member, Scores: []float64{delta}}
	if err := s.appendWAL(rec); err != nil {
		return next, err
	}
	return next, nil
}

// ZRange returns members between rank start and end inclusive, in
// ascending score order.
func (s *Store) ZRange(key string, start, end int) ([]scoredMember, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.zsetEntry(sh, key, false)
	if err != nil || e == nil {
		return nil, err
	}
	view := sortedView(e)
	lo, hi := normalizeRange(start, end, len(view))
	if lo > hi {
		return nil, nil
	}
	return append([]scoredMember(nil), view[lo:hi+1]...), nil
}

// ZRangeByScore returns members with score in [min, max], ascending.
func (s *Store) ZRangeByScore(key string, min, max float64) ([]scoredMember, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.zsetEntry(sh, key, false)
	if err != nil || e == nil {
		return nil, err
	}
	var out []scoredMember
	for _, sm := range sortedView(e) {
		if sm.Score >= min && sm.Score <= max {
			out = append(out, sm)
		}
	}
	return out, nil
}

// ZRank returns member's 0-based ascending-score rank.
func (s *Store) ZRank(key, member string) (int, bool, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.zsetEntry(sh, key, false)
	if err != nil || e == nil {
		return 0, false, err
	}
	if _, ok := e.zset[member]; !ok {
		return 0, false, nil
	}
	for i, sm := range sortedView(e) {
		if sm.Member == member {
			return i, true, nil
		}
	}
	return 0, false, nil
}

// ZRevRank returns member's 0-based descending-score rank.
func (s *Store) ZRevRank(key, member string) (int, bool, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.zsetEntry(sh, key, false)
	if err != nil || e == nil {
		return 0, false, err
	}
	view := sortedView(e)
	for i := len(view) - 1; i >= 0; i-- {
		if view[i].Member == member {
			return len(view) - 1 - i, true, nil
		}
	}
	return 0, false, nil
}

// ZCount returns the number of members with score in [min, max].
func (s *Store) ZCount(key string, min, max float64) (int, error) {
	members, err := s.ZRangeByScore(key, min, max)
	return len(members), err
}

// ZPopMin removes and returns the count members with the lowest scores.
func (s *Store) ZPopMin(key string, count int) ([]scoredMember, error) {
	return s.zpop(key, count, true)
}

// ZPopMax removes and returns the count members with the highest scores.
func (s *Store) ZPopMax(key string, count int) ([]scoredMember, error) {
	return s.zpop(key, count, false)
}

func (s *Store) zpop(key string, count int, min bool) ([]scoredMember, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, err := s.zsetEntry(sh, key, false)
	if err != nil {
		sh.mu.Unlock()
		return nil, err
	}
	if e == nil || len(e.zset) == 0 {
		sh.mu.Unlock()
		return nil, nil
	}
	view := sortedView(e)
	if !min {
		for i, j := 0, len(view)-1; i < j; i, j = i+1, j-1 {
			view[i], view[j] = view[j], view[i]
		}
	}
	if count > len(view) {
		count = len(view)
	}
	popped := view[:count]
	members := make([][]byte, count)
	for i, sm := range popped {
		delete(e.zset, sm.Member)
		members[i] = []byte(sm.Member)
	}

	rec := &wal.Record{Kind: wal.OpSortedSetRem, Key: key, Members: members}
	err = s.appendWAL(rec)
	sh.mu.Unlock()
	return popped, err
}
