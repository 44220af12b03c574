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
	"math/rand"
	"time"

	"synap/internal/synap/errs"
	"synap/internal/synap/wal"
)

func (s *Store) setEntry(sh *shard, key string, create bool) (*entry, error) {
	e, ok := sh.getLive(key, time.Now())
	if !ok {
		if !create {
			return nil, nil
		}
		e = newSetEntry()
		sh.data[key] = e
		return e, nil
	}
	if e.kind != kindSet {
		return nil, errs.New(errs.WrongType, "key %q is a %s, not a set", key, e.kind)
	}
	return e, nil
}

// SAdd adds members to the set at key, returning the number newly added.
func (s *Store) SAdd(key string, members ...[]byte) (int, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, err := s.setEntry(sh, key, true)
	if err != nil {
		sh.mu.Unlock()
		return 0, err
	}
	added := 0
	for _, m := range members {
		k := string(m)
		if _, ok := e.set[k]; !ok {
			e.set[k] = struct{}{}
			added++
		}
	}
	if added == 0 {
		sh.mu.Unlock()
		return 0, nil
	}
	err = s.appendWAL(&wal.Record{Kind: wal.OpSetAdd, Key: key, Members: members})
	sh.mu.Unlock()
	return added, err
}

// SRem removes members from the set at key, returning the number removed.
func (s *Store) SRem(key string, members ...[]byte) (int, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, err := s.setEntry(sh, key, false)
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
		k := string(m)
		if _, ok := e.set[k]; ok {
			delete(e.set, k)
			removed++
		}
	}
	if removed == 0 {
		sh.mu.Unlock()
		return 0, nil
	}
	err = s.appendWAL(&wal.Record{Kind: wal.OpSetRem, Key: key, Members: members})
	sh.mu.Unlock()
	return removed, err
}

// SIsMember reports whether member is in the set at key.
func (s *Store) SIsMember(key string, member []byte) (bool, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.setEntry(sh, key, false)
	if err != nil || e == nil {
		return false, err
	}
	_, ok := e.set[string(member)]
	return ok, nil
}

// SMembers returns every member of the set at key.
func (s *Store) SMembers(key string) ([][]byte, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.setEntry(sh, key, false)
	if err != nil || e == nil {
		return nil, err
	}
	out := make([][]byte, 0, len(e.set))
	for m := range e.set {
		out = append(out, []byte(m))
	}
	return out, nil
}

// SCard returns the number of members in the set at key.
func (s *Store) SCard(key string) (int, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.setEntry(sh, key, false)
	if err != nil || e == nil {
		return 0, err
	}
	return len(e.set), nil
}

// SPop removes and returns a random member of the set at key.
func (s *Store) SPop(key string) ([]byte, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, err := s.setEntry(sh, key, false)
	if err != nil {
		sh.mu.Unlock()
		return nil, err
	}
	if e == nil || len(e.set) == 0 {
		sh.mu.Unlock()
		return nil, nil
	}
	member := randomSetMember(e.set)
	delete(e.set, member)

	m := []byte(member)
	err = s.appendWAL(&wal.Record{Kind: wal.OpSetRem, Key: key, Members: [][]byte{m}})
	sh.mu.Unlock()
	return m, err
}

// SRandMember returns a random member of the set at key without removing
// it.
func (s *Store) SRandMember(key string) ([]byte, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.setEntry(sh, key, false)
	if err != nil || e == nil || len(e.set) == 0 {
		return nil, err
	}
	return []byte(randomSetMember(e.set)), nil
}

// SMove atomically moves member from the set at src to the set at dst.
func (s *Store) SMove(src, dst string, member []byte) (bool, error) {
	shards := s.shardsFor(src, dst)
	unlock := lockMany(shards)
	defer unlock()

	srcSh := s.shardFor(src)
	srcEntry, err := s.setEntry(srcSh, src, false)
	if err != nil {
		return false, err
	}
	if srcEntry == nil {
		return false, nil
	}
	k := string(member)
	if _, ok := srcEntry.set[k]; !ok {
		return false, nil
	}
	dstSh := s.shardFor(dst)
	dstEntry, err := s.setEntry(dstSh, dst, true)
	if err != nil {
		return false, err
	}
	delete(srcEntry.set, k)
	dstEntry.set[k] = struct{}{}

	rec := &wal.Record{Kind: wal.OpSetMove, Key: src, Key2: dst, Members: [][]byte{member}}
	return true, s.appendWAL(rec)
}

// SInter returns the intersection of the sets at keys.
func (s *Store) SInter(keys ...string) ([][]byte, error) {
	sets, err := s.loadSets(keys...)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, nil
	}
	out := [][]byte{}
	for m := range sets[0] {
		inAll := true
		for _, other := range sets[1:] {
			if _, ok := other[m]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, []byte(m))
		}
	}
	return out, nil
}

// SUnion returns the union of the sets at keys.
func (s *Store) SUnion(keys ...string) ([][]byte, error) {
	sets, err := s.loadSets(keys...)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	for _, set := range sets {
		for m := range set {
			seen[m] = struct{}{}
		}
	}
	out := make([][]byte, 0, len(seen))
	for m := range seen {
		out = append(out, []byte(m))
	}
	return out, nil
}

// SDiff returns the members of the set at keys[0] that are not present
// in any of the other sets.
func (s *Store) SDiff(keys ...string) ([][]byte, error) {
	sets, err := s.loadSets(keys...)
	if err != nil || len(sets) == 0 {
		return nil, err
	}
	out := [][]byte{}
	for m := range sets[0] {
		excluded := false
		for _, other := range sets[1:] {
			if _, ok := other[m]; ok {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, []byte(m))
		}
	}
	return out, nil
}

// SInterStore computes the intersection of keys and stores it at dst,
// replacing whatever was there, returning the result's cardinality.
func (s *Store) SInterStore(dst string, keys ...string) (int, error) {
	return s.storeSetResult(dst, s.SInter, keys...)
}

// SUnionStore computes the union of keys and stores it at dst,
// replacing whatever was there, returning the result's cardinality.
func (s *Store) SUnionStore(dst string, keys ...string) (int, error) {
	return s.storeSetResult(dst, s.SUnion, keys...)
}

// SDiffStore computes the difference of keys and stores it at dst,
// replacing whatever was there, returning the result's cardinality.
func (s *Store) SDiffStore(dst string, keys ...string) (int, error) {
	return s.storeSetResult(dst, s.SDiff, keys...)
}

func (s *Store) storeSetResult(dst string, compute func(...string) ([][]byte, error), keys ...string) (int, error) {
	members, err := compute(keys...)
	if err != nil {
		return 0, err
	}
	if _, err := s.Del(dst); err != nil {
		return 0, err
	}
	if len(members) == 0 {
		return 0, nil
	}
	n, err := s.SAdd(dst, members...)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// loadSets snapshots the member sets for keys under a consistent
// multi-shard lock, in ascending shard order.
func (s *Store) loadSets(keys ...string) ([]map[string]struct{}, error) {
	shards := s.shardsFor(keys...)
	unlock := lockMany(shards)
	defer unlock()

	out := make([]map[string]struct{}, 0, len(keys))
	for _, k := range keys {
		sh := s.shardFor(k)
		e, err := s.setEntry(sh, k, false)
		if err != nil {
			return nil, err
		}
		if e == nil {
			out = append(out, map[string]struct{}{})
			continue
		}
		cp := make(map[string]struct{}, len(e.set))
		for m := range e.set {
			cp[m] = struct{}{}
		}
		out = append(out, cp)
	}
	return out, nil
}

func randomSetMember(set map[string]struct{}) string {
	n := rand.Intn(len(set))
	i := 0
	for m := range set {
		if i == n {
			return m
		}
		i++
	}
	panic("unreachable")
}
