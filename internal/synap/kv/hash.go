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
	"strconv"
	"time"

	"synap/internal/synap/errs"
	"synap/internal/synap/wal"
)

func (s *Store) hashEntry(sh *shard, key string, create bool) (*entry, error) {
	e, ok := sh.getLive(key, time.Now())
	if !ok {
		if !create {
			return nil, nil
		}
		e = newHashEntry()
		sh.data[key] = e
		return e, nil
	}
	if e.kind != kindHash {
		return nil, errs.New(errs.WrongType, "key %q is a %s, not a hash", key, e.kind)
	}
	return e, nil
}

// HSet sets one or more fields in the hash at key, returning the number
// of fields newly created (not overwritten).
func (s *Store) HSet(key string, fields map[string][]byte) (int, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, err := s.hashEntry(sh, key, true)
	if err != nil {
		return 0, err
	}
	created := 0
	for f, v := range fields {
		if _, exists := e.hash[f]; !exists {
			created++
		}
		e.hash[f] = append([]byte(nil), v...)
	}

	return created, s.appendWAL(&wal.Record{Kind: wal.OpHashSet, Key: key, Fields: fields})
}

// HGet returns the value of field in the hash at key.
func (s *Store) HGet(key, field string) ([]byte, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.hashEntry(sh, key, false)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errs.New(errs.KeyNotFound, "key %q not found", key)
	}
	v, ok := e.hash[field]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// HGetAll returns a copy of every field/value pair in the hash at key.
func (s *Store) HGetAll(key string) (map[string][]byte, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.hashEntry(sh, key, false)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return map[string][]byte{}, nil
	}
	out := make(map[string][]byte, len(e.hash))
	for f, v := range e.hash {
		out[f] = append([]byte(nil), v...)
	}
	return out, nil
}

// HDel removes fields from the hash at key, returning the number removed.
func (s *Store) HDel(key string, fields ...string) (int, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, err := s.hashEntry(sh, key, false)
	if err != nil {
		return 0, err
	}
	if e == nil {
		return 0, nil
	}
	removed := 0
	for _, f := range fields {
		if _, ok := e.hash[f]; ok {
			delete(e.hash, f)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, s.appendWAL(&wal.Record{Kind: wal.OpHashDel, Key: key, Members: stringsToBytes(fields)})
}

// HExists reports whether field exists in the hash at key.
func (s *Store) HExists(key, field string) (bool, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.hashEntry(sh, key, false)
	if err != nil || e == nil {
		return false, err
	}
	_, ok := e.hash[field]
	return ok, nil
}

// HKeys returns the field names of the hash at key, sorted for a stable
// iteration order.
func (s *Store) HKeys(key string) ([]string, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.hashEntry(sh, key, false)
	if err != nil || e == nil {
		return nil, err
	}
	out := make([]string, 0, len(e.hash))
	for f := range e.hash {
		out = append(out, f)
	}
	sort.Strings(out)
	return out, nil
}

// HVals returns the values of the hash at key in the same order HKeys
// would return the fields.
func (s *Store) HVals(key string) ([][]byte, error) {
	fields, err := s.HKeys(key)
	if err != nil || fields == nil {
		return nil, err
	}
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, _ := s.hashEntry(sh, key, false)
	if e == nil {
		return nil, nil
	}
	out := make([][]byte, len(fields))
	for i, f := range fields {
		out[i] = append([]byte(nil), e.hash[f]...)
	}
	return out, nil
}

// HLen returns the number of fields in the hash at key.
func (s *Store) HLen(key string) (int, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.hashEntry(sh, key, false)
	if err != nil || e == nil {
		return 0, err
	}
	return len(e.hash), nil
}

// HMGet returns the values of fields in the hash at key, nil where
// absent.
func (s *Store) HMGet(key string, fields ...string) ([][]byte, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.hashEntry(sh, key, false)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(fields))
	if e == nil {
		return out, nil
	}
	for i, f := range fields {
		if v, ok := e.hash[f]; ok {
			out[i] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

// HSetNX sets field only if it does not already exist, returning whether
// it was set.
func (s *Store) HSetNX(key, field string, value []byte) (bool, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, err := s.hashEntry(sh, key, true)
	if err != nil {
		return false, err
	}
	if _, exists := e.hash[field]; exists {
		return false, nil
	}
	e.hash[field] = append([]byte(nil), value...)

	err = s.appendWAL(&wal.Record{Kind: wal.OpHashSet, Key: key, Fields: map[string][]byte{field: value}})
	return true, err
}

// HIncrBy adds delta to the integer stored in field (creating it at 0
// first) and returns the new value.
func (s *Store) HIncrBy(key, field string, delta int64) (int64, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, err := s.hashEntry(sh, key, true)
	if err != nil {
		return 0, err
	}
	var cur int64
	if v, ok := e.hash[field]; ok {
		cur, err = strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return 0, errs.New(errs.InvalidRequest, "field %q is not an integer", field)
		}
	}
	next := cur + delta
	e.hash[field] = []byte(strconv.FormatInt(next, 10))

	rec := &wal.Record{Kind: wal.OpHashSet, Key: key, FieldKey: field, Delta: delta}
	if err := s.appendWAL(rec); err != nil {
		return next, err
	}
	return next, nil
}

// HIncrByFloat adds delta to the float stored in field (creating it at 0
// first) and returns the new value.
func (s *Store) HIncrByFloat(key, field string, delta float64) (float64, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, err := s.hashEntry(sh, key, true)
	if err != nil {
		return 0, err
	}
	var cur float64
	if v, ok := e.hash[field]; ok {
		cur, err = strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, errs.New(errs.InvalidRequest, "field %q is not a float", field)
		}
	}
	next := cur + delta
	if math.IsNaN(next) {
		return 0, errs.New(errs.InvalidRequest, "resulting value for field %q is NaN", field)
	}
	e.hash[field] = []byte(strconv.FormatFloat(next, 'f', -1, 64))

	rec := &wal.Record{Kind: wal.OpHashSet, Key: key, FieldKey: field, Scores: []float64{delta}}
	if err := s.appendWAL(rec); err != nil {
		return next, err
	}
	return next, nil
}

func stringsToBytes(ss []string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}
