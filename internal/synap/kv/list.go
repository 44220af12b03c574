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
	"time"

	"synap/internal/synap/errs"
	"synap/internal/synap/wal"
)

func (s *Store) listEntry(sh *shard, key string, create bool) (*entry, error) {
	e, ok := sh.getLive(key, time.Now())
	if !ok {
		if !create {
			return nil, nil
		}
		e = newListEntry()
		sh.data[key] = e
		return e, nil
	}
	if e.kind != kindList {
		return nil, errs.New(errs.WrongType, "key %q is a %s, not a list", key, e.kind)
	}
	return e, nil
}

// LPush prepends values to the list at key (each value pushed in turn,
// so the last argument ends up at the head) and returns the new length.
func (s *Store) LPush(key string, values ...[]byte) (int, error) {
	return s.push(key, true, values)
}

// RPush appends values to the list at key and returns the new length.
func (s *Store) RPush(key string, values ...[]byte) (int, error) {
	return s.push(key, false, values)
}

func (s *Store) push(key string, head bool, values [][]byte) (int, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, err := s.listEntry(sh, key, true)
	if err != nil {
		sh.mu.Unlock()
		return 0, err
	}
	for _, v := range values {
		if head {
			e.list = append([][]byte{append([]byte(nil), v...)}, e.list...)
		} else {
			e.list = append(e.list, append([]byte(nil), v...))
		}
	}
	n := len(e.list)
	err = s.appendWAL(&wal.Record{Kind: wal.OpListPush, Key: key, Members: values, Head: head})
	sh.mu.Unlock()
	return n, err
}

// LPop removes and returns up to count elements from the head of the
// list at key.
func (s *Store) LPop(key string, count int) ([][]byte, error) {
	return s.pop(key, true, count)
}

// RPop removes and returns up to count elements from the tail of the
// list at key.
func (s *Store) RPop(key string, count int) ([][]byte, error) {
	return s.pop(key, false, count)
}

func (s *Store) pop(key string, head bool, count int) ([][]byte, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, err := s.listEntry(sh, key, false)
	if err != nil {
		sh.mu.Unlock()
		return nil, err
	}
	if e == nil || len(e.list) == 0 {
		sh.mu.Unlock()
		return nil, nil
	}
	if count > len(e.list) {
		count = len(e.list)
	}
	var popped [][]byte
	if head {
		popped = e.list[:count]
		e.list = e.list[count:]
	} else {
		popped = e.list[len(e.list)-count:]
		e.list = e.list[:len(e.list)-count]
	}

	rec := &wal.Record{Kind: wal.OpListPop, Key: key, Head: head, Delta: int64(count)}
	err = s.appendWAL(rec)
	sh.mu.Unlock()
	return popped, err
}

// LRange returns the elements of the list at key between start and end
// inclusive, with Go-style negative indices counting from the end.
func (s *Store) LRange(key string, start, end int) ([][]byte, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.listEntry(sh, key, false)
	if err != nil || e == nil {
		return nil, err
	}
	lo, hi := normalizeRange(start, end, len(e.list))
	if lo > hi {
		return [][]byte{}, nil
	}
	out := make([][]byte, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out[i-lo] = append([]byte(nil), e.list[i]...)
	}
	return out, nil
}

// LLen returns the length of the list at key.
func (s *Store) LLen(key string) (int, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.listEntry(sh, key, false)
	if err != nil || e == nil {
		return 0, err
	}
	return len(e.list), nil
}

// LIndex returns the element at index in the list at key.
func (s *Store) LIndex(key string, index int) ([]byte, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, err := s.listEntry(sh, key, false)
	if err != nil || e == nil {
		return nil, err
	}
	if index < 0 {
		index += len(e.list)
	}
	if index < 0 || index >= len(e.list) {
		return nil, nil
	}
	return append([]byte(nil), e.list[index]...), nil
}

// LSet overwrites the element at index in the list at key.
func (s *Store) LSet(key string, index int, value []byte) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, err := s.listEntry(sh, key, false)
	if err != nil {
		sh.mu.Unlock()
		return err
	}
	if e == nil {
		sh.mu.Unlock()
		return errs.New(errs.KeyNotFound, "key %q not found", key)
	}
	if index < 0 {
		index += len(e.list)
	}
	if index < 0 || index >= len(e.list) {
		sh.mu.Unlock()
		return errs.New(errs.OffsetOutOfRange, "index %d out of range", index)
	}
	e.list[index] = append([]byte(nil), value...)
	err = s.appendWAL(&wal.Record{Kind: wal.OpListPush, Key: key, Members: [][]byte{value}, Delta: int64(index)})
	sh.mu.Unlock()
	return err
}

// LTrim keeps only the elements of the list at key between start and end
// inclusive, removing the rest.
func (s *Store) LTrim(key string, start, end int) error {
	sh := s.shardFor(key)
	sh.mu.Lock()
	e, err := s.listEntry(sh, key, false)
	if err != nil {
		sh.mu.Unlock()
		return err
	}
	if e == nil {
		sh.mu.Unlock()
		return nil
	}
	lo, hi := normalizeRange(start, end, len(e.list))
	if lo > hi {
		e.list = nil
	} else {
		e.list = append([][]byte(nil), e.list[lo:hi+1]...)
	}
	sh.mu.Unlock()
	return nil
}
