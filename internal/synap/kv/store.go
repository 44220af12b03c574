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
	"sort"
	"strconv"
	"sync"
	"time"

	"synap/internal/synap/errs"
	"synap/internal/synap/wal"
	"synap/pkg/ring"
)

// Options configures a Store.
type Options struct {
	MaxMemoryBytes   int64
	EvictionPolicy   EvictionPolicy
	TTLSweepInterval time.Duration

	// MaxKeyBytes and MaxValueBytes bound key and value length. Zero
	// means unbounded.
	MaxKeyBytes   int
	MaxValueBytes int
}

func (o Options) withDefaults() Options {
	if o.TTLSweepInterval <= 0 {
		o.TTLSweepInterval = 500 * time.Millisecond
	}
	if o.EvictionPolicy == "" {
		o.EvictionPolicy = NoEviction
	}
	return o
}

// Store is the sharded KV engine: Strings, Hash, List, Set and SortedSet
// sub-stores all mounted on the same 64-way shard map; a key is exactly
// one kind at a time.
type Store struct {
	opts    Options
	shards  [ShardCount]*shard
	router  *ring.Router
	log     *wal.Log // nil when running without durability (e.g. unit tests)
	evictor *evictor

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewStore builds a Store. log may be nil, in which case writes are not
// durable — used by tests that only exercise in-memory semantics.
func NewStore(opts Options, log *wal.Log) *Store {
	opts = opts.withDefaults()
	s := &Store{
		opts:   opts,
		router: ring.New(ShardCount),
		log:    log,
		stopCh: make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = newShard()
	}
	s.evictor = newEvictor(opts.EvictionPolicy, opts.MaxMemoryBytes, s.evictKey)
	s.wg.Add(1)
	go s.sweepLoop()
	return s
}

// Close stops the store's background goroutines. It does not close the
// underlying WAL log, which the caller owns.
func (s *Store) Close() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Store) shardFor(key string) *shard {
	return s.shards[s.router.Route(key)]
}

// shardsFor returns the distinct shards owning keys, sorted by shard
// index so multi-key operations can lock them in a stable order.
func (s *Store) shardsFor(keys ...string) []*shard {
	idx := make(map[int]struct{}, len(keys))
	for _, k := range keys {
		idx[s.router.Route(k)] = struct{}{}
	}
	out := make([]int, 0, len(idx))
	for i := range idx {
		out = append(out, i)
	}
	sort.Ints(out)
	shards := make([]*shard, len(out))
	for i, si := range out {
		shards[i] = s.shards[si]
	}
	return shards
}

// KeyCount returns the number of live, non-expired keys across all
// shards. It takes a read lock on every shard in turn, so the result is
// a snapshot that may be stale by the time the caller observes it.
func (s *Store) KeyCount() int {
	now := time.Now()
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, e := range sh.data {
			if !e.expired(now) {
				total++
			}
		}
		sh.mu.RUnlock()
	}
	return total
}

// evictKey removes key from its owning shard; called by the evictor once
// a key is chosen as an eviction victim. It locks only that one shard.
func (s *Store) evictKey(key string) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	delete(sh.data, key)
	sh.mu.Unlock()
}

// appendWAL writes rec to the log if durability is enabled. Called with
// the mutating op's shard lock still held, so recovery never observes a
// memory mutation without the WAL record that produced it.
func (s *Store) appendWAL(rec *wal.Record) error {
	if s.log == nil {
		return nil
	}
	_, err := s.log.Append(rec)
	return err
}

// validateKey rejects a key longer than the configured bound.
func (s *Store) validateKey(key string) error {
	if s.opts.MaxKeyBytes > 0 && len(key) > s.opts.MaxKeyBytes {
		return errs.New(errs.KeyTooLarge, "key %q is %d bytes, exceeds limit of %d", key, len(key), s.opts.MaxKeyBytes)
	}
	return nil
}

// validateValue rejects a value longer than the configured bound.
func (s *Store) validateValue(key string, value []byte) error {
	if s.opts.MaxValueBytes > 0 && len(value) > s.opts.MaxValueBytes {
		return errs.New(errs.ValueTooLarge, "value for key %q is %d bytes, exceeds limit of %d", key, len(value), s.opts.MaxValueBytes)
	}
	return nil
}

// --- Strings ---

// Set stores value at key, replacing whatever was there, with an
// optional TTL (zero duration means no expiry). nx requires key to be
// absent (returns false, KEY_EXISTS-free no-op, if it isn't); xx
// requires key to be present (returns false if it isn't). nx and xx are
// mutually exclusive; passing both behaves as nx. The returned bool
// reports whether the write happened.
func (s *Store) Set(key string, value []byte, ttl time.Duration, nx, xx bool) (bool, error) {
	if err := s.validateKey(key); err != nil {
		return false, err
	}
	if err := s.validateValue(key, value); err != nil {
		return false, err
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	old, existed := sh.data[key]
	live := existed && !old.expired(time.Now())
	if nx && live {
		sh.mu.Unlock()
		return false, nil
	}
	if xx && !nx && !live {
		sh.mu.Unlock()
		return false, nil
	}
	var oldSize int64
	if existed {
		oldSize = entrySize(key, old)
	}
	e := newStringEntry(value)
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	sh.data[key] = e
	newSize := entrySize(key, e)

	rec := &wal.Record{Kind: wal.OpKVSet, Key: key, Value: value}
	if ttl > 0 {
		rec.HasTTL = true
		rec.TTL = e.expireAt
	}
	err := s.appendWAL(rec)
	sh.mu.Unlock()

	s.evictor.touch(key, newSize-oldSize)
	s.evictor.maybeEvict()
	return true, err
}

// Get returns the string value at key. Returns KeyNotFound if absent or
// expired, WrongType if key holds a non-string value.
func (s *Store) Get(key string) ([]byte, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.getLive(key, time.Now())
	if !ok {
		return nil, errs.New(errs.KeyNotFound, "key %q not found", key)
	}
	if e.kind != kindString {
		return nil, errs.New(errs.WrongType, "key %q is a %s, not a string", key, e.kind)
	}
	return append([]byte(nil), e.str...), nil
}

// Del removes keys, returning the number actually removed.
func (s *Store) Del(keys ...string) (int, error) {
	shards := s.shardsFor(keys...)
	unlock := lockMany(shards)
	now := time.Now()
	removed := 0
	for _, key := range keys {
		sh := s.shardFor(key)
		if e, ok := sh.data[key]; ok {
			if !e.expired(now) {
				removed++
			}
			delete(sh.data, key)
		}
	}

	var err error
	if removed > 0 {
		memberBytes := make([][]byte, len(keys))
		for i, k := range keys {
			memberBytes[i] = []byte(k)
		}
		err = s.appendWAL(&wal.Record{Kind: wal.OpKVDel, Members: memberBytes})
	}
	unlock()

	for _, key := range keys {
		s.evictor.forget(key, 0)
	}
	return removed, err
}

// Exists reports how many of keys are present and unexpired.
func (s *Store) Exists(keys ...string) int {
	now := time.Now()
	n := 0
	for _, key := range keys {
		sh := s.shardFor(key)
		sh.mu.RLock()
		if _, ok := sh.getLive(key, now); ok {
			n++
		}
		sh.mu.RUnlock()
	}
	return n
}

// IncrBy atomically adds delta to the integer stored at key (creating it
// at 0 first if absent) and returns the new value.
func (s *Store) IncrBy(key string, delta int64) (int64, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := time.Now()
	e, ok := sh.getLive(key, now)
	var cur int64
	if ok {
		if e.kind != kindString {
			return 0, errs.New(errs.WrongType, "key %q is a %s, not a string", key, e.kind)
		}
		v, err := strconv.ParseInt(string(e.str), 10, 64)
		if err != nil {
			return 0, errs.New(errs.InvalidRequest, "key %q value is not an integer", key)
		}
		cur = v
	}
	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return 0, errs.New(errs.Overflow, "key %q: incrementing by %d overflows int64", key, delta)
	}
	e = newStringEntry([]byte(strconv.FormatInt(next, 10)))
	if ok {
		e.expireAt = sh.data[key].expireAt // INCR preserves an existing TTL
	}
	sh.data[key] = e

	if err := s.appendWAL(&wal.Record{Kind: wal.OpKVIncrBy, Key: key, Delta: delta}); err != nil {
		return next, err
	}
	return next, nil
}

// Expire sets key's TTL to d from now. Returns false if key does not
// exist.
func (s *Store) Expire(key string, d time.Duration) (bool, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.getLive(key, time.Now())
	if !ok {
		return false, nil
	}
	e.expireAt = time.Now().Add(d)

	rec := &wal.Record{Kind: wal.OpKVSet, Key: key, HasTTL: true, TTL: e.expireAt}
	return true, s.appendWAL(rec)
}

// Persist removes key's TTL. Returns false if key does not exist or had
// no TTL.
func (s *Store) Persist(key string) (bool, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.getLive(key, time.Now())
	if !ok || e.expireAt.IsZero() {
		return false, nil
	}
	e.expireAt = time.Time{}
	return true, s.appendWAL(&wal.Record{Kind: wal.OpKVSet, Key: key})
}

// TTL returns the remaining time-to-live for key, or -1 if it has none,
// or errs.KeyNotFound if key does not exist.
func (s *Store) TTL(key string) (time.Duration, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.getLive(key, time.Now())
	if !ok {
		return 0, errs.New(errs.KeyNotFound, "key %q not found", key)
	}
	if e.expireAt.IsZero() {
		return -1, nil
	}
	return time.Until(e.expireAt), nil
}

// Rename moves the value at src to dst, overwriting dst.
func (s *Store) Rename(src, dst string) error {
	shards := s.shardsFor(src, dst)
	unlock := lockMany(shards)
	defer unlock()

	srcSh := s.shardFor(src)
	e, ok := srcSh.getLive(src, time.Now())
	if !ok {
		return errs.New(errs.KeyNotFound, "key %q not found", src)
	}
	delete(srcSh.data, src)
	dstSh := s.shardFor(dst)
	dstSh.data[dst] = e

	return s.appendWAL(&wal.Record{Kind: wal.OpKVRename, Key: src, Key2: dst})
}

// Scan returns up to limit keys matching a cursor-based iteration,
// starting lexicographically at or after cursor. It returns the next
// cursor ("" when iteration is complete).
func (s *Store) Scan(cursor string, limit int) (keys []string, nextCursor string) {
	now := time.Now()
	var all []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, e := range sh.data {
			if !e.expired(now) && k >= cursor {
				all = append(all, k)
			}
		}
		sh.mu.RUnlock()
	}
	sort.Strings(all)
	if len(all) <= limit {
		return all, ""
	}
	return all[:limit], all[limit]
}

// MSet sets multiple key/value pairs atomically with respect to any
// single-key reader (each key's shard is locked for the duration).
func (s *Store) MSet(pairs map[string][]byte) error {
	keys := make([]string, 0, len(pairs))
	for k, v := range pairs {
		if err := s.validateKey(k); err != nil {
			return err
		}
		if err := s.validateValue(k, v); err != nil {
			return err
		}
		keys = append(keys, k)
	}
	shards := s.shardsFor(keys...)
	unlock := lockMany(shards)
	for k, v := range pairs {
		sh := s.shardFor(k)
		sh.data[k] = newStringEntry(v)
	}

	var err error
	for k, v := range pairs {
		if err = s.appendWAL(&wal.Record{Kind: wal.OpKVSet, Key: k, Value: v}); err != nil {
			break
		}
	}
	unlock()
	return err
}

// MSetNX sets pairs only if none of the keys already exist; returns
// false (and sets nothing) if any key already exists.
func (s *Store) MSetNX(pairs map[string][]byte) (bool, error) {
	keys := make([]string, 0, len(pairs))
	for k, v := range pairs {
		if err := s.validateKey(k); err != nil {
			return false, err
		}
		if err := s.validateValue(k, v); err != nil {
			return false, err
		}
		keys = append(keys, k)
	}
	shards := s.shardsFor(keys...)
	unlock := lockMany(shards)
	now := time.Now()
	for k := range pairs {
		sh := s.shardFor(k)
		if _, ok := sh.getLive(k, now); ok {
			unlock()
			return false, nil
		}
	}
	for k, v := range pairs {
		sh := s.shardFor(k)
		sh.data[k] = newStringEntry(v)
	}

	var err error
	for k, v := range pairs {
		if err = s.appendWAL(&wal.Record{Kind: wal.OpKVSet, Key: k, Value: v}); err != nil {
			break
		}
	}
	unlock()
	return true, err
}

// MGet returns the string values for keys in order; an absent or
// non-string key yields a nil slice at that position.
func (s *Store) MGet(keys ...string) [][]byte {
	now := time.Now()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		sh := s.shardFor(k)
		sh.mu.RLock()
		if e, ok := sh.getLive(k, now); ok && e.kind == kindString {
			out[i] = append([]byte(nil), e.str...)
		}
		sh.mu.RUnlock()
	}
	return out
}

// MDel is an alias of Del kept for symmetry with MSet/MGet in the
// command catalog.
func (s *Store) MDel(keys ...string) (int, error) { return s.Del(keys...) }

// Append appends suffix to the string at key, creating it if absent, and
// returns the resulting length.
func (s *Store) Append(key string, suffix []byte) (int, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.getLive(key, time.Now())
	if !ok {
		e = newStringEntry(nil)
		sh.data[key] = e
	} else if e.kind != kindString {
		return 0, errs.New(errs.WrongType, "key %q is a %s, not a string", key, e.kind)
	}
	e.str = append(e.str, suffix...)

	if err := s.appendWAL(&wal.Record{Kind: wal.OpKVSet, Key: key, Value: e.str}); err != nil {
		return len(e.str), err
	}
	return len(e.str), nil
}

// GetRange returns the substring of key's value between start and end
// inclusive (Go-style negative indices count from the end).
func (s *Store) GetRange(key string, start, end int) ([]byte, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.getLive(key, time.Now())
	if !ok {
		return nil, nil
	}
	if e.kind != kindString {
		return nil, errs.New(errs.WrongType, "key %q is a %s, not a string", key, e.kind)
	}
	lo, hi := normalizeRange(start, end, len(e.str))
	if lo > hi {
		return []byte{}, nil
	}
	return append([]byte(nil), e.str[lo:hi+1]...), nil
}

// SetRange overwrites key's value starting at offset with value,
// zero-padding if offset extends past the current length.
func (s *Store) SetRange(key string, offset int, value []byte) (int, error) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.getLive(key, time.Now())
	if !ok {
		e = newStringEntry(nil)
		sh.data[key] = e
	} else if e.kind != kindString {
		return 0, errs.New(errs.WrongType, "key %q is a %s, not a string", key, e.kind)
	}
	need := offset + len(value)
	if need > len(e.str) {
		padded := make([]byte, need)
		copy(padded, e.str)
		e.str = padded
	}
	copy(e.str[offset:], value)

	if err := s.appendWAL(&wal.Record{Kind: wal.OpKVSet, Key: key, Value: e.str}); err != nil {
		return len(e.str), err
	}
	return len(e.str), nil
}

// GetSet atomically sets key to value and returns the previous value.
func (s *Store) GetSet(key string, value []byte) ([]byte, error) {
	if err := s.validateKey(key); err != nil {
		return nil, err
	}
	if err := s.validateValue(key, value); err != nil {
		return nil, err
	}

	sh := s.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	var prev []byte
	if e, ok := sh.getLive(key, time.Now()); ok {
		if e.kind != kindString {
			return nil, errs.New(errs.WrongType, "key %q is a %s, not a string", key, e.kind)
		}
		prev = append([]byte(nil), e.str...)
	}
	sh.data[key] = newStringEntry(value)

	return prev, s.appendWAL(&wal.Record{Kind: wal.OpKVSet, Key: key, Value: value})
}

// StrLen returns the length of the string at key, or 0 if absent.
func (s *Store) StrLen(key string) (int, error) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	e, ok := sh.getLive(key, time.Now())
	if !ok {
		return 0, nil
	}
	if e.kind != kindString {
		return 0, errs.New(errs.WrongType, "key %q is a %s, not a string", key, e.kind)
	}
	return len(e.str), nil
}

func normalizeRange(start, end, length int) (int, int) {
	if start < 0 {
		start += length
	}
	if end < 0 {
		end += length
	}
	if start < 0 {
		start = 0
	}
	if end >= length {
		end = length - 1
	}
	return start, end
}
