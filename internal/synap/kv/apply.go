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
	"fmt"
	"strconv"

	"synap/internal/synap/wal"
)

// Apply implements wal.Applier, replaying a single record against the
// live store during recovery. It never appends back to the log.
func (s *Store) Apply(rec *wal.Record) error {
	sh := s.shardFor(rec.Key)
	switch rec.Kind {
	case wal.OpKVSet:
		sh.mu.Lock()
		e := newStringEntry(rec.Value)
		if rec.HasTTL {
			e.expireAt = rec.TTL
		}
		sh.data[rec.Key] = e
		sh.mu.Unlock()

	case wal.OpKVDel:
		shards := make(map[*shard][]string)
		for _, m := range rec.Members {
			k := string(m)
			sh := s.shardFor(k)
			shards[sh] = append(shards[sh], k)
		}
		for sh, keys := range shards {
			sh.mu.Lock()
			for _, k := range keys {
				delete(sh.data, k)
			}
			sh.mu.Unlock()
		}

	case wal.OpKVIncrBy:
		sh.mu.Lock()
		e, ok := sh.data[rec.Key]
		var cur int64
		if ok && e.kind == kindString {
			fmt.Sscanf(string(e.str), "%d", &cur)
		}
		next := cur + rec.Delta
		sh.data[rec.Key] = newStringEntry([]byte(fmt.Sprintf("%d", next)))
		sh.mu.Unlock()

	case wal.OpKVRename:
		srcSh := s.shardFor(rec.Key)
		dstSh := s.shardFor(rec.Key2)
		srcSh.mu.Lock()
		e, ok := srcSh.data[rec.Key]
		if ok {
			delete(srcSh.data, rec.Key)
		}
		srcSh.mu.Unlock()
		if ok {
			dstSh.mu.Lock()
			dstSh.data[rec.Key2] = e
			dstSh.mu.Unlock()
		}

	case wal.OpHashSet:
		sh.mu.Lock()
		e, err := s.hashEntry(sh, rec.Key, true)
		if err == nil {
			switch {
			case rec.FieldKey != "" && len(rec.Scores) > 0:
				var cur float64
				fmt.Sscanf(string(e.hash[rec.FieldKey]), "%g", &cur)
				e.hash[rec.FieldKey] = []byte(strconv.FormatFloat(cur+rec.Scores[0], 'f', -1, 64))
			case rec.FieldKey != "":
				var cur int64
				fmt.Sscanf(string(e.hash[rec.FieldKey]), "%d", &cur)
				e.hash[rec.FieldKey] = []byte(fmt.Sprintf("%d", cur+rec.Delta))
			}
			for f, v := range rec.Fields {
				e.hash[f] = v
			}
		}
		sh.mu.Unlock()

	case wal.OpHashDel:
		sh.mu.Lock()
		if e, err := s.hashEntry(sh, rec.Key, false); err == nil && e != nil {
			for _, m := range rec.Members {
				delete(e.hash, string(m))
			}
		}
		sh.mu.Unlock()

	case wal.OpListPush:
		sh.mu.Lock()
		e, err := s.listEntry(sh, rec.Key, true)
		if err == nil {
			for _, v := range rec.Members {
				if rec.Head {
					e.list = append([][]byte{v}, e.list...)
				} else {
					e.list = append(e.list, v)
				}
			}
		}
		sh.mu.Unlock()

	case wal.OpListPop:
		sh.mu.Lock()
		if e, err := s.listEntry(sh, rec.Key, false); err == nil && e != nil {
			count := int(rec.Delta)
			if count > len(e.list) {
				count = len(e.list)
			}
			if rec.Head {
				e.list = e.list[count:]
			} else {
				e.list = e.list[:len(e.list)-count]
			}
		}
		sh.mu.Unlock()

	case wal.OpSetAdd:
		sh.mu.Lock()
		e, err := s.setEntry(sh, rec.Key, true)
		if err == nil {
			for _, m := range rec.Members {
				e.set[string(m)] = struct{}{}
			}
		}
		sh.mu.Unlock()

	case wal.OpSetRem:
		sh.mu.Lock()
		if e, err := s.setEntry(sh, rec.Key, false); err == nil && e != nil {
			for _, m := range rec.Members {
				delete(e.set, string(m))
			}
		}
		sh.mu.Unlock()

	case wal.OpSetMove:
		srcSh := s.shardFor(rec.Key)
		dstSh := s.shardFor(rec.Key2)
		srcSh.mu.Lock()
		if e, err := s.setEntry(srcSh, rec.Key, false); err == nil && e != nil {
			for _, m := range rec.Members {
				delete(e.set, string(m))
			}
		}
		srcSh.mu.Unlock()
		dstSh.mu.Lock()
		if e, err := s.setEntry(dstSh, rec.Key2, true); err == nil {
			for _, m := range rec.Members {
				e.set[string(m)] = struct{}{}
			}
		}
		dstSh.mu.Unlock()

	case wal.OpSortedSetAdd:
		sh.mu.Lock()
		e, err := s.zsetEntry(sh, rec.Key, true)
		if err == nil {
			for i, m := range rec.Members {
				e.zset[string(m)] = rec.Scores[i]
			}
		}
		sh.mu.Unlock()

	case wal.OpSortedSetRem:
		sh.mu.Lock()
		if e, err := s.zsetEntry(sh, rec.Key, false); err == nil && e != nil {
			for _, m := range rec.Members {
				delete(e.zset, string(m))
			}
		}
		sh.mu.Unlock()

	case wal.OpSortedSetIncrBy:
		sh.mu.Lock()
		e, err := s.zsetEntry(sh, rec.Key, true)
		if err == nil {
			e.zset[rec.FieldKey] += rec.Scores[0]
		}
		sh.mu.Unlock()
	}
	return nil
}
