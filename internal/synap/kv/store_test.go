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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"synap/internal/synap/errs"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(Options{}, nil)
	t.Cleanup(s.Close)
	return s
}

func TestSetGetDel(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Set("a", []byte("1"), 0, false, false)
	require.NoError(t, err)

	v, err := s.Get("a")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)

	n, err := s.Del("a", "missing")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = s.Get("a")
	require.Error(t, err)
	require.Equal(t, errs.KeyNotFound, errs.CodeOf(err))
}

func TestGetWrongType(t *testing.T) {
	s := newTestStore(t)
	_, err := s.HSet("h", map[string][]byte{"f": []byte("v")})
	require.NoError(t, err)

	_, err = s.Get("h")
	require.Error(t, err)
	require.Equal(t, errs.WrongType, errs.CodeOf(err))
}

func TestExpireAndTTL(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Set("a", []byte("1"), 0, false, false)
	require.NoError(t, err)

	ok, err := s.Expire("a", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	ttl, err := s.TTL("a")
	require.NoError(t, err)
	require.Greater(t, ttl, 59*time.Minute)

	ok, err = s.Persist("a")
	require.NoError(t, err)
	require.True(t, ok)

	ttl, err = s.TTL("a")
	require.NoError(t, err)
	require.Equal(t, time.Duration(-1), ttl)
}

func TestExpiredKeyIsTreatedAsAbsent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Set("a", []byte("1"), time.Millisecond, false, false)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = s.Get("a")
	require.Error(t, err)
	require.Equal(t, errs.KeyNotFound, errs.CodeOf(err))
}

func TestIncrBy(t *testing.T) {
	s := newTestStore(t)
	v, err := s.IncrBy("counter", 5)
	require.NoError(t, err)
	require.Equal(t, int64(5), v)

	v, err = s.IncrBy("counter", -2)
	require.NoError(t, err)
	require.Equal(t, int64(3), v)
}

func TestMSetMGetMSetNX(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.MSet(map[string][]byte{"a": []byte("1"), "b": []byte("2")}))

	vals := s.MGet("a", "b", "c")
	require.Equal(t, [][]byte{[]byte("1"), []byte("2"), nil}, vals)

	ok, err := s.MSetNX(map[string][]byte{"a": []byte("X"), "z": []byte("9")})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.MSetNX(map[string][]byte{"z": []byte("9"), "y": []byte("8")})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRename(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Set("a", []byte("1"), 0, false, false)
	require.NoError(t, err)
	require.NoError(t, s.Rename("a", "b"))

	_, err = s.Get("a")
	require.Error(t, err)

	v, err := s.Get("b")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)
}

func TestAppendGetRangeSetRangeStrLen(t *testing.T) {
	s := newTestStore(t)
	n, err := s.Append("a", []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	n, err = s.Append("a", []byte(" world"))
	require.NoError(t, err)
	require.Equal(t, 11, n)

	sub, err := s.GetRange("a", 0, 4)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), sub)

	l, err := s.StrLen("a")
	require.NoError(t, err)
	require.Equal(t, 11, l)

	_, err = s.SetRange("a", 6, []byte("there"))
	require.NoError(t, err)
	v, err := s.Get("a")
	require.NoError(t, err)
	require.Equal(t, []byte("hello there"), v)
}

func TestHashOperations(t *testing.T) {
	s := newTestStore(t)
	created, err := s.HSet("h", map[string][]byte{"f1": []byte("v1")})
	require.NoError(t, err)
	require.Equal(t, 1, created)

	v, err := s.HGet("h", "f1")
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	ok, err := s.HSetNX("h", "f1", []byte("nope"))
	require.NoError(t, err)
	require.False(t, ok)

	n, err := s.HIncrBy("h", "counter", 3)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	removed, err := s.HDel("h", "f1")
	require.NoError(t, err)
	require.Equal(t, 1, removed)
}

func TestListOperations(t *testing.T) {
	s := newTestStore(t)
	_, err := s.RPush("l", []byte("a"), []byte("b"), []byte("c"))
	require.NoError(t, err)
	_, err = s.LPush("l", []byte("z"))
	require.NoError(t, err)

	length, err := s.LLen("l")
	require.NoError(t, err)
	require.Equal(t, 4, length)

	vals, err := s.LRange("l", 0, -1)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("z"), []byte("a"), []byte("b"), []byte("c")}, vals)

	popped, err := s.LPop("l", 1)
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("z")}, popped)
}

func TestSetOperationsAndAlgebra(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SAdd("s1", []byte("a"), []byte("b"), []byte("c"))
	require.NoError(t, err)
	_, err = s.SAdd("s2", []byte("b"), []byte("c"), []byte("d"))
	require.NoError(t, err)

	inter, err := s.SInter("s1", "s2")
	require.NoError(t, err)
	require.ElementsMatch(t, [][]byte{[]byte("b"), []byte("c")}, inter)

	union, err := s.SUnion("s1", "s2")
	require.NoError(t, err)
	require.ElementsMatch(t, [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")}, union)

	diff, err := s.SDiff("s1", "s2")
	require.NoError(t, err)
	require.ElementsMatch(t, [][]byte{[]byte("a")}, diff)

	moved, err := s.SMove("s1", "s2", []byte("a"))
	require.NoError(t, err)
	require.True(t, moved)
}

func TestSortedSetOperations(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ZAdd("z", map[string]float64{"a": 1, "b": 3, "c": 2})
	require.NoError(t, err)

	view, err := s.ZRange("z", 0, -1)
	require.NoError(t, err)
	require.Len(t, view, 3)
	require.Equal(t, "a", view[0].Member)
	require.Equal(t, "c", view[1].Member)
	require.Equal(t, "b", view[2].Member)

	rank, ok, err := s.ZRank("z", "b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, rank)

	score, err := s.ZIncrBy("z", "a", 10)
	require.NoError(t, err)
	require.Equal(t, float64(11), score)
}

func TestBitmapAndHyperLogLog(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SetBit("bm", 7, 1)
	require.NoError(t, err)
	bit, err := s.GetBit("bm", 7)
	require.NoError(t, err)
	require.Equal(t, 1, bit)
	count, err := s.BitCount("bm")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = s.PFAdd("hll", []byte("a"), []byte("b"), []byte("c"), []byte("a"))
	require.NoError(t, err)
	card, err := s.PFCount("hll")
	require.NoError(t, err)
	require.InDelta(t, 3, float64(card), 2)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Set("a", []byte("1"), 0, false, false)
	require.NoError(t, err)
	_, err = s.HSet("h", map[string][]byte{"f": []byte("v")})
	require.NoError(t, err)

	body, err := s.SnapshotState()
	require.NoError(t, err)

	restored := newTestStore(t)
	require.NoError(t, restored.LoadSnapshotState(body))

	v, err := restored.Get("a")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)

	hv, err := restored.HGet("h", "f")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), hv)
}
