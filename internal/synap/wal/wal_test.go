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

package wal

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingApplier struct {
	applied []*Record
}

func (a *recordingApplier) Apply(r *Record) error {
	a.applied = append(a.applied, r)
	return nil
}

type fakeEngine struct {
	state []byte
}

func (f *fakeEngine) SnapshotState() ([]byte, error) { return f.state, nil }
func (f *fakeEngine) LoadSnapshotState(b []byte) error {
	f.state = append([]byte(nil), b...)
	return nil
}

func TestAppendAndRecover(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(Options{Dir: dir, FsyncMode: FsyncAlways})
	require.NoError(t, err)

	off1, err := log.Append(&Record{Kind: OpKVSet, Key: "a", Value: []byte("1")})
	require.NoError(t, err)
	require.Equal(t, uint64(0), off1)

	off2, err := log.Append(&Record{Kind: OpKVSet, Key: "b", Value: []byte("2")})
	require.NoError(t, err)
	require.Equal(t, uint64(1), off2)
	require.NoError(t, log.Close())

	applier := &recordingApplier{}
	applied, err := Recover(dir, nil, applier)
	require.NoError(t, err)
	require.Equal(t, uint64(1), applied)
	require.Len(t, applier.applied, 2)
	require.Equal(t, "a", applier.applied[0].Key)
	require.Equal(t, "b", applier.applied[1].Key)
}

func TestRecoverTornTailIsTruncatedNotFatal(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(Options{Dir: dir, FsyncMode: FsyncAlways})
	require.NoError(t, err)
	_, err = log.Append(&Record{Kind: OpKVSet, Key: "a", Value: []byte("1")})
	require.NoError(t, err)
	require.NoError(t, log.Close())

	segs, err := Segments(dir)
	require.NoError(t, err)
	require.Len(t, segs, 1)

	// Simulate a crash mid-write: append a few garbage bytes to the segment.
	f, err := os.OpenFile(segs[0], os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	applier := &recordingApplier{}
	applied, err := Recover(dir, nil, applier)
	require.NoError(t, err)
	require.Equal(t, uint64(0), applied)
	require.Len(t, applier.applied, 1)
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	snap := &Snapshot{Offset: 42, Sections: map[string][]byte{
		"kv":    []byte("kv-state"),
		"queue": []byte("queue-state"),
	}}
	path, err := WriteSnapshot(dir, snap)
	require.NoError(t, err)

	latest, err := LatestSnapshot(dir)
	require.NoError(t, err)
	require.Equal(t, path, latest)

	loaded, err := ReadSnapshot(latest)
	require.NoError(t, err)
	require.Equal(t, uint64(42), loaded.Offset)
	require.Equal(t, []byte("kv-state"), loaded.Sections["kv"])
}

func TestRecoverAppliesSnapshotThenTail(t *testing.T) {
	dir := t.TempDir()
	log, err := Open(Options{Dir: dir, FsyncMode: FsyncAlways})
	require.NoError(t, err)
	_, err = log.Append(&Record{Kind: OpKVSet, Key: "a", Value: []byte("1")})
	require.NoError(t, err)
	_, err = log.Append(&Record{Kind: OpKVSet, Key: "b", Value: []byte("2")})
	require.NoError(t, err)

	kv := &fakeEngine{}
	_, err = WriteSnapshot(dir, &Snapshot{Offset: 0, Sections: map[string][]byte{"kv": []byte("snap-at-0")}})
	require.NoError(t, err)

	_, err = log.Append(&Record{Kind: OpKVSet, Key: "c", Value: []byte("3")})
	require.NoError(t, err)
	require.NoError(t, log.Close())

	applier := &recordingApplier{}
	applied, err := Recover(dir, map[string]Snapshottable{"kv": kv}, applier)
	require.NoError(t, err)
	require.Equal(t, uint64(2), applied)
	require.Equal(t, "snap-at-0", string(kv.state))
	// Only offset 1 ("b") and 2 ("c") replay after the snapshot at offset 0.
	require.Len(t, applier.applied, 2)
	require.Equal(t, "b", applier.applied[0].Key)
	require.Equal(t, "c", applier.applied[1].Key)
}
