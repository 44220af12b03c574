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
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	cron "github.com/robfig/cron/v3"
)

// Snapshottable is implemented by each durable engine (KV, Queue, Stream).
// SnapshotState must return a self-contained blob; LoadSnapshotState must
// accept exactly what SnapshotState produced.
type Snapshottable interface {
	SnapshotState() ([]byte, error)
	LoadSnapshotState([]byte) error
}

// Snapshot is a full, point-in-time dump of engine state tagged with the
// last log offset it includes.
type Snapshot struct {
	Offset   uint64
	Sections map[string][]byte // engine name -> opaque state blob
}

// WriteSnapshot serializes snap to a temp file in dir, fsyncs it, and
// atomically renames it to snapshot-<offset>. The rename is the commit
// point: a reader never observes a partially written snapshot file.
func WriteSnapshot(dir string, snap *Snapshot) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	finalPath := filepath.Join(dir, fmt.Sprintf("snapshot-%020d", snap.Offset))
	tmpPath := finalPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	if err := writeFileHeader(f); err != nil {
		f.Close()
		return "", err
	}
	if err := binary.Write(f, binary.BigEndian, snap.Offset); err != nil {
		f.Close()
		return "", err
	}

	names := make([]string, 0, len(snap.Sections))
	for name := range snap.Sections {
		names = append(names, name)
	}
	sort.Strings(names)
	if err := binary.Write(f, binary.BigEndian, uint32(len(names))); err != nil {
		f.Close()
		return "", err
	}
	for _, name := range names {
		if err := writeLenPrefixedString(f, name); err != nil {
			f.Close()
			return "", err
		}
		body := snap.Sections[name]
		if err := binary.Write(f, binary.BigEndian, uint32(len(body))); err != nil {
			f.Close()
			return "", err
		}
		if _, err := f.Write(body); err != nil {
			f.Close()
			return "", err
		}
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("wal: atomic rename snapshot: %w", err)
	}
	return finalPath, nil
}

func writeLenPrefixedString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// LatestSnapshot returns the path to the newest valid snapshot file in dir,
// or "" if none exists.
func LatestSnapshot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var best string
	var bestOffset uint64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "snapshot-") || strings.HasSuffix(name, ".tmp") {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimPrefix(name, "snapshot-"), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || n > bestOffset {
			best, bestOffset = name, n
		}
	}
	if best == "" {
		return "", nil
	}
	return filepath.Join(dir, best), nil
}

// ReadSnapshot loads a snapshot file written by WriteSnapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := checkFileHeader(f); err != nil {
		return nil, err
	}
	var offset uint64
	if err := binary.Read(f, binary.BigEndian, &offset); err != nil {
		return nil, err
	}
	var count uint32
	if err := binary.Read(f, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	sections := make(map[string][]byte, count)
	for i := uint32(0); i < count; i++ {
		name, err := readLenPrefixedString(f)
		if err != nil {
			return nil, err
		}
		var blen uint32
		if err := binary.Read(f, binary.BigEndian, &blen); err != nil {
			return nil, err
		}
		body := make([]byte, blen)
		if _, err := io.ReadFull(f, body); err != nil {
			return nil, err
		}
		sections[name] = body
	}
	return &Snapshot{Offset: offset, Sections: sections}, nil
}

func readLenPrefixedString(r io.Reader) (string, error) {
	var l uint32
	if err := binary.Read(r, binary.BigEndian, &l); err != nil {
		return "", err
	}
	buf := make([]byte, l)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// RetainNewest deletes snapshot files beyond the newest keep snapshots.
func RetainNewest(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "snapshot-") && !strings.HasSuffix(e.Name(), ".tmp") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if len(names) <= keep {
		return nil
	}
	for _, n := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, n)); err != nil {
			return err
		}
	}
	return nil
}

// Scheduler optionally triggers a snapshot on a cron schedule in
// addition to the snapshots a caller takes directly. This is additive:
// without a Scheduler, snapshots are taken only when a caller asks.
type Scheduler struct {
	cron *cron.Cron
	id   cron.EntryID
}

// NewScheduler starts a cron-driven snapshot trigger. expr is a standard
// 5 or 6-field cron expression (e.g. "0 */10 * * * *" for every 10
// minutes). fn is invoked on each tick; callers wire it to their own
// WriteSnapshot(dir, snap) call since only the caller knows the
// current offset and engine set.
func NewScheduler(expr string, fn func()) (*Scheduler, error) {
	c := cron.New(cron.WithSeconds())
	id, err := c.AddFunc(expr, fn)
	if err != nil {
		return nil, fmt.Errorf("wal: invalid snapshot cron expression %q: %w", expr, err)
	}
	c.Start()
	return &Scheduler{cron: c, id: id}, nil
}

// Stop cancels the scheduled snapshots.
func (s *Scheduler) Stop() {
	s.cron.Remove(s.id)
	<-s.cron.Stop().Done()
}
