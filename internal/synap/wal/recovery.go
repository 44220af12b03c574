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
	"errors"
	"fmt"
	"io"
	"os"
)

// Applier is implemented by a component that can replay a single Record
// idempotently with respect to the log's monotonically increasing offsets.
type Applier interface {
	Apply(*Record) error
}

// Recover runs the recovery protocol: load the newest snapshot (if any),
// then replay WAL records from snapshot.Offset+1 forward. A torn tail
// (a trailing record that fails its CRC, or an incomplete header/body at
// EOF) is truncated silently; any other decode failure mid-log is fatal
// and reported as RECOVERY_FAILED via the returned error.
func Recover(dir string, engines map[string]Snapshottable, apply Applier) (appliedOffset uint64, err error) {
	appliedOffset = 0
	haveBase := false

	snapPath, err := LatestSnapshot(dir)
	if err != nil {
		return 0, fmt.Errorf("wal: list snapshots: %w", err)
	}
	if snapPath != "" {
		snap, err := ReadSnapshot(snapPath)
		if err != nil {
			return 0, fmt.Errorf("RECOVERY_FAILED: corrupt snapshot %s: %w", snapPath, err)
		}
		for name, eng := range engines {
			body, ok := snap.Sections[name]
			if !ok {
				continue
			}
			if err := eng.LoadSnapshotState(body); err != nil {
				return 0, fmt.Errorf("RECOVERY_FAILED: loading snapshot section %q: %w", name, err)
			}
		}
		appliedOffset = snap.Offset
		haveBase = true
	}

	segs, err := Segments(dir)
	if err != nil {
		return 0, err
	}
	for _, segPath := range segs {
		last, err := replaySegment(segPath, appliedOffset, haveBase, apply)
		if err != nil {
			return 0, err
		}
		if last > 0 || appliedOffset == 0 {
			appliedOffset = last
		}
	}
	return appliedOffset, nil
}

// replaySegment applies every record in segPath whose offset is strictly
// greater than startOffset, returning the offset of the last record
// applied (or startOffset if none were). Without a snapshot base
// (haveBase false) a record at offset 0 is applied too. It truncates a
// torn tail.
func replaySegment(segPath string, startOffset uint64, haveBase bool, apply Applier) (uint64, error) {
	f, err := os.Open(segPath)
	if err != nil {
		return startOffset, err
	}
	defer f.Close()

	if err := checkFileHeader(f); err != nil {
		return startOffset, fmt.Errorf("RECOVERY_FAILED: %w", err)
	}

	last := startOffset
	offsetInFile := int64(fileHeaderSize)
	for {
		rec, frameLen, err := readFrame(f)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, errCRCMismatch) {
				// Torn tail: truncate the file at the last good frame boundary.
				return truncateTornTail(segPath, offsetInFile, last)
			}
			return startOffset, fmt.Errorf("RECOVERY_FAILED: %s: %w", segPath, err)
		}
		offsetInFile += frameLen

		if rec.Offset <= startOffset && (haveBase || rec.Offset > 0) {
			continue // already covered by the snapshot or a prior segment
		}
		if rec.Kind == OpSnapshotMarker {
			last = rec.Offset
			continue
		}
		if err := apply.Apply(rec); err != nil {
			return startOffset, fmt.Errorf("RECOVERY_FAILED: apply offset %d: %w", rec.Offset, err)
		}
		last = rec.Offset
	}
}

func truncateTornTail(path string, goodLength int64, lastApplied uint64) (uint64, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return lastApplied, err
	}
	defer f.Close()
	if err := f.Truncate(goodLength); err != nil {
		return lastApplied, fmt.Errorf("wal: truncate torn tail of %s: %w", path, err)
	}
	return lastApplied, nil
}
