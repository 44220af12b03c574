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
	"io"
	"os"
)

// ReadSince returns every record currently on disk in dir with an
// offset strictly greater than fromOffset, in offset order. It is the
// primary's side of replica catch-up and steady-state streaming: a
// caller polls it on an interval and ships whatever comes back. A torn
// tail on the active segment (a partial frame not yet fully flushed) is
// silently excluded rather than treated as corruption, since the writer
// may still be mid-append.
func ReadSince(dir string, fromOffset uint64) ([]*Record, error) {
	segs, err := Segments(dir)
	if err != nil {
		return nil, err
	}
	var out []*Record
	for _, segPath := range segs {
		recs, err := readSegmentSince(segPath, fromOffset)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func readSegmentSince(segPath string, fromOffset uint64) ([]*Record, error) {
	f, err := os.Open(segPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := checkFileHeader(f); err != nil {
		return nil, err
	}

	var out []*Record
	for {
		rec, _, err := readFrame(f)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, errCRCMismatch) {
				return out, nil
			}
			return nil, err
		}
		if rec.Offset <= fromOffset || rec.Kind == OpSnapshotMarker {
			continue
		}
		out = append(out, rec)
	}
}
