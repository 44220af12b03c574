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

package replication

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"synap/internal/synap/wal"
)

// MirrorFeed polls a WAL directory for newly committed records and fans
// each one out to every attached sink, in commit order. It is
// independent of any replica connection — a primary with zero replicas
// still mirrors if sinks are attached.
type MirrorFeed struct {
	dir          string
	sinks        []MirrorSink
	pollInterval time.Duration

	mu           sync.Mutex
	lastMirrored uint64

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewMirrorFeed builds a feed starting after fromOffset.
func NewMirrorFeed(dir string, sinks []MirrorSink, fromOffset uint64, pollInterval time.Duration) *MirrorFeed {
	if pollInterval <= 0 {
		pollInterval = 100 * time.Millisecond
	}
	return &MirrorFeed{dir: dir, sinks: sinks, pollInterval: pollInterval, lastMirrored: fromOffset, stopCh: make(chan struct{})}
}

// Start begins the background polling loop.
func (f *MirrorFeed) Start() {
	f.wg.Add(1)
	go f.loop()
}

// Stop halts the polling loop and waits for it to exit.
func (f *MirrorFeed) Stop() {
	close(f.stopCh)
	f.wg.Wait()
}

func (f *MirrorFeed) loop() {
	defer f.wg.Done()
	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-f.stopCh:
			return
		case <-ticker.C:
			f.pollOnce()
		}
	}
}

func (f *MirrorFeed) pollOnce() {
	f.mu.Lock()
	from := f.lastMirrored
	f.mu.Unlock()

	recs, err := wal.ReadSince(f.dir, from)
	if err != nil || len(recs) == 0 {
		return
	}
	ctx := context.Background()
	for _, rec := range recs {
		for _, sink := range f.sinks {
			if err := sink.ApplyRecord(ctx, rec.Offset, rec); err != nil {
				mirrorErrorsTotal.Inc()
				log.Error().Err(err).Uint64("commit_id", rec.Offset).Msg("mirror sink apply failed")
			}
		}
	}
	f.mu.Lock()
	f.lastMirrored = recs[len(recs)-1].Offset
	f.mu.Unlock()
}
