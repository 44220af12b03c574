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

package stream

import "time"

// retentionLoop periodically prunes every room's partitions down to the
// slowest consumer group's committed offset, advancing min_offset.
// Heartbeat timeouts are swept in the same pass.
func (m *Manager) retentionLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.opts.RetentionSweep)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.retentionOnce()
		}
	}
}

func (m *Manager) retentionOnce() {
	now := time.Now()
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	for _, r := range rooms {
		r.mu.Lock()
		groups := make([]*ConsumerGroup, 0, len(r.groups))
		for _, g := range r.groups {
			groups = append(groups, g)
		}
		r.mu.Unlock()

		for _, g := range groups {
			g.dropExpired(now, r.partitionCount())
		}

		for pIdx, p := range r.partitions {
			minCommitted := p.nextOffsetSnapshot()
			hasGroup := false
			for _, g := range groups {
				if off, ok := g.committedOffset(pIdx); ok {
					hasGroup = true
					if off < minCommitted {
						minCommitted = off
					}
				}
			}
			if hasGroup {
				p.pruneBefore(minCommitted)
			}
		}
	}
}

func (p *partition) nextOffsetSnapshot() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nextOffset
}
