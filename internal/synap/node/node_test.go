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

package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"synap/internal/synap/dispatch"
)

func TestOpenRecoverAndDispatch(t *testing.T) {
	dir := t.TempDir()

	n, err := Open(Config{WALDir: dir, BuildVersion: "test"})
	require.NoError(t, err)

	resp := n.Dispatcher().Handle(context.Background(), dispatch.Request{
		Command: "kv.set",
		Payload: dispatch.KVSetPayload{Key: "a", Value: []byte("1")},
	})
	require.True(t, resp.Success)

	offset, err := n.Snapshot(context.Background())
	require.NoError(t, err)
	require.Greater(t, offset, uint64(0))

	require.NoError(t, n.Close())

	// Reopen against the same directory: recovery must restore the key
	// written before the snapshot.
	n2, err := Open(Config{WALDir: dir, BuildVersion: "test"})
	require.NoError(t, err)
	defer n2.Close()

	getResp := n2.Dispatcher().Handle(context.Background(), dispatch.Request{
		Command: "kv.get",
		Payload: dispatch.KVKeyPayload{Key: "a"},
	})
	require.True(t, getResp.Success)
	require.Equal(t, []byte("1"), getResp.Payload)
}

func TestInfoAndStatsReflectState(t *testing.T) {
	dir := t.TempDir()
	n, err := Open(Config{WALDir: dir, BuildVersion: "v1.2.3"})
	require.NoError(t, err)
	defer n.Close()

	n.Dispatcher().Handle(context.Background(), dispatch.Request{
		Command: "kv.set",
		Payload: dispatch.KVSetPayload{Key: "k", Value: []byte("v")},
	})

	info := n.Info()
	require.Equal(t, "v1.2.3", info["version"])
	require.Equal(t, 0, info["replica_count"])

	stats := n.Stats()
	require.Equal(t, 1, stats["kv_keys"])

	require.NoError(t, n.Health())
}

func TestRegisterReplicaTracksCount(t *testing.T) {
	dir := t.TempDir()
	n, err := Open(Config{WALDir: dir})
	require.NoError(t, err)
	defer n.Close()

	release := n.RegisterReplica()
	require.Equal(t, 1, n.Info()["replica_count"])
	release()
	require.Equal(t, 0, n.Info()["replica_count"])
}
