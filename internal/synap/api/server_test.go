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

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAdmin struct {
	snapshotOffset uint64
	healthErr      error
}

func (a *fakeAdmin) Snapshot(context.Context) (uint64, error) { return a.snapshotOffset, nil }
func (a *fakeAdmin) Info() map[string]any                     { return map[string]any{"version": "test"} }
func (a *fakeAdmin) Health() error                             { return a.healthErr }
func (a *fakeAdmin) Stats() map[string]any                     { return map[string]any{"kv_keys": 3} }

func TestHealthzReportsAdminHealth(t *testing.T) {
	admin := &fakeAdmin{}
	s := NewServer(admin)
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSnapshotRequiresPost(t *testing.T) {
	s := NewServer(&fakeAdmin{snapshotOffset: 7})
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/v1/snapshot", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/snapshot", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]uint64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, uint64(7), body["offset"])
}

func TestStatsReturnsAdminStats(t *testing.T) {
	s := NewServer(&fakeAdmin{})
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]float64
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, float64(3), body["kv_keys"])
}
