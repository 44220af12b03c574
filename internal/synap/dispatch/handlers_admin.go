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

package dispatch

import "context"

func init() {
	registerHandler("snapshot", handleSnapshot)
	registerHandler("info", handleInfo)
	registerHandler("health", handleHealth)
	registerHandler("stats", handleStats)
}

func handleSnapshot(ctx context.Context, d *Dispatcher, _ any) (any, error) {
	return d.engines.Admin.Snapshot(ctx)
}

func handleInfo(_ context.Context, d *Dispatcher, _ any) (any, error) {
	return d.engines.Admin.Info(), nil
}

func handleHealth(_ context.Context, d *Dispatcher, _ any) (any, error) {
	return nil, d.engines.Admin.Health()
}

func handleStats(_ context.Context, d *Dispatcher, _ any) (any, error) {
	return d.engines.Admin.Stats(), nil
}
