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

// Package main provides the entry point for synapd, the Synap data
// platform node: a single-process in-memory KV store, priority queue,
// partitioned event stream and pub/sub router sharing one WAL and
// snapshot subsystem.
//
// This file wires flags into a node.Config, opens the node (which runs
// crash recovery against whatever is already in the WAL directory),
// mounts the operational HTTP surface (health, info, stats, snapshot,
// metrics), and waits for a signal to shut down cleanly — flushing a
// final snapshot before closing the WAL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"synap/internal/synap/api"
	"synap/internal/synap/dispatch"
	"synap/internal/synap/node"
	"synap/internal/synap/queue"
	"synap/internal/synap/stream"
	"synap/internal/synap/wal"
)

func main() {
	walDir := flag.String("wal_dir", "./data/wal", "Directory for the write-ahead log and snapshots")
	segmentMaxMB := flag.Int64("wal_segment_mb", 64, "Maximum size of one WAL segment file, in megabytes")
	fsyncMode := flag.String("wal_fsync", "periodic", "WAL fsync mode: never, periodic, always")
	fsyncInterval := flag.Duration("wal_fsync_interval", 10*time.Millisecond, "fsync interval when wal_fsync=periodic")

	queueVisibilityTimeout := flag.Duration("queue_visibility_timeout", 30*time.Second, "How long a consumed queue message stays invisible before it's eligible for redelivery")
	streamDefaultPartitions := flag.Int("stream_default_partitions", 4, "Default partition count for a stream room created implicitly by its first publish")

	rateLimitPerSecond := flag.Float64("rate_limit_per_second", 0, "Admission control: max commands/sec across the whole node. 0 disables admission control")
	rateLimitBurst := flag.Int("rate_limit_burst", 1, "Admission control burst size")

	metricsSampleInterval := flag.Duration("metrics_sample_interval", 5*time.Second, "How often engine size gauges (key count, queue depth, stream backlog) are resampled")
	snapshotCron := flag.String("snapshot_cron", "", "If non-empty, a cron expression (with seconds field) that triggers a periodic full snapshot, e.g. \"0 */10 * * * *\"")

	httpAddr := flag.String("http_addr", ":8090", "HTTP listen address for the operational surface (health, info, stats, snapshot, metrics)")
	buildVersion := flag.String("build_version", "dev", "Build version string reported by the info endpoint")
	flag.Parse()

	var mode wal.FsyncMode
	switch *fsyncMode {
	case "never":
		mode = wal.FsyncNever
	case "always":
		mode = wal.FsyncAlways
	default:
		mode = wal.FsyncPeriodic
	}

	n, err := node.Open(node.Config{
		WALDir:          *walDir,
		SegmentMaxBytes: *segmentMaxMB * 1024 * 1024,
		FsyncMode:       mode,
		FsyncInterval:   *fsyncInterval,
		Queue:  queue.Options{VisibilityTimeout: *queueVisibilityTimeout},
		Stream: stream.Options{DefaultPartitions: *streamDefaultPartitions},
		Dispatch: dispatch.Options{
			RateLimitPerSecond: *rateLimitPerSecond,
			RateLimitBurst:     *rateLimitBurst,
		},
		MetricsSampleInterval: *metricsSampleInterval,
		SnapshotCronExpr:      *snapshotCron,
		BuildVersion:          *buildVersion,
	})
	if err != nil {
		log.Fatalf("synapd: failed to open node at %s: %v", *walDir, err)
	}

	apiServer := api.NewServer(n)
	mux := http.NewServeMux()
	apiServer.RegisterRoutes(mux)
	httpServer := &http.Server{
		Addr:         *httpAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("synapd listening on %s, wal dir %s\n", *httpAddr, *walDir)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("synapd: http server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\nsynapd shutting down...")

	if _, err := n.Snapshot(context.Background()); err != nil {
		fmt.Printf("synapd: final snapshot failed: %v\n", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("synapd: http shutdown failed: %v", err)
	}
	if err := n.Close(); err != nil {
		log.Fatalf("synapd: node close failed: %v", err)
	}

	fmt.Println("synapd stopped.")
}
