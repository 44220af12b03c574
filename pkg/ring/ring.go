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

// Package ring provides stable key routing over a fixed-size set of
// buckets (KV shards, stream partitions) using rendezvous (highest
// random weight) hashing.
package ring

import "github.com/dgryski/go-rendezvous"

// Router routes string keys to one of N buckets deterministically.
// The same key always routes to the same bucket for a fixed N; this is
// the "stable hash of the key" the KV and stream engines rely on.
type Router struct {
	n   int
	hrw *rendezvous.Rendezvous
}

// New builds a Router over n buckets, numbered 0..n-1.
func New(n int) *Router {
	if n <= 0 {
		panic("ring: n must be positive")
	}
	nodes := make([]string, n)
	for i := range nodes {
		nodes[i] = bucketName(i)
	}
	hrw := rendezvous.New(nodes, hashString)
	return &Router{n: n, hrw: hrw}
}

// Route returns the bucket index (0..N-1) a key is assigned to.
func (r *Router) Route(key string) int {
	node := r.hrw.Get(key)
	return parseBucketName(node)
}

// N returns the number of buckets this router was built with.
func (r *Router) N() int { return r.n }

func hashString(s string) uint64 {
	// FNV-1a: fast, stable across processes, good enough distribution
	// for rendezvous weighting (the algorithm's skew resistance comes
	// from the max-of-hashes selection, not from this inner hash).
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func bucketName(i int) string {
	buf := make([]byte, 0, 8)
	buf = append(buf, 'b')
	return string(appendInt(buf, i))
}

func parseBucketName(s string) int {
	n := 0
	for i := 1; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

func appendInt(buf []byte, i int) []byte {
	if i == 0 {
		return append(buf, '0')
	}
	start := len(buf)
	for i > 0 {
		buf = append(buf, byte('0'+i%10))
		i /= 10
	}
	// reverse the digits we just appended
	for l, r := start, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	return buf
}
