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

package pubsub

import "strings"

// trieNode is one segment position in the pattern trie. children holds
// literal-segment branches, star the "*" (exactly one segment) branch,
// and hash the "#" (one or more trailing segments) branch, which is
// always terminal since # may only appear as a pattern's last segment.
type trieNode struct {
	children map[string]*trieNode
	star     *trieNode
	hash     map[string]*Subscription // subscriberID -> subscription, terminal
	subs     map[string]*Subscription // subscriberID -> subscription, terminal exact match
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[string]*trieNode)}
}

func splitTopic(topic string) []string {
	return strings.Split(topic, ".")
}

// insert walks (creating as needed) the trie path for pattern and
// records sub at the terminal node.
func (n *trieNode) insert(pattern string, sub *Subscription) {
	segments := splitTopic(pattern)
	cur := n
	for i, seg := range segments {
		last := i == len(segments)-1
		switch {
		case seg == "#":
			if cur.hash == nil {
				cur.hash = make(map[string]*Subscription)
			}
			cur.hash[sub.SubscriberID] = sub
			return
		case seg == "*":
			if cur.star == nil {
				cur.star = newTrieNode()
			}
			cur = cur.star
		default:
			child, ok := cur.children[seg]
			if !ok {
				child = newTrieNode()
				cur.children[seg] = child
			}
			cur = child
		}
		if last {
			if cur.subs == nil {
				cur.subs = make(map[string]*Subscription)
			}
			cur.subs[sub.SubscriberID] = sub
		}
	}
}

// remove deletes subscriberID's registration for pattern, pruning empty
// nodes is not attempted — the trie is small relative to process
// lifetime and an occasional stale empty node costs nothing to walk.
func (n *trieNode) remove(pattern, subscriberID string) {
	segments := splitTopic(pattern)
	cur := n
	for i, seg := range segments {
		last := i == len(segments)-1
		switch {
		case seg == "#":
			delete(cur.hash, subscriberID)
			return
		case seg == "*":
			if cur.star == nil {
				return
			}
			cur = cur.star
		default:
			child, ok := cur.children[seg]
			if !ok {
				return
			}
			cur = child
		}
		if last {
			delete(cur.subs, subscriberID)
		}
	}
}

// match collects every subscription whose pattern matches topic's
// segments, deduplicated by subscriber id (Invariant: a subscriber with
// several matching patterns is still only delivered to once).
func (n *trieNode) match(segments []string, out map[string]*Subscription) {
	if n.hash != nil && len(segments) >= 1 {
		for id, sub := range n.hash {
			if _, seen := out[id]; !seen {
				out[id] = sub
			}
		}
	}
	if len(segments) == 0 {
		for id, sub := range n.subs {
			if _, seen := out[id]; !seen {
				out[id] = sub
			}
		}
		return
	}
	head, rest := segments[0], segments[1:]
	if child, ok := n.children[head]; ok {
		child.match(rest, out)
	}
	if n.star != nil {
		n.star.match(rest, out)
	}
}
