// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cache provides a generic in-process TTL cache with single-flight
// computation, adapted from the teacher's pkg/lrucache.Cache. Unlike the
// teacher's cache this one has no memory-bound eviction: the Statistics
// Engine's cache (§4.4.2) is small (one entry per distinct query-parameter
// tuple) and is invalidated wholesale on every ingest boundary rather than
// evicted entry-by-entry, so the doubly-linked LRU list the teacher needs
// for its HTTP response cache has no job to do here.
package cache

import (
	"sync"
	"time"
)

// ComputeValue is the closure passed to Get to compute a missing or expired
// entry. It must not call methods on the same Cache or it will deadlock.
type ComputeValue[V any] func() (value V, ttl time.Duration)

type entry[V any] struct {
	value      V
	expiration time.Time
	computing  bool
}

// Cache is a generic, mutex-protected, TTL-based cache keyed by string.
type Cache[V any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	entries map[string]*entry[V]
}

// New returns an empty TTL cache for values of type V.
func New[V any]() *Cache[V] {
	c := &Cache[V]{entries: map[string]*entry[V]{}}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Get returns the cached value for key, or calls compute to produce and
// store it. Concurrent callers for the same key while a computation is in
// flight block until it completes, then share its result (single-flight).
func (c *Cache[V]) Get(key string, compute ComputeValue[V]) V {
	now := time.Now()

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		for e.computing {
			c.cond.Wait()
		}
		if now.Before(e.expiration) {
			v := e.value
			c.mu.Unlock()
			return v
		}
	}

	e := &entry[V]{computing: true}
	c.entries[key] = e
	c.mu.Unlock()

	value, ttl := compute()

	c.mu.Lock()
	e.value = value
	e.expiration = time.Now().Add(ttl)
	e.computing = false
	c.cond.Broadcast()
	c.mu.Unlock()

	return value
}

// Clear removes every entry, implementing the §4.4.2 "invalidation on any
// ingest boundary" policy (a clear-all, not per-key eviction).
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*entry[V]{}
}

// Len reports the number of entries currently held, including expired ones
// not yet recomputed. Mostly useful for tests and metrics.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Hit reports whether key currently holds a live, unexpired entry, without
// affecting it. Callers use this ahead of Get purely to label a hit/miss
// metric; Get alone remains the correctness-bearing path.
func (c *Cache[V]) Hit(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return ok && !e.computing && time.Now().Before(e.expiration)
}
