// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGet_ComputesOnceWhileFresh(t *testing.T) {
	c := New[int]()
	calls := 0
	compute := func() (int, time.Duration) {
		calls++
		return 42, time.Minute
	}

	assert.Equal(t, 42, c.Get("k", compute))
	assert.Equal(t, 42, c.Get("k", compute))
	assert.Equal(t, 1, calls)
}

func TestGet_RecomputesAfterExpiry(t *testing.T) {
	c := New[int]()
	calls := 0
	compute := func() (int, time.Duration) {
		calls++
		return calls, -time.Second // already expired
	}

	c.Get("k", compute)
	c.Get("k", compute)
	assert.Equal(t, 2, calls)
}

func TestClear_DropsAllEntries(t *testing.T) {
	c := New[int]()
	c.Get("a", func() (int, time.Duration) { return 1, time.Minute })
	c.Get("b", func() (int, time.Duration) { return 2, time.Minute })
	assert.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
