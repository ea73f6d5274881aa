// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package progress

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatePath_StableAndNamespaced(t *testing.T) {
	a := StatePath("/var", "redis://a", "http://es")
	b := StatePath("/var", "redis://a", "http://es")
	c := StatePath("/var", "redis://b", "http://es")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestLoad_MissingFileYieldsEmptyState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	state, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, state.Files)
	assert.Nil(t, state.Active)
}

// Testable property 10: the persisted file always parses as valid JSON and
// represents a complete pre- or post-update snapshot.
func TestSave_AtomicRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "state.json")
	state := newState()
	state.UpdateFileState("netspeed.csv", 100, 123456, 10, 10)
	state.UpdateTotals(1, 10)

	require.NoError(t, Save(path, state))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 10, decoded.Files["netspeed.csv"].DocCount)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestEffectiveStatus_StaleByAge(t *testing.T) {
	s := newState()
	s.StartActive("t1", 5, "redis://x", "http://es")
	s.Active.StartedAt = time.Now().Add(-20 * time.Minute).UTC().Format(time.RFC3339)

	status := s.EffectiveStatus(time.Now(), 10*time.Minute, func(string) bool { return true }, "redis://x", "http://es")
	assert.Equal(t, StatusInterrupted, status)
}

func TestEffectiveStatus_StaleByEnvironmentMismatch(t *testing.T) {
	s := newState()
	s.StartActive("t1", 5, "redis://x", "http://es")

	status := s.EffectiveStatus(time.Now(), 10*time.Minute, func(string) bool { return true }, "redis://y", "http://es")
	assert.Equal(t, StatusInterrupted, status)
}

func TestEffectiveStatus_FreshRunningStaysRunning(t *testing.T) {
	s := newState()
	s.StartActive("t1", 5, "redis://x", "http://es")

	status := s.EffectiveStatus(time.Now(), 10*time.Minute, func(string) bool { return true }, "redis://x", "http://es")
	assert.Equal(t, StatusRunning, status)
}
