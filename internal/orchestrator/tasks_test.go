// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644))
}

func TestController_FindFile(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "netspeed.csv", "current\n")
	writeTestFile(t, root, "netspeed_1.csv", "historical\n")

	c := &Controller{roots: []string{root}, queue: &TaskQueue{live: map[string]bool{}}}

	f, ok := c.findFile("netspeed.csv")
	require.True(t, ok)
	assert.Equal(t, "netspeed.csv", f.Name)

	f, ok = c.findFile("netspeed_1.csv")
	require.True(t, ok)
	assert.Equal(t, "netspeed_1.csv", f.Name)

	_, ok = c.findFile("netspeed_9.csv")
	assert.False(t, ok)
}

func TestController_RunQueuedBackupCopy_ArchivesDiscoverableFile(t *testing.T) {
	root := t.TempDir()
	dataDir := t.TempDir()
	writeTestFile(t, root, "netspeed.csv", "a,b,c\n")

	c := &Controller{roots: []string{root}, dataDir: dataDir, queue: &TaskQueue{live: map[string]bool{}}}
	c.runQueuedBackupCopy("netspeed.csv")

	entries, err := os.ReadDir(filepath.Join(dataDir, "archive"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestController_RunQueuedBackupCopy_UnknownFileIsNoop(t *testing.T) {
	root := t.TempDir()
	dataDir := t.TempDir()

	c := &Controller{roots: []string{root}, dataDir: dataDir, queue: &TaskQueue{live: map[string]bool{}}}
	c.runQueuedBackupCopy("netspeed_9.csv")

	_, err := os.ReadDir(filepath.Join(dataDir, "archive"))
	assert.True(t, os.IsNotExist(err), "no archive copy should have been made for an undiscoverable file")
}

func TestController_StartWorkers_InertQueueIsNoop(t *testing.T) {
	queue, err := NewTaskQueue("")
	require.NoError(t, err)
	defer queue.Close()

	c := NewController(Params{VarDir: t.TempDir()}, nil, nil, queue)
	assert.NoError(t, c.StartWorkers())
}

func TestController_HandleChange_NoCurrentFileIsNoop(t *testing.T) {
	root := t.TempDir()
	queue, err := NewTaskQueue("")
	require.NoError(t, err)
	defer queue.Close()

	c := NewController(Params{Roots: []string{root}, VarDir: t.TempDir()}, nil, nil, queue)
	c.HandleChange(context.Background(), filepath.Join(root, "netspeed.csv"))
}
