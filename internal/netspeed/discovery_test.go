// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package netspeed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindCurrentLegacy, classify("netspeed.csv").Kind)
	assert.Equal(t, KindRotationLegacy, classify("netspeed.csv.3").Kind)
	assert.Equal(t, KindCurrentTimestamped, classify("netspeed_20250814-120000.csv").Kind)
	assert.Equal(t, KindRotationTimestamped, classify("netspeed_20250814-120000.csv.2").Kind)
	assert.Equal(t, KindBackup, classify("netspeed.csv_bak").Kind)
	assert.Equal(t, KindBackup, classify("netspeed_bak.csv").Kind)
	assert.Equal(t, KindUnknown, classify("somethingelse.csv").Kind)
}

func TestDiscover_CurrentSelectionPrefersLargestTimestamp(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "netspeed.csv")
	touch(t, root, "netspeed_20250101-000000.csv")
	touch(t, root, "netspeed_20250814-120000.csv")

	historical, current, _ := Discover([]string{root})
	require.NotNil(t, current)
	assert.Equal(t, "netspeed_20250814-120000.csv", current.Name)

	names := map[string]bool{}
	for _, f := range historical {
		names[f.Name] = true
	}
	assert.True(t, names["netspeed.csv"])
	assert.True(t, names["netspeed_20250101-000000.csv"])
}

func TestDiscover_LegacyRotationOrdering(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "netspeed.csv")
	touch(t, root, "netspeed.csv.2")
	touch(t, root, "netspeed.csv.0")
	touch(t, root, "netspeed.csv.10")

	historical, current, _ := Discover([]string{root})
	require.NotNil(t, current)
	assert.Equal(t, "netspeed.csv", current.Name)
	require.Len(t, historical, 3)
	assert.Equal(t, "netspeed.csv.0", historical[0].Name)
	assert.Equal(t, "netspeed.csv.2", historical[1].Name)
	assert.Equal(t, "netspeed.csv.10", historical[2].Name)
}

func TestDiscover_MissingDirIsNotFatal(t *testing.T) {
	historical, current, backups := Discover([]string{filepath.Join(t.TempDir(), "does-not-exist")})
	assert.Nil(t, historical)
	assert.Nil(t, current)
	assert.Nil(t, backups)
}

func TestCandidateDirs_Dedup(t *testing.T) {
	root := t.TempDir()
	dirs := candidateDirs([]string{root, root})
	assert.Len(t, dirs, 3)
}

func TestIsNetspeedName(t *testing.T) {
	assert.True(t, IsNetspeedName("netspeed.csv"))
	assert.True(t, IsNetspeedName("netspeed.csv.3"))
	assert.True(t, IsNetspeedName("netspeed_20250814-120000.csv"))
	assert.True(t, IsNetspeedName("netspeed_bak.csv"))
	assert.False(t, IsNetspeedName("readme.txt"))
}
