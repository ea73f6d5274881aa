// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package citycodes

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_FallsBackToCodeWhenFileMissing(t *testing.T) {
	table := New(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, "ABX", table.Resolve("ABX"))
}

func TestResolve_LoadsAndReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"ABX":"Example City"}`), 0o644))

	table := New(path)
	assert.Equal(t, "Example City", table.Resolve("ABX"))
	assert.Equal(t, "ZZZ", table.Resolve("ZZZ"))

	require.NoError(t, os.WriteFile(path, []byte(`{"ABX":"Renamed City"}`), 0o644))
	// Ensure a distinguishable mtime on filesystems with coarse resolution.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	assert.Equal(t, "Renamed City", table.Resolve("ABX"))
}
