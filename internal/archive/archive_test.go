// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyCurrent_CreatesTimestampedCopy(t *testing.T) {
	dataDir := t.TempDir()
	src := filepath.Join(dataDir, "netspeed.csv")
	require.NoError(t, os.WriteFile(src, []byte("a,b,c\n"), 0o644))

	when := time.Date(2025, 8, 14, 12, 0, 0, 123456000, time.UTC)
	dst, err := CopyCurrent(src, dataDir, when)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dataDir, "archive", "netspeed_2025-08-14T120000123456Z.csv"), dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "a,b,c\n", string(data))
}
