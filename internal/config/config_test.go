// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENSEARCH_URL", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.SearchMaxResults > 0)
	assert.NotEmpty(t, cfg.EngineURLs)
	assert.Equal(t, "./var", cfg.VarDir)
	assert.True(t, cfg.RescanIntervalSeconds > 0)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("BACKEND_PORT", "9090")
	t.Setenv("OPENSEARCH_URL", "http://es1:9200, http://es2:9200")
	t.Setenv("SEARCH_MAX_RESULTS", "1234")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.EngineURLs)
	assert.Equal(t, 1234, cfg.SearchMaxResults)
}

func TestLoad_CityCodesPathIsOptional(t *testing.T) {
	t.Setenv("OPENSEARCH_URL", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.CityCodesPath)

	t.Setenv("CITY_CODES_PATH", "/etc/netspeed/city_codes.json")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "/etc/netspeed/city_codes.json", cfg.CityCodesPath)
}

func TestLoad_RejectsBadPort(t *testing.T) {
	t.Setenv("BACKEND_PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)
}
