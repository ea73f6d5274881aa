// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package netspeed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLocation(t *testing.T) {
	cases := []struct {
		hostname string
		want     string
		ok       bool
	}{
		{"ABX01ZSL4750P.juwin.bayern.de", "ABX01", true},
		{"MUCX12-core.juwin.bayern.de", "MUC12", true},
		{"WUEX02ABC.example.com", "WUE02", true},
		{"ABC50-switch", "ABC50", true},
		// lowercase/mixed-case hostnames must still resolve: the original
		// uppercases before matching.
		{"mxx03zsl4750p.juwin.bayern.de", "MXX03", true},
		// an unanchored two-letter pattern would spuriously match the
		// substring "BCX01" here; anchoring at index 0 must find the
		// three-letter+X form first and drop the 'X'.
		{"ABCX01-sw1.juwin.bayern.de", "ABC01", true},
		{"notahostnameatall", "", false},
		{"12345", "", false},
	}
	for _, c := range cases {
		got, ok := ExtractLocation(c.hostname)
		assert.Equal(t, c.ok, ok, c.hostname)
		assert.Equal(t, c.want, got, c.hostname)
	}
}

func TestExtractCityCode(t *testing.T) {
	assert.Equal(t, "ABX", ExtractCityCode("ABX01"))
	assert.Equal(t, "MU", ExtractCityCode("MU"))
}

func TestIsJVASwitch(t *testing.T) {
	assert.True(t, IsJVASwitch("ABC50"))
	assert.True(t, IsJVASwitch("ABC51"))
	assert.False(t, IsJVASwitch("ABC01"))
	assert.False(t, IsJVASwitch(""))
}

func TestIsMACLike(t *testing.T) {
	assert.True(t, IsMACLike("AABBCCDDEEFF"))
	assert.True(t, IsMACLike("SEPAABBCCDDEEFF"))
	assert.False(t, IsMACLike("CP-8841"))
	assert.False(t, IsMACLike("AB"))
}

func TestNormalizedModelName(t *testing.T) {
	assert.Equal(t, "CP-8841", NormalizedModelName("CP-8841"))
	assert.Equal(t, "Unknown", NormalizedModelName("AABBCCDDEEFF"))
	assert.Equal(t, "Unknown", NormalizedModelName("CP"))
}
