// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package stats

import (
	"testing"

	"github.com/netspeed-inventory/backend/internal/netspeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_GlobalCounters(t *testing.T) {
	records := []*netspeed.Record{
		{SerialNumber: "S1", MACAddress: "AA1111111111", LineNumber: "111", ModelName: "CP-8945", SwitchHostname: "ABX01-sw1", KEM: "KEM1"},
		{SerialNumber: "S2", MACAddress: "AA2222222222", LineNumber: "222", ModelName: "CP-8945", SwitchHostname: "ABX01-sw1"},
		{SerialNumber: "S3", MACAddress: "AA3333333333", LineNumber: "333", ModelName: "XY", SwitchHostname: "unrecognized-host"},
	}

	snap := Compute("netspeed.csv", "2025-08-14", records, false)

	assert.Equal(t, 3, snap.TotalPhones)
	assert.Equal(t, 2, snap.TotalSwitches)
	assert.Equal(t, 1, snap.PhonesWithKEM)
	assert.Equal(t, 1, snap.TotalKEMs)
	assert.Equal(t, 2, snap.PhonesByModel["CP-8945"])
	assert.Nil(t, snap.LocationDetails)
}

func TestCompute_JustizAndJVASplit(t *testing.T) {
	records := []*netspeed.Record{
		{SerialNumber: "S1", MACAddress: "AA1111111111", LineNumber: "1", ModelName: "CP-8945", SwitchHostname: "ABX50-sw1"}, // JVA (last two = "50")
		{SerialNumber: "S2", MACAddress: "AA2222222222", LineNumber: "2", ModelName: "CP-8945", SwitchHostname: "ABX10-sw1"}, // Justiz, not JVA
		{SerialNumber: "S3", MACAddress: "AA3333333333", LineNumber: "3", ModelName: "CP-8945", SwitchHostname: "not-a-code"}, // unresolvable, defaults to Justiz
	}

	snap := Compute("netspeed.csv", "2025-08-14", records, false)

	// S1 is JVA-only, S2 and S3 are Justiz-only: mutually exclusive, never both.
	assert.Equal(t, 2, snap.PhonesByModelJustiz["CP-8945"])
	assert.Equal(t, 1, snap.PhonesByModelJVA["CP-8945"])
	assert.Equal(t, 2, snap.SwitchesJustiz)
	assert.Equal(t, 1, snap.SwitchesJVA)
}

func TestCompute_ModelFoldsMACLikeAndShortNamesToUnknown(t *testing.T) {
	records := []*netspeed.Record{
		{SerialNumber: "S1", MACAddress: "AA1111111111", LineNumber: "1", ModelName: "AABBCCDDEEFF", SwitchHostname: "ABX01-sw1"},
		{SerialNumber: "S2", MACAddress: "AA2222222222", LineNumber: "2", ModelName: "CP", SwitchHostname: "ABX01-sw1"},
	}

	snap := Compute("netspeed.csv", "2025-08-14", records, false)
	assert.Equal(t, 2, snap.PhonesByModel["Unknown"])
}

func TestCompute_DetailedBuildsPerLocationBreakdown(t *testing.T) {
	records := []*netspeed.Record{
		{SerialNumber: "S1", MACAddress: "AA1111111111", LineNumber: "1", ModelName: "CP-8945", SwitchHostname: "ABX01-sw1", VoiceVLAN: "20", KEM: "KEM1"},
		{SerialNumber: "S2", MACAddress: "AA2222222222", LineNumber: "2", ModelName: "CP-8945", SwitchHostname: "ABX01-sw1", VoiceVLAN: "10"},
		{SerialNumber: "S3", MACAddress: "AA3333333333", LineNumber: "3", ModelName: "CP-8945", SwitchHostname: "ABX02-sw2", VoiceVLAN: "beta"},
	}

	snap := Compute("netspeed.csv", "2025-08-14", records, true)
	require.NotNil(t, snap.LocationDetails)

	loc1, ok := snap.LocationDetails["ABX01"]
	require.True(t, ok)
	assert.Equal(t, 2, loc1.TotalPhones)
	assert.Equal(t, 1, loc1.TotalSwitches)
	assert.Equal(t, 1, loc1.PhonesWithKEM)
	require.Len(t, loc1.KEMPhones, 1)
	assert.Equal(t, "S1", loc1.KEMPhones[0].Serial)

	// VLAN sort: numeric ascending first.
	require.Len(t, loc1.VLANUsage, 2)
	assert.Equal(t, "10", loc1.VLANUsage[0].VLAN)
	assert.Equal(t, "20", loc1.VLANUsage[1].VLAN)

	loc2, ok := snap.LocationDetails["ABX02"]
	require.True(t, ok)
	assert.Equal(t, "beta", loc2.VLANUsage[0].VLAN)
}

func TestSortedVLANCounts_NumericBeforeLexicographic(t *testing.T) {
	counts := map[string]int{"20": 1, "3": 1, "alpha": 1, "10": 1}
	got := sortedVLANCounts(counts)
	vlans := make([]string, len(got))
	for i, v := range got {
		vlans[i] = v.VLAN
	}
	assert.Equal(t, []string{"3", "10", "20", "alpha"}, vlans)
}
