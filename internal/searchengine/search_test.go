// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package searchengine

import (
	"testing"

	"github.com/netspeed-inventory/backend/internal/netspeed"
	"github.com/stretchr/testify/assert"
)

func TestPostProcess_MACIntentKeepsOneRowPerFile(t *testing.T) {
	records := []*netspeed.Record{
		{MACAddress: "AABBCCDDEEFF", FileName: "netspeed.csv"},
		{MACAddress: "AABBCCDDEEFF", FileName: "netspeed.csv"},
		{MACAddress: "AABBCCDDEEFF", FileName: "netspeed_20250101-000000.csv"},
	}
	got := postProcess(records, IntentMAC, "")
	assert.Len(t, got, 2)
}

func TestPostProcess_SwitchPortDedupesByHostnameAndFile(t *testing.T) {
	records := []*netspeed.Record{
		{SwitchHostname: "SW1", FileName: "netspeed.csv"},
		{SwitchHostname: "SW1", FileName: "netspeed.csv"},
		{SwitchHostname: "SW2", FileName: "netspeed.csv"},
	}
	got := postProcess(records, IntentSwitchPort, "Switch Port")
	assert.Len(t, got, 2)
}

func TestPostProcess_KEMFieldBypassesDedup(t *testing.T) {
	records := []*netspeed.Record{
		{MACAddress: "AABBCCDDEEFF", FileName: "netspeed.csv", KEM: "KEM1"},
		{MACAddress: "AABBCCDDEEFF", FileName: "netspeed.csv", KEM: "KEM2"},
	}
	got := postProcess(records, IntentGeneric, "KEM")
	assert.Len(t, got, 2)
}

func TestPostProcess_GenericDedupesByMACAndFile(t *testing.T) {
	records := []*netspeed.Record{
		{MACAddress: "AABBCCDDEEFF", FileName: "netspeed.csv"},
		{MACAddress: "AABBCCDDEEFF", FileName: "netspeed.csv"},
		{MACAddress: "112233445566", FileName: "netspeed.csv"},
	}
	got := postProcess(records, IntentGeneric, "")
	assert.Len(t, got, 2)
}

func TestFilterAllowedFiles_BackupNeverAllowed(t *testing.T) {
	records := []*netspeed.Record{
		{FileName: "netspeed.csv"},
		{FileName: "netspeed_bak.csv"},
		{FileName: "netspeed_20250101-000000_bak.csv"},
	}
	got := filterAllowedFiles(records, true)
	assert.Len(t, got, 1)
	assert.Equal(t, "netspeed.csv", got[0].FileName)
}

func TestFilterAllowedFiles_RotationOnlyWhenHistorical(t *testing.T) {
	records := []*netspeed.Record{
		{FileName: "netspeed.csv"},
		{FileName: "netspeed.csv.1"},
		// a bare netspeed_DATE.csv is a "current-shaped" name regardless of
		// whether this particular file actually won the current-file race,
		// so it is allowed unconditionally, like netspeed.csv.
		{FileName: "netspeed_20250101-000000.csv"},
	}

	withoutHistorical := filterAllowedFiles(records, false)
	assert.Len(t, withoutHistorical, 2)

	withHistorical := filterAllowedFiles(records, true)
	assert.Len(t, withHistorical, 3)
}

func TestCapResults_DefaultAndHistorical(t *testing.T) {
	records := make([]*netspeed.Record, 6000)
	for i := range records {
		records[i] = &netspeed.Record{}
	}

	assert.Len(t, capResults(records, 0, false), defaultResultCap)
	assert.Len(t, capResults(records, 0, true), archiveResultCap)
	assert.Len(t, capResults(records, 30000, false), hardResultCap)
}

func TestHeaderOrder_EndsWithMetaFields(t *testing.T) {
	order := HeaderOrder()
	assert.Equal(t, netspeed.MetaFields, order[len(order)-3:])
	assert.Equal(t, netspeed.CanonicalFields, order[:len(netspeed.CanonicalFields)])
}
