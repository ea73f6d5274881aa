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

func TestIndexName_LowercasesAndReplacesForbiddenChars(t *testing.T) {
	assert.Equal(t, "netspeed_netspeed_20250101-120000", IndexName("netspeed_20250101-120000.csv"))
	assert.Equal(t, "netspeed_netspeed", IndexName("NETSPEED.csv"))
}

func TestDocumentRoundTrip(t *testing.T) {
	r := &netspeed.Record{
		IPAddress:      "10.1.2.3",
		MACAddress:     "AABBCCDDEEFF",
		SerialNumber:   "FOC123456",
		SwitchHostname: "sw1.example.com",
		FileName:       "netspeed.csv",
		CreationDate:   "2025-08-14",
		RowOrdinal:     3,
	}

	doc := documentFromRecord(r)
	back := recordFromHit(doc)

	assert.Equal(t, r.IPAddress, back.IPAddress)
	assert.Equal(t, r.MACAddress, back.MACAddress)
	assert.Equal(t, r.SerialNumber, back.SerialNumber)
	assert.Equal(t, r.SwitchHostname, back.SwitchHostname)
	assert.Equal(t, r.FileName, back.FileName)
	assert.Equal(t, r.CreationDate, back.CreationDate)
}

func TestArchiveMappingBody_AddsSnapshotFields(t *testing.T) {
	body := archiveMappingBody()
	props := body["mappings"].(map[string]interface{})["properties"].(map[string]interface{})
	assert.Contains(t, props, "snapshot_file")
	assert.Contains(t, props, "snapshot_date")
}
