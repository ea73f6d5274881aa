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

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "netspeed.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// Testable property 1: normalization is positional-independent across the
// 11/14/15/16 column legacy layouts, as long as field values are
// unambiguous under the priority regex set.
func TestIntelligentColumnMapping_PositionIndependent(t *testing.T) {
	row := []string{
		"192.168.10.5", "+4960213981023", "FCH12345678", "CP-8841",
		"", "", "AABBCCDDEEFF", "SEP001122334455",
		"255.255.255.0", "803", "1000", "100",
		"swh01.juwin.bayern.de", "GigaEthernet1/0/12", "", "",
	}
	rec := intelligentColumnMapping(row)
	assert.Equal(t, "192.168.10.5", rec.IPAddress)
	assert.Equal(t, "+4960213981023", rec.LineNumber)
	assert.Equal(t, "FCH12345678", rec.SerialNumber)
	assert.Equal(t, "CP-8841", rec.ModelName)
	assert.Equal(t, "AABBCCDDEEFF", rec.MACAddress)
	assert.Equal(t, "SEP001122334455", rec.MACAddress2)
	assert.Equal(t, "255.255.255.0", rec.SubnetMask)
	assert.Equal(t, "803", rec.VoiceVLAN)
	assert.Equal(t, "swh01.juwin.bayern.de", rec.SwitchHostname)
	assert.Equal(t, "GigaEthernet1/0/12", rec.SwitchPort)
}

func TestDetectDelimiter(t *testing.T) {
	semi := writeTempCSV(t, "a;b;c\n1;2;3\n")
	d, err := detectDelimiter(semi)
	require.NoError(t, err)
	assert.Equal(t, ';', d)

	comma := writeTempCSV(t, "a,b,c\n1,2,3\n")
	d, err = detectDelimiter(comma)
	require.NoError(t, err)
	assert.Equal(t, ',', d)
}

func TestSplitLine_TrailingDelimiter(t *testing.T) {
	cells := splitLine("a,b,c,", ',')
	assert.Equal(t, []string{"a", "b", "c"}, cells)

	cells = splitLine("a,b,,d", ',')
	assert.Equal(t, []string{"a", "b", "", "d"}, cells)
}

func TestNormalize_SkipsEmptyAndUnrecognizedRows(t *testing.T) {
	content := "192.168.10.5,+4960213981023,FCH12345678,CP-8841,,,AABBCCDDEEFF,,255.255.255.0,803,,,swh01.juwin.bayern.de,,,\n\n!!!,,,,,,,,,,,,,,,\n"
	path := writeTempCSV(t, content)

	records, stats, err := Normalize(path, "netspeed.csv", "2025-08-14")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.RowsAccepted)
	assert.Equal(t, 1, stats.RowsSkipped)
	require.Len(t, records, 1)
	assert.Equal(t, "netspeed.csv", records[0].FileName)
	assert.Equal(t, "2025-08-14", records[0].CreationDate)
	assert.Equal(t, 1, records[0].RowOrdinal)
}

// Testable property 2: dedup(dedup(rows)) == dedup(rows).
func TestDedup_Idempotent(t *testing.T) {
	rows := []*Record{
		{SerialNumber: "FCH1", MACAddress: "AA", LineNumber: "1"},
		{SerialNumber: "FCH1", MACAddress: "AA", LineNumber: "1", KEM: "KEM"},
		{SerialNumber: "FCH2", MACAddress: "BB", LineNumber: "2"},
	}
	once := Dedup(rows)
	twice := Dedup(once)
	assert.Equal(t, once, twice)
	assert.Len(t, once, 2)
}

// Testable property 3: the KEM row wins a dedup tie.
func TestDedup_KEMPreference(t *testing.T) {
	noKEM := &Record{SerialNumber: "FCH1", MACAddress: "AA", LineNumber: "1", ModelName: "CP-8841"}
	withKEM := &Record{SerialNumber: "FCH1", MACAddress: "AA", LineNumber: "1", ModelName: "CP-8841", KEM: "KEM"}

	out := Dedup([]*Record{noKEM, withKEM})
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].KEMCount())
}
