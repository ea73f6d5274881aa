// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netspeed-inventory/backend/internal/netspeed"
)

func TestFileDate_PrefersNameTimestamp(t *testing.T) {
	f := netspeed.FileInfo{Timestamp: "20240115120000", ModTime: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Unix()}
	assert.Equal(t, "2024-01-15", fileDate(f))
}

func TestFileDate_FallsBackToModTime(t *testing.T) {
	mt := time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC).Unix()
	f := netspeed.FileInfo{ModTime: mt}
	assert.Equal(t, "2023-06-01", fileDate(f))
}

func TestToFileEntry(t *testing.T) {
	mt := time.Date(2024, 3, 2, 8, 15, 30, 0, time.UTC).Unix()
	f := netspeed.FileInfo{Name: "netspeed.csv", ModTime: mt}
	entry := toFileEntry(f, true, 42)
	assert.Equal(t, "netspeed.csv", entry.Name)
	assert.True(t, entry.IsCurrent)
	assert.Equal(t, 42, entry.LineCount)
	assert.Equal(t, "2024-03-02", entry.Date)
	assert.Equal(t, "08:15:30", entry.Time)
}

func TestEmptyIfFalse(t *testing.T) {
	assert.Nil(t, emptyIfFalse(false, "x"))
	assert.Equal(t, "x", emptyIfFalse(true, "x"))
}

func TestRowToMap(t *testing.T) {
	r := &netspeed.Record{RowOrdinal: 3, FileName: "netspeed.csv", CreationDate: "2024-01-01", IPAddress: "10.0.0.1"}
	row := rowToMap(r)
	assert.Equal(t, "3", row["#"])
	assert.Equal(t, "netspeed.csv", row["File Name"])
	assert.Equal(t, "10.0.0.1", row["IP Address"])
	for _, f := range netspeed.CanonicalFields {
		_, ok := row[f]
		assert.True(t, ok, "missing canonical field %q", f)
	}
}

func TestHeaderOrderForDisplay_ExcludesMACAddress2(t *testing.T) {
	order := headerOrderForDisplay()
	for _, h := range order {
		assert.NotEqual(t, "MAC Address 2", h)
	}
}

func TestAllFiles_OrdersCurrentFirst(t *testing.T) {
	current := netspeed.FileInfo{Name: "netspeed.csv"}
	historical := []netspeed.FileInfo{{Name: "netspeed_1.csv"}}
	backups := []netspeed.FileInfo{{Name: "netspeed_bak_20240101.csv"}}

	out := allFiles(historical, &current, backups)
	require.Len(t, out, 3)
	assert.Equal(t, "netspeed.csv", out[0].Name)
	assert.Equal(t, "netspeed_1.csv", out[1].Name)
	assert.Equal(t, "netspeed_bak_20240101.csv", out[2].Name)
}

func TestFileColumns_DropsMACAddress2AndAppliesDisabledDefaults(t *testing.T) {
	a := &Api{}
	rw := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/files/columns", nil)
	a.fileColumns(rw, req)

	assert.Equal(t, http.StatusOK, rw.Code)
	body := rw.Body.String()
	assert.NotContains(t, body, "MAC Address 2")
	assert.Contains(t, body, `"id":"Subnet Mask"`)
	assert.Contains(t, body, `"enabled":false`)
}

func TestFileDownload_RejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	a := &Api{Roots: []string{dir}}

	req := httptest.NewRequest(http.MethodGet, "/api/files/download/..%2F..%2Fetc%2Fpasswd", nil)
	req = mux.SetURLVars(req, map[string]string{"filename": "../../etc/passwd"})
	rw := httptest.NewRecorder()

	a.fileDownload(rw, req)
	assert.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestFileDownload_ServesKnownFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netspeed.csv")
	require.NoError(t, os.WriteFile(path, []byte("line1\nline2\n"), 0o644))

	a := &Api{Roots: []string{dir}}
	req := httptest.NewRequest(http.MethodGet, "/api/files/download/netspeed.csv", nil)
	req = mux.SetURLVars(req, map[string]string{"filename": "netspeed.csv"})
	rw := httptest.NewRecorder()

	a.fileDownload(rw, req)
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Equal(t, "line1\nline2\n", rw.Body.String())
}

func TestFileDownload_UnknownFileNotFound(t *testing.T) {
	dir := t.TempDir()
	a := &Api{Roots: []string{dir}}
	req := httptest.NewRequest(http.MethodGet, "/api/files/download/netspeed_9.csv", nil)
	req = mux.SetURLVars(req, map[string]string{"filename": "netspeed_9.csv"})
	rw := httptest.NewRecorder()

	a.fileDownload(rw, req)
	assert.Equal(t, http.StatusNotFound, rw.Code)
}
