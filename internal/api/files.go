// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/netspeed-inventory/backend/internal/logging"
	"github.com/netspeed-inventory/backend/internal/netspeed"
	"github.com/netspeed-inventory/backend/internal/orchestrator"
	"github.com/netspeed-inventory/backend/internal/progress"
	"github.com/netspeed-inventory/backend/internal/searchengine"
)

// fileEntry is one row of GET /api/files/, §6.
type fileEntry struct {
	Name      string `json:"name"`
	IsCurrent bool   `json:"is_current"`
	Date      string `json:"date"`
	MTime     int64  `json:"mtime"`
	DateTime  string `json:"datetime"`
	Time      string `json:"time"`
	LineCount int    `json:"line_count"`
}

// fileDate resolves the §4.4.1 (file, date) date for a discovered file:
// its own name timestamp if it carries one, else its modification time.
func fileDate(f netspeed.FileInfo) string {
	if f.Timestamp != "" {
		if d := netspeed.FileDateFromTimestamp(f.Timestamp); d != "" {
			return d
		}
	}
	return time.Unix(f.ModTime, 0).UTC().Format("2006-01-02")
}

func (a *Api) lineCountFor(name string) int {
	state, err := progress.Load(a.Controller.StatePath())
	if err != nil {
		return 0
	}
	return state.Files[name].LineCount
}

func toFileEntry(f netspeed.FileInfo, isCurrent bool, lineCount int) fileEntry {
	mt := time.Unix(f.ModTime, 0).UTC()
	return fileEntry{
		Name:      f.Name,
		IsCurrent: isCurrent,
		Date:      fileDate(f),
		MTime:     f.ModTime,
		DateTime:  mt.Format("2006-01-02 15:04:05"),
		Time:      mt.Format("15:04:05"),
		LineCount: lineCount,
	}
}

// listFiles implements GET /api/files/: current first, then historical
// rotations in their already-discovered order, then backups.
func (a *Api) listFiles(rw http.ResponseWriter, r *http.Request) {
	historical, current, backups := netspeed.Discover(a.Roots)

	var out []fileEntry
	if current != nil {
		out = append(out, toFileEntry(*current, true, a.lineCountFor(current.Name)))
	}
	for _, f := range historical {
		out = append(out, toFileEntry(f, false, a.lineCountFor(f.Name)))
	}
	for _, f := range backups {
		out = append(out, toFileEntry(f, false, a.lineCountFor(f.Name)))
	}

	writeJSON(rw, http.StatusOK, out)
}

// fileInfo implements GET /api/files/netspeed_info: the current file's
// summary, falling back to the newest historical rotation (yesterday's
// data) when no current file exists yet.
func (a *Api) fileInfo(rw http.ResponseWriter, r *http.Request) {
	historical, current, _ := netspeed.Discover(a.Roots)

	target := current
	usingFallback := false
	var fallbackName string
	if target == nil && len(historical) > 0 {
		target = &historical[0]
		usingFallback = true
		fallbackName = historical[0].Name
	}
	if target == nil {
		handleError(rw, http.StatusNotFound, fmt.Errorf("api: no netspeed file found"))
		return
	}

	writeJSON(rw, http.StatusOK, map[string]interface{}{
		"success":        true,
		"date":           fileDate(*target),
		"line_count":     a.lineCountFor(target.Name),
		"last_modified":  time.Unix(target.ModTime, 0).UTC().Format(time.RFC3339),
		"using_fallback": usingFallback,
		"fallback_file":  emptyIfFalse(usingFallback, fallbackName),
	})
}

func emptyIfFalse(cond bool, s string) interface{} {
	if !cond {
		return nil
	}
	return s
}

// rowToMap renders one record as a header-keyed JSON object, the shape
// every §6 "headers"/"data" response uses.
func rowToMap(r *netspeed.Record) map[string]string {
	row := map[string]string{
		"#":             strconv.Itoa(r.RowOrdinal),
		"File Name":     r.FileName,
		"Creation Date": r.CreationDate,
	}
	for _, f := range netspeed.CanonicalFields {
		row[f] = r.Field(f)
	}
	return row
}

// filePreview implements GET /api/files/preview: a capped, optionally
// location-filtered preview of one file's rows.
func (a *Api) filePreview(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	historical, current, backups := netspeed.Discover(a.Roots)
	filename := q.Get("filename")
	usingFallback := false

	var target *netspeed.FileInfo
	if filename != "" {
		for _, f := range allFiles(historical, current, backups) {
			if f.Name == filename {
				ff := f
				target = &ff
				break
			}
		}
		if target == nil {
			handleError(rw, http.StatusNotFound, fmt.Errorf("api: file %q not found", filename))
			return
		}
	} else if current != nil {
		target = current
	} else if len(historical) > 0 {
		target = &historical[0]
		usingFallback = true
	} else {
		handleError(rw, http.StatusNotFound, fmt.Errorf("api: no netspeed file found"))
		return
	}

	date := fileDate(*target)
	records, _, err := netspeed.Normalize(target.Path, target.Name, date)
	if err != nil {
		handleError(rw, http.StatusInternalServerError, err)
		return
	}

	if loc := q.Get("loc"); loc != "" {
		filtered := records[:0]
		for _, rec := range records {
			location, ok := netspeed.ExtractLocation(rec.SwitchHostname)
			if !ok {
				continue
			}
			if len(loc) == 3 && netspeed.ExtractCityCode(location) == loc {
				filtered = append(filtered, rec)
			} else if len(loc) == 5 && location == loc {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	if len(records) > limit {
		records = records[:limit]
	}

	data := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		data = append(data, rowToMap(rec))
	}

	writeJSON(rw, http.StatusOK, map[string]interface{}{
		"success":        true,
		"headers":        headerOrderForDisplay(),
		"data":           data,
		"creation_date":  date,
		"file_name":      target.Name,
		"using_fallback": usingFallback,
	})
}

func allFiles(historical []netspeed.FileInfo, current *netspeed.FileInfo, backups []netspeed.FileInfo) []netspeed.FileInfo {
	var out []netspeed.FileInfo
	if current != nil {
		out = append(out, *current)
	}
	out = append(out, historical...)
	out = append(out, backups...)
	return out
}

// column is one entry of GET /api/files/columns.
type column struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Enabled bool   `json:"enabled"`
}

var columnLabels = map[string]string{
	"Creation Date": "Date",
	"IP Address":    "IP Addr.",
	"Voice VLAN":    "V-VLAN",
	"Serial Number": "Serial",
	"Model Name":    "Model",
}

var columnDisabledByDefault = map[string]bool{
	"Subnet Mask": true,
	"Speed 1":     true,
	"Speed 2":     true,
}

func headerOrderForDisplay() []string {
	order := searchengine.HeaderOrder()
	out := make([]string, 0, len(order))
	for _, h := range order {
		if h == "MAC Address 2" {
			continue
		}
		out = append(out, h)
	}
	return out
}

// fileColumns implements GET /api/files/columns: the canonical field order,
// minus "MAC Address 2" which the original hides from column settings.
func (a *Api) fileColumns(rw http.ResponseWriter, r *http.Request) {
	out := make([]column, 0, len(netspeed.CanonicalFields)+len(netspeed.MetaFields))
	for _, id := range append(append([]string{}, netspeed.MetaFields...), netspeed.CanonicalFields...) {
		if id == "MAC Address 2" {
			continue
		}
		label := columnLabels[id]
		if label == "" {
			label = id
		}
		out = append(out, column{ID: id, Label: label, Enabled: !columnDisabledByDefault[id]})
	}
	writeJSON(rw, http.StatusOK, out)
}

// fileDownload implements GET /api/files/download/{filename}: the raw CSV
// bytes, rejecting anything that isn't a bare, traversal-free netspeed file
// name.
func (a *Api) fileDownload(rw http.ResponseWriter, r *http.Request) {
	filename := mux.Vars(r)["filename"]
	if !strings.HasPrefix(filename, "netspeed.csv") && !strings.HasPrefix(filename, "netspeed_") {
		handleError(rw, http.StatusBadRequest, fmt.Errorf("api: refusing to download %q", filename))
		return
	}
	if filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		handleError(rw, http.StatusBadRequest, fmt.Errorf("api: invalid file name %q", filename))
		return
	}

	historical, current, backups := netspeed.Discover(a.Roots)
	var target *netspeed.FileInfo
	for _, f := range allFiles(historical, current, backups) {
		if f.Name == filename {
			ff := f
			target = &ff
			break
		}
	}
	if target == nil {
		handleError(rw, http.StatusNotFound, fmt.Errorf("api: file %q not found", filename))
		return
	}

	rw.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	rw.Header().Set("Content-Type", "text/csv")
	http.ServeFile(rw, r, target.Path)
}

// reindex implements GET /api/files/reindex: triggers a full rebuild,
// preferring the task queue and falling back to running it inline so the
// caller is never left without a task id.
func (a *Api) reindex(rw http.ResponseWriter, r *http.Request) {
	taskID := a.triggerRebuild(r.Context())
	writeJSON(rw, http.StatusOK, map[string]interface{}{"task_id": taskID})
}

// reindexCurrent implements GET /api/files/reindex/current: it runs
// Controller.HandleChange on the current file in the background, which
// copies it to the archive, writes its detailed snapshot, drops every
// per-file index and runs a full rebuild (queued or inline). The current
// file is not reindexed on its own.
func (a *Api) reindexCurrent(rw http.ResponseWriter, r *http.Request) {
	_, current, _ := netspeed.Discover(a.Roots)
	if current == nil {
		handleError(rw, http.StatusNotFound, fmt.Errorf("api: no current file to reindex"))
		return
	}
	go a.Controller.HandleChange(context.Background(), current.Path)
	writeJSON(rw, http.StatusOK, map[string]interface{}{"task_id": "inline"})
}

// fileIndexStatus implements GET /api/files/index/status.
func (a *Api) fileIndexStatus(rw http.ResponseWriter, r *http.Request) {
	a.writeProgressStatus(rw)
}

func (a *Api) writeProgressStatus(rw http.ResponseWriter) {
	state, err := progress.Load(a.Controller.StatePath())
	if err != nil {
		handleError(rw, http.StatusInternalServerError, err)
		return
	}
	body := map[string]interface{}{
		"last_run":     state.LastRun,
		"last_success": state.LastSuccess,
		"totals":       state.Totals,
		"files":        state.Files,
	}
	if state.Active != nil {
		active := *state.Active
		active.Status = effectiveStatus(state, a.Controller.IsLive, a.BrokerURL, a.EngineURL)
		body["active"] = active
	}
	writeJSON(rw, http.StatusOK, body)
}

// triggerRebuild enqueues a full rebuild, falling back to running it inline
// in the background when no broker is connected, and returns the task id
// either way.
func (a *Api) triggerRebuild(ctx context.Context) string {
	taskID := fmt.Sprintf("rebuild-%d", time.Now().UnixNano())
	if err := a.Queue.Enqueue(orchestrator.SubjectRebuild, taskID, nil); err != nil {
		go func() {
			if err := a.Controller.FullRebuild(context.Background(), taskID); err != nil {
				logging.Errorf("api: inline rebuild %s: %v", taskID, err)
			}
		}()
	}
	return taskID
}
