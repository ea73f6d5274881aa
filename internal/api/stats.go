// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/netspeed-inventory/backend/internal/searchengine"
	"github.com/netspeed-inventory/backend/internal/stats"
)

// statsCurrent implements GET /api/stats/current: the most recent global
// snapshot recorded for the named file, regardless of which date it was
// computed under. Absence is not an error: the caller is told to trigger a
// reindex rather than receiving a 404.
func (a *Api) statsCurrent(rw http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		handleError(rw, http.StatusBadRequest, fmt.Errorf("api: filename parameter is required"))
		return
	}

	ctx := r.Context()
	hits, err := a.Client.RawSearch(ctx, []string{searchengine.GlobalStatsIndex}, map[string]interface{}{
		"size":  1,
		"sort":  []interface{}{map[string]interface{}{"date": map[string]interface{}{"order": "desc"}}},
		"query": map[string]interface{}{"term": map[string]interface{}{"file": filename}},
	})
	if err != nil {
		successEmpty(rw, map[string]interface{}{"needsReindex": true})
		return
	}
	if len(hits) == 0 {
		successEmpty(rw, map[string]interface{}{"needsReindex": true})
		return
	}

	var snapshot stats.Snapshot
	raw, err := json.Marshal(hits[0].Source)
	if err != nil {
		handleError(rw, http.StatusInternalServerError, err)
		return
	}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		handleError(rw, http.StatusInternalServerError, err)
		return
	}

	writeJSON(rw, http.StatusOK, map[string]interface{}{"success": true, "snapshot": snapshot})
}

// statsTimeline implements GET /api/stats/timeline: the global carry-forward
// daily series.
func (a *Api) statsTimeline(rw http.ResponseWriter, r *http.Request) {
	series, err := a.Stats.GlobalTimeline(r.Context())
	if err != nil {
		successEmpty(rw, nil)
		return
	}
	series = applyTimelineLimit(series, r.URL.Query().Get("limit"))
	writeJSON(rw, http.StatusOK, map[string]interface{}{"success": true, "data": series})
}

// statsTimelineByLocation implements GET /api/stats/timeline/by_location: a
// per-location (or per-city, via a 3-character q) carry-forward series.
func (a *Api) statsTimelineByLocation(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" || (len(q) != 3 && len(q) != 5) {
		handleError(rw, http.StatusBadRequest, fmt.Errorf("api: q must be a 3- or 5-character location code"))
		return
	}

	series, err := a.Stats.PerLocationTimeline(r.Context(), q)
	if err != nil {
		successEmpty(rw, nil)
		return
	}
	series = applyTimelineLimit(series, r.URL.Query().Get("limit"))

	body := map[string]interface{}{"success": true, "data": series}
	if len(q) == 3 && a.CityCodes != nil {
		body["city_name"] = a.CityCodes.Resolve(strings.ToUpper(q))
	}
	writeJSON(rw, http.StatusOK, body)
}

func applyTimelineLimit(series []stats.DayMetrics, limitParam string) []stats.DayMetrics {
	if limitParam == "" {
		return series
	}
	n, err := strconv.Atoi(limitParam)
	if err != nil || n <= 0 || n >= len(series) {
		return series
	}
	return series[len(series)-n:]
}

// statsTimelineTopLocations implements GET /api/stats/timeline/top_locations.
func (a *Api) statsTimelineTopLocations(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	count := 10
	if v := q.Get("count"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			count = n
		}
	}

	var extras []string
	if v := q.Get("extra"); v != "" {
		extras = strings.Split(v, ",")
	}

	mode := q.Get("mode")
	if mode == "" {
		mode = "per_key"
	}
	group := q.Get("group")
	if group == "" {
		group = "city"
	}

	result, err := a.Stats.TopN(r.Context(), count, extras, mode, group, q.Get("from_mmdd"))
	if err != nil {
		successEmpty(rw, nil)
		return
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			result = trimTopN(result, n)
		}
	}

	body := map[string]interface{}{"success": true, "data": result}
	if group == "city" && a.CityCodes != nil {
		names := make(map[string]string, len(result.Keys))
		for _, k := range result.Keys {
			names[k] = a.CityCodes.Resolve(strings.ToUpper(k))
		}
		body["key_names"] = names
	}
	writeJSON(rw, http.StatusOK, body)
}

func trimTopN(result *stats.TopNResult, n int) *stats.TopNResult {
	if n >= len(result.Dates) {
		return result
	}
	trimmed := &stats.TopNResult{
		Dates: result.Dates[len(result.Dates)-n:],
		Keys:  result.Keys,
	}
	if result.Series != nil {
		trimmed.Series = make(map[string][]int, len(result.Series))
		for k, v := range result.Series {
			if n >= len(v) {
				trimmed.Series[k] = v
				continue
			}
			trimmed.Series[k] = v[len(v)-n:]
		}
	}
	if result.Aggregate != nil {
		if n < len(result.Aggregate) {
			trimmed.Aggregate = result.Aggregate[len(result.Aggregate)-n:]
		} else {
			trimmed.Aggregate = result.Aggregate
		}
	}
	return trimmed
}

// statsTimelineRebuild implements POST /api/stats/timeline/rebuild: a full
// reindex plus stats recomputation, since the timeline is derived entirely
// from the snapshot indices the rebuild repopulates.
func (a *Api) statsTimelineRebuild(rw http.ResponseWriter, r *http.Request) {
	taskID := a.triggerRebuild(r.Context())
	a.Stats.InvalidateCache()
	writeJSON(rw, http.StatusAccepted, map[string]interface{}{"task_id": taskID})
}

// statsArchive implements GET /api/stats/archive: raw archived rows for a
// snapshot date (and, optionally, a single source file).
func (a *Api) statsArchive(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	if date == "" {
		handleError(rw, http.StatusBadRequest, fmt.Errorf("api: date parameter is required"))
		return
	}

	size := 0
	if v := q.Get("size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			size = n
		}
	}

	records, err := a.Stats.QueryArchive(r.Context(), stats.ArchiveQuery{
		Date: date,
		File: q.Get("file"),
		Size: size,
	})
	if err != nil {
		successEmpty(rw, map[string]interface{}{"headers": headerOrderForDisplay()})
		return
	}

	data := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		data = append(data, rowToMap(rec))
	}

	writeJSON(rw, http.StatusOK, map[string]interface{}{
		"success": true,
		"headers": headerOrderForDisplay(),
		"data":    data,
	})
}
