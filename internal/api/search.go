// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/netspeed-inventory/backend/internal/metrics"
	"github.com/netspeed-inventory/backend/internal/progress"
	"github.com/netspeed-inventory/backend/internal/searchengine"
)

// search implements GET /api/search/: free-text or single-field search
// across the current and, optionally, historical netspeed indices.
func (a *Api) search(rw http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")
	if query == "" {
		handleError(rw, http.StatusBadRequest, fmt.Errorf("api: query parameter is required"))
		return
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 20000 {
			handleError(rw, http.StatusBadRequest, fmt.Errorf("api: limit must be between 0 and 20000"))
			return
		}
		limit = n
	}

	includeHistorical := q.Get("include_historical") == "true"

	ctx, cancel := context.WithTimeout(r.Context(), a.searchTimeout())
	defer cancel()

	start := time.Now()
	records, err := a.Client.Search(ctx, searchengine.SearchRequest{
		Query:             query,
		Field:             q.Get("field"),
		IncludeHistorical: includeHistorical,
		Limit:             limit,
		Roots:             a.Roots,
	})
	took := time.Since(start)
	metrics.ObserveSearch(start, err)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			handleError(rw, http.StatusGatewayTimeout, fmt.Errorf("api: search timed out: %w", err))
			return
		}
		if errors.Is(err, searchengine.ErrServiceUnavailable) {
			handleError(rw, http.StatusServiceUnavailable, err)
			return
		}
		handleError(rw, http.StatusInternalServerError, err)
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
		"took_ms": took.Milliseconds(),
	})
}

func (a *Api) searchTimeout() time.Duration {
	if a.SearchTimeout > 0 {
		return a.SearchTimeout
	}
	return 10 * time.Second
}

// searchIndexAll implements GET /api/search/index/all: a full rebuild of
// every netspeed index, including historical rotations.
func (a *Api) searchIndexAll(rw http.ResponseWriter, r *http.Request) {
	taskID := a.triggerRebuild(r.Context())
	writeJSON(rw, http.StatusOK, map[string]interface{}{"task_id": taskID})
}

// searchIndexRebuild implements POST /api/search/index/rebuild: drops every
// netspeed_* index first, then enqueues a full rebuild.
func (a *Api) searchIndexRebuild(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := a.Client.CleanupIndicesByPattern(ctx, searchengine.IndexWildcard); err != nil {
		handleError(rw, http.StatusInternalServerError, err)
		return
	}
	taskID := a.triggerRebuild(ctx)
	writeJSON(rw, http.StatusAccepted, map[string]interface{}{"task_id": taskID})
}

// searchIndexStatus implements GET /api/search/index/status/{task_id}: the
// status of a previously triggered rebuild, derived from the single
// persisted progress state (task ids are not individually retained, the
// status reflects the most recent run regardless of the id queried).
func (a *Api) searchIndexStatus(rw http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["task_id"]

	state, err := progress.Load(a.Controller.StatePath())
	if err != nil {
		handleError(rw, http.StatusInternalServerError, err)
		return
	}

	if state.Active == nil {
		writeJSON(rw, http.StatusOK, statusResponse{Status: "completed"})
		return
	}

	status := effectiveStatus(state, a.Controller.IsLive, a.BrokerURL, a.EngineURL)
	resp := statusResponse{
		Status: status,
		Progress: map[string]interface{}{
			"task_id":           state.Active.TaskID,
			"current_file":      state.Active.CurrentFile,
			"index":             state.Active.Index,
			"total_files":       state.Active.TotalFiles,
			"documents_indexed": state.Active.DocumentsIndexed,
			"requested_task_id": taskID,
		},
	}
	if status == progress.StatusFailed {
		resp.Error = state.Active.Error
	}
	writeJSON(rw, http.StatusOK, resp)
}
