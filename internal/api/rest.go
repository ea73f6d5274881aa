// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api is the thin HTTP surface described in spec §6: every handler
// here only parses input and renders output, delegating all real work to
// internal/netspeed, internal/searchengine, internal/stats,
// internal/progress, internal/orchestrator and internal/citycodes.
// Routing follows the teacher's internal/api/rest.go: github.com/gorilla/mux
// for path dispatch, github.com/gorilla/handlers for the outer middleware
// chain wired in cmd/netspeed-backend.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/netspeed-inventory/backend/internal/citycodes"
	"github.com/netspeed-inventory/backend/internal/logging"
	"github.com/netspeed-inventory/backend/internal/metrics"
	"github.com/netspeed-inventory/backend/internal/orchestrator"
	"github.com/netspeed-inventory/backend/internal/progress"
	"github.com/netspeed-inventory/backend/internal/searchengine"
	"github.com/netspeed-inventory/backend/internal/stats"
)

// ErrorResponse is the stable error body shape, mirrored from the teacher's
// internal/api/rest.go ErrorResponse.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Api wires every HTTP handler to the core packages. All fields are
// required; New validates nothing beyond what its caller (cmd/
// netspeed-backend) already validated via internal/config.
type Api struct {
	Roots []string

	Client     *searchengine.Client
	Stats      *stats.Engine
	Controller *orchestrator.Controller
	Queue      *orchestrator.TaskQueue
	CityCodes  *citycodes.Table

	SearchTimeout    time.Duration
	SearchMaxResults int

	BrokerURL string
	EngineURL string
}

// New builds an Api around already-constructed collaborators.
func New(a Api) *Api {
	return &a
}

// MountRoutes registers every path from spec §6 onto r, following the
// teacher's RestApi.MountRoutes shape (one Subrouter, explicit Methods).
func (a *Api) MountRoutes(top *mux.Router) {
	top.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r := top.PathPrefix("/api").Subrouter()
	r.StrictSlash(true)

	r.HandleFunc("/files/", a.listFiles).Methods(http.MethodGet)
	r.HandleFunc("/files/netspeed_info", a.fileInfo).Methods(http.MethodGet)
	r.HandleFunc("/files/preview", a.filePreview).Methods(http.MethodGet)
	r.HandleFunc("/files/columns", a.fileColumns).Methods(http.MethodGet)
	r.HandleFunc("/files/download/{filename}", a.fileDownload).Methods(http.MethodGet)
	r.HandleFunc("/files/reindex", a.reindex).Methods(http.MethodGet)
	r.HandleFunc("/files/reindex/current", a.reindexCurrent).Methods(http.MethodGet)
	r.HandleFunc("/files/index/status", a.fileIndexStatus).Methods(http.MethodGet)

	r.HandleFunc("/search/", a.search).Methods(http.MethodGet)
	r.HandleFunc("/search/index/all", a.searchIndexAll).Methods(http.MethodGet)
	r.HandleFunc("/search/index/rebuild", a.searchIndexRebuild).Methods(http.MethodPost)
	r.HandleFunc("/search/index/status/{task_id}", a.searchIndexStatus).Methods(http.MethodGet)

	r.HandleFunc("/stats/current", a.statsCurrent).Methods(http.MethodGet)
	r.HandleFunc("/stats/timeline", a.statsTimeline).Methods(http.MethodGet)
	r.HandleFunc("/stats/timeline/by_location", a.statsTimelineByLocation).Methods(http.MethodGet)
	r.HandleFunc("/stats/timeline/top_locations", a.statsTimelineTopLocations).Methods(http.MethodGet)
	r.HandleFunc("/stats/timeline/rebuild", a.statsTimelineRebuild).Methods(http.MethodPost)
	r.HandleFunc("/stats/archive", a.statsArchive).Methods(http.MethodGet)
}

func writeJSON(rw http.ResponseWriter, status int, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		logging.Errorf("api: encoding response: %v", err)
	}
}

// handleError writes the §6 ErrorResponse body, mirrored from the teacher's
// handleError.
func handleError(rw http.ResponseWriter, statusCode int, err error) {
	logging.Warnf("api: request failed: %v", err)
	writeJSON(rw, statusCode, ErrorResponse{
		Status: http.StatusText(statusCode),
		Error:  err.Error(),
	})
}

// successEmpty implements the §9/§7 `{success:true, data:[]}` convention
// for snapshot-read paths on a missing-index or otherwise benign failure
// (Open Question decision recorded in DESIGN.md): never for write/trigger
// endpoints.
func successEmpty(rw http.ResponseWriter, extra map[string]interface{}) {
	body := map[string]interface{}{"success": true, "data": []interface{}{}}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(rw, http.StatusOK, body)
}

// statusResponse is the shape of GET /api/search/index/status/{task_id}
// and GET /api/files/index/status, §6 and SPEC_FULL.md §4's progress
// sub-document.
type statusResponse struct {
	Status   string                 `json:"status"`
	Progress map[string]interface{} `json:"progress,omitempty"`
	Result   map[string]interface{} `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func effectiveStatus(state *progress.State, isLive func(string) bool, brokerURL, engineURL string) string {
	return state.EffectiveStatus(time.Now(), staleActiveMaxAge, isLive, brokerURL, engineURL)
}

// staleActiveMaxAge bounds how long a recorded "running" task is trusted
// without corroboration from IsLive, §4.5 "stale active detection".
const staleActiveMaxAge = 2 * time.Hour
