// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netspeed-inventory/backend/internal/orchestrator"
)

func TestSearch_RejectsEmptyQuery(t *testing.T) {
	a := &Api{}
	req := httptest.NewRequest(http.MethodGet, "/api/search/", nil)
	rw := httptest.NewRecorder()

	a.search(rw, req)
	assert.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestSearch_RejectsOutOfRangeLimit(t *testing.T) {
	a := &Api{}
	req := httptest.NewRequest(http.MethodGet, "/api/search/?query=foo&limit=20001", nil)
	rw := httptest.NewRecorder()

	a.search(rw, req)
	assert.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestSearch_RejectsNonNumericLimit(t *testing.T) {
	a := &Api{}
	req := httptest.NewRequest(http.MethodGet, "/api/search/?query=foo&limit=abc", nil)
	rw := httptest.NewRecorder()

	a.search(rw, req)
	assert.Equal(t, http.StatusBadRequest, rw.Code)
}

func TestSearchTimeout_FallsBackWhenUnset(t *testing.T) {
	a := &Api{}
	assert.Equal(t, 10*time.Second, a.searchTimeout())
}

func TestSearchIndexStatus_NoActiveTaskReportsCompleted(t *testing.T) {
	varDir := t.TempDir()
	controller := orchestrator.NewController(orchestrator.Params{VarDir: varDir}, nil, nil, nil)
	a := &Api{Controller: controller}

	req := httptest.NewRequest(http.MethodGet, "/api/search/index/status/anything", nil)
	req = mux.SetURLVars(req, map[string]string{"task_id": "anything"})
	rw := httptest.NewRecorder()

	a.searchIndexStatus(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), `"status":"completed"`)
}
