// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveSearch_LabelsOutcome(t *testing.T) {
	before := testutil.ToFloat64(SearchRequests.WithLabelValues("ok"))
	ObserveSearch(time.Now(), nil)
	assert.Equal(t, before+1, testutil.ToFloat64(SearchRequests.WithLabelValues("ok")))

	beforeErr := testutil.ToFloat64(SearchRequests.WithLabelValues("error"))
	ObserveSearch(time.Now(), errors.New("boom"))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(SearchRequests.WithLabelValues("error")))
}

func TestObserveCacheLookup_LabelsHitAndMiss(t *testing.T) {
	beforeHit := testutil.ToFloat64(CacheHits.WithLabelValues("hit"))
	ObserveCacheLookup(true)
	assert.Equal(t, beforeHit+1, testutil.ToFloat64(CacheHits.WithLabelValues("hit")))

	beforeMiss := testutil.ToFloat64(CacheHits.WithLabelValues("miss"))
	ObserveCacheLookup(false)
	assert.Equal(t, beforeMiss+1, testutil.ToFloat64(CacheHits.WithLabelValues("miss")))
}

func TestHandler_ServesPrometheusExposition(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rw := httptest.NewRecorder()

	Handler().ServeHTTP(rw, req)

	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), "netspeed_search_requests_total")
}
