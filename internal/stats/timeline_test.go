// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollapseGlobalByDate_PrefersCanonicalFile(t *testing.T) {
	docs := []globalDoc{
		{File: "netspeed_bak.csv", Date: "2025-08-14", TotalPhones: 1},
		{File: "netspeed.csv", Date: "2025-08-14", TotalPhones: 2},
	}
	byDate := collapseGlobalByDate(docs)
	assert.Equal(t, "netspeed.csv", byDate["2025-08-14"].File)
	assert.Equal(t, 2, byDate["2025-08-14"].TotalPhones)
}

func TestCarryForwardDaily_FillsGapsFromPreviousDay(t *testing.T) {
	byDate := map[string]globalDoc{
		"2025-08-10": {Date: "2025-08-10", TotalPhones: 100},
		"2025-08-13": {Date: "2025-08-13", TotalPhones: 150},
	}
	days := carryForwardDaily(byDate)
	require.Len(t, days, 4)
	assert.Equal(t, "2025-08-10", days[0].Date)
	assert.Equal(t, 100, days[0].TotalPhones)
	assert.Equal(t, "2025-08-11", days[1].Date)
	assert.Equal(t, 100, days[1].TotalPhones, "day 11 carries day 10 forward")
	assert.Equal(t, "2025-08-12", days[2].Date)
	assert.Equal(t, 100, days[2].TotalPhones, "day 12 carries day 10 forward")
	assert.Equal(t, "2025-08-13", days[3].Date)
	assert.Equal(t, 150, days[3].TotalPhones)
}

func TestAggregateLocationDocs_MaxPerDateThenSumAcrossLocations(t *testing.T) {
	docs := []locationDoc{
		{Date: "2025-08-14", Location: "ABX01", TotalPhones: 10},
		{Date: "2025-08-14", Location: "ABX01", TotalPhones: 12}, // same day, different file: keep max
		{Date: "2025-08-14", Location: "ABX02", TotalPhones: 5},
	}
	byDate := aggregateLocationDocs(docs)
	assert.Equal(t, 17, byDate["2025-08-14"].TotalPhones)
}

func TestTopKeys_RanksByCountThenAppendsExtras(t *testing.T) {
	counts := map[string]int{"ABX": 50, "CDE": 100, "FGH": 10}
	keys := topKeys(counts, 2, []string{"FGH", "ZZZ"})
	assert.Equal(t, []string{"CDE", "ABX", "FGH", "ZZZ"}, keys)
}

func TestDateWindow_StartsAtAnchor(t *testing.T) {
	docs := []locationDoc{
		{Date: "2025-06-01"},
		{Date: "2025-07-15"},
		{Date: "2025-08-01"},
	}
	got := dateWindow(docs, "07-15")
	assert.Equal(t, []string{"2025-07-15", "2025-08-01"}, got)
}
