// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/netspeed-inventory/backend/internal/cache"
	"github.com/netspeed-inventory/backend/internal/metrics"
	"github.com/netspeed-inventory/backend/internal/netspeed"
	"github.com/netspeed-inventory/backend/internal/searchengine"
)

const (
	dateLayout = "2006-01-02"
	cacheTTL   = 60 * time.Second
)

// DayMetrics is one day's row in a timeline response, §4.4.2.
type DayMetrics struct {
	Date          string `json:"date"`
	TotalPhones   int    `json:"totalPhones"`
	TotalSwitches int    `json:"totalSwitches"`
	PhonesWithKEM int    `json:"phonesWithKEM"`
	TotalKEMs     int    `json:"totalKEMs"`
}

// Engine is the C4 Statistics Engine query surface: timelines and archive
// reads backed by an engine client, with a 60 s in-process cache keyed by
// the full parameter tuple (§4.4.2).
type Engine struct {
	client *searchengine.Client
	cache  *cache.Cache[any]
}

// NewEngine builds a stats query Engine around an existing search-engine
// client.
func NewEngine(client *searchengine.Client) *Engine {
	return &Engine{client: client, cache: cache.New[any]()}
}

// InvalidateCache drops every cached timeline response, called at
// every C5 ingest boundary (§4.4.2 "Invalidation on any ingest boundary").
func (e *Engine) InvalidateCache() {
	e.cache.Clear()
}

type globalDoc struct {
	File          string
	Date          string
	TotalPhones   int
	TotalSwitches int
	PhonesWithKEM int
	TotalKEMs     int
}

// GlobalTimeline implements §4.4.2's global timeline: fetch every global
// snapshot, collapse same-date docs preferring netspeed.csv over backups,
// then fill a contiguous daily window carrying the previous day forward
// over gaps.
func (e *Engine) GlobalTimeline(ctx context.Context) ([]DayMetrics, error) {
	metrics.ObserveCacheLookup(e.cache.Hit("timeline:global"))
	v := e.cache.Get("timeline:global", func() (any, time.Duration) {
		result, err := e.globalTimelineUncached(ctx)
		if err != nil {
			return timelineErr{err}, 0
		}
		return result, cacheTTL
	})
	if errVal, ok := v.(timelineErr); ok {
		return nil, errVal.err
	}
	return v.([]DayMetrics), nil
}

type timelineErr struct{ err error }

func (e *Engine) globalTimelineUncached(ctx context.Context) ([]DayMetrics, error) {
	hits, err := e.client.RawSearch(ctx, []string{searchengine.GlobalStatsIndex}, map[string]interface{}{
		"size":  10000,
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
	})
	if err != nil {
		return nil, fmt.Errorf("stats: fetch global timeline: %w", err)
	}

	docs := make([]globalDoc, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, globalDocFromSource(h.Source))
	}

	byDate := collapseGlobalByDate(docs)
	return carryForwardDaily(byDate), nil
}

func globalDocFromSource(src map[string]interface{}) globalDoc {
	return globalDoc{
		File:          toStr(src["file"]),
		Date:          toStr(src["date"]),
		TotalPhones:   toInt(src["totalPhones"]),
		TotalSwitches: toInt(src["totalSwitches"]),
		PhonesWithKEM: toInt(src["phonesWithKEM"]),
		TotalKEMs:     toInt(src["totalKEMs"]),
	}
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

// collapseGlobalByDate keeps one document per date, preferring the one
// whose file is the plain current-file name over rotations/backups (§4.4.2
// "Collapse same-date by preferring the netspeed.csv file name").
func collapseGlobalByDate(docs []globalDoc) map[string]globalDoc {
	byDate := map[string]globalDoc{}
	for _, d := range docs {
		existing, ok := byDate[d.Date]
		if !ok || preferDoc(d, existing) {
			byDate[d.Date] = d
		}
	}
	return byDate
}

func preferDoc(candidate, existing globalDoc) bool {
	candidateCanonical := candidate.File == "netspeed.csv"
	existingCanonical := existing.File == "netspeed.csv"
	if candidateCanonical != existingCanonical {
		return candidateCanonical
	}
	return false
}

// carryForwardDaily builds the contiguous [earliest,latest] daily window
// and fills missing days with the previous day's metrics, §4.4.2.
func carryForwardDaily(byDate map[string]globalDoc) []DayMetrics {
	if len(byDate) == 0 {
		return nil
	}

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	start, err1 := time.Parse(dateLayout, dates[0])
	end, err2 := time.Parse(dateLayout, dates[len(dates)-1])
	if err1 != nil || err2 != nil {
		return nil
	}

	var out []DayMetrics
	var last DayMetrics
	haveLast := false
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateLayout)
		if doc, ok := byDate[key]; ok {
			last = DayMetrics{
				Date:          key,
				TotalPhones:   doc.TotalPhones,
				TotalSwitches: doc.TotalSwitches,
				PhonesWithKEM: doc.PhonesWithKEM,
				TotalKEMs:     doc.TotalKEMs,
			}
			haveLast = true
		} else if haveLast {
			last = DayMetrics{Date: key, TotalPhones: last.TotalPhones, TotalSwitches: last.TotalSwitches, PhonesWithKEM: last.PhonesWithKEM, TotalKEMs: last.TotalKEMs}
		} else {
			last = DayMetrics{Date: key}
		}
		out = append(out, last)
	}
	return out
}

type locationDoc struct {
	Date          string
	Location      string
	TotalPhones   int
	TotalSwitches int
	PhonesWithKEM int
}

// PerLocationTimeline implements §4.4.2's per-location timeline: given a
// 3-letter city prefix or a full 5-character location code, sum per-key
// maxes per date (to avoid double-counting when the same location appears
// in multiple same-day files), then carry forward over gaps.
func (e *Engine) PerLocationTimeline(ctx context.Context, keyPrefix string) ([]DayMetrics, error) {
	cacheKey := "timeline:location:" + keyPrefix
	metrics.ObserveCacheLookup(e.cache.Hit(cacheKey))
	v := e.cache.Get(cacheKey, func() (any, time.Duration) {
		result, err := e.perLocationTimelineUncached(ctx, keyPrefix)
		if err != nil {
			return timelineErr{err}, 0
		}
		return result, cacheTTL
	})
	if errVal, ok := v.(timelineErr); ok {
		return nil, errVal.err
	}
	return v.([]DayMetrics), nil
}

func (e *Engine) perLocationTimelineUncached(ctx context.Context, keyPrefix string) ([]DayMetrics, error) {
	hits, err := e.client.RawSearch(ctx, []string{searchengine.LocationStatsIndex}, map[string]interface{}{
		"size": 10000,
		"query": map[string]interface{}{
			"prefix": map[string]interface{}{"location": keyPrefix},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("stats: fetch location timeline %q: %w", keyPrefix, err)
	}

	docs := make([]locationDoc, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, locationDoc{
			Date:          toStr(h.Source["date"]),
			Location:      toStr(h.Source["location"]),
			TotalPhones:   toInt(h.Source["totalPhones"]),
			TotalSwitches: toInt(h.Source["totalSwitches"]),
			PhonesWithKEM: toInt(h.Source["phonesWithKEM"]),
		})
	}

	byDate := aggregateLocationDocs(docs)
	return carryForwardDaily(byDate), nil
}

// aggregateLocationDocs implements the "per-key max, then sum across keys"
// rule: for each (date, location) pair keep the maximum metric observed
// across same-day files, then sum across every distinct location matching
// the requested prefix to produce one row per date.
func aggregateLocationDocs(docs []locationDoc) map[string]globalDoc {
	type dateLocKey struct{ date, location string }
	maxByKey := map[dateLocKey]locationDoc{}
	for _, d := range docs {
		k := dateLocKey{d.Date, d.Location}
		if existing, ok := maxByKey[k]; !ok || d.TotalPhones > existing.TotalPhones {
			maxByKey[k] = d
		}
	}

	summed := map[string]globalDoc{}
	for k, d := range maxByKey {
		acc := summed[k.date]
		acc.Date = k.date
		acc.File = "netspeed.csv"
		acc.TotalPhones += d.TotalPhones
		acc.TotalSwitches += d.TotalSwitches
		acc.PhonesWithKEM += d.PhonesWithKEM
		summed[k.date] = acc
	}
	return summed
}

func toStr(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// TopNResult is the response shape for the top-N cities/locations query,
// §4.4.2. For mode=per_key, Series is populated (one aligned array per
// key); for mode=aggregate, Aggregate is populated instead.
type TopNResult struct {
	Dates     []string         `json:"dates"`
	Keys      []string         `json:"keys"`
	Series    map[string][]int `json:"series,omitempty"`
	Aggregate []int            `json:"aggregate,omitempty"`
}

// TopN implements §4.4.2's top-N query: determine the top-N keys by phone
// count on the latest date, add any explicit extras, then build either a
// per-key aligned series or a summed aggregate series over the date
// window. anchorMonthDay, if non-empty ("MM-DD"), starts the window at
// that month-day instead of the earliest available date. group selects
// whether keys are full 5-character location codes ("location", the
// default) or their 3-letter city prefix ("city"), in which case every
// location sharing a city is summed into one key.
func (e *Engine) TopN(ctx context.Context, n int, extras []string, mode, group, anchorMonthDay string) (*TopNResult, error) {
	hits, err := e.client.RawSearch(ctx, []string{searchengine.LocationStatsIndex}, map[string]interface{}{
		"size":  10000,
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
	})
	if err != nil {
		return nil, fmt.Errorf("stats: fetch top-n source: %w", err)
	}

	keyOf := func(location string) string { return location }
	if group == "city" {
		keyOf = netspeed.ExtractCityCode
	}

	// Collapse duplicate same-day-file docs per (date, raw location) via
	// max before grouping, so only the group-level sum (distinct locations
	// within one city) adds counts together.
	type dateLocKey struct{ date, location string }
	maxByKey := map[dateLocKey]int{}
	latestDate := ""
	for _, h := range hits {
		date := toStr(h.Source["date"])
		k := dateLocKey{date, toStr(h.Source["location"])}
		if v := toInt(h.Source["totalPhones"]); v > maxByKey[k] {
			maxByKey[k] = v
		}
		if date > latestDate {
			latestDate = date
		}
	}

	docs := make([]locationDoc, 0, len(maxByKey))
	for k, v := range maxByKey {
		docs = append(docs, locationDoc{Date: k.date, Location: keyOf(k.location), TotalPhones: v})
	}

	latestCounts := map[string]int{}
	for _, d := range docs {
		if d.Date == latestDate {
			latestCounts[d.Location] += d.TotalPhones
		}
	}

	keys := topKeys(latestCounts, n, extras)

	perKeyByDate := map[string]map[string]int{}
	for _, k := range keys {
		perKeyByDate[k] = map[string]int{}
	}
	for _, d := range docs {
		if m, ok := perKeyByDate[d.Location]; ok {
			m[d.Date] += d.TotalPhones
		}
	}

	dates := dateWindow(docs, anchorMonthDay)

	result := &TopNResult{Dates: dates, Keys: keys}
	if mode == "aggregate" {
		result.Aggregate = make([]int, len(dates))
		for i, d := range dates {
			sum := 0
			for _, k := range keys {
				sum += perKeyByDate[k][d]
			}
			result.Aggregate[i] = sum
		}
	} else {
		result.Series = map[string][]int{}
		for _, k := range keys {
			series := make([]int, len(dates))
			for i, d := range dates {
				series[i] = perKeyByDate[k][d]
			}
			result.Series[k] = series
		}
	}
	return result, nil
}

// topKeys ranks keys by count descending, then appends any extras not
// already present, preserving extras' given order.
func topKeys(counts map[string]int, n int, extras []string) []string {
	type kv struct {
		key   string
		count int
	}
	ranked := make([]kv, 0, len(counts))
	for k, c := range counts {
		ranked = append(ranked, kv{k, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})

	seen := map[string]bool{}
	var out []string
	for i := 0; i < len(ranked) && len(out) < n; i++ {
		out = append(out, ranked[i].key)
		seen[ranked[i].key] = true
	}
	for _, ex := range extras {
		if !seen[ex] {
			out = append(out, ex)
			seen[ex] = true
		}
	}
	return out
}

// dateWindow returns every distinct date present in docs, sorted, starting
// at the anchor month-day if given and present in range.
func dateWindow(docs []locationDoc, anchorMonthDay string) []string {
	set := map[string]bool{}
	for _, d := range docs {
		set[d.Date] = true
	}
	dates := make([]string, 0, len(set))
	for d := range set {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	if anchorMonthDay == "" || len(dates) == 0 {
		return dates
	}
	for i, d := range dates {
		if len(d) == 10 && d[5:] == anchorMonthDay {
			return dates[i:]
		}
	}
	return dates
}
