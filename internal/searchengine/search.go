// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package searchengine

import (
	"context"

	"github.com/netspeed-inventory/backend/internal/netspeed"
)

const (
	defaultResultCap = 5000
	hardResultCap    = 20000
	archiveResultCap = 10000
)

// filterAllowedFiles implements the §4.3.3 step 2 canonical-file filter,
// ported from _examples/original_source/backend/utils/opensearch.py's
// _is_allowed_file: current files are always allowed, rotation files only
// when includeHistorical is set, backup files never. Needed because a
// MAC-intent query forces the full netspeed_* wildcard (ResolveIndices),
// which also matches backup-file indices.
func filterAllowedFiles(records []*netspeed.Record, includeHistorical bool) []*netspeed.Record {
	out := make([]*netspeed.Record, 0, len(records))
	for _, r := range records {
		switch netspeed.ClassifyFileKind(r.FileName) {
		case netspeed.KindCurrentLegacy, netspeed.KindCurrentTimestamped:
			out = append(out, r)
		case netspeed.KindRotationLegacy, netspeed.KindRotationTimestamped:
			if includeHistorical {
				out = append(out, r)
			}
		}
	}
	return out
}

// SearchRequest is the C3 public entry point used by the API layer (§4.3.3).
type SearchRequest struct {
	Query             string
	Field             string
	IncludeHistorical bool
	Limit             int
	Roots             []string
}

// Search runs the full §4.3.3 pipeline: detect intent, resolve the target
// indices, build and execute the engine query, then post-process the raw
// hits (dedup, canonical filtering, result capping).
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]*netspeed.Record, error) {
	intent := DetectIntent(req.Query, req.Field)

	indices, order, err := c.ResolveIndices(ctx, req.Roots, req.IncludeHistorical, intent == IntentMAC)
	if err != nil {
		return nil, err
	}

	plan := BuildPlan(PlanInput{
		Query:             req.Query,
		Field:             req.Field,
		IncludeHistorical: req.IncludeHistorical,
		Limit:             req.Limit,
		PreferredOrder:    order,
		CandidateIndices:  indices,
	})

	resp, err := c.rawSearch(ctx, plan.Indices, plan.Body)
	if err != nil {
		return nil, err
	}

	records := hitsToRecords(resp)
	records = filterAllowedFiles(records, req.IncludeHistorical)
	records = postProcess(records, intent, req.Field)
	records = capResults(records, req.Limit, req.IncludeHistorical)
	return records, nil
}

func hitsToRecords(resp *searchResponse) []*netspeed.Record {
	records := make([]*netspeed.Record, 0, len(resp.Hits.Hits))
	for _, h := range resp.Hits.Hits {
		records = append(records, recordFromHit(h.Source))
	}
	return records
}

// postProcess applies the §4.3.3 result-shaping rules on top of the raw,
// already engine-sorted hits. It never re-sorts; it only removes rows the
// engine's relevance/tie-break sort does not itself collapse.
func postProcess(records []*netspeed.Record, intent Intent, field string) []*netspeed.Record {
	// A KEM-targeted query intentionally bypasses dedup: KEM rows for the
	// same phone carry distinct KEM serial numbers that would otherwise
	// collapse into one row.
	if field == "KEM" || field == "KEM 1 Serial Number" || field == "KEM 2 Serial Number" {
		return records
	}

	switch intent {
	case IntentMAC:
		// One row per file: a phone can log multiple switch-port entries
		// within the same snapshot; only the first (best-sorted) survives.
		records = dedupByKey(records, func(r *netspeed.Record) string { return r.FileName })
	case IntentSwitchPort:
		records = dedupByKey(records, func(r *netspeed.Record) string { return r.SwitchHostname + "\x00" + r.FileName })
	default:
		records = dedupByKey(records, func(r *netspeed.Record) string { return r.MACAddress + "\x00" + r.FileName })
	}

	return records
}

func dedupByKey(records []*netspeed.Record, key func(*netspeed.Record) string) []*netspeed.Record {
	seen := make(map[string]bool, len(records))
	out := make([]*netspeed.Record, 0, len(records))
	for _, r := range records {
		k := key(r)
		if k == "\x00" || k == "" {
			out = append(out, r)
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// capResults enforces the §4.3.3 result-size ceilings: 5000 by default,
// 20000 as the absolute hard maximum, and at most 10000 when historical/
// archive rows are in play.
func capResults(records []*netspeed.Record, limit int, includeHistorical bool) []*netspeed.Record {
	cap := defaultResultCap
	if limit > 0 {
		cap = limit
	}
	if includeHistorical && cap > archiveResultCap {
		cap = archiveResultCap
	}
	if cap > hardResultCap {
		cap = hardResultCap
	}
	if len(records) > cap {
		records = records[:cap]
	}
	return records
}

// HeaderOrder returns the stable output column order (§4.3.3 item 7):
// every canonical field, then # / File Name / Creation Date last.
func HeaderOrder() []string {
	order := make([]string, 0, len(netspeed.CanonicalFields)+len(netspeed.MetaFields))
	order = append(order, netspeed.CanonicalFields...)
	order = append(order, netspeed.MetaFields...)
	return order
}
