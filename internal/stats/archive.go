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

	"github.com/netspeed-inventory/backend/internal/netspeed"
	"github.com/netspeed-inventory/backend/internal/searchengine"
)

// ArchiveQuery is the §4.4.3 archive-read parameter set.
type ArchiveQuery struct {
	Date string // required, snapshot_date
	File string // optional, snapshot_file
	Size int    // capped at 10000
}

const archiveQueryCap = 10000

// QueryArchive implements §4.4.3: filter the archive index on snapshot_date
// (and snapshot_file when given), sorted by _id ascending. A missing
// archive index is not an error — it returns an empty result, matching the
// "snapshot-read paths may degrade gracefully" convention (§7).
func (e *Engine) QueryArchive(ctx context.Context, q ArchiveQuery) ([]*netspeed.Record, error) {
	size := q.Size
	if size <= 0 || size > archiveQueryCap {
		size = archiveQueryCap
	}

	must := []map[string]interface{}{
		{"term": map[string]interface{}{"snapshot_date": q.Date}},
	}
	if q.File != "" {
		must = append(must, map[string]interface{}{"term": map[string]interface{}{"snapshot_file": q.File}})
	}

	hits, err := e.client.RawSearch(ctx, []string{searchengine.ArchiveIndex}, map[string]interface{}{
		"size":  size,
		"query": map[string]interface{}{"bool": map[string]interface{}{"must": must}},
		"sort":  []map[string]interface{}{{"_id": map[string]interface{}{"order": "asc"}}},
	})
	if err != nil {
		return nil, fmt.Errorf("stats: query archive: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })

	records := make([]*netspeed.Record, 0, len(hits))
	for _, h := range hits {
		records = append(records, recordFromArchiveHit(h.Source))
	}
	return records, nil
}

// AppendArchiveRows writes every row of one file's snapshot into the
// archive index, idempotent by a file:date:row# id (§4.5 full rebuild step
// 5: "append rows to the archive index (idempotent by file:date:row# id)").
func AppendArchiveRows(ctx context.Context, client *searchengine.Client, fileName, date string, records []*netspeed.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := client.CreateArchiveIndex(ctx); err != nil {
		return fmt.Errorf("stats: create archive index: %w", err)
	}

	docs := make(map[string]interface{}, len(records))
	for _, r := range records {
		id := fmt.Sprintf("%s:%s:%d", fileName, date, r.RowOrdinal)
		doc := archiveDocFromRecord(r, fileName, date)
		docs[id] = doc
	}

	_, err := client.BulkIndexDocuments(ctx, searchengine.ArchiveIndex, docs)
	return err
}

func archiveDocFromRecord(r *netspeed.Record, fileName, date string) map[string]interface{} {
	doc := map[string]interface{}{
		"#":             r.RowOrdinal,
		"File Name":     r.FileName,
		"Creation Date": r.CreationDate,
		"snapshot_file": fileName,
		"snapshot_date": date,
	}
	for _, f := range netspeed.CanonicalFields {
		doc[f] = r.Field(f)
	}
	return doc
}

// PruneArchive implements the §9 "retention is a floor on snapshot_date"
// rule: delete every archive row older than retentionYears.
func PruneArchive(ctx context.Context, client *searchengine.Client, retentionYears int, now time.Time) error {
	if retentionYears <= 0 {
		return nil
	}
	cutoff := now.AddDate(-retentionYears, 0, 0).Format(dateLayout)
	return client.DeleteByQuery(ctx, searchengine.ArchiveIndex, map[string]interface{}{
		"query": map[string]interface{}{
			"range": map[string]interface{}{"snapshot_date": map[string]interface{}{"lt": cutoff}},
		},
	})
}

func recordFromArchiveHit(src map[string]interface{}) *netspeed.Record {
	r := &netspeed.Record{}
	for _, f := range netspeed.CanonicalFields {
		if v, ok := src[f]; ok {
			r.SetField(f, toStr(v))
		}
	}
	r.FileName = toStr(src["File Name"])
	r.CreationDate = toStr(src["Creation Date"])
	return r
}
