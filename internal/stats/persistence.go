// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package stats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/netspeed-inventory/backend/internal/searchengine"
)

// docID is the global snapshot document id, §4.4.1 ("document id
// file:date:location" for per-location docs implies the same file:date
// shape for the global document).
func docID(file, date string) string {
	return file + ":" + date
}

func locationDocID(file, date, location string) string {
	return file + ":" + date + ":" + location
}

// SaveGlobalSnapshot writes the global half of a snapshot to
// searchengine.GlobalStatsIndex. If snapshot was computed without location
// details (a minimal run) but a detailed document already exists for the
// same id, its location-detail payload is preserved rather than clobbered,
// per §4.4.1 "detailed runs must preserve detail arrays ... when the new
// run does not regenerate them".
func SaveGlobalSnapshot(ctx context.Context, client *searchengine.Client, snapshot *Snapshot) error {
	if err := client.CreateIndex(ctx, searchengine.GlobalStatsIndex); err != nil {
		return fmt.Errorf("stats: create global index: %w", err)
	}

	id := docID(snapshot.File, snapshot.Date)
	doc, err := toDoc(snapshot)
	if err != nil {
		return err
	}

	if snapshot.LocationDetails == nil {
		if existing, found, err := client.GetDocument(ctx, searchengine.GlobalStatsIndex, id); err == nil && found {
			if ld, ok := existing["locationDetails"]; ok {
				doc["locationDetails"] = ld
			}
		}
	}

	return client.IndexDocument(ctx, searchengine.GlobalStatsIndex, id, doc)
}

// SaveLocationSnapshots bulk-loads the per-location detail documents for a
// detailed run, §4.4.1.
func SaveLocationSnapshots(ctx context.Context, client *searchengine.Client, snapshot *Snapshot) error {
	if len(snapshot.LocationDetails) == 0 {
		return nil
	}
	if err := client.CreateIndex(ctx, searchengine.LocationStatsIndex); err != nil {
		return fmt.Errorf("stats: create location index: %w", err)
	}

	docs := make(map[string]interface{}, len(snapshot.LocationDetails))
	for location, detail := range snapshot.LocationDetails {
		doc := map[string]interface{}{
			"file":     snapshot.File,
			"date":     snapshot.Date,
			"location": location,
		}
		raw, err := toDoc(detail)
		if err != nil {
			return err
		}
		for k, v := range raw {
			doc[k] = v
		}
		docs[locationDocID(snapshot.File, snapshot.Date, location)] = doc
	}

	_, err := client.BulkIndexDocuments(ctx, searchengine.LocationStatsIndex, docs)
	return err
}

func toDoc(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("stats: marshal document: %w", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("stats: unmarshal document: %w", err)
	}
	return doc, nil
}

func snapshotFromDoc(doc map[string]interface{}) (*Snapshot, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("stats: marshal doc: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("stats: unmarshal snapshot: %w", err)
	}
	return &s, nil
}
