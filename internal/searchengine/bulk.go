// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package searchengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/netspeed-inventory/backend/internal/logging"
	"github.com/netspeed-inventory/backend/internal/netspeed"
)

const (
	bulkChunkDocs     = 1000
	bulkChunkMaxBytes = 10 * 1024 * 1024 // 10 MiB, §4.3.2
)

// BulkResult reports how a bulk run went (§7 "Bulk write failure": record
// failed count, continue).
type BulkResult struct {
	Indexed int
	Failed  int
}

// IndexFile implements §4.3.2 index_file: derive the index name, create it
// if absent, deduplicate the rows, then emit bulk actions in bounded
// chunks with refresh=false, refreshing once at the end.
func (c *Client) IndexFile(ctx context.Context, fileName string, records []*netspeed.Record) (BulkResult, error) {
	indexName := IndexName(fileName)
	if err := c.CreateIndex(ctx, indexName); err != nil {
		return BulkResult{}, err
	}

	deduped := netspeed.Dedup(records)

	var result BulkResult
	chunk := make([]*netspeed.Record, 0, bulkChunkDocs)
	flush := func() error {
		if len(chunk) == 0 {
			return nil
		}
		indexed, failed, err := c.bulkIndex(ctx, indexName, chunk)
		result.Indexed += indexed
		result.Failed += failed
		chunk = chunk[:0]
		return err
	}

	chunkBytes := 0
	for _, r := range deduped {
		doc := documentFromRecord(r)
		docBytes, err := json.Marshal(doc)
		if err != nil {
			result.Failed++
			continue
		}
		if len(chunk) >= bulkChunkDocs || chunkBytes+len(docBytes) > bulkChunkMaxBytes {
			if err := flush(); err != nil {
				return result, err
			}
			chunkBytes = 0
		}
		chunk = append(chunk, r)
		chunkBytes += len(docBytes)
	}
	if err := flush(); err != nil {
		return result, err
	}

	if err := c.Refresh(ctx, indexName); err != nil {
		logging.Warnf("searchengine: refresh %q after bulk: %v", indexName, err)
	}

	return result, nil
}

func (c *Client) bulkIndex(ctx context.Context, indexName string, records []*netspeed.Record) (indexed, failed int, err error) {
	var buf bytes.Buffer
	for _, r := range records {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": indexName},
		}
		metaLine, _ := json.Marshal(meta)
		buf.Write(metaLine)
		buf.WriteByte('\n')

		docLine, _ := json.Marshal(documentFromRecord(r))
		buf.Write(docLine)
		buf.WriteByte('\n')
	}

	res, err := c.es.Bulk(bytes.NewReader(buf.Bytes()),
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithRefresh("false"),
	)
	if err != nil {
		return 0, len(records), fmt.Errorf("searchengine: bulk index %q: %w", indexName, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, len(records), fmt.Errorf("searchengine: bulk index %q: %s", indexName, res.Status())
	}

	var decoded bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return 0, len(records), fmt.Errorf("searchengine: decode bulk response: %w", err)
	}

	for _, item := range decoded.Items {
		action := item.Index
		if action.Status >= 200 && action.Status < 300 {
			indexed++
		} else {
			failed++
			logging.Warnf("searchengine: bulk item failed in %q: %v", indexName, action.Error)
		}
	}
	return indexed, failed, nil
}

type bulkResponse struct {
	Items []struct {
		Index struct {
			Status int                    `json:"status"`
			Error  map[string]interface{} `json:"error,omitempty"`
		} `json:"index"`
	} `json:"items"`
}
