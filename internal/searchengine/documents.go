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
)

// IndexDocument upserts a single document by id, used by the Statistics
// Engine for snapshot documents (§4.4.1) and by the archive append path
// (§4.5 full rebuild step 5, idempotent by file:date:row# id).
func (c *Client) IndexDocument(ctx context.Context, index, id string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("searchengine: marshal document %q/%q: %w", index, id, err)
	}

	res, err := c.es.Index(index,
		bytes.NewReader(payload),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(id),
	)
	if err != nil {
		return fmt.Errorf("searchengine: index document %q/%q: %w", index, id, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("searchengine: index document %q/%q: %s", index, id, res.Status())
	}
	return nil
}

// GetDocument fetches a single document by id. found is false (with a nil
// error) when the document does not exist.
func (c *Client) GetDocument(ctx context.Context, index, id string) (doc map[string]interface{}, found bool, err error) {
	res, err := c.es.Get(index, id, c.es.Get.WithContext(ctx))
	if err != nil {
		return nil, false, fmt.Errorf("searchengine: get document %q/%q: %w", index, id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return nil, false, nil
	}
	if res.IsError() {
		return nil, false, fmt.Errorf("searchengine: get document %q/%q: %s", index, id, res.Status())
	}

	var decoded struct {
		Source map[string]interface{} `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("searchengine: decode document %q/%q: %w", index, id, err)
	}
	return decoded.Source, true, nil
}

// Hit is one search result: the document id, its source index, and its
// decoded body.
type Hit struct {
	ID     string
	Index  string
	Source map[string]interface{}
}

// RawSearch runs an arbitrary query body against the given indices and
// returns every hit's id/index/source, used by the stats and archive query
// paths which need full control over the query shape (date-histogram
// aggregations, sort by _id, etc.).
func (c *Client) RawSearch(ctx context.Context, indices []string, body map[string]interface{}) ([]Hit, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("searchengine: marshal query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(indices...),
		c.es.Search.WithBody(bytes.NewReader(payload)),
		c.es.Search.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return nil, fmt.Errorf("searchengine: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("searchengine: search returned %s", res.Status())
	}

	var decoded struct {
		Hits struct {
			Hits []struct {
				ID     string                 `json:"_id"`
				Index  string                 `json:"_index"`
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("searchengine: decode search response: %w", err)
	}

	hits := make([]Hit, 0, len(decoded.Hits.Hits))
	for _, h := range decoded.Hits.Hits {
		hits = append(hits, Hit{ID: h.ID, Index: h.Index, Source: h.Source})
	}
	return hits, nil
}

// DeleteByQuery removes every document in index matching body, used for
// archive retention pruning (§4.5 full rebuild step 5). A missing index is
// not an error.
func (c *Client) DeleteByQuery(ctx context.Context, index string, body map[string]interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("searchengine: marshal delete-by-query for %q: %w", index, err)
	}

	res, err := c.es.DeleteByQuery([]string{index}, bytes.NewReader(payload),
		c.es.DeleteByQuery.WithContext(ctx),
		c.es.DeleteByQuery.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("searchengine: delete-by-query %q: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("searchengine: delete-by-query %q: %s", index, res.Status())
	}
	return nil
}

// BulkIndexDocuments upserts many documents keyed by id in one request,
// used for the per-location stats bulk load (§4.4.1).
func (c *Client) BulkIndexDocuments(ctx context.Context, index string, docs map[string]interface{}) (BulkResult, error) {
	var buf bytes.Buffer
	for id, doc := range docs {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": index, "_id": id},
		}
		metaLine, _ := json.Marshal(meta)
		buf.Write(metaLine)
		buf.WriteByte('\n')

		docLine, err := json.Marshal(doc)
		if err != nil {
			continue
		}
		buf.Write(docLine)
		buf.WriteByte('\n')
	}

	if buf.Len() == 0 {
		return BulkResult{}, nil
	}

	res, err := c.es.Bulk(bytes.NewReader(buf.Bytes()),
		c.es.Bulk.WithContext(ctx),
		c.es.Bulk.WithRefresh("false"),
	)
	if err != nil {
		return BulkResult{}, fmt.Errorf("searchengine: bulk index documents %q: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return BulkResult{}, fmt.Errorf("searchengine: bulk index documents %q: %s", index, res.Status())
	}

	var decoded bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return BulkResult{}, fmt.Errorf("searchengine: decode bulk response: %w", err)
	}

	var result BulkResult
	for _, item := range decoded.Items {
		if item.Index.Status >= 200 && item.Index.Status < 300 {
			result.Indexed++
		} else {
			result.Failed++
		}
	}
	return result, nil
}
