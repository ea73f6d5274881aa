// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package searchengine is the C3 Search Index Driver: index lifecycle,
// bulk ingestion, and the intent-driven query planner described in spec
// §4.3. The wire client is github.com/elastic/go-elasticsearch/v9, sourced
// from the retrieval pack's jaegertracing-jaeger manifest (no example
// teacher repo imports a search-engine client directly; see DESIGN.md).
package searchengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
)

// ErrServiceUnavailable is returned when the engine cannot be reached and
// waiting is disabled (§5 "Engine readiness", §7).
var ErrServiceUnavailable = fmt.Errorf("searchengine: engine unavailable")

// Client wraps the raw engine client with the operations C3/C4 need.
type Client struct {
	es         *elasticsearch.Client
	timeout    time.Duration
	maxResults int
}

// Config configures a new Client.
type Config struct {
	URLs       []string
	Password   string
	Username   string
	Timeout    time.Duration
	MaxResults int
}

// NewClient builds a Client around go-elasticsearch's own connection
// pooling/retry behavior (one or more URLs act as a fallback list per §6).
func NewClient(cfg Config) (*Client, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.URLs,
	}
	if cfg.Username != "" || cfg.Password != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("searchengine: create client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5000
	}

	return &Client{es: es, timeout: timeout, maxResults: maxResults}, nil
}

// Ping checks engine reachability.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("searchengine: ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("searchengine: ping returned %s", res.Status())
	}
	return nil
}

// WaitReady implements the §5 "Engine readiness" policy: poll Ping up to
// grace with the given interval; if wait is false and the first ping
// fails, return ErrServiceUnavailable immediately rather than retrying
// silently.
func (c *Client) WaitReady(ctx context.Context, wait bool, grace, poll time.Duration) error {
	if err := c.Ping(ctx); err == nil {
		return nil
	} else if !wait {
		return ErrServiceUnavailable
	}

	deadline := time.Now().Add(grace)
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
	return ErrServiceUnavailable
}

// CreateIndex is idempotent: it checks existence first, then creates with
// the canonical mapping and settings (§4.3.1).
func (c *Client) CreateIndex(ctx context.Context, name string) error {
	return c.createIndexWithBody(ctx, name, mappingBody())
}

// CreateArchiveIndex is the archive-index variant of CreateIndex, adding
// the snapshot_file/snapshot_date fields (§3).
func (c *Client) CreateArchiveIndex(ctx context.Context) error {
	return c.createIndexWithBody(ctx, ArchiveIndex, archiveMappingBody())
}

func (c *Client) createIndexWithBody(ctx context.Context, name string, body map[string]interface{}) error {
	exists, err := c.indexExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("searchengine: marshal mapping for %q: %w", name, err)
	}

	res, err := c.es.Indices.Create(name,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return fmt.Errorf("searchengine: create index %q: %w", name, err)
	}
	defer res.Body.Close()
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("searchengine: create index %q: %s", name, res.Status())
	}
	return nil
}

func (c *Client) indexExists(ctx context.Context, name string) (bool, error) {
	res, err := c.es.Indices.Exists([]string{name}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("searchengine: check index %q exists: %w", name, err)
	}
	defer res.Body.Close()
	return res.StatusCode == 200, nil
}

// DeleteIndex is idempotent: a missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context, name string) error {
	res, err := c.es.Indices.Delete([]string{name}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("searchengine: delete index %q: %w", name, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("searchengine: delete index %q: %s", name, res.Status())
	}
	return nil
}

// CleanupIndicesByPattern deletes every per-file netspeed index, used before
// a full rebuild (§4.3.1). It never touches GlobalStatsIndex,
// LocationStatsIndex, or ArchiveIndex: the archive is never pattern-deleted
// (§9), even though those indices share the netspeed_ name prefix. A raw
// Indices.Delete([]string{pattern}) would delete them too, so this goes
// through ListNetspeedIndices (which already excludes them by name) and
// deletes each survivor individually.
func (c *Client) CleanupIndicesByPattern(ctx context.Context, pattern string) error {
	if pattern != IndexWildcard {
		return fmt.Errorf("searchengine: cleanup pattern %q: only %q is supported", pattern, IndexWildcard)
	}

	indices, err := c.ListNetspeedIndices(ctx)
	if err != nil {
		return fmt.Errorf("searchengine: cleanup pattern %q: %w", pattern, err)
	}
	for _, idx := range indices {
		if err := c.DeleteIndex(ctx, idx.Name); err != nil {
			return fmt.Errorf("searchengine: cleanup pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// IndexInfo pairs an existing index name with its creation time, used by
// index selection (§4.3.4).
type IndexInfo struct {
	Name      string
	CreatedAt time.Time
}

// ListNetspeedIndices enumerates existing netspeed_* per-file indices
// (excluding the stats/archive indices) paired with creation time.
func (c *Client) ListNetspeedIndices(ctx context.Context) ([]IndexInfo, error) {
	res, err := c.es.Indices.GetSettings(
		c.es.Indices.GetSettings.WithContext(ctx),
		c.es.Indices.GetSettings.WithIndex(IndexWildcard),
		c.es.Indices.GetSettings.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return nil, fmt.Errorf("searchengine: list indices: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		if res.StatusCode == 404 {
			return nil, nil
		}
		return nil, fmt.Errorf("searchengine: list indices: %s", res.Status())
	}

	var decoded map[string]struct {
		Settings struct {
			Index struct {
				CreationDate string `json:"creation_date"`
			} `json:"index"`
		} `json:"settings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("searchengine: decode index settings: %w", err)
	}

	var out []IndexInfo
	for name, v := range decoded {
		if name == GlobalStatsIndex || name == LocationStatsIndex || name == ArchiveIndex {
			continue
		}
		info := IndexInfo{Name: name}
		if v.Settings.Index.CreationDate != "" {
			var ms int64
			fmt.Sscanf(v.Settings.Index.CreationDate, "%d", &ms)
			info.CreatedAt = time.UnixMilli(ms)
		}
		out = append(out, info)
	}
	return out, nil
}

// Refresh forces an immediate refresh of name, used after a bulk run with
// refresh=false (§4.3.2).
func (c *Client) Refresh(ctx context.Context, name string) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(name),
	)
	if err != nil {
		return fmt.Errorf("searchengine: refresh %q: %w", name, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("searchengine: refresh %q: %s", name, res.Status())
	}
	return nil
}

// rawSearch executes a search request against the given indices and
// returns the decoded response body.
func (c *Client) rawSearch(ctx context.Context, indices []string, body map[string]interface{}) (*searchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("searchengine: marshal query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := []func(*esapi.SearchRequest){
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(indices...),
		c.es.Search.WithBody(bytes.NewReader(payload)),
		c.es.Search.WithIgnoreUnavailable(true),
	}
	res, err := c.es.Search(opts...)
	if err != nil {
		return nil, fmt.Errorf("searchengine: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("searchengine: search returned %s", res.Status())
	}

	var decoded searchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("searchengine: decode search response: %w", err)
	}
	return &decoded, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Index  string                 `json:"_index"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
