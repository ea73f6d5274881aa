// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package searchengine

import (
	"regexp"
	"strings"

	"github.com/netspeed-inventory/backend/internal/netspeed"
)

const (
	// IndexPrefix namespaces every per-file netspeed index (§3).
	IndexPrefix = "netspeed_"
	// IndexWildcard matches every netspeed_* shard, used to force
	// all-history search for MAC-like queries (§4.3.4) and bulk cleanup
	// before a full rebuild (§4.3.1).
	IndexWildcard = IndexPrefix + "*"
	// GlobalStatsIndex and LocationStatsIndex are the C4 snapshot indices
	// (§3), document id file:date and file:date:locationCode respectively.
	GlobalStatsIndex   = "netspeed_stats_global"
	LocationStatsIndex = "netspeed_stats_location"
	// ArchiveIndex holds every row of every snapshot ever seen (§3).
	ArchiveIndex = "netspeed_archive"
)

var forbiddenIndexChars = regexp.MustCompile(`[^a-z0-9_-]`)

// IndexName derives the deterministic per-file index name from a netspeed
// file name, §3: "one netspeed index per ingested file... forbidden
// characters replaced".
func IndexName(fileName string) string {
	stem := strings.TrimSuffix(fileName, ".csv")
	stem = strings.ToLower(stem)
	stem = forbiddenIndexChars.ReplaceAllString(stem, "_")
	return IndexPrefix + stem
}

// mapping is the fixed index mapping of §3: every CSV field a keyword with
// a lowercase-normalized sub-field for case-insensitive partial matching;
// IP and MAC stored as text+keyword to permit both full and substring
// queries; Creation Date a date; Switch Hostname and Model Name each carry
// both a text and a lowercase keyword sub-field.
func mappingBody() map[string]interface{} {
	keywordLower := map[string]interface{}{
		"type": "keyword",
		"fields": map[string]interface{}{
			"lower": map[string]interface{}{
				"type":       "keyword",
				"normalizer": "lowercase_normalizer",
			},
		},
	}
	textWithKeyword := map[string]interface{}{
		"type": "text",
		"fields": map[string]interface{}{
			"keyword": map[string]interface{}{"type": "keyword"},
			"lower": map[string]interface{}{
				"type":       "keyword",
				"normalizer": "lowercase_normalizer",
			},
		},
	}

	properties := map[string]interface{}{
		"#":                 map[string]interface{}{"type": "integer"},
		"File Name":         map[string]interface{}{"type": "keyword"},
		"Creation Date":     map[string]interface{}{"type": "date", "format": "yyyy-MM-dd||strict_date_optional_time||epoch_millis"},
		"IP Address":        textWithKeyword,
		"Line Number":       keywordLower,
		"Serial Number":     keywordLower,
		"Model Name":        textWithKeyword,
		"KEM":               keywordLower,
		"KEM 2":             keywordLower,
		"MAC Address":       textWithKeyword,
		"MAC Address 2":     textWithKeyword,
		"Subnet Mask":       keywordLower,
		"Voice VLAN":        keywordLower,
		"Speed 1":           keywordLower,
		"Speed 2":           keywordLower,
		"Switch Hostname":   textWithKeyword,
		"Switch Port":       textWithKeyword,
		"Switch Port Mode":  keywordLower,
		"PC Port Mode":      keywordLower,
	}

	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
			"refresh_interval":   "30s",
			"max_result_window":  20000,
			"analysis": map[string]interface{}{
				"normalizer": map[string]interface{}{
					"lowercase_normalizer": map[string]interface{}{
						"type":   "custom",
						"filter": []string{"lowercase"},
					},
				},
			},
		},
		"mappings": map[string]interface{}{
			"properties": properties,
		},
	}
}

// archiveMappingBody extends the base mapping with the archive index's
// snapshot annotations (§3).
func archiveMappingBody() map[string]interface{} {
	body := mappingBody()
	mappings := body["mappings"].(map[string]interface{})
	properties := mappings["properties"].(map[string]interface{})
	properties["snapshot_file"] = map[string]interface{}{"type": "keyword"}
	properties["snapshot_date"] = map[string]interface{}{"type": "date", "format": "yyyy-MM-dd"}
	return body
}

// documentFromRecord renders a netspeed.Record as the flat JSON document
// the index mapping expects.
func documentFromRecord(r *netspeed.Record) map[string]interface{} {
	doc := map[string]interface{}{
		"#":                r.RowOrdinal,
		"File Name":        r.FileName,
		"Creation Date":    r.CreationDate,
		"IP Address":       r.IPAddress,
		"Line Number":      r.LineNumber,
		"Serial Number":    r.SerialNumber,
		"Model Name":       r.ModelName,
		"KEM":              r.KEM,
		"KEM 2":            r.KEM2,
		"MAC Address":      r.MACAddress,
		"MAC Address 2":    r.MACAddress2,
		"Subnet Mask":      r.SubnetMask,
		"Voice VLAN":       r.VoiceVLAN,
		"Speed 1":          r.Speed1,
		"Speed 2":          r.Speed2,
		"Switch Hostname":  r.SwitchHostname,
		"Switch Port":      r.SwitchPort,
		"Switch Port Mode": r.SwitchPortMode,
		"PC Port Mode":     r.PCPortMode,
	}
	for k, v := range r.Extra {
		doc[k] = v
	}
	return doc
}

// recordFromHit reconstructs a netspeed.Record from a decoded engine hit
// source document.
func recordFromHit(src map[string]interface{}) *netspeed.Record {
	r := &netspeed.Record{}
	for _, f := range netspeed.CanonicalFields {
		if v, ok := src[f]; ok {
			r.SetField(f, toStr(v))
		}
	}
	r.FileName = toStr(src["File Name"])
	r.CreationDate = toStr(src["Creation Date"])
	if n, ok := src["#"]; ok {
		switch v := n.(type) {
		case float64:
			r.RowOrdinal = int(v)
		case int:
			r.RowOrdinal = v
		}
	}
	return r
}

func toStr(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
