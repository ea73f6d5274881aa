// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package searchengine

import (
	"regexp"
	"strings"
)

// Intent is the query planner's classification of a free-text or fielded
// query, §4.3.3.
type Intent string

const (
	IntentPhone        Intent = "phone"
	IntentSerial       Intent = "serial"
	IntentMAC          Intent = "mac"
	IntentHostnameCode Intent = "hostname_code"
	IntentFQDN         Intent = "fqdn"
	IntentSwitchPort   Intent = "switch_port"
	IntentIPFull       Intent = "ip_full"
	IntentIPPartial    Intent = "ip_partial"
	IntentVoiceVLAN    Intent = "voice_vlan"
	IntentModel4Digit  Intent = "model_4digit"
	IntentGeneric      Intent = "generic"
)

var (
	phoneRe       = regexp.MustCompile(`^\+?\d{7,}$`)
	hostnameCode5 = regexp.MustCompile(`^[A-Za-z]{3}[0-9]{2}$`)
	hostnameCode8 = regexp.MustCompile(`^[A-Za-z]{3}[0-9]{2}.*[A-Za-z]{2}`)
	hostnameCode  = regexp.MustCompile(`^[A-Za-z]{3}[0-9]{2}`)
	serialRe      = regexp.MustCompile(`^[A-Za-z0-9]{5,15}$`)
	hasLetterRe   = regexp.MustCompile(`[A-Za-z]`)
	hexOnlyRe     = regexp.MustCompile(`^[0-9A-Fa-f]+$`)
	ipFullRe      = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)
	ipPartialRe   = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){0,2}\.?$`)
	voiceVLANRe   = regexp.MustCompile(`^\d{3}$`)
	model4DigitRe = regexp.MustCompile(`^\d{4}$`)
)

// macVariants strips common MAC separators and an optional SEP prefix; it
// returns the bare 12-hex form and true if the result is MAC-shaped.
func macVariants(query string) (string, bool) {
	s := strings.ToUpper(query)
	s = strings.NewReplacer(":", "", "-", "", ".", "").Replace(s)
	s = strings.TrimPrefix(s, "SEP")
	if len(s) == 12 && hexOnlyRe.MatchString(s) {
		return s, true
	}
	return "", false
}

// isFQDNShaped reports whether s looks like a dotted hostname rather than
// an IP address: contains a dot and at least one letter.
func isFQDNShaped(s string) bool {
	return strings.Contains(s, ".") && hasLetterRe.MatchString(s) && !ipFullRe.MatchString(s)
}

// DetectIntent classifies a query per §4.3.3. Evaluation order matters:
// hostname-code detection runs before serial detection (the table documents
// serial first for readability, but the §4.3.3 note requires hostname code
// to be checked earlier so a code like "ABX01" is never misread as a
// serial number).
func DetectIntent(query, field string) Intent {
	q := strings.TrimSpace(query)

	if field == "Switch Port" && q != "" {
		return IntentSwitchPort
	}

	if phoneRe.MatchString(q) && (field == "" || field == "Line Number") {
		return IntentPhone
	}

	if isHostnameCodeShaped(q) {
		return IntentHostnameCode
	}

	if _, ok := macVariants(q); ok {
		return IntentMAC
	}

	if serialRe.MatchString(q) && hasLetterRe.MatchString(q) && !ipFullRe.MatchString(q) {
		return IntentSerial
	}

	if isFQDNShaped(q) {
		return IntentFQDN
	}

	if ipFullRe.MatchString(q) {
		return IntentIPFull
	}

	if field == "" && strings.Contains(q, ".") && ipPartialRe.MatchString(q) && !voiceVLANRe.MatchString(q) {
		return IntentIPPartial
	}

	if field == "" && voiceVLANRe.MatchString(q) {
		return IntentVoiceVLAN
	}

	if model4DigitRe.MatchString(q) {
		return IntentModel4Digit
	}

	return IntentGeneric
}

// isHostnameCodeShaped implements the §4.3.3 hostname-code detector: the
// prefix `[A-Za-z]{3}[0-9]{2}`; length 5 always, length 6-12 only with
// >= 2 consecutive letters after position 5, length >= 13 always.
func isHostnameCodeShaped(q string) bool {
	if !hostnameCode.MatchString(q) {
		return false
	}
	switch {
	case len(q) == 5:
		return hostnameCode5.MatchString(q)
	case len(q) >= 6 && len(q) <= 12:
		rest := q[5:]
		return hasConsecutiveLetters(rest, 2)
	case len(q) >= 13:
		return true
	default:
		return false
	}
}

func hasConsecutiveLetters(s string, n int) bool {
	run := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

// Plan is the engine-specific request the planner produces for one query.
type Plan struct {
	Intent            Intent
	Indices           []string
	Body              map[string]interface{}
	IncludeHistorical bool
}

// PlanInput carries every parameter the planner needs, §4.3.3/§4.3.4.
type PlanInput struct {
	Query             string
	Field             string
	IncludeHistorical bool
	Limit             int
	PreferredOrder    []string
	CandidateIndices  []string // result of get_search_indices, §4.3.4
}

// BuildPlan converts one query into an engine request per the §4.3.3 table.
// Every plan appends the sort described there: an exact-match painless
// script (left out for the IP-prefix and generic intents, which have no
// exact-match field), Creation Date descending, then the preferred-file tie
// break.
func BuildPlan(in PlanInput) Plan {
	intent := DetectIntent(in.Query, in.Field)

	indices := in.CandidateIndices
	if intent == IntentMAC {
		// A MAC-like query forces netspeed_* regardless of the flag, §4.3.4.
		indices = []string{IndexWildcard}
	}

	var must []map[string]interface{}
	exactField := ""

	switch intent {
	case IntentPhone:
		variants := phoneVariants(in.Query)
		must = append(must, shouldTerms("Line Number.keyword", variants))
		exactField = "Line Number.keyword"
	case IntentSerial:
		fields := []string{"Serial Number", "KEM 1 Serial Number", "KEM 2 Serial Number"}
		must = append(must, serialClause(in.Query, fields))
		exactField = "Serial Number.keyword"
	case IntentMAC:
		variants := macAddressVariants(in.Query)
		must = append(must, shouldTerms("MAC Address.keyword", variants, "MAC Address 2.keyword"))
		exactField = "MAC Address.keyword"
	case IntentHostnameCode:
		must = append(must, hostnameCodeClause(in.Query))
		exactField = "Switch Hostname.lower"
	case IntentFQDN:
		must = append(must, fqdnClause(in.Query))
		exactField = "Switch Hostname.lower"
	case IntentSwitchPort:
		must = append(must, caseInsensitiveEquals("Switch Port", in.Query))
		exactField = "Switch Port.lower"
	case IntentIPFull:
		must = append(must, shouldTerms("IP Address.keyword", []string{in.Query}))
		exactField = "IP Address.keyword"
	case IntentIPPartial:
		must = append(must, map[string]interface{}{
			"prefix": map[string]interface{}{"IP Address.keyword": in.Query},
		})
	case IntentVoiceVLAN:
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"Voice VLAN": in.Query},
		})
		exactField = "Voice VLAN"
	case IntentModel4Digit:
		must = append(must, genericModelClause(in.Query))
		exactField = "Model Name.keyword"
	default:
		must = append(must, genericFallbackClause(in.Query))
	}

	size := in.Limit
	if size <= 0 || size > 20000 {
		size = 5000
	}

	body := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"should": must, "minimum_should_match": 1},
		},
		"sort": buildSort(exactField, in.Query, in.PreferredOrder),
	}

	return Plan{Intent: intent, Indices: indices, Body: body, IncludeHistorical: in.IncludeHistorical}
}

func phoneVariants(q string) []string {
	digits := strings.TrimPrefix(q, "+")
	return []string{q, "+" + digits, digits}
}

func macAddressVariants(q string) []string {
	bare, _ := macVariants(q)
	if bare == "" {
		return []string{q}
	}
	lower := strings.ToLower(bare)
	colon := formatWithSep(bare, ":")
	hyphen := formatWithSep(bare, "-")
	cisco := formatCiscoDot(bare)
	return []string{bare, lower, "SEP" + bare, colon, hyphen, cisco, strings.ToLower(colon), strings.ToLower(hyphen), strings.ToLower(cisco)}
}

func formatWithSep(mac, sep string) string {
	var b strings.Builder
	for i := 0; i < len(mac); i += 2 {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(mac[i : i+2])
	}
	return b.String()
}

func formatCiscoDot(mac string) string {
	var b strings.Builder
	for i := 0; i < len(mac); i += 4 {
		if i > 0 {
			b.WriteString(".")
		}
		end := i + 4
		if end > len(mac) {
			end = len(mac)
		}
		b.WriteString(mac[i:end])
	}
	return b.String()
}

func shouldTerms(field string, variants []string, extraFields ...string) map[string]interface{} {
	var should []map[string]interface{}
	fields := append([]string{field}, extraFields...)
	for _, f := range fields {
		for _, v := range variants {
			should = append(should, map[string]interface{}{
				"term": map[string]interface{}{f: v},
			})
		}
	}
	return map[string]interface{}{"bool": map[string]interface{}{"should": should, "minimum_should_match": 1}}
}

func serialClause(q string, fields []string) map[string]interface{} {
	var should []map[string]interface{}
	for _, f := range fields {
		should = append(should,
			map[string]interface{}{"term": map[string]interface{}{f + ".keyword": q}},
			map[string]interface{}{"term": map[string]interface{}{f + ".keyword": strings.ToUpper(q)}},
			map[string]interface{}{"prefix": map[string]interface{}{f + ".keyword": q}},
		)
	}
	return map[string]interface{}{"bool": map[string]interface{}{"should": should, "minimum_should_match": 1}}
}

func hostnameCodeClause(q string) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should": []map[string]interface{}{
				{"term": map[string]interface{}{"Switch Hostname.lower": strings.ToLower(q)}},
				{"prefix": map[string]interface{}{"Switch Hostname.lower": strings.ToLower(q)}},
			},
			"minimum_should_match": 1,
		},
	}
}

func fqdnClause(q string) map[string]interface{} {
	lower := strings.ToLower(q)
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should": []map[string]interface{}{
				{"term": map[string]interface{}{"Switch Hostname.lower": lower}},
				{"wildcard": map[string]interface{}{"Switch Hostname.lower": "*" + lower + "*"}},
			},
			"minimum_should_match": 1,
		},
	}
}

func caseInsensitiveEquals(field, q string) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{field + ".lower": strings.ToLower(q)},
	}
}

func genericModelClause(q string) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should": []map[string]interface{}{
				{"term": map[string]interface{}{"Model Name.keyword": "CP-" + q}},
				{"term": map[string]interface{}{"Model Name.keyword": "DP-" + q}},
			},
			"minimum_should_match": 1,
		},
	}
}

func genericFallbackClause(q string) map[string]interface{} {
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"should": []map[string]interface{}{
				{"term": map[string]interface{}{"Serial Number.keyword": map[string]interface{}{"value": q, "boost": 4}}},
				{"term": map[string]interface{}{"MAC Address.keyword": map[string]interface{}{"value": strings.ToUpper(q), "boost": 4}}},
				{"term": map[string]interface{}{"Switch Hostname.lower": map[string]interface{}{"value": strings.ToLower(q), "boost": 3}}},
				{"query_string": map[string]interface{}{"query": "*" + q + "*", "fields": []string{"*"}}},
			},
			"minimum_should_match": 1,
		},
	}
}

// buildSort appends the §4.3.3 sort: an exact-match painless script when
// exactField is set, then Creation Date descending, then the preferred-file
// tie-break script parameterized with the current preferred order (lower
// index wins, §9 "Result determinism").
func buildSort(exactField, query string, preferredOrder []string) []map[string]interface{} {
	sort := []map[string]interface{}{}

	if exactField != "" {
		sort = append(sort, map[string]interface{}{
			"_script": map[string]interface{}{
				"type": "number",
				"script": map[string]interface{}{
					"lang":   "painless",
					"source": exactMatchScript(exactField),
					"params": map[string]interface{}{"q": query},
				},
				"order": "asc",
			},
		})
	}

	sort = append(sort, map[string]interface{}{"Creation Date": map[string]interface{}{"order": "desc"}})

	sort = append(sort, map[string]interface{}{
		"_script": map[string]interface{}{
			"type": "number",
			"script": map[string]interface{}{
				"lang": "painless",
				"source": "def order = params.order; def fn = doc['File Name'].size() == 0 ? '' : doc['File Name'].value; " +
					"for (int i = 0; i < order.length; i++) { if (order[i] == fn) { return i; } } return order.length;",
				"params": map[string]interface{}{"order": preferredOrder},
			},
			"order": "asc",
		},
	})

	return sort
}

func exactMatchScript(field string) string {
	return "doc['" + field + "'].size() != 0 && doc['" + field + "'].value == params.q ? 0 : 1"
}
