// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package netspeed

import (
	"regexp"
	"strings"
)

// columnPatterns implements the §4.2 step 2 priority-ordered regex set used
// to classify a raw CSV cell into a canonical field. Order matters: the
// first pattern (in priority order) that matches a cell wins, ported from
// _examples/original_source/backend/utils/csv_utils.py's COLUMN_PATTERNS
// and detect_column_type priority list.
var columnPatterns = []struct {
	field string
	re    *regexp.Regexp
}{
	{"Switch Hostname", regexp.MustCompile(`(?i)^[a-z0-9.-]+\.(juwin\.bayern\.de|[a-z0-9-]+\.[a-z]{2,})$`)},
	{"Switch Port", regexp.MustCompile(`^(Giga|Fast)?Ethernet\d+/\d+/\d+$`)},
	{"Model Name", regexp.MustCompile(`^(CP|DP)-\d+$`)},
	{"MAC Address 2", regexp.MustCompile(`(?i)^SEP[0-9A-F]{12}$`)},
	{"IP Address", regexp.MustCompile(`^(10\.\d{1,3}|172\.(1[6-9]|2\d|3[01])|192\.168|127\.\d{1,3})\.\d{1,3}\.\d{1,3}$`)},
	{"Line Number", regexp.MustCompile(`^\+?\d{7,15}$`)},
	{"Subnet Mask", regexp.MustCompile(`^255\..*$`)},
	{"Voice VLAN", regexp.MustCompile(`^\d{1,4}$`)},
	{"MAC Address", regexp.MustCompile(`(?i)^[0-9A-F]{12}$`)},
	{"Serial Number", regexp.MustCompile(`(?i)^[A-Z][A-Z0-9]{8,14}$`)},
	{"Speed 1", regexp.MustCompile(`(?i)^(auto|full|half|\d+\s*(mbps|gbps|m|g))$`)},
	{"KEM", regexp.MustCompile(`(?i)^KEM[12]?$`)},
}

// classifyCell returns the canonical field a raw cell most likely belongs
// to, in priority order, or "" if nothing matches.
func classifyCell(cell string) string {
	if cell == "" {
		return ""
	}
	for _, p := range columnPatterns {
		if p.re.MatchString(cell) {
			return p.field
		}
	}
	return ""
}

// sane rejects an assignment that is an obvious mismatch even though the
// cell matched a pattern loosely assigned by position, e.g. a 255-prefixed
// value never becomes an IP Address (§4.2 step 2).
func sane(field, value string) bool {
	switch field {
	case "IP Address":
		return len(value) < 4 || value[:4] != "255."
	case "Subnet Mask":
		return len(value) >= 4 && value[:4] == "255."
	case "Voice VLAN":
		return value != "" && isAllDigit(value)
	default:
		return true
	}
}

func isAllDigit(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) == -1
}
