// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package netspeed

import (
	"regexp"
	"strings"
)

// Derived domain keys, §3. Ported in behavior from
// _examples/original_source/backend/api/stats.py (extract_location,
// extract_city_code, is_jva_switch, is_mac_like).

var (
	// Patterns are anchored at the start of the uppercased hostname, mirroring
	// extract_location's character-by-character checks against h[0], h[1], ...
	// rather than an unanchored search: an unanchored pattern can match mid-
	// string and steal a hostname that a higher-priority anchored pattern
	// should have claimed instead.
	locationPatternTwoLetter   = regexp.MustCompile(`^[A-Z]{2}X[0-9]{2}`)
	locationPatternThreeLetter = regexp.MustCompile(`^[A-Z]{3}X[0-9]{2}`)
	locationPatternPlain       = regexp.MustCompile(`^[A-Z]{3}[0-9]{2}`)
)

// ExtractLocation returns the 5-character location code embedded in a
// switch hostname, tried in the three priority-ordered patterns of §3. The
// second bool return is false when no pattern matches.
func ExtractLocation(hostname string) (string, bool) {
	h := strings.ToUpper(strings.TrimSpace(hostname))
	if len(h) < 4 {
		return "", false
	}
	if m := locationPatternTwoLetter.FindString(h); m != "" {
		// "XXX99" shape: 2 letters + 'X' + 2 digits, already 5 chars.
		return m, true
	}
	if m := locationPatternThreeLetter.FindString(h); m != "" {
		// 3 letters + 'X' + 2 digits: drop the 'X' to get 5 chars.
		return m[:3] + m[4:], true
	}
	if m := locationPatternPlain.FindString(h); m != "" {
		return m, true
	}
	return "", false
}

// ExtractCityCode returns the first three characters of a location code.
func ExtractCityCode(location string) string {
	if len(location) < 3 {
		return location
	}
	return location[:3]
}

// IsJVASwitch implements the §3 JVA classification: true iff the final two
// characters of the location code are "50" or "51". Rows without a
// resolvable switch default to Justiz (false).
func IsJVASwitch(location string) bool {
	if len(location) < 2 {
		return false
	}
	suffix := location[len(location)-2:]
	return suffix == "50" || suffix == "51"
}

var macLikeSansSep = regexp.MustCompile(`^[0-9A-Fa-f]+$`)

// IsMACLike reports whether s, after stripping an optional "SEP" prefix,
// consists of exactly 12 hex characters — the heuristic §4.4.1 uses to fold
// MAC-shaped "model names" into "Unknown".
func IsMACLike(s string) bool {
	trimmed := s
	if len(trimmed) > 3 && (trimmed[:3] == "SEP" || trimmed[:3] == "sep") {
		trimmed = trimmed[3:]
	}
	return len(trimmed) == 12 && macLikeSansSep.MatchString(trimmed)
}

// NormalizedModelName folds MAC-shaped or too-short model names to
// "Unknown" for the §4.4.1 model histogram.
func NormalizedModelName(model string) string {
	if len(model) < 4 || IsMACLike(model) {
		return "Unknown"
	}
	return model
}
