// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package netspeed

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/netspeed-inventory/backend/internal/logging"
)

// ParseStats counts what happened while normalizing one file, surfaced to
// callers so a bad row never aborts the file (§4.2 edge policies, §7).
type ParseStats struct {
	RowsTotal    int
	RowsSkipped  int // empty rows
	RowsFailed   int // zero recognized fields
	RowsAccepted int
}

// detectDelimiter samples up to 8 KiB of the file and returns ';' if it
// appears, else ',' (§4.2 step 1).
func detectDelimiter(path string) (rune, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, 8192)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return ',', nil
	}
	if strings.ContainsRune(string(buf[:n]), ';') {
		return ';', nil
	}
	return ',', nil
}

// splitLine splits a raw CSV line on delim, stripping a single trailing
// empty field iff the raw line itself ended with the delimiter (§4.2 step
// 1's "trailing delimiter tolerated" rule). Legacy netspeed exports carry
// no quoted fields, so a plain split is sufficient.
func splitLine(line string, delim rune) []string {
	sep := string(delim)
	trailingDelim := strings.HasSuffix(line, sep)
	cells := strings.Split(line, sep)
	if trailingDelim && len(cells) > 0 {
		cells = cells[:len(cells)-1]
	}
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

// Normalize implements the C2 normalizer: it returns the file's rows as
// canonical records (their header order is CanonicalFields), the parse
// counts, and an error only when the file cannot be read. fileDate is the
// §4.4.1 (file, date) date — the
// caller resolves it from the file-name timestamp, else creation time,
// else modification time — and is stamped onto every row as Creation Date.
func Normalize(path, fileName, fileDate string) ([]*Record, ParseStats, error) {
	delim, err := detectDelimiter(path)
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("netspeed: detect delimiter for %q: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, ParseStats{}, fmt.Errorf("netspeed: open %q: %w", path, err)
	}
	defer f.Close()

	var (
		records []*Record
		stats   ParseStats
		ordinal int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			stats.RowsTotal++
			stats.RowsSkipped++
			continue
		}

		stats.RowsTotal++
		cells := splitLine(line, delim)

		recognized := false
		for _, c := range cells {
			if classifyCell(c) != "" {
				recognized = true
				break
			}
		}
		if !recognized {
			stats.RowsFailed++
			logging.Debugf("netspeed: %s: row %d has zero recognized fields, skipping", fileName, stats.RowsTotal)
			continue
		}
		rec := intelligentColumnMapping(cells)

		ordinal++
		rec.FileName = fileName
		rec.CreationDate = fileDate
		rec.RowOrdinal = ordinal
		records = append(records, rec)
		stats.RowsAccepted++
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("netspeed: scan %q: %w", path, err)
	}

	return records, stats, nil
}

// intelligentColumnMapping is the §4.2 step 2 two-pass classifier: first
// pass assigns each cell to the first canonical field whose pattern it
// matches, provided that field has not already been claimed by an earlier
// cell in the row; second pass fills the remaining canonical fields, in
// canonical order, from the leftover cells, rejecting obvious mismatches.
func intelligentColumnMapping(cells []string) *Record {
	rec := &Record{}
	assigned := make(map[string]bool, len(CanonicalFields))
	used := make([]bool, len(cells))

	for i, cell := range cells {
		if cell == "" {
			used[i] = true
			continue
		}
		field := classifyCell(cell)
		if field != "" && !assigned[field] {
			rec.SetField(field, cell)
			assigned[field] = true
			used[i] = true
		}
	}

	var remaining []string
	for _, f := range CanonicalFields {
		if !assigned[f] {
			remaining = append(remaining, f)
		}
	}

	fi := 0
	for i, cell := range cells {
		if used[i] || cell == "" {
			continue
		}
		for fi < len(remaining) {
			field := remaining[fi]
			fi++
			if sane(field, cell) {
				rec.SetField(field, cell)
				assigned[field] = true
				used[i] = true
				break
			}
		}
	}

	return rec
}

// Dedup implements §4.2 step 4 / testable property 2 & 3: group rows by
// DedupKey, keep the representative with the highest KEM count, break ties
// by non-empty field completeness. Calling Dedup on an already-deduped
// slice is a no-op (idempotence).
func Dedup(records []*Record) []*Record {
	order := make([]string, 0, len(records))
	best := make(map[string]*Record, len(records))

	for _, r := range records {
		key := r.DedupKey()
		cur, ok := best[key]
		if !ok {
			best[key] = r
			order = append(order, key)
			continue
		}
		if betterDedupCandidate(r, cur) {
			best[key] = r
		}
	}

	out := make([]*Record, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

func betterDedupCandidate(candidate, incumbent *Record) bool {
	ck, ik := candidate.KEMCount(), incumbent.KEMCount()
	if ck != ik {
		return ck > ik
	}
	return candidate.NonEmptyFieldCount() > incumbent.NonEmptyFieldCount()
}

// FileDateFromTimestamp converts a netspeed file's "YYYYMMDDHHMMSS" key into
// a YYYY-MM-DD creation date, falling back to the empty string when the
// timestamp does not parse (the caller then falls back to mtime).
func FileDateFromTimestamp(ts string) string {
	if len(ts) != 14 {
		return ""
	}
	t, err := time.Parse("20060102150405", ts)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}
