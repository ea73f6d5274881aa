// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package netspeed

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/netspeed-inventory/backend/internal/logging"
)

// FileKind is the §3 file-name taxonomy classification.
type FileKind int

const (
	KindUnknown FileKind = iota
	KindCurrentLegacy
	KindCurrentTimestamped
	KindRotationLegacy
	KindRotationTimestamped
	KindBackup
)

// FileInfo describes one discovered netspeed export.
type FileInfo struct {
	Path      string
	Name      string
	Dir       string
	Kind      FileKind
	Timestamp string // "YYYYMMDDHHMMSS", empty if not timestamped
	Rotation  int    // -1 when the name carries no rotation suffix
	Size      int64
	ModTime   int64 // unix seconds
}

var (
	timestampPattern = regexp.MustCompile(`^netspeed_(\d{8})-(\d{6})\.csv(?:\.(\d+))?$`)
	legacyPattern    = regexp.MustCompile(`^netspeed\.csv(?:\.(\d+))?$`)
)

// classify implements the §3 file-name taxonomy.
func classify(name string) FileInfo {
	info := FileInfo{Name: name, Rotation: -1}

	if strings.Contains(name, "_bak") {
		info.Kind = KindBackup
		return info
	}

	if m := timestampPattern.FindStringSubmatch(name); m != nil {
		info.Timestamp = m[1] + m[2]
		if m[3] != "" {
			info.Kind = KindRotationTimestamped
			n, _ := strconv.Atoi(m[3])
			info.Rotation = n
		} else {
			info.Kind = KindCurrentTimestamped
		}
		return info
	}

	if m := legacyPattern.FindStringSubmatch(name); m != nil {
		if m[1] != "" {
			info.Kind = KindRotationLegacy
			n, _ := strconv.Atoi(m[1])
			info.Rotation = n
		} else {
			info.Kind = KindCurrentLegacy
		}
		return info
	}

	info.Kind = KindUnknown
	return info
}

// IsNetspeedName reports whether name matches the §3 file-name taxonomy
// (current, rotation, or backup) rather than being an unrelated file in a
// watched directory. Used by the orchestrator's filesystem watcher to
// filter events before triggering a rebuild.
func IsNetspeedName(name string) bool {
	return classify(name).Kind != KindUnknown
}

// ClassifyFileKind exposes the §3 file-name taxonomy for a bare file name,
// used by the search engine's result post-processing to tell a canonical
// current/rotation file apart from a backup file.
func ClassifyFileKind(name string) FileKind {
	return classify(name).Kind
}

// candidateDirs returns the three subtrees probed beneath each configured
// root (§4.1), deduplicated by resolved path.
func candidateDirs(roots []string) []string {
	seen := map[string]bool{}
	var dirs []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		for _, sub := range []string{root, filepath.Join(root, "netspeed"), filepath.Join(root, "history", "netspeed")} {
			key := resolveKey(sub)
			if seen[key] {
				continue
			}
			seen[key] = true
			dirs = append(dirs, sub)
		}
	}
	return dirs
}

func resolveKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return strings.ToLower(filepath.Clean(abs))
}

// Discover enumerates netspeed files across roots and classifies them per
// §3/§4.1. It returns historical files in their §4.1 historical order, the
// current file if any, and backup files.
//
// Missing directories are not fatal (treated as empty), matching the §4.1
// error policy.
func Discover(roots []string) (historical []FileInfo, current *FileInfo, backups []FileInfo) {
	var all []FileInfo
	for _, dir := range candidateDirs(roots) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				logging.Warnf("netspeed: reading dir %q: %v", dir, err)
			}
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if !strings.HasPrefix(name, "netspeed.csv") && !strings.HasPrefix(name, "netspeed_") {
				continue
			}
			info := classify(name)
			info.Dir = dir
			info.Path = filepath.Join(dir, name)
			if fi, err := e.Info(); err == nil {
				info.Size = fi.Size()
				info.ModTime = fi.ModTime().Unix()
			}
			all = append(all, info)
		}
	}

	// Pick the current file: prefer the timestamped current with the
	// largest timestamp key, else the legacy netspeed.csv.
	var currentCandidates []FileInfo
	var legacyCurrent *FileInfo
	for i := range all {
		f := all[i]
		switch f.Kind {
		case KindCurrentTimestamped:
			currentCandidates = append(currentCandidates, f)
		case KindCurrentLegacy:
			c := f
			legacyCurrent = &c
		}
	}
	if len(currentCandidates) > 0 {
		sort.Slice(currentCandidates, func(i, j int) bool {
			return currentCandidates[i].Timestamp > currentCandidates[j].Timestamp
		})
		current = &currentCandidates[0]
	} else if legacyCurrent != nil {
		current = legacyCurrent
	}

	for i := range all {
		f := all[i]
		if current != nil && f.Path == current.Path {
			continue
		}
		switch f.Kind {
		case KindRotationTimestamped, KindRotationLegacy:
			historical = append(historical, f)
		case KindCurrentTimestamped, KindCurrentLegacy:
			// Current-shaped files (timestamped, or a legacy netspeed.csv
			// beside a timestamped current) that lost the selection above
			// become historical, they are still real exports.
			historical = append(historical, f)
		case KindBackup:
			backups = append(backups, f)
		}
	}

	sort.Slice(historical, func(i, j int) bool {
		return historicalSortKey(historical[i]) < historicalSortKey(historical[j])
	})
	sort.Slice(backups, func(i, j int) bool { return backups[i].Name < backups[j].Name })

	return historical, current, backups
}

// historicalSortKey orders timestamped files by timestamp descending (most
// recent first) ahead of legacy-numbered files ordered by rotation
// ascending, matching §4.1's "newest-first on date-time key, then legacy N
// ascending".
func historicalSortKey(f FileInfo) string {
	switch f.Kind {
	case KindRotationTimestamped, KindCurrentTimestamped:
		// Invert the timestamp so a plain ascending string sort yields
		// newest-first.
		return "0_" + invertDigits(f.Timestamp)
	case KindRotationLegacy:
		return "1_" + zeroPad(f.Rotation)
	default:
		return "2_" + f.Name
	}
}

func invertDigits(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		b[i] = '9' - (s[i] - '0') + '0'
	}
	return string(b)
}

func zeroPad(n int) string {
	return strconvItoaPadded(n, 10)
}

func strconvItoaPadded(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// PreferredOrder returns the stable file-name ordering used by the query
// planner for sort tie-breaking (§4.3.3, §9 "Result determinism"): current
// first, then historical rotations newest-to-oldest (the order Discover
// already returns them in).
func PreferredOrder(historical []FileInfo, current *FileInfo) []string {
	order := make([]string, 0, len(historical)+1)
	if current != nil {
		order = append(order, current.Name)
	}
	for _, f := range historical {
		order = append(order, f.Name)
	}
	return order
}
