// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package archive writes the timestamped on-disk copies of the current
// netspeed export described in spec §6 "On-disk artifacts" and §4.5 step 1,
// ported in behavior from
// _examples/original_source/backend/utils/archiver.py.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// CopyCurrent copies the current netspeed CSV at srcPath verbatim into
// <dataDir>/archive/netspeed_<UTC>.csv, where <UTC> is
// "YYYY-MM-DDTHHMMSSffffffZ" (§6). It returns the archive file's path.
func CopyCurrent(srcPath, dataDir string, now time.Time) (string, error) {
	archiveDir := filepath.Join(dataDir, "archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("archive: mkdir %q: %w", archiveDir, err)
	}

	stamp := stripDot(now.UTC().Format("2006-01-02T150405.000000"))
	name := fmt.Sprintf("netspeed_%sZ.csv", stamp)
	dst := filepath.Join(archiveDir, name)

	if err := copyFile(srcPath, dst); err != nil {
		return "", err
	}
	return dst, nil
}

// stripDot removes the decimal point Go's time format leaves between
// seconds and microseconds, producing the spec's "HHMMSSffffffZ" suffix
// instead of "HHMMSS.ffffffZ".
func stripDot(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			continue
		}
		out = append(out, name[i])
	}
	return string(out)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("archive: open source %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("archive: create destination %q: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("archive: copy %q to %q: %w", src, dst, err)
	}

	if info, err := os.Stat(src); err == nil {
		_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	}

	return nil
}
