// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package citycodes is a minimal, passive city-code name table: an
// external collaborator maintains the JSON file on disk, and this package
// only ever reads it, reloading when its mtime changes. It deliberately
// carries no write path, validation, or fallback-generation logic — a
// missing or unreadable file just means every code resolves to itself.
package citycodes

import (
	"encoding/json"
	"os"
	"sync"
)

// Table resolves a 3-letter city code to a human-readable city name.
type Table struct {
	mu      sync.Mutex
	path    string
	modTime int64
	names   map[string]string
}

// New returns a Table backed by the JSON file at path. The file is not
// read until the first Resolve call.
func New(path string) *Table {
	return &Table{path: path}
}

// Resolve returns the human-readable name for code, or code itself if the
// table has no entry (or the backing file is absent/unreadable) — §4
// supplemented feature "city-name resolution ... falling back to the code
// itself when unresolved".
func (t *Table) Resolve(code string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.reloadIfChanged()
	if name, ok := t.names[code]; ok {
		return name
	}
	return code
}

func (t *Table) reloadIfChanged() {
	if t.path == "" {
		return
	}
	info, err := os.Stat(t.path)
	if err != nil {
		return
	}
	mtime := info.ModTime().UnixNano()
	if mtime == t.modTime && t.names != nil {
		return
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		return
	}
	var names map[string]string
	if err := json.Unmarshal(data, &names); err != nil {
		return
	}

	t.names = names
	t.modTime = mtime
}
