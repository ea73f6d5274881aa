// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package progress persists the crash/restart-safe ingestion progress
// document described in spec §3 "Progress state" and §6 "Progress state":
// per-file signatures, totals, and an optional in-flight task record,
// written atomically so a reader never observes a partial write.
//
// Ported in behavior from
// _examples/original_source/backend/utils/index_state.py.
package progress

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Status values for an in-flight task, §3.
const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// FileState is the per-file signature recorded in the progress document.
type FileState struct {
	Size        int64  `json:"size"`
	MTime       int64  `json:"mtime"`
	LineCount   int    `json:"line_count"`
	DocCount    int    `json:"doc_count"`
	LastIndexed string `json:"last_indexed"`
}

// Totals are the cumulative ingestion counters.
type Totals struct {
	FilesProcessed int `json:"files_processed"`
	TotalDocuments int `json:"total_documents"`
}

// Active describes the currently (or most recently) running ingest task.
type Active struct {
	TaskID           string `json:"task_id"`
	Status           string `json:"status"`
	StartedAt        string `json:"started_at"`
	CurrentFile      string `json:"current_file"`
	Index            int    `json:"index"`
	TotalFiles       int    `json:"total_files"`
	DocumentsIndexed int    `json:"documents_indexed"`
	LastFileDocs     int    `json:"last_file_docs"`
	BrokerURL        string `json:"broker_url"`
	EngineURL        string `json:"engine_url"`
	Error            string `json:"error,omitempty"`
}

// State is the full on-disk progress document, §3.
type State struct {
	LastRun     string               `json:"last_run"`
	LastSuccess string               `json:"last_success"`
	Files       map[string]FileState `json:"files"`
	Totals      Totals               `json:"totals"`
	Active      *Active              `json:"active,omitempty"`
}

func newState() *State {
	return &State{Files: map[string]FileState{}}
}

// StatePath returns the per-environment state-file path, namespaced by a
// hash of the broker and engine URLs so multiple environments on the same
// host do not collide (§3, §9 "Environment isolation").
func StatePath(varDir, brokerURL, engineURL string) string {
	sum := sha1.Sum([]byte(brokerURL + "|" + engineURL))
	hash := hex.EncodeToString(sum[:])[:10]
	return filepath.Join(varDir, "index_state", fmt.Sprintf(".index_state.%s.json", hash))
}

// Load reads the progress document at path. A missing file is not an
// error: it yields a fresh, empty State (first run).
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newState(), nil
		}
		return nil, fmt.Errorf("progress: read %q: %w", path, err)
	}

	state := newState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("progress: parse %q: %w", path, err)
	}
	if state.Files == nil {
		state.Files = map[string]FileState{}
	}
	return state, nil
}

// Save writes state to path atomically: it encodes to a sibling ".tmp" file
// and renames it into place, so a reader never observes a partial write
// (testable property 10).
func Save(path string, state *State) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("progress: mkdir for %q: %w", path, err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("progress: marshal: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("progress: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("progress: rename into place: %w", err)
	}
	return nil
}

// UpdateFileState records the observed signature for one file.
func (s *State) UpdateFileState(name string, size, mtime int64, lineCount, docCount int) {
	s.Files[name] = FileState{
		Size:        size,
		MTime:       mtime,
		LineCount:   lineCount,
		DocCount:    docCount,
		LastIndexed: time.Now().UTC().Format(time.RFC3339),
	}
}

// IsFileCurrent reports whether the recorded signature for name still
// matches the given size/mtime, i.e. whether a re-index can be skipped.
func (s *State) IsFileCurrent(name string, size, mtime int64) bool {
	fs, ok := s.Files[name]
	return ok && fs.Size == size && fs.MTime == mtime
}

// UpdateTotals overwrites the cumulative counters.
func (s *State) UpdateTotals(filesProcessed, totalDocuments int) {
	s.Totals = Totals{FilesProcessed: filesProcessed, TotalDocuments: totalDocuments}
}

// StartActive begins tracking a new in-flight task.
func (s *State) StartActive(taskID string, totalFiles int, brokerURL, engineURL string) {
	s.Active = &Active{
		TaskID:     taskID,
		Status:     StatusRunning,
		StartedAt:  time.Now().UTC().Format(time.RFC3339),
		TotalFiles: totalFiles,
		BrokerURL:  brokerURL,
		EngineURL:  engineURL,
	}
}

// UpdateActive advances the in-flight task's progress fields.
func (s *State) UpdateActive(currentFile string, index, documentsIndexed, lastFileDocs int) {
	if s.Active == nil {
		return
	}
	s.Active.CurrentFile = currentFile
	s.Active.Index = index
	s.Active.DocumentsIndexed = documentsIndexed
	s.Active.LastFileDocs = lastFileDocs
}

// CompleteActive marks the in-flight task completed and records it as the
// last successful run.
func (s *State) CompleteActive() {
	if s.Active == nil {
		return
	}
	s.Active.Status = StatusCompleted
	now := time.Now().UTC().Format(time.RFC3339)
	s.LastRun = now
	s.LastSuccess = now
}

// FailActive marks the in-flight task failed and records the error.
func (s *State) FailActive(errMsg string) {
	if s.Active == nil {
		return
	}
	s.Active.Status = StatusFailed
	s.Active.Error = errMsg
	s.LastRun = time.Now().UTC().Format(time.RFC3339)
}

// EffectiveStatus returns the Active status after applying the §4.5 "stale
// active detection" reclassification: a recorded "running" task is
// reported as "interrupted" if its age exceeds maxAge, its task id is not
// reported live by isLive, or its broker/engine URL no longer matches the
// current environment.
func (s *State) EffectiveStatus(now time.Time, maxAge time.Duration, isLive func(taskID string) bool, brokerURL, engineURL string) string {
	if s.Active == nil {
		return ""
	}
	if s.Active.Status != StatusRunning {
		return s.Active.Status
	}

	started, err := time.Parse(time.RFC3339, s.Active.StartedAt)
	stale := err != nil || now.Sub(started) > maxAge
	if !stale && isLive != nil {
		stale = !isLive(s.Active.TaskID)
	}
	if !stale {
		stale = s.Active.BrokerURL != brokerURL || s.Active.EngineURL != engineURL
	}
	if stale {
		return StatusInterrupted
	}
	return StatusRunning
}
