// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/netspeed-inventory/backend/internal/archive"
	"github.com/netspeed-inventory/backend/internal/logging"
	"github.com/netspeed-inventory/backend/internal/metrics"
	"github.com/netspeed-inventory/backend/internal/netspeed"
	"github.com/netspeed-inventory/backend/internal/progress"
	"github.com/netspeed-inventory/backend/internal/searchengine"
	"github.com/netspeed-inventory/backend/internal/stats"
)

// safetyNetDelay is the §4.5 step 7 grace period: a deferred re-run of the
// detailed snapshot in case the inline one in step 3 raced a still-settling
// file write.
const safetyNetDelay = 10 * time.Second

// Params configures a Controller. BrokerURL/EngineURL are recorded into the
// progress document's Active fields so a later EffectiveStatus call can
// detect an environment change (§4.5 "stale active detection").
type Params struct {
	Roots          []string
	DataDir        string
	VarDir         string
	RetentionYears int
	BrokerURL      string
	EngineURL      string
}

// Controller is C5's pipeline: the event handler and full-rebuild task from
// §4.5, tying the watcher/queue/scheduler to C1-C4.
type Controller struct {
	roots          []string
	dataDir        string
	retentionYears int
	brokerURL      string
	engineURL      string
	statePath      string

	client *searchengine.Client
	stats  *stats.Engine
	queue  *TaskQueue

	mu      sync.Mutex
	running string // non-empty task id of the run currently in flight
}

// NewController wires a Controller around an already-constructed engine
// client, stats engine, and task queue.
func NewController(p Params, client *searchengine.Client, statsEngine *stats.Engine, queue *TaskQueue) *Controller {
	return &Controller{
		roots:          p.Roots,
		dataDir:        p.DataDir,
		retentionYears: p.RetentionYears,
		brokerURL:      p.BrokerURL,
		engineURL:      p.EngineURL,
		statePath:      progress.StatePath(p.VarDir, p.BrokerURL, p.EngineURL),
		client:         client,
		stats:          statsEngine,
		queue:          queue,
	}
}

// IsLive reports whether taskID is still tracked as in-flight, satisfying
// the progress package's stale-active callback.
func (c *Controller) IsLive(taskID string) bool {
	c.mu.Lock()
	inline := c.running == taskID
	c.mu.Unlock()
	return inline || c.queue.IsLive(taskID)
}

// StatePath exposes the resolved progress-document path for this
// environment, so the API layer can read it without re-deriving the hash.
func (c *Controller) StatePath() string {
	return c.statePath
}

func newTaskID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// tryAcquire enforces the §5 single-writer rule: only one ingest task may
// run at a time in this process. Returns false if another task already
// owns the slot.
func (c *Controller) tryAcquire(taskID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running != "" {
		return false
	}
	c.running = taskID
	return true
}

func (c *Controller) release() {
	c.mu.Lock()
	c.running = ""
	c.mu.Unlock()
}

// HandleChange implements the §4.5 event handler, fired by the watcher
// (already cooldown-debounced) whenever the current file changes.
func (c *Controller) HandleChange(ctx context.Context, changedPath string) {
	_, current, _ := netspeed.Discover(c.roots)
	if current == nil {
		logging.Warnf("orchestrator: change at %q but no current file discoverable, skipping", changedPath)
		return
	}

	now := time.Now()
	taskID := newTaskID("change")

	// Step 1: archive the current file verbatim.
	if _, err := archive.CopyCurrent(current.Path, c.dataDir, now); err != nil {
		logging.Errorf("orchestrator: archiving current file: %v", err)
	}

	// Step 2: best-effort enqueue a minimal snapshot task for the current
	// file; failure to enqueue is not fatal, the inline work below covers
	// it.
	if err := c.queue.Enqueue(SubjectMinimalSnapshot, taskID, []byte(current.Name)); err != nil {
		logging.Warnf("orchestrator: enqueue minimal snapshot: %v", err)
	}

	fileDate := deriveFileDate(*current)
	records, _, err := netspeed.Normalize(current.Path, current.Name, fileDate)
	if err != nil {
		logging.Errorf("orchestrator: normalizing %q: %v", current.Path, err)
		c.queue.MarkDone(taskID)
		return
	}

	// Step 3: a detailed snapshot is executed inline so it is not lost if
	// the broker is unavailable; a backup-copy task is also enqueued.
	c.runDetailedSnapshot(ctx, current.Name, fileDate, records)
	if err := c.queue.Enqueue(SubjectBackupCopy, taskID, []byte(current.Name)); err != nil {
		logging.Warnf("orchestrator: enqueue backup copy: %v", err)
	}

	// Step 4: invalidate every C4 cache.
	c.stats.InvalidateCache()

	// Step 5: drop every per-file index; the rebuild task below repopulates
	// them from scratch.
	if err := c.client.CleanupIndicesByPattern(ctx, searchengine.IndexWildcard); err != nil {
		logging.Errorf("orchestrator: cleaning up %s indices: %v", searchengine.IndexWildcard, err)
	}

	// Step 6: enqueue the full rebuild; fall back to running it inline when
	// no broker is configured or the publish itself failed, since the
	// indices just dropped in step 5 must be repopulated one way or
	// another.
	rebuildID := newTaskID("rebuild")
	if err := c.queue.Enqueue(SubjectRebuild, rebuildID, nil); err != nil {
		logging.Warnf("orchestrator: enqueue rebuild (%v), running inline", err)
		if err := c.FullRebuild(ctx, rebuildID); err != nil {
			logging.Errorf("orchestrator: inline rebuild: %v", err)
		}
	}

	c.queue.MarkDone(taskID)

	// Step 7: a deferred safety net in case the file was still being
	// written when the inline snapshot above read it.
	go func() {
		time.Sleep(safetyNetDelay)
		_, current, _ := netspeed.Discover(c.roots)
		if current == nil {
			return
		}
		fileDate := deriveFileDate(*current)
		records, _, err := netspeed.Normalize(current.Path, current.Name, fileDate)
		if err != nil {
			logging.Warnf("orchestrator: safety-net re-read of %q: %v", current.Path, err)
			return
		}
		c.runDetailedSnapshot(context.Background(), current.Name, fileDate, records)
		c.stats.InvalidateCache()
	}()
}

// runDetailedSnapshot computes and saves the global and per-location
// detailed snapshot for one file.
func (c *Controller) runDetailedSnapshot(ctx context.Context, fileName, fileDate string, records []*netspeed.Record) {
	snapshot := stats.Compute(fileName, fileDate, records, true)
	if err := stats.SaveGlobalSnapshot(ctx, c.client, snapshot); err != nil {
		logging.Errorf("orchestrator: saving global snapshot for %s: %v", fileName, err)
	}
	if err := stats.SaveLocationSnapshots(ctx, c.client, snapshot); err != nil {
		logging.Errorf("orchestrator: saving location snapshots for %s: %v", fileName, err)
	}
}

// runMinimalSnapshot computes and saves the minimal global snapshot plus a
// per-location snapshot trimmed to unique KEM phones only, the §4.5 full
// rebuild's lighter per-file write (full per-location breakdowns are only
// worth the cost for the current file, written once at the end of the
// rebuild).
func (c *Controller) runMinimalSnapshot(ctx context.Context, fileName, fileDate string, records []*netspeed.Record) {
	minimal := stats.Compute(fileName, fileDate, records, false)
	if err := stats.SaveGlobalSnapshot(ctx, c.client, minimal); err != nil {
		logging.Errorf("orchestrator: saving minimal global snapshot for %s: %v", fileName, err)
	}

	detailed := stats.Compute(fileName, fileDate, records, true)
	for _, d := range detailed.LocationDetails {
		d.PhonesByModel = nil
		d.PhonesByModelJustiz = nil
		d.PhonesByModelJVA = nil
		d.VLANUsage = nil
		d.Switches = nil
		d.TotalPhones = len(d.KEMPhones)
		d.TotalSwitches = 0
		d.PhonesWithKEM = len(d.KEMPhones)
	}
	if err := stats.SaveLocationSnapshots(ctx, c.client, detailed); err != nil {
		logging.Errorf("orchestrator: saving minimal location snapshots for %s: %v", fileName, err)
	}
}

// deriveFileDate resolves the §4.4.1 (file, date) date: the name's own
// timestamp if it carries one, else the file's modification time.
func deriveFileDate(f netspeed.FileInfo) string {
	if f.Timestamp != "" {
		if d := netspeed.FileDateFromTimestamp(f.Timestamp); d != "" {
			return d
		}
	}
	return time.Unix(f.ModTime, 0).UTC().Format("2006-01-02")
}

// FullRebuild implements the §4.5 full-rebuild task: every discovered file,
// historical first then current, indexed and archived from scratch.
func (c *Controller) FullRebuild(ctx context.Context, taskID string) error {
	if !c.tryAcquire(taskID) {
		return fmt.Errorf("orchestrator: rebuild %s aborted, %s already running", taskID, c.running)
	}
	defer c.release()
	defer c.queue.MarkDone(taskID)

	rebuildStart := time.Now()
	defer func() { metrics.RebuildDuration.Observe(time.Since(rebuildStart).Seconds()) }()

	state, err := progress.Load(c.statePath)
	if err != nil {
		return fmt.Errorf("orchestrator: load progress state: %w", err)
	}

	historical, current, backups := netspeed.Discover(c.roots)
	files := make([]netspeed.FileInfo, 0, len(historical)+len(backups)+1)
	files = append(files, historical...)
	if current != nil {
		files = append(files, *current)
	}
	files = append(files, backups...)

	state.StartActive(taskID, len(files), c.brokerURL, c.engineURL)
	if err := progress.Save(c.statePath, state); err != nil {
		logging.Warnf("orchestrator: saving initial progress: %v", err)
	}

	if err := stats.PruneArchive(ctx, c.client, c.retentionYears, time.Now()); err != nil {
		logging.Warnf("orchestrator: pruning archive: %v", err)
	}

	var totalDocs int
	for i, f := range files {
		state.UpdateActive(f.Name, i, totalDocs, 0)
		if err := progress.Save(c.statePath, state); err != nil {
			logging.Warnf("orchestrator: saving progress at file %d: %v", i, err)
		}

		fileDate := deriveFileDate(f)
		records, parseStats, err := netspeed.Normalize(f.Path, f.Name, fileDate)
		if err != nil {
			state.FailActive(err.Error())
			_ = progress.Save(c.statePath, state)
			return fmt.Errorf("orchestrator: normalize %q: %w", f.Path, err)
		}

		result, err := c.client.IndexFile(ctx, f.Name, records)
		if err != nil {
			state.FailActive(err.Error())
			_ = progress.Save(c.statePath, state)
			return fmt.Errorf("orchestrator: index %q: %w", f.Name, err)
		}

		totalDocs += result.Indexed
		metrics.DocumentsIndexed.Add(float64(result.Indexed))
		state.UpdateFileState(f.Name, f.Size, f.ModTime, parseStats.RowsTotal, result.Indexed)
		state.UpdateActive(f.Name, i, totalDocs, result.Indexed)
		if err := progress.Save(c.statePath, state); err != nil {
			logging.Warnf("orchestrator: saving progress after file %d: %v", i, err)
		}

		c.runMinimalSnapshot(ctx, f.Name, fileDate, records)

		if err := stats.AppendArchiveRows(ctx, c.client, f.Name, fileDate, records); err != nil {
			logging.Errorf("orchestrator: appending archive rows for %s: %v", f.Name, err)
		}
	}

	if current != nil {
		fileDate := deriveFileDate(*current)
		records, _, err := netspeed.Normalize(current.Path, current.Name, fileDate)
		if err == nil {
			c.runDetailedSnapshot(ctx, current.Name, fileDate, records)
			c.runMinimalSnapshot(ctx, current.Name, fileDate, records)
		} else {
			logging.Warnf("orchestrator: re-reading current file for final snapshot: %v", err)
		}
	}

	c.stats.InvalidateCache()

	state.UpdateTotals(len(files), totalDocs)
	state.CompleteActive()
	if err := progress.Save(c.statePath, state); err != nil {
		logging.Warnf("orchestrator: saving final progress: %v", err)
	}

	logging.Infof("orchestrator: rebuild %s completed, %d files, %d documents", taskID, len(files), totalDocs)
	return nil
}

// StartWorkers subscribes this process to its own queued tasks, so a
// configured broker's SubjectRebuild/SubjectMinimalSnapshot/
// SubjectBackupCopy messages are actually executed rather than only
// tracked for liveness. In inert (no-broker) mode Subscribe is a no-op and
// Enqueue fails: the rebuild then runs inline in its caller, while a failed
// minimal-snapshot or backup-copy enqueue is only logged.
func (c *Controller) StartWorkers() error {
	if err := c.queue.Subscribe(SubjectRebuild, func(_ string, _ []byte) {
		taskID := newTaskID("rebuild-worker")
		if err := c.FullRebuild(context.Background(), taskID); err != nil {
			logging.Errorf("orchestrator: worker rebuild %s: %v", taskID, err)
		}
	}); err != nil {
		return fmt.Errorf("orchestrator: subscribe %s: %w", SubjectRebuild, err)
	}

	if err := c.queue.Subscribe(SubjectMinimalSnapshot, func(_ string, payload []byte) {
		c.runQueuedMinimalSnapshot(context.Background(), string(payload))
	}); err != nil {
		return fmt.Errorf("orchestrator: subscribe %s: %w", SubjectMinimalSnapshot, err)
	}

	if err := c.queue.Subscribe(SubjectBackupCopy, func(_ string, payload []byte) {
		c.runQueuedBackupCopy(string(payload))
	}); err != nil {
		return fmt.Errorf("orchestrator: subscribe %s: %w", SubjectBackupCopy, err)
	}

	return nil
}

// runQueuedMinimalSnapshot re-normalizes the named file and recomputes its
// minimal snapshot, the queued counterpart to HandleChange's inline work.
func (c *Controller) runQueuedMinimalSnapshot(ctx context.Context, fileName string) {
	f, ok := c.findFile(fileName)
	if !ok {
		logging.Warnf("orchestrator: queued minimal snapshot for %q, file no longer discoverable", fileName)
		return
	}
	fileDate := deriveFileDate(f)
	records, _, err := netspeed.Normalize(f.Path, f.Name, fileDate)
	if err != nil {
		logging.Errorf("orchestrator: queued minimal snapshot, normalizing %q: %v", f.Path, err)
		return
	}
	c.runMinimalSnapshot(ctx, f.Name, fileDate, records)
}

// runQueuedBackupCopy re-archives the named file, the queued counterpart to
// HandleChange's synchronous step-1 archive copy (a second, delayed safety
// copy in case the first raced a still-settling write).
func (c *Controller) runQueuedBackupCopy(fileName string) {
	f, ok := c.findFile(fileName)
	if !ok {
		logging.Warnf("orchestrator: queued backup copy for %q, file no longer discoverable", fileName)
		return
	}
	if _, err := archive.CopyCurrent(f.Path, c.dataDir, time.Now()); err != nil {
		logging.Errorf("orchestrator: queued backup copy for %q: %v", fileName, err)
	}
}

func (c *Controller) findFile(name string) (netspeed.FileInfo, bool) {
	historical, current, backups := netspeed.Discover(c.roots)
	if current != nil && current.Name == name {
		return *current, true
	}
	for _, f := range historical {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range backups {
		if f.Name == name {
			return f, true
		}
	}
	return netspeed.FileInfo{}, false
}
