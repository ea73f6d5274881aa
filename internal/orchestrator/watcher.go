// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package orchestrator

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/netspeed-inventory/backend/internal/logging"
	"github.com/netspeed-inventory/backend/internal/netspeed"
)

// cooldown is the §4.5 "30 s cooldown per handler instance" debounce
// window: repeated events within the window collapse into the one that
// started it.
const cooldown = 30 * time.Second

// Watcher is the filesystem half of C5, adapted from
// internal/util/fswatcher.go: a single fsnotify.Watcher, a single
// watch-loop goroutine, events filtered to the netspeed name taxonomy and
// debounced before calling onChange.
type Watcher struct {
	w        *fsnotify.Watcher
	onChange func(path string)

	mu       sync.Mutex
	lastFire time.Time

	closeOnce sync.Once
}

// NewWatcher creates a Watcher over every directory in dirs and its
// netspeed and history/netspeed subtrees (the places netspeed.Discover
// probes) that calls onChange at most once per cooldown window. A
// directory that cannot be watched when the Watcher starts is logged and
// skipped.
func NewWatcher(dirs []string, onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &Watcher{w: fw, onChange: onChange}
	for _, dir := range dirs {
		for _, sub := range []string{dir, filepath.Join(dir, "netspeed"), filepath.Join(dir, "history", "netspeed")} {
			if err := fw.Add(sub); err != nil {
				logging.Warnf("orchestrator: watch %q: %v", sub, err)
			}
		}
	}

	go watcher.loop()
	return watcher, nil
}

func (watcher *Watcher) loop() {
	for {
		select {
		case err, ok := <-watcher.w.Errors:
			if !ok {
				return
			}
			logging.Errorf("orchestrator: watch error: %v", err)
		case e, ok := <-watcher.w.Events:
			if !ok {
				return
			}
			name := filepath.Base(e.Name)
			if !netspeed.IsNetspeedName(name) {
				continue
			}
			if !watcher.shouldFire() {
				continue
			}
			logging.Infof("orchestrator: change event %s on %s", e.Op, e.Name)
			watcher.onChange(e.Name)
		}
	}
}

// shouldFire enforces the 30 s cooldown: at most one fire per window,
// coalescing every event in between (§4.5 "Ordering guarantee").
func (watcher *Watcher) shouldFire() bool {
	watcher.mu.Lock()
	defer watcher.mu.Unlock()

	now := time.Now()
	if now.Sub(watcher.lastFire) < cooldown {
		return false
	}
	watcher.lastFire = now
	return true
}

// Close stops the watch loop.
func (watcher *Watcher) Close() {
	watcher.closeOnce.Do(func() {
		_ = watcher.w.Close()
	})
}
