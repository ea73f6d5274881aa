// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package orchestrator

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/netspeed-inventory/backend/internal/logging"
)

// Scheduler drives the §4.5 "periodic scan" trigger: a full rebuild run
// on a fixed interval regardless of filesystem events, as a
// safety net against missed or coalesced notifications.
type Scheduler struct {
	sched gocron.Scheduler
}

// NewScheduler builds a Scheduler that calls rescan every interval.
func NewScheduler(interval time.Duration, rescan func(ctx context.Context)) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			logging.Info("orchestrator: periodic rescan triggered")
			rescan(context.Background())
		}),
	)
	if err != nil {
		return nil, err
	}

	return &Scheduler{sched: sched}, nil
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop shuts the scheduler down, waiting for any in-flight job.
func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}
