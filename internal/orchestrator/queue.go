// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package orchestrator is the C5 Ingestion Orchestrator: a filesystem
// watcher, a task queue, a periodic rescan scheduler, and the event/rebuild
// pipeline described in spec §4.5.
package orchestrator

import (
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/netspeed-inventory/backend/internal/logging"
)

// Subjects the orchestrator publishes/subscribes to, §4.5.
const (
	SubjectMinimalSnapshot = "netspeed.tasks.minimal_snapshot"
	SubjectBackupCopy      = "netspeed.tasks.backup_copy"
	SubjectRebuild         = "netspeed.tasks.rebuild"
)

// TaskHandler processes one dequeued task's payload, mirroring the
// teacher's nats.MessageHandler shape.
type TaskHandler func(subject string, payload []byte)

// TaskQueue wraps a NATS connection with the liveness bookkeeping the
// stale-active detector needs (§4.5 "its task id is not live in the
// queue"). Adapted from pkg/nats.Client: same singleton-connect and
// Subscribe/Publish/Close/IsConnected surface, logging repointed from the
// teacher's cc-lib logger to this module's internal/logging.
type TaskQueue struct {
	conn *nats.Conn

	mu   sync.Mutex
	subs []*nats.Subscription
	live map[string]bool
}

// NewTaskQueue connects to brokerURL. An empty brokerURL is valid: the
// returned queue is inert: Subscribe is a no-op and Enqueue returns an
// error, so callers can always fall back to inline execution (§4.5 "preferred... and, where
// correctness requires it, executed inline as a fallback").
func NewTaskQueue(brokerURL string) (*TaskQueue, error) {
	q := &TaskQueue{live: map[string]bool{}}
	if brokerURL == "" {
		logging.Warn("orchestrator: no broker URL configured, task queue runs in inline-only mode")
		return q, nil
	}

	conn, err := nats.Connect(brokerURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logging.Warnf("orchestrator: broker disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Infof("orchestrator: broker reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logging.Warnf("orchestrator: broker error: %v", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: connect to broker %q: %w", brokerURL, err)
	}
	q.conn = conn
	logging.Infof("orchestrator: connected to broker %s", brokerURL)
	return q, nil
}

// IsConnected reports whether the queue has a live broker connection.
func (q *TaskQueue) IsConnected() bool {
	return q.conn != nil && q.conn.IsConnected()
}

// Enqueue publishes one task. It returns an error when no broker is
// connected or the publish itself fails; callers treat enqueue as
// best-effort per §4.5 step 2 ("best-effort queue a minimal snapshot
// task").
func (q *TaskQueue) Enqueue(subject, taskID string, payload []byte) error {
	q.markLive(taskID)
	if q.conn == nil {
		return fmt.Errorf("orchestrator: no broker connection")
	}
	if err := q.conn.Publish(subject, payload); err != nil {
		q.markDone(taskID)
		return fmt.Errorf("orchestrator: publish %q: %w", subject, err)
	}
	return nil
}

// Subscribe registers handler for subject. Completing tasks must call
// MarkDone themselves so IsLive reflects reality.
func (q *TaskQueue) Subscribe(subject string, handler TaskHandler) error {
	if q.conn == nil {
		return nil
	}
	sub, err := q.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("orchestrator: subscribe %q: %w", subject, err)
	}
	q.mu.Lock()
	q.subs = append(q.subs, sub)
	q.mu.Unlock()
	return nil
}

// MarkDone records that taskID has finished (successfully or not), so it
// no longer counts as "live" for stale-active detection.
func (q *TaskQueue) MarkDone(taskID string) {
	q.markDone(taskID)
}

func (q *TaskQueue) markLive(taskID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.live[taskID] = true
}

func (q *TaskQueue) markDone(taskID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.live, taskID)
}

// IsLive implements the §4.5 stale-active check: whether taskID is still
// tracked as an in-flight task.
func (q *TaskQueue) IsLive(taskID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.live[taskID]
}

// Close unsubscribes everything and closes the underlying connection.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, sub := range q.subs {
		_ = sub.Unsubscribe()
	}
	q.subs = nil
	if q.conn != nil {
		q.conn.Close()
	}
}
