// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/gops/agent"

	"github.com/netspeed-inventory/backend/internal/citycodes"
	"github.com/netspeed-inventory/backend/internal/config"
	"github.com/netspeed-inventory/backend/internal/logging"
	"github.com/netspeed-inventory/backend/internal/orchestrator"
	"github.com/netspeed-inventory/backend/internal/runtimeEnv"
	"github.com/netspeed-inventory/backend/internal/searchengine"
	"github.com/netspeed-inventory/backend/internal/stats"
)

func main() {
	var flagNoServer, flagGops, flagLogDateTime bool
	var flagLogLevel string
	flag.BoolVar(&flagNoServer, "no-server", false, "Do not start a server, stop right after initialization")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.BoolVar(&flagLogDateTime, "logdate", false, "Add date and time to log messages")
	flag.StringVar(&flagLogLevel, "loglevel", "info", "Sets the logging level: `[debug, info, warn, err]`")
	flag.Parse()

	logging.SetLevel(flagLogLevel)
	logging.SetLogDateTime(flagLogDateTime)

	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			logging.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("loading configuration: %s", err.Error())
	}

	client, err := searchengine.NewClient(searchengine.Config{
		URLs:       cfg.EngineURLs,
		Username:   "",
		Password:   cfg.EnginePassword,
		Timeout:    time.Duration(cfg.SearchTimeoutSeconds) * time.Second,
		MaxResults: cfg.SearchMaxResults,
	})
	if err != nil {
		logging.Fatalf("creating search engine client: %s", err.Error())
	}

	readyCtx, cancelReady := context.WithTimeout(context.Background(),
		time.Duration(cfg.StartupTimeoutSeconds)*time.Second)
	err = client.WaitReady(readyCtx, cfg.WaitForAvailability,
		time.Duration(cfg.StartupTimeoutSeconds)*time.Second,
		time.Duration(cfg.StartupPollSeconds)*time.Second)
	cancelReady()
	if err != nil {
		logging.Warnf("search engine not ready at startup: %s (continuing, requests will surface the error)", err.Error())
	}

	statsEngine := stats.NewEngine(client)
	cityCodes := citycodes.New(cfg.CityCodesPath)

	queue, err := orchestrator.NewTaskQueue(cfg.BrokerURL)
	if err != nil {
		logging.Fatalf("connecting to task broker: %s", err.Error())
	}
	defer queue.Close()

	roots := cfg.Roots()
	controller := orchestrator.NewController(orchestrator.Params{
		Roots:          roots,
		DataDir:        cfg.CurrentDir,
		VarDir:         cfg.VarDir,
		RetentionYears: cfg.ArchiveRetentionYears,
		BrokerURL:      cfg.BrokerURL,
		EngineURL:      firstOrEmpty(cfg.EngineURLs),
	}, client, statsEngine, queue)

	if err := controller.StartWorkers(); err != nil {
		logging.Fatalf("subscribing task workers: %s", err.Error())
	}

	watcher, err := orchestrator.NewWatcher(roots, func(path string) {
		controller.HandleChange(context.Background(), path)
	})
	if err != nil {
		logging.Fatalf("starting filesystem watcher: %s", err.Error())
	}
	defer watcher.Close()

	scheduler, err := orchestrator.NewScheduler(
		time.Duration(cfg.RescanIntervalSeconds)*time.Second,
		func(ctx context.Context) {
			taskID := time.Now().UTC().Format("rebuild-20060102T150405")
			if err := controller.FullRebuild(ctx, taskID); err != nil {
				logging.Errorf("periodic rebuild %s: %v", taskID, err)
			}
		})
	if err != nil {
		logging.Fatalf("starting periodic rescan scheduler: %s", err.Error())
	}
	scheduler.Start()

	if flagNoServer {
		return
	}

	serverInit(cfg, client, statsEngine, controller, queue, cityCodes)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		serverStart(cfg)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	runtimeEnv.SystemdNotifiy(false, "shutting down")

	serverShutdown()
	if err := scheduler.Stop(); err != nil {
		logging.Warnf("stopping scheduler: %v", err)
	}

	wg.Wait()
	logging.Info("graceful shutdown completed")
}

func firstOrEmpty(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}
