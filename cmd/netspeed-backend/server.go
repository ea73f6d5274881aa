// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/netspeed-inventory/backend/internal/api"
	"github.com/netspeed-inventory/backend/internal/citycodes"
	"github.com/netspeed-inventory/backend/internal/config"
	"github.com/netspeed-inventory/backend/internal/logging"
	"github.com/netspeed-inventory/backend/internal/orchestrator"
	"github.com/netspeed-inventory/backend/internal/searchengine"
	"github.com/netspeed-inventory/backend/internal/stats"
)

var (
	router *mux.Router
	server *http.Server
)

// serverInit builds the http.Handler/Router, mirroring the teacher's
// serverInit shape but with every GraphQL/auth/static-frontend concern
// stripped since this backend has no UI and no Non-goal auth layer.
func serverInit(cfg *config.Config, client *searchengine.Client, statsEngine *stats.Engine,
	controller *orchestrator.Controller, queue *orchestrator.TaskQueue, cityCodes *citycodes.Table,
) {
	restAPI := api.New(api.Api{
		Roots:            cfg.Roots(),
		Client:           client,
		Stats:            statsEngine,
		Controller:       controller,
		Queue:            queue,
		CityCodes:        cityCodes,
		SearchTimeout:    time.Duration(cfg.SearchTimeoutSeconds) * time.Second,
		SearchMaxResults: cfg.SearchMaxResults,
		BrokerURL:        cfg.BrokerURL,
		EngineURL:        firstOrEmpty(cfg.EngineURLs),
	})

	router = mux.NewRouter()
	restAPI.MountRoutes(router)

	router.Use(handlers.CompressHandler)
	router.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
	router.Use(handlers.CORS(
		handlers.AllowCredentials(),
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization", "Origin"}),
		handlers.AllowedMethods([]string{"GET", "POST", "HEAD", "OPTIONS"}),
		handlers.AllowedOrigins([]string{"*"})))
}

func serverStart(cfg *config.Config) {
	handler := handlers.CustomLoggingHandler(io.Discard, router, func(_ io.Writer, params handlers.LogFormatterParams) {
		if strings.HasPrefix(params.Request.RequestURI, "/api/") {
			logging.Infof("%s %s (%d, %.02fkb, %dms)",
				params.Request.Method, params.URL.RequestURI(),
				params.StatusCode, float32(params.Size)/1024,
				time.Since(params.TimeStamp).Milliseconds())
		} else {
			logging.Debugf("%s %s (%d, %.02fkb, %dms)",
				params.Request.Method, params.URL.RequestURI(),
				params.StatusCode, float32(params.Size)/1024,
				time.Since(params.TimeStamp).Milliseconds())
		}
	})

	server = &http.Server{
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
		Handler:      handler,
		Addr:         ":" + cfg.Port,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		logging.Fatalf("starting http listener failed: %v", err)
	}

	logging.Infof("HTTP server listening at %s", server.Addr)
	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		logging.Fatalf("starting server failed: %v", err)
	}
}

func serverShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Warnf("server shutdown: %v", err)
	}
}
