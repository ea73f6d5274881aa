// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config loads the environment-variable-driven configuration
// described in spec §6, with local ".env" support via godotenv and
// startup-time JSON Schema validation.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/netspeed-inventory/backend/internal/logging"
)

// Config holds the resolved, validated runtime configuration.
type Config struct {
	CurrentDir  string
	HistoryDir  string
	CSVFilesDir string
	VarDir      string // holds index_state/, per spec.md's on-disk artifact layout

	BrokerURL string // REDIS_URL or equivalent queue URL

	EngineURLs     []string // OPENSEARCH_URL, comma-separated fallback list
	EnginePassword string

	StartupTimeoutSeconds int
	StartupPollSeconds    int
	WaitForAvailability   bool

	SearchTimeoutSeconds int
	SearchMaxResults     int

	ArchiveRetentionYears int

	// RescanIntervalSeconds drives the §4.5 periodic-scan safety net: a full
	// rebuild triggered on a fixed interval regardless of filesystem events.
	RescanIntervalSeconds int

	// CityCodesPath points at the externally maintained city-code → name
	// table (§4 supplemented feature "city-name resolution"). Empty means
	// every code resolves to itself.
	CityCodesPath string

	Port string
}

func defaults() Config {
	return Config{
		CurrentDir:            "./data",
		HistoryDir:            "./data/history",
		CSVFilesDir:           "./data",
		VarDir:                "./var",
		BrokerURL:             "",
		EngineURLs:            []string{"http://localhost:9200"},
		StartupTimeoutSeconds: 45,
		StartupPollSeconds:    3,
		WaitForAvailability:   true,
		SearchTimeoutSeconds:  20,
		SearchMaxResults:      5000,
		ArchiveRetentionYears: 4,
		RescanIntervalSeconds: 900,
		Port:                  "8080",
	}
}

// Load reads "./.env" (if present, best-effort, matching how the teacher's
// go.mod already declared but never wired this dependency), then overlays
// environment variables onto the defaults, and validates the result against
// the embedded JSON Schema before returning it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Warnf("config: parsing './.env' failed: %v", err)
	}

	cfg := defaults()

	cfg.CurrentDir = envOr("NETSPEED_CURRENT_DIR", cfg.CurrentDir)
	cfg.HistoryDir = envOr("NETSPEED_HISTORY_DIR", cfg.HistoryDir)
	cfg.CSVFilesDir = envOr("CSV_FILES_DIR", cfg.CSVFilesDir)
	cfg.VarDir = envOr("NETSPEED_VAR_DIR", cfg.VarDir)
	cfg.BrokerURL = envOr("REDIS_URL", cfg.BrokerURL)

	if v := os.Getenv("OPENSEARCH_URL"); v != "" {
		var urls []string
		for _, part := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				urls = append(urls, trimmed)
			}
		}
		if len(urls) > 0 {
			cfg.EngineURLs = urls
		}
	}

	cfg.EnginePassword = envOr("OPENSEARCH_PASSWORD", cfg.EnginePassword)
	cfg.StartupTimeoutSeconds = envIntOr("OPENSEARCH_STARTUP_TIMEOUT_SECONDS", cfg.StartupTimeoutSeconds)
	cfg.StartupPollSeconds = envIntOr("OPENSEARCH_STARTUP_POLL_SECONDS", cfg.StartupPollSeconds)
	cfg.WaitForAvailability = envBoolOr("OPENSEARCH_WAIT_FOR_AVAILABILITY", cfg.WaitForAvailability)
	cfg.SearchTimeoutSeconds = envIntOr("SEARCH_TIMEOUT_SECONDS", cfg.SearchTimeoutSeconds)
	cfg.SearchMaxResults = envIntOr("SEARCH_MAX_RESULTS", cfg.SearchMaxResults)
	cfg.ArchiveRetentionYears = envIntOr("ARCHIVE_RETENTION_YEARS", cfg.ArchiveRetentionYears)
	cfg.RescanIntervalSeconds = envIntOr("NETSPEED_RESCAN_INTERVAL_SECONDS", cfg.RescanIntervalSeconds)
	cfg.CityCodesPath = envOr("CITY_CODES_PATH", cfg.CityCodesPath)
	cfg.Port = envOr("BACKEND_PORT", cfg.Port)

	if err := validateAgainstSchema(cfg.schemaDoc()); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// schemaDoc renders the config as the plain map[string]interface{} shape
// the embedded JSON Schema validates against.
func (c Config) schemaDoc() map[string]interface{} {
	return map[string]interface{}{
		"currentDir":            c.CurrentDir,
		"historyDir":            c.HistoryDir,
		"csvFilesDir":           c.CSVFilesDir,
		"varDir":                c.VarDir,
		"brokerURL":             c.BrokerURL,
		"engineURLs":            c.EngineURLs,
		"enginePassword":        c.EnginePassword,
		"startupTimeoutSeconds": c.StartupTimeoutSeconds,
		"startupPollSeconds":    c.StartupPollSeconds,
		"waitForAvailability":   c.WaitForAvailability,
		"searchTimeoutSeconds":  c.SearchTimeoutSeconds,
		"searchMaxResults":      c.SearchMaxResults,
		"archiveRetentionYears": c.ArchiveRetentionYears,
		"rescanIntervalSeconds": c.RescanIntervalSeconds,
		"cityCodesPath":         c.CityCodesPath,
		"port":                  c.Port,
	}
}

// Roots returns the three configured data roots fed to netspeed.Discover.
func (c Config) Roots() []string {
	return []string{c.CurrentDir, c.HistoryDir, c.CSVFilesDir}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		logging.Warnf("config: %s=%q is not an integer, using default %d", key, v, fallback)
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		logging.Warnf("config: %s=%q is not a bool, using default %v", key, v, fallback)
	}
	return fallback
}
