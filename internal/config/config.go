// Package config loads process configuration from the environment,
// optionally preloaded from a .env file in development (§10). There is no
// structured schema: each binary reads the handful of values it needs via
// plain os.Getenv with a default, matching the teacher's own config-free
// main.go style enriched only by an optional .env preload.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads a .env file from the working directory if present. A
// missing file is not an error; a malformed one is. Call this once, first,
// in every binary's main before reading any other config value.
func LoadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Search holds the Search service's configuration (§6, §10).
type Search struct {
	ListenAddr       string
	SnapshotDir      string
	EmbedderURL      string
	MaxConcurrent    int
	ReloadTickerPeriod time.Duration
	ReloadTickerOn   bool
}

// LoadSearch reads Search configuration from the environment.
func LoadSearch() Search {
	return Search{
		ListenAddr:         getString("SEARCH_LISTEN_ADDR", "127.0.0.1:8002"),
		SnapshotDir:        getString("SNAPSHOT_DIR", "./data"),
		EmbedderURL:        getString("EMBEDDER_URL", "http://127.0.0.1:9000"),
		MaxConcurrent:      getInt("SEARCH_MAX_CONCURRENT", 64),
		ReloadTickerPeriod: getDuration("SEARCH_RELOAD_PERIOD", 30*time.Second),
		ReloadTickerOn:     getBool("SEARCH_RELOAD_TICKER", true),
	}
}

// Updater holds the Updater service's configuration (§6, §10).
type Updater struct {
	ListenAddr    string
	SnapshotDir   string
	EmbedderURL   string
	RedisAddr     string
	RedisDB       int
	SearchBaseURL string
	MaxConcurrent int
}

// LoadUpdater reads Updater configuration from the environment.
func LoadUpdater() Updater {
	return Updater{
		ListenAddr:    getString("UPDATER_LISTEN_ADDR", "127.0.0.1:8001"),
		SnapshotDir:   getString("SNAPSHOT_DIR", "./data"),
		EmbedderURL:   getString("EMBEDDER_URL", "http://127.0.0.1:9000"),
		RedisAddr:     getString("REDIS_ADDR", "127.0.0.1:6379"),
		RedisDB:       getInt("REDIS_DB", 0),
		SearchBaseURL: getString("SEARCH_BASE_URL", "http://127.0.0.1:8002"),
		MaxConcurrent: getInt("UPDATER_MAX_CONCURRENT", 64),
	}
}

// Dispatcher holds the Event Dispatcher's configuration (§4.5, §10).
type Dispatcher struct {
	RedisAddr     string
	RedisDB       int
	UpdaterBaseURL string
}

// LoadDispatcher reads Event Dispatcher configuration from the environment.
func LoadDispatcher() Dispatcher {
	return Dispatcher{
		RedisAddr:      getString("REDIS_ADDR", "127.0.0.1:6379"),
		RedisDB:        getInt("REDIS_DB", 0),
		UpdaterBaseURL: getString("UPDATER_BASE_URL", "http://127.0.0.1:8001"),
	}
}
