// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load layers file/env on top.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8090".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file location.
	DBPath string `koanf:"db_path"`

	// StoreQueueSize bounds the in-memory persistence job queue.
	StoreQueueSize int `koanf:"store_queue_size"`

	// StoreWorkerCount sets the number of persistence workers. SQLite
	// has a single writer, so this stays small.
	StoreWorkerCount int `koanf:"store_worker_count"`

	// DedupeSize bounds the in-process duplicate-game cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxUploadBytes caps the size of an uploaded log file.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// InitialBuyin is the fallback buy-in (in chips) for players with
	// no admin-approval events in the log.
	InitialBuyin int `koanf:"initial_buyin"`

	// EntryFee, FreeRebuys and RebuyFee parameterize the prize pool.
	// Fees are in won.
	EntryFee   int `koanf:"entry_fee"`
	FreeRebuys int `koanf:"free_rebuys"`
	RebuyFee   int `koanf:"rebuy_fee"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		Addr:             ":8090",
		DBPath:           "data/pokerstats.db",
		StoreQueueSize:   256,
		StoreWorkerCount: 1,
		DedupeSize:       4096,
		MaxUploadBytes:   16 << 20,
		InitialBuyin:     20000,
		EntryFee:         5000,
		FreeRebuys:       2,
		RebuyFee:         5000,
	}
}
