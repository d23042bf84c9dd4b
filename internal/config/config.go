package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress            string
	LogLevel              string
	DatabaseURI           string
	CarrierAPIAddress     string
	CarrierAPIKey         string
	CarrierTimeout        time.Duration
	CarrierMaxConcurrency int
	KafkaBrokers          []string
	Topics                Topics
	JWTSecret             string
	SyncPollInterval      time.Duration
	WorkerPoolSize        int
	SyncBatchSize         int
	SyncMaxAttempts       int
	SyncReclaimAfter      time.Duration
	ShutdownTimeout       time.Duration
	Warehouse             Warehouse
}

// Topics names the queues downstream workers consume.
type Topics struct {
	PackingSlips  string
	Fulfillment   string
	Notifications string
}

// Warehouse is the ship-from address printed on every label.
type Warehouse struct {
	Name       string
	Company    string
	Address1   string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

const (
	defaultRunAddress            = ":8080"
	defaultLogLevel              = "info"
	defaultCarrierAPIAddress     = "https://api.shipengine.com"
	defaultCarrierTimeout        = 30 * time.Second
	defaultCarrierMaxConcurrency = 4
	defaultKafkaBrokers          = "localhost:9092"
	defaultJWTSecret             = "change-me-in-production"
	defaultSyncPollInterval      = 30 * time.Second
	defaultWorkerPoolSize        = 2
	defaultSyncBatchSize         = 16
	defaultSyncMaxAttempts       = 5
	defaultShutdownTimeout       = 10 * time.Second
	reclaimPollIntervals         = 10
)

var defaultWarehouse = Warehouse{
	Name:       "Warehouse",
	Company:    "WMS Fulfillment",
	Address1:   "123 Warehouse St",
	City:       "Los Angeles",
	State:      "CA",
	PostalCode: "90001",
	Country:    "US",
	Phone:      "555-555-5555",
}

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		RunAddress:            getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		LogLevel:              getString(lookup, "LOG_LEVEL", defaultLogLevel),
		DatabaseURI:           getString(lookup, "DATABASE_URI", ""),
		CarrierAPIAddress:     getString(lookup, "CARRIER_API_ADDRESS", defaultCarrierAPIAddress),
		CarrierAPIKey:         getString(lookup, "CARRIER_API_KEY", ""),
		CarrierTimeout:        getDuration(lookup, "CARRIER_TIMEOUT", defaultCarrierTimeout),
		CarrierMaxConcurrency: getInt(lookup, "CARRIER_MAX_CONCURRENCY", defaultCarrierMaxConcurrency),
		Topics: Topics{
			PackingSlips:  getString(lookup, "KAFKA_TOPIC_PACKING_SLIPS", "wms.packing-slips"),
			Fulfillment:   getString(lookup, "KAFKA_TOPIC_FULFILLMENT", "wms.fulfillment-sync"),
			Notifications: getString(lookup, "KAFKA_TOPIC_NOTIFICATIONS", "wms.shipment-notifications"),
		},
		JWTSecret:        getString(lookup, "JWT_SECRET", defaultJWTSecret),
		SyncPollInterval: getDuration(lookup, "SYNC_POLL_INTERVAL", defaultSyncPollInterval),
		WorkerPoolSize:   getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		SyncBatchSize:    getInt(lookup, "SYNC_BATCH_SIZE", defaultSyncBatchSize),
		SyncMaxAttempts:  getInt(lookup, "SYNC_MAX_ATTEMPTS", defaultSyncMaxAttempts),
		SyncReclaimAfter: getDuration(lookup, "SYNC_RECLAIM_AFTER", 0),
		ShutdownTimeout:  getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		Warehouse: Warehouse{
			Name:       getString(lookup, "WAREHOUSE_NAME", defaultWarehouse.Name),
			Company:    getString(lookup, "WAREHOUSE_COMPANY", defaultWarehouse.Company),
			Address1:   getString(lookup, "WAREHOUSE_ADDRESS1", defaultWarehouse.Address1),
			City:       getString(lookup, "WAREHOUSE_CITY", defaultWarehouse.City),
			State:      getString(lookup, "WAREHOUSE_STATE", defaultWarehouse.State),
			PostalCode: getString(lookup, "WAREHOUSE_POSTAL_CODE", defaultWarehouse.PostalCode),
			Country:    getString(lookup, "WAREHOUSE_COUNTRY", defaultWarehouse.Country),
			Phone:      getString(lookup, "WAREHOUSE_PHONE", defaultWarehouse.Phone),
		},
	}

	fs := flag.NewFlagSet("warehouse", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		brokersStr         = getString(lookup, "KAFKA_BROKERS", defaultKafkaBrokers)
		carrierTimeoutStr  = cfg.CarrierTimeout.String()
		syncIntervalStr    = cfg.SyncPollInterval.String()
		syncReclaimStr     = cfg.SyncReclaimAfter.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.CarrierAPIAddress, "carrier-url", cfg.CarrierAPIAddress, "Carrier label API base URL")
	fs.StringVar(&cfg.CarrierAPIKey, "carrier-key", cfg.CarrierAPIKey, "Carrier label API key")
	fs.StringVar(&carrierTimeoutStr, "carrier-timeout", carrierTimeoutStr, "Carrier request timeout")
	fs.IntVar(&cfg.CarrierMaxConcurrency, "carrier-concurrency", cfg.CarrierMaxConcurrency, "Maximum concurrent per-package label calls")
	fs.StringVar(&brokersStr, "kafka", brokersStr, "Comma separated Kafka brokers")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for verifying auth tokens")
	fs.StringVar(&syncIntervalStr, "sync-interval", syncIntervalStr, "Interval between pending sync retries")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent sync workers")
	fs.IntVar(&cfg.SyncBatchSize, "sync-batch", cfg.SyncBatchSize, "Maximum pending syncs per poll")
	fs.IntVar(&cfg.SyncMaxAttempts, "sync-attempts", cfg.SyncMaxAttempts, "Attempts before a pending sync is marked failed")
	fs.StringVar(&syncReclaimStr, "sync-reclaim-after", syncReclaimStr, "Age after which RETRYING pending syncs are claimed again")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.CarrierTimeout, err = time.ParseDuration(carrierTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid carrier timeout: %w", err)
	}

	if cfg.SyncPollInterval, err = time.ParseDuration(syncIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sync interval: %w", err)
	}

	if cfg.SyncReclaimAfter, err = time.ParseDuration(syncReclaimStr); err != nil {
		return nil, fmt.Errorf("invalid sync reclaim age: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	cfg.KafkaBrokers = splitList(brokersStr)

	if err := readSecretFile(lookup, "JWT_SECRET_FILE", &cfg.JWTSecret); err != nil {
		return nil, err
	}
	if err := readSecretFile(lookup, "CARRIER_API_KEY_FILE", &cfg.CarrierAPIKey); err != nil {
		return nil, err
	}

	if cfg.CarrierTimeout <= 0 {
		cfg.CarrierTimeout = defaultCarrierTimeout
	}

	if cfg.CarrierMaxConcurrency <= 0 {
		cfg.CarrierMaxConcurrency = defaultCarrierMaxConcurrency
	}

	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = defaultWorkerPoolSize
	}

	if cfg.SyncBatchSize <= 0 {
		cfg.SyncBatchSize = defaultSyncBatchSize
	}

	if cfg.SyncMaxAttempts <= 0 {
		cfg.SyncMaxAttempts = defaultSyncMaxAttempts
	}

	if cfg.SyncPollInterval <= 0 {
		cfg.SyncPollInterval = defaultSyncPollInterval
	}

	if cfg.SyncReclaimAfter <= 0 {
		cfg.SyncReclaimAfter = reclaimPollIntervals * cfg.SyncPollInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI must be provided")
	}

	if cfg.CarrierAPIKey == "" {
		return nil, fmt.Errorf("carrier API key must be provided")
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker must be provided")
	}

	return cfg, nil
}

func readSecretFile(lookup envLookup, key string, dst *string) error {
	path, ok := lookup(key)
	if !ok || path == "" {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", strings.ToLower(key), err)
	}
	*dst = strings.TrimSpace(string(content))
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
