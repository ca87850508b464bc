// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Env  string
	Port string

	// CacheCapacity bounds the in-process transformation result cache.
	CacheCapacity int

	// FetchRetries and FetchBackoff control remote source downloads.
	FetchRetries int
	FetchBackoff time.Duration

	// SegmentURL is the external background-removal endpoint. Empty
	// disables the remove-background operation.
	SegmentURL     string
	SegmentTimeout time.Duration
}

// Load reads .env files when present (never an error if absent) and
// assembles the Config from environment variables with defaults.
func Load() (Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	c := Config{
		Env:            getenv("APP_ENV", "development"),
		Port:           getenv("PORT", "8080"),
		SegmentURL:     getenv("SEGMENT_URL", ""),
		SegmentTimeout: 60 * time.Second,
		FetchBackoff:   500 * time.Millisecond,
	}

	var err error
	if c.CacheCapacity, err = getint("CACHE_CAPACITY", 100); err != nil {
		return Config{}, err
	}
	if c.FetchRetries, err = getint("FETCH_RETRIES", 3); err != nil {
		return Config{}, err
	}
	if ms, err := getint("FETCH_BACKOFF_MS", 0); err != nil {
		return Config{}, err
	} else if ms > 0 {
		c.FetchBackoff = time.Duration(ms) * time.Millisecond
	}
	if s, err := getint("SEGMENT_TIMEOUT_S", 0); err != nil {
		return Config{}, err
	} else if s > 0 {
		c.SegmentTimeout = time.Duration(s) * time.Second
	}
	return c, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s=%q is not an integer", k, v)
	}
	return n, nil
}
