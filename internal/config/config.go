// Package config loads service configuration from the environment and
// manages the STOCK_LIST entry of the env file.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries everything the serve command needs to wire the service.
type Config struct {
	DataDir     string // DATA_DIR, directory holding the persisted JSON files
	Port        string // PORT, HTTP listen port
	MaxWorkers  int    // MAX_WORKERS, analysis worker count
	QueueSize   int    // TASK_QUEUE_SIZE, buffered job queue size
	AnalyzerURL string // ANALYZER_URL, base URL of the analysis collaborator
	ReviewCron  string // REVIEW_CRON, optional daily review pre-warm schedule
	EnvPath     string // ENV_FILE, path of the env file holding STOCK_LIST
}

// Load reads .env if present and collects configuration with defaults.
func Load() Config {
	_ = godotenv.Load()
	return Config{
		DataDir:     getenv("DATA_DIR", "data"),
		Port:        getenv("PORT", "8000"),
		MaxWorkers:  getint("MAX_WORKERS", 3),
		QueueSize:   getint("TASK_QUEUE_SIZE", 100),
		AnalyzerURL: getenv("ANALYZER_URL", "http://localhost:8100"),
		ReviewCron:  os.Getenv("REVIEW_CRON"),
		EnvPath:     getenv("ENV_FILE", ".env"),
	}
}

// TaskFile is the path of the persisted task collection.
func (c Config) TaskFile() string {
	return filepath.Join(c.DataDir, "tasks.json")
}

// ReviewFile is the path of the persisted review collection.
func (c Config) ReviewFile() string {
	return filepath.Join(c.DataDir, "market_reviews.json")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
