// Copyright (c) 2022 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BACKEND_MEMORY = "memory"
	BACKEND_MONGO  = "mongo"
)

// Config holds all configuration for the node and simulator binaries.
type Config struct {
	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Feed storage
	FeedBackend   string
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// Contract
	Owner            string
	FirstAirline     string
	FirstAirlineName string

	// Simulator
	OracleCount        int
	StatusPollInterval time.Duration
	LateProbability    float64
}

// LoadConfig reads an optional .env file and the environment. Files are
// loaded in order; a missing file is skipped, a malformed one is an error.
func LoadConfig(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:         getEnv("PORT", "3000"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		FeedBackend:   getEnv("FEED_BACKEND", BACKEND_MEMORY),
		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "flightsurety"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		Owner:            getEnv("SURETY_OWNER", "owner.surety"),
		FirstAirline:     getEnv("SURETY_FIRST_AIRLINE", "first.airline"),
		FirstAirlineName: getEnv("SURETY_FIRST_AIRLINE_NAME", "First Airline"),

		OracleCount:        getEnvAsInt("ORACLE_COUNT", 30),
		StatusPollInterval: time.Duration(getEnvAsInt("STATUS_POLL_INTERVAL", 60)) * time.Second,
		LateProbability:    getEnvAsFloat("LATE_PROBABILITY", 0.5),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.FeedBackend {
	case BACKEND_MEMORY, BACKEND_MONGO:
	default:
		return fmt.Errorf("invalid FEED_BACKEND %q", c.FeedBackend)
	}
	if c.OracleCount < 0 {
		return fmt.Errorf("invalid ORACLE_COUNT %d", c.OracleCount)
	}
	if c.LateProbability < 0 || c.LateProbability > 1 {
		return fmt.Errorf("LATE_PROBABILITY %v out of range [0,1]", c.LateProbability)
	}
	if c.StatusPollInterval <= 0 {
		return fmt.Errorf("invalid STATUS_POLL_INTERVAL %s", c.StatusPollInterval)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
