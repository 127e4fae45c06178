// Package config holds the engine configuration with environment-backed
// defaults.
package config

import (
	"os"
	"strconv"
)

// Config configures the player and search.
type Config struct {
	// Variant is the game variant name, as accepted by
	// board.ParseVariant.
	Variant string
	// Level is the playing level, 1..9.
	Level int
	// Threads is the number of search workers; 0 means one.
	Threads int
	// Seed makes searches reproducible; 0 seeds randomly.
	Seed uint64
	// Memory is the tree memory budget in bytes.
	Memory int64
	// BookPath is the opening book file; empty disables the book.
	BookPath string
	// FixedSimulations overrides the level budget when non-zero.
	FixedSimulations uint64
	// FixedTime in seconds overrides the level budget when non-zero.
	FixedTime float64
	// Debug enables debug logging.
	Debug bool
}

// Default returns the configuration from the environment, with sensible
// fallbacks.
func Default() *Config {
	return &Config{
		Variant:          getEnv("PENTOBI_VARIANT", "duo"),
		Level:            getEnvInt("PENTOBI_LEVEL", 4),
		Threads:          getEnvInt("PENTOBI_THREADS", 1),
		Seed:             uint64(getEnvInt("PENTOBI_SEED", 0)),
		Memory:           int64(getEnvInt("PENTOBI_MEMORY", 256<<20)),
		BookPath:         getEnv("PENTOBI_BOOK", ""),
		FixedSimulations: uint64(getEnvInt("PENTOBI_FIXED_SIMULATIONS", 0)),
		Debug:            getEnv("PENTOBI_DEBUG", "") != "",
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
