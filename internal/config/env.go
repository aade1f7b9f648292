package config

import (
	"log"
	"os"
	"strconv"
)

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// Helper to get int env with default
func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	val, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid int for config %s=%q, using default %d", key, valueStr, fallback)
		return fallback
	}
	return val
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	val, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Warning: Invalid int64 for config %s=%q, using default %d", key, valueStr, fallback)
		return fallback
	}
	return val
}
