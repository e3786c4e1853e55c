package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// DatabaseURL enables the Postgres translation memory when set.
	DatabaseURL string
	// Neo4jURI enables the graph glossary when set.
	Neo4jURI        string
	Neo4jUser       string
	Neo4jPassword   string
	WorkerCount     int
	LeadingReturns  int
	TrailingReturns int
	LogLevel        string
	// GrammarFile replaces the built-in Harlowe rule table when set.
	GrammarFile string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		Neo4jURI:        getEnv("NEO4J_URI", ""),
		Neo4jUser:       getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", ""),
		WorkerCount:     getEnvInt("WORKER_COUNT", 8),
		LeadingReturns:  getEnvInt("LEADING_RETURNS", 0),
		TrailingReturns: getEnvInt("TRAILING_RETURNS", 1),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		GrammarFile:     getEnv("GRAMMAR_FILE", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Ignoring non-numeric setting")
		return fallback
	}
	return n
}
