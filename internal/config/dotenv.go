package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads .env.local and .env when present. Variables already set
// in the environment are never overwritten, .env.local wins over .env.
func LoadDotEnv() []string {
	candidates := []string{".env.local", ".env"}
	var loaded []string
	for _, f := range candidates {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}
