package config

import (
	"os"

	"github.com/joho/godotenv"
)

// envFileCandidates are tried in order; every file that exists is applied.
var envFileCandidates = []string{".env", ".env.local"}

// loadEnvFiles loads environment variables from .env/.env.local so that
// ${VAR} references in site.yaml can expand against them. Existing process
// environment variables are never overwritten; a missing file is not an error.
func loadEnvFiles() {
	for _, path := range envFileCandidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// godotenv.Load never overrides variables already set in the process.
		_ = godotenv.Load(path)
	}
}
