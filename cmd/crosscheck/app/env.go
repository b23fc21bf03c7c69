package app

import (
	"github.com/joho/godotenv"
)

// loadEnvFiles loads environment variables from .env files before viper
// binds the environment. godotenv.Load never overwrites a variable that
// is already set, so the local file is loaded first to let it override
// the shared one.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
