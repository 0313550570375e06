package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Required values use must() and abort the
// process when absent; the hold TTL and reaper interval carry defaults
// matching the domain (15 minutes, 60 seconds) so they only need setting
// when operators want different windows.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	JWTSecret      string        // secret shared with the auth collaborator for verifying JWTs
	HoldTTL        time.Duration // how long a seat hold blocks a seat
	ReaperInterval time.Duration // how often the expiry sweep runs
}

// Load reads configuration from the environment and returns a Config.
// Missing required variables cause a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		HoldTTL:        time.Duration(envInt("HOLD_TTL_MIN", 15)) * time.Minute,
		ReaperInterval: time.Duration(envInt("REAPER_INTERVAL_SEC", 60)) * time.Second,
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
