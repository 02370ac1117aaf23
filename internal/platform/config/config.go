package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures the console's runtime configuration.
type Server struct {
	Addr           string
	APIBaseURL     string
	SecureCookies  bool
	AllowedOrigins []string
	BackendTimeout time.Duration
	Environment    string
}

// DefaultBackendTimeout bounds every call to the Task Station API.
var DefaultBackendTimeout = 10 * time.Second

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file is loaded first when present (development convenience).
func FromEnv() Server {
	_ = godotenv.Load()

	addr := os.Getenv("CONSOLE_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	apiBaseURL := os.Getenv("API_BASE_URL")
	if apiBaseURL == "" {
		apiBaseURL = "http://localhost:8080"
	}
	apiBaseURL = strings.TrimRight(apiBaseURL, "/")

	environment := os.Getenv("CONSOLE_ENV")
	if environment == "" {
		environment = "development"
	}

	timeout := DefaultBackendTimeout
	if raw := os.Getenv("BACKEND_TIMEOUT"); raw != "" {
		if duration, err := time.ParseDuration(raw); err == nil {
			timeout = duration
		}
	}

	var origins []string
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}

	return Server{
		Addr:           addr,
		APIBaseURL:     apiBaseURL,
		SecureCookies:  environment == "production",
		AllowedOrigins: origins,
		BackendTimeout: timeout,
		Environment:    environment,
	}
}
