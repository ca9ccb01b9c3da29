package main

import (
	"log"
	"os"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
	"github.com/Ruhancpereira/conectacond.site/internal/handlers"
	"github.com/Ruhancpereira/conectacond.site/internal/kv"
	"github.com/Ruhancpereira/conectacond.site/internal/routes"
	"github.com/Ruhancpereira/conectacond.site/internal/session"
	"github.com/joho/godotenv"
)

// Portal sessions that go quiet for this long are swept so their
// backend watchers stop.
const sessionIdleLimit = 2 * time.Hour

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	// 1. --- Backend Connection Settings ---
	// A missing backend configuration is NOT fatal: the server still
	// comes up and reports the distinct "not configured" state so the
	// portal can show its setup notice instead of a generic failure.
	cfg := backend.ConfigFromEnv()
	var probe *backend.Client
	if cfg.Configured() {
		var err error
		probe, err = backend.NewClient(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize backend client: %v", err)
		}
	} else {
		log.Println("WARNING: BACKEND_URL / BACKEND_ANON_KEY not set. Running in unconfigured mode.")
	}

	// 2. --- Session Marker Store ---
	// Redis when REDIS_URL is set, otherwise an in-process store.
	kvStore, err := kv.New(os.Getenv("REDIS_URL"))
	if err != nil {
		log.Fatalf("Failed to initialize marker store: %v", err)
	}
	markers := session.NewMarkers(kvStore)

	// 3. --- Session Registry ---
	// Each portal session gets its own backend client carrying its
	// own tokens.
	registry := session.NewRegistry(func() (*backend.Client, error) {
		return backend.NewClient(cfg)
	}, markers, session.Options{})

	// --- Application Setup ---
	app := &handlers.Handlers{
		Cfg:      cfg,
		Probe:    probe,
		Sessions: registry,
		BaseURL:  os.Getenv("PUBLIC_BASE_URL"),
	}

	// --- 4. Background Workers (Cron) ---
	// Sweep idle portal sessions so abandoned logins do not keep
	// their backend watchers alive forever.
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()

		log.Println("Background Worker Started: Sweeping idle portal sessions...")

		for range ticker.C {
			registry.Sweep(sessionIdleLimit)
		}
	}()

	// --- Router Setup ---
	router := routes.SetupRouter(app)

	// --- Start Server ---
	log.Println("Starting ConectaCond API server on port 8080...")
	if err := router.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
