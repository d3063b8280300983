package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"storefront-backend/pkg/container"
)

// startupChecks verifies every dependency the jobs touch before the
// worker accepts tasks. Failing here beats failing on the first task.
func startupChecks(c *container.Container) error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"Postgres", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return c.DB.Ping(ctx)
		}},
		{"Redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return c.Cache.Ping(ctx)
		}},
		{"MinIO", func() error {
			// Receipt generation cannot run without object storage
			if c.Storage == nil {
				return fmt.Errorf("receipt storage not initialized")
			}
			return nil
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			return fmt.Errorf("%s check failed: %w", check.name, err)
		}
		log.Printf("[Startup] %s: OK", check.name)
	}

	return nil
}

// startHealthCheckServer exposes liveness and readiness probes
func startHealthCheckServer() {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"UP","service":"storefront-worker"}`))
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"READY"}`))
	})

	log.Println("[Health] Starting health check server on :9999")
	if err := http.ListenAndServe(":9999", mux); err != nil {
		log.Printf("[Health] Failed to start: %v", err)
	}
}
