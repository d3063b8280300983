package main

import (
	"log"

	"storefront-backend/internal/infrastructure/queue"
	"storefront-backend/pkg/container"
)

// asynqScheduler wraps queue.Scheduler with startup/shutdown logging
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler creates the scheduler and registers the payment sweeps
func setupScheduler(c *container.Container) *asynqScheduler {
	scheduler := queue.NewScheduler(c.Config.Redis.Host)

	if err := scheduler.RegisterSweeps(); err != nil {
		log.Fatalf("[Scheduler] Failed to register: %v", err)
	}

	go func() {
		log.Println("[Scheduler] Starting...")
		if err := scheduler.Start(); err != nil {
			log.Fatalf("[Scheduler] Failed: %v", err)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

// Shutdown gracefully shuts down the scheduler
func (s *asynqScheduler) Shutdown() {
	log.Println("[Scheduler] Shutting down...")
	s.Scheduler.Shutdown()
	log.Println("[Scheduler] Stopped")
}
