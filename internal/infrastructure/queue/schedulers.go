package queue

import (
	"time"

	"github.com/hibiken/asynq"

	"storefront-backend/internal/shared"
	"storefront-backend/pkg/logger"
)

// Scheduler owns the cron entries that keep payment state from
// rotting: transactions the customer abandoned and transactions whose
// return redirect never arrived.
type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(redisAddress string) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddress},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{scheduler: scheduler}
}

// RegisterSweeps registers the periodic payment sweeps. Batch sizes
// live on the handlers, so the tasks carry no payload.
func (s *Scheduler) RegisterSweeps() error {
	if err := s.registerExpireStaleJob(); err != nil {
		return err
	}

	if err := s.registerReconcilePendingJob(); err != nil {
		return err
	}

	return nil
}

// ================================================
// JOB 1: Expire Stale Transactions (Every 10 minutes)
// ================================================
// Fails transactions stuck in initiated/pending past the payment
// window and moves their orders to payment_failed.
func (s *Scheduler) registerExpireStaleJob() error {
	task := asynq.NewTask(shared.TypeExpireStaleTransactions, nil)

	_, err := s.scheduler.Register(
		"*/10 * * * *",
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register ExpireStaleTransactions job", err)
		return err
	}

	logger.Info("Registered ExpireStaleTransactions: every 10 minutes", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 2: Reconcile Pending Transactions (Every 5 minutes)
// ================================================
// Re-queries the provider for transactions still open. Catches
// payments whose return redirect was lost before the expiry sweep
// throws them away.
func (s *Scheduler) registerReconcilePendingJob() error {
	task := asynq.NewTask(shared.TypeReconcilePending, nil)

	_, err := s.scheduler.Register(
		"*/5 * * * *",
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)

	if err != nil {
		logger.Error("Failed to register ReconcilePending job", err)
		return err
	}

	logger.Info("Registered ReconcilePending: every 5 minutes", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
