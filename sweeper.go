package subtrack

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds a single sweeper run
const sweepTimeout = time.Minute

// RenewalSweeper periodically flips overdue active subscriptions to expired,
// so the auto-expiry rule holds even for rows nobody reads or writes.
type RenewalSweeper struct {
	repo     RepositoryManager
	logger   Logger
	schedule string

	cron    *cron.Cron
	entryID cron.EntryID
	mu      sync.Mutex
	running bool
}

// NewRenewalSweeper creates a sweeper with a standard 5-field cron schedule,
// e.g. "0 0 * * *" for daily at midnight.
func NewRenewalSweeper(repo RepositoryManager, schedule string, logger Logger) *RenewalSweeper {
	if logger == nil {
		logger = defLogger{}
	}
	return &RenewalSweeper{
		repo:     repo,
		logger:   logger,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start registers the sweep job and starts the cron loop
func (s *RenewalSweeper) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		if err := s.Sweep(ctx); err != nil {
			s.logger.Error("renewal sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.entryID = entryID
	s.cron.Start()
	s.running = true
	s.logger.Info("renewal sweeper started", "schedule", s.schedule)

	return nil
}

// Stop halts the cron loop and waits for an in-flight sweep to finish
func (s *RenewalSweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("renewal sweeper stopped")
}

// Sweep runs one pass over the subscriptions table
func (s *RenewalSweeper) Sweep(ctx context.Context) error {
	expired, err := s.repo.Subscriptions().MarkOverdueExpired(ctx, time.Now())
	if err != nil {
		return err
	}

	if expired > 0 {
		s.logger.Info("renewal sweep flipped subscriptions to expired", "count", expired)
	} else {
		s.logger.Debug("renewal sweep found nothing overdue")
	}

	return nil
}
