package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/slug-swap-api/internal/repository"
)

// reconcileService periodically removes ledger rows whose owner no longer exists
type reconcileService struct {
	ledger   repository.SlugSwapRepository
	interval time.Duration
	log      zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	stopped  bool
	mu       sync.Mutex
}

// newReconcileService creates a new ReconcileService; an interval of zero disables the loop
func newReconcileService(ledger repository.SlugSwapRepository, interval time.Duration, log zerolog.Logger) *reconcileService {
	return &reconcileService{
		ledger:   ledger,
		interval: interval,
		log:      log.With().Str("service", "reconcile").Logger(),
	}
}

// StartProcessor runs the reconcile loop until ctx is cancelled or StopProcessor is called.
// It returns at once if StopProcessor already ran.
func (s *reconcileService) StartProcessor(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info().Msg("Ledger reconciler disabled")
		return
	}

	s.mu.Lock()
	if s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	s.log.Info().Dur("interval", s.interval).Msg("Ledger reconciler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Ledger reconciler stopping")
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// StopProcessor stops the reconcile loop and waits for it to exit
func (s *reconcileService) StopProcessor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Ledger reconciler stopped")
}

func (s *reconcileService) tick() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("Ledger reconcile panicked - recovered")
		}
	}()

	if _, err := s.RunOnce(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("Ledger reconcile failed")
	}
}

// RunOnce prunes orphaned ledger rows and returns how many were removed
func (s *reconcileService) RunOnce(ctx context.Context) (int64, error) {
	pruned, err := s.ledger.PruneOrphans(ctx)
	if err != nil {
		return 0, err
	}
	if pruned > 0 {
		s.log.Info().Int64("pruned", pruned).Msg("Orphaned slug swaps removed")
	}
	return pruned, nil
}
