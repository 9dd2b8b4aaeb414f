package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/zenithcrm/backend/internal/application/billing"
	"github.com/zenithcrm/backend/internal/application/settlement"
	"go.uber.org/zap"
)

// BillingCycleSchedulerConfig holds configuration for the billing cycle scheduler
type BillingCycleSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// SweepInterval is how often the overdue invoice sweep runs
	SweepInterval time.Duration

	// SweepBatchSize caps how many invoices one sweep pass examines
	SweepBatchSize int

	// AutoMatchInterval is how often the bank transaction matching pass runs
	AutoMatchInterval time.Duration

	// AutoMatchBatchSize caps how many pending transactions one pass examines
	AutoMatchBatchSize int

	// JobTimeout is the maximum time a single pass can run
	JobTimeout time.Duration
}

// DefaultBillingCycleSchedulerConfig returns default configuration
func DefaultBillingCycleSchedulerConfig() BillingCycleSchedulerConfig {
	return BillingCycleSchedulerConfig{
		Enabled:            true,
		SweepInterval:      1 * time.Hour,
		SweepBatchSize:     200,
		AutoMatchInterval:  15 * time.Minute,
		AutoMatchBatchSize: 100,
		JobTimeout:         5 * time.Minute,
	}
}

// BillingCycleScheduler runs the periodic billing maintenance passes: the
// overdue invoice sweep and the automatic bank transaction matching pass.
type BillingCycleScheduler struct {
	invoiceService        *billing.InvoiceService
	reconciliationService *settlement.ReconciliationService
	logger                *zap.Logger
	config                BillingCycleSchedulerConfig

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastSweepAt     *time.Time
	lastAutoMatchAt *time.Time
}

// NewBillingCycleScheduler creates a new billing cycle scheduler
func NewBillingCycleScheduler(
	invoiceService *billing.InvoiceService,
	reconciliationService *settlement.ReconciliationService,
	logger *zap.Logger,
	config BillingCycleSchedulerConfig,
) *BillingCycleScheduler {
	return &BillingCycleScheduler{
		invoiceService:        invoiceService,
		reconciliationService: reconciliationService,
		logger:                logger,
		config:                config,
	}
}

// Start starts the billing cycle scheduler
func (s *BillingCycleScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Billing cycle scheduler is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runSweepLoop(ctx)

	s.wg.Add(1)
	go s.runAutoMatchLoop(ctx)

	s.logger.Info("Billing cycle scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Duration("auto_match_interval", s.config.AutoMatchInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *BillingCycleScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Billing cycle scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Billing cycle scheduler stop timed out")
		return ctx.Err()
	}
}

// runSweepLoop runs the overdue sweep on its configured interval
func (s *BillingCycleScheduler) runSweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Overdue sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

// runAutoMatchLoop runs the matching pass on its configured interval
func (s *BillingCycleScheduler) runAutoMatchLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.AutoMatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Auto match loop stopping")
			return
		case <-ticker.C:
			s.executeAutoMatch(ctx)
		}
	}
}

// executeSweep runs one overdue invoice sweep pass
func (s *BillingCycleScheduler) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	now := time.Now()
	s.mu.Lock()
	s.lastSweepAt = &now
	s.mu.Unlock()

	startTime := time.Now()
	result, err := s.invoiceService.SweepOverdue(sweepCtx, now, s.config.SweepBatchSize)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Overdue invoice sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Overdue invoice sweep completed",
		zap.Duration("duration", duration),
		zap.Int("scanned", result.Scanned),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
	)
}

// executeAutoMatch runs one automatic matching pass
func (s *BillingCycleScheduler) executeAutoMatch(ctx context.Context) {
	matchCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	now := time.Now()
	s.mu.Lock()
	s.lastAutoMatchAt = &now
	s.mu.Unlock()

	startTime := time.Now()
	result, err := s.reconciliationService.AutoMatch(matchCtx, s.config.AutoMatchBatchSize)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Bank transaction matching pass failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("Bank transaction matching pass completed",
		zap.Duration("duration", duration),
		zap.Int("scanned", result.Scanned),
		zap.Int("matched", result.Matched),
		zap.Int("ambiguous", result.Ambiguous),
		zap.Int("unmatched", result.Unmatched),
		zap.Int("failed", result.Failed),
	)
}

// TriggerSweep triggers a manual overdue sweep pass.
// Uses a background context so the pass outlives the HTTP request that asked for it.
func (s *BillingCycleScheduler) TriggerSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	go s.executeSweep(context.Background())
	return nil
}

// TriggerAutoMatch triggers a manual matching pass.
// Uses a background context so the pass outlives the HTTP request that asked for it.
func (s *BillingCycleScheduler) TriggerAutoMatch(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	go s.executeAutoMatch(context.Background())
	return nil
}

// GetStatus returns the current status of the scheduler
func (s *BillingCycleScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":             s.config.Enabled,
		"is_running":          s.isRunning,
		"sweep_interval":      s.config.SweepInterval.String(),
		"auto_match_interval": s.config.AutoMatchInterval.String(),
		"last_sweep_at":       s.lastSweepAt,
		"last_auto_match_at":  s.lastAutoMatchAt,
	}
}
