package usecase

import (
	"context"
	"time"

	repo "github.com/chintakjoshi/authapp/internal/adapters/postgres"
	pkglog "github.com/chintakjoshi/authapp/pkg/log"
)

// Sweeper purges expired pending registrations, reset tokens, and refresh
// tokens on independent fixed intervals. Deletions are keyed on expiry alone,
// so a sweep is always safe to run concurrently with the workflows: a row
// whose window was just extended is not eligible in the same pass.
type Sweeper struct {
	logger  pkglog.Logger
	pending repo.PendingUserRepository
	reset   repo.ResetTokenRepository
	refresh repo.RefreshTokenRepository

	pendingEvery time.Duration
	resetEvery   time.Duration
	refreshEvery time.Duration

	now func() time.Time
}

func NewSweeper(
	logger pkglog.Logger,
	pending repo.PendingUserRepository,
	reset repo.ResetTokenRepository,
	refresh repo.RefreshTokenRepository,
	pendingEvery, resetEvery, refreshEvery time.Duration,
	now func() time.Time,
) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		logger:       logger,
		pending:      pending,
		reset:        reset,
		refresh:      refresh,
		pendingEvery: pendingEvery,
		resetEvery:   resetEvery,
		refreshEvery: refreshEvery,
		now:          now,
	}
}

// Run starts the three sweep loops and blocks until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	go s.loop(ctx, s.pendingEvery, s.SweepPendingUsers)
	go s.loop(ctx, s.resetEvery, s.SweepResetTokens)
	go s.loop(ctx, s.refreshEvery, s.SweepRefreshTokens)
	<-ctx.Done()
}

func (s *Sweeper) loop(ctx context.Context, every time.Duration, sweep func(context.Context)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx)
		}
	}
}

func (s *Sweeper) SweepPendingUsers(ctx context.Context) {
	count, err := s.pending.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Warn().Err(err).Msg("pending user sweep failed")
		return
	}
	if count > 0 {
		s.logger.Info().Int64("count", count).Msg("deleted expired pending registrations")
	}
}

func (s *Sweeper) SweepResetTokens(ctx context.Context) {
	count, err := s.reset.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Warn().Err(err).Msg("reset token sweep failed")
		return
	}
	if count > 0 {
		s.logger.Info().Int64("count", count).Msg("deleted expired reset tokens")
	}
}

func (s *Sweeper) SweepRefreshTokens(ctx context.Context) {
	count, err := s.refresh.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.Warn().Err(err).Msg("refresh token sweep failed")
		return
	}
	if count > 0 {
		s.logger.Info().Int64("count", count).Msg("deleted expired refresh tokens")
	}
}
