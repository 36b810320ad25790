package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/chintakjoshi/authapp/internal/domain"
	pkglog "github.com/chintakjoshi/authapp/pkg/log"
)

func TestSweeperDeletesOnlyExpiredRows(t *testing.T) {
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	users := newMockUserRepo()
	pending := newMockPendingRepo(users)
	reset := newMockResetRepo()
	refresh := newMockRefreshRepo()

	past := clock.Now().Add(-time.Minute)
	future := clock.Now().Add(time.Hour)

	_ = pending.Replace(context.Background(), &domain.PendingUser{Email: "stale@x.com", Username: "stale", ExpiresAt: past})
	_ = pending.Replace(context.Background(), &domain.PendingUser{Email: "fresh@x.com", Username: "fresh", ExpiresAt: future})
	_ = reset.Replace(context.Background(), &domain.PasswordResetToken{Email: "stale@x.com", Token: "t1", ExpiresAt: past})
	_ = reset.Replace(context.Background(), &domain.PasswordResetToken{Email: "fresh@x.com", Token: "t2", ExpiresAt: future})
	_ = refresh.Create(context.Background(), &domain.RefreshToken{Username: "stale", Token: "r1", ExpiresAt: past})
	_ = refresh.Create(context.Background(), &domain.RefreshToken{Username: "fresh", Token: "r2", ExpiresAt: future})

	s := NewSweeper(pkglog.New("test"), pending, reset, refresh,
		time.Minute, time.Minute, time.Minute, clock.Now)

	s.SweepPendingUsers(context.Background())
	s.SweepResetTokens(context.Background())
	s.SweepRefreshTokens(context.Background())

	if _, err := pending.FindByEmail(context.Background(), "stale@x.com"); err == nil {
		t.Fatalf("expired pending row survived sweep")
	}
	if _, err := pending.FindByEmail(context.Background(), "fresh@x.com"); err != nil {
		t.Fatalf("live pending row swept: %v", err)
	}
	if _, err := reset.FindByToken(context.Background(), "t1"); err == nil {
		t.Fatalf("expired reset token survived sweep")
	}
	if _, err := reset.FindByToken(context.Background(), "t2"); err != nil {
		t.Fatalf("live reset token swept: %v", err)
	}
	if _, err := refresh.FindByToken(context.Background(), "r1"); err == nil {
		t.Fatalf("expired refresh token survived sweep")
	}
	if _, err := refresh.FindByToken(context.Background(), "r2"); err != nil {
		t.Fatalf("live refresh token swept: %v", err)
	}
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	clock := &fakeClock{current: time.Now()}
	users := newMockUserRepo()
	s := NewSweeper(pkglog.New("test"), newMockPendingRepo(users), newMockResetRepo(), newMockRefreshRepo(),
		time.Hour, time.Hour, time.Hour, clock.Now)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("sweeper did not stop on cancel")
	}
}
