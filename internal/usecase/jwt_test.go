package usecase

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chintakjoshi/authapp/config"
	"github.com/chintakjoshi/authapp/internal/domain"
)

func newTestCodec(t *testing.T) (TokenCodec, *fakeClock, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:   "0123456789abcdef0123456789abcdef",
		JWTIssuer:   "authapp",
		JWTAudience: "frontend",
		AccessTTL:   15 * time.Minute,
		RefreshTTL:  168 * time.Hour,
	}
	clock := &fakeClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := NewTokenCodec(cfg, clock.Now)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec, clock, cfg
}

func TestCodecRejectsWeakSecret(t *testing.T) {
	_, err := NewTokenCodec(&config.Config{JWTSecret: "short"}, nil)
	if !errors.Is(err, config.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec, _, _ := newTestCodec(t)
	token, err := codec.IssueAccessToken("alice", domain.RoleUser)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := codec.Validate(token, TokenTypeAccess)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Username != "alice" || claims.Role != domain.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestCodecTypeDiscipline(t *testing.T) {
	codec, _, _ := newTestCodec(t)
	access, _ := codec.IssueAccessToken("alice", domain.RoleUser)
	refresh, _ := codec.IssueRefreshToken("alice", domain.RoleUser)

	if _, err := codec.Validate(access, TokenTypeRefresh); err != domain.ErrTokenWrongType {
		t.Fatalf("access as refresh: got %v", err)
	}
	if _, err := codec.Validate(refresh, TokenTypeAccess); err != domain.ErrTokenWrongType {
		t.Fatalf("refresh as access: got %v", err)
	}
}

func TestCodecExpiry(t *testing.T) {
	codec, clock, cfg := newTestCodec(t)
	access, _ := codec.IssueAccessToken("alice", domain.RoleUser)

	clock.Advance(cfg.AccessTTL + time.Minute)
	if _, err := codec.Validate(access, TokenTypeAccess); err != domain.ErrTokenExpired {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestCodecRejectsTamperedToken(t *testing.T) {
	codec, _, _ := newTestCodec(t)
	access, _ := codec.IssueAccessToken("alice", domain.RoleUser)

	parts := strings.Split(access, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA"
	if _, err := codec.Validate(tampered, TokenTypeAccess); err != domain.ErrTokenMalformed {
		t.Fatalf("expected malformed, got %v", err)
	}
	if _, err := codec.Validate("not-a-token", TokenTypeAccess); err != domain.ErrTokenMalformed {
		t.Fatalf("expected malformed, got %v", err)
	}
}

func TestCodecRejectsForeignIssuer(t *testing.T) {
	codec, _, _ := newTestCodec(t)

	otherCfg := &config.Config{
		JWTSecret:   "0123456789abcdef0123456789abcdef",
		JWTIssuer:   "someone-else",
		JWTAudience: "frontend",
		AccessTTL:   15 * time.Minute,
		RefreshTTL:  168 * time.Hour,
	}
	other, err := NewTokenCodec(otherCfg, nil)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	foreign, _ := other.IssueAccessToken("alice", domain.RoleUser)
	if _, err := codec.Validate(foreign, TokenTypeAccess); err != domain.ErrTokenMalformed {
		t.Fatalf("expected malformed for foreign issuer, got %v", err)
	}
}
