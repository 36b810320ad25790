package usecase

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chintakjoshi/authapp/config"
	"github.com/chintakjoshi/authapp/internal/adapters/mailer"
	repo "github.com/chintakjoshi/authapp/internal/adapters/postgres"
	"github.com/chintakjoshi/authapp/internal/domain"
	pkglog "github.com/chintakjoshi/authapp/pkg/log"
)

// Tokens is the pair returned by login and refresh.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RequestMeta carries client context captured by the transport layer and
// bound to issued refresh tokens.
type RequestMeta struct {
	DeviceID  string
	IP        string
	UserAgent string
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// UserPublisher announces newly verified accounts to peer services. A nil
// publisher disables the events; delivery is best-effort.
type UserPublisher interface {
	UserCreated(ctx context.Context, id, username, email string) error
}

type Service interface {
	Login(ctx context.Context, traceID, username, password string, meta RequestMeta) (*Tokens, error)
	Register(ctx context.Context, traceID string, in RegisterInput) error
	VerifyOtp(ctx context.Context, traceID, email, otp string) error
	ResendOtp(ctx context.Context, traceID, email string) error
	Refresh(ctx context.Context, traceID, refreshToken string, meta RequestMeta) (*Tokens, error)
	Logout(ctx context.Context, traceID, refreshToken string) error
	ForgotPassword(ctx context.Context, traceID, email string) error
	ResetPassword(ctx context.Context, traceID, token, newPassword string) error
	ValidateResetToken(ctx context.Context, token string) error
}

type authService struct {
	cfg     *config.Config
	logger  pkglog.Logger
	users   repo.UserRepository
	pending repo.PendingUserRepository
	refresh repo.RefreshTokenRepository
	reset   repo.ResetTokenRepository
	codec   TokenCodec
	mailer  mailer.Mailer
	events  UserPublisher
	now     func() time.Time
}

func NewAuthService(
	cfg *config.Config,
	logger pkglog.Logger,
	users repo.UserRepository,
	pending repo.PendingUserRepository,
	refresh repo.RefreshTokenRepository,
	reset repo.ResetTokenRepository,
	codec TokenCodec,
	mail mailer.Mailer,
	events UserPublisher,
	now func() time.Time,
) Service {
	if now == nil {
		now = time.Now
	}
	return &authService{
		cfg:     cfg,
		logger:  logger,
		users:   users,
		pending: pending,
		refresh: refresh,
		reset:   reset,
		codec:   codec,
		mailer:  mail,
		events:  events,
		now:     now,
	}
}

func (s *authService) Login(ctx context.Context, traceID, username, password string, meta RequestMeta) (*Tokens, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Enabled {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("trace_id", traceID).Str("username", user.Username).Msg("login")
	return tokens, nil
}

func (s *authService) Refresh(ctx context.Context, traceID, refreshToken string, meta RequestMeta) (*Tokens, error) {
	claims, err := s.codec.Validate(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	stored, err := s.refresh.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}
	if stored.Revoked {
		return nil, domain.ErrTokenRevoked
	}
	if stored.ExpiresAt.Before(s.now()) {
		return nil, domain.ErrTokenExpired
	}
	if stored.DeviceID != meta.DeviceID {
		return nil, domain.ErrDeviceMismatch
	}

	user, err := s.users.FindByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// Single-use rotation: consuming the old row is the serialization point.
	// A concurrent or replayed rotation loses the compare-and-delete and
	// uniformly observes not-found.
	rows, err := s.refresh.DeleteByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, domain.ErrTokenNotFound
	}

	tokens, err := s.issueTokens(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("trace_id", traceID).Str("username", user.Username).Msg("refresh rotated")
	return tokens, nil
}

func (s *authService) Logout(ctx context.Context, traceID, refreshToken string) error {
	// Idempotent: deleting an unknown token is not an error.
	if _, err := s.refresh.DeleteByToken(ctx, refreshToken); err != nil {
		return err
	}
	s.logger.Info().Str("trace_id", traceID).Msg("logout")
	return nil
}

func (s *authService) issueTokens(ctx context.Context, user *domain.User, meta RequestMeta) (*Tokens, error) {
	access, err := s.codec.IssueAccessToken(user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.IssueRefreshToken(user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.refresh.Create(ctx, &domain.RefreshToken{
		Username:  user.Username,
		Token:     refresh,
		ExpiresAt: s.now().Add(s.cfg.RefreshTTL),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		DeviceID:  meta.DeviceID,
	}); err != nil {
		return nil, err
	}
	return &Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
	}, nil
}

func (s *authService) notify(to, subject, body string) {
	s.mailer.Send(to, subject, body)
}
