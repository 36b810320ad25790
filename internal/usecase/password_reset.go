package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chintakjoshi/authapp/internal/domain"
)

// ForgotPassword issues a single-use reset token. For unknown emails it
// returns success without creating anything, so the caller-visible outcome
// never reveals whether an account exists.
func (s *authService) ForgotPassword(ctx context.Context, traceID, email string) error {
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	now := s.now()
	existing, err := s.reset.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if existing != nil && existing.SentAt.After(now.Add(-s.cfg.ResetEvery)) {
		return domain.ErrThrottled
	}

	token := uuid.NewString()
	err = s.reset.Replace(ctx, &domain.PasswordResetToken{
		Email:     email,
		Token:     token,
		SentAt:    now,
		ExpiresAt: now.Add(s.cfg.ResetTTL),
	})
	if err != nil {
		// A racing request that won the replace just sent a fresh link inside
		// the window, so the duplicate key reads as throttled.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrThrottled
		}
		return err
	}

	link := s.cfg.FrontendBaseURL + "/reset-password?token=" + token
	s.notify(email,
		"Reset your password",
		"Click here to reset your password (valid for 15 minutes): "+link)
	s.logger.Info().Str("trace_id", traceID).Str("email", email).Msg("reset link issued")
	return nil
}

// ResetPassword consumes a reset token, stores the new password hash, and
// revokes every refresh token for the user so all devices must log in again.
func (s *authService) ResetPassword(ctx context.Context, traceID, token, newPassword string) error {
	stored, err := s.reset.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if stored.ExpiresAt.Before(s.now()) {
		return domain.ErrTokenExpired
	}

	user, err := s.users.FindByEmail(ctx, stored.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	// Claim the token before mutating anything; single-use under concurrent
	// resets is enforced by the compare-and-delete.
	rows, err := s.reset.Consume(ctx, token)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return err
	}
	if _, err := s.refresh.DeleteAllForUsername(ctx, user.Username); err != nil {
		return err
	}

	s.notify(user.Email,
		"Your password has been reset",
		"Your password was successfully reset.\n\nYou can now log in using your new password: "+
			s.cfg.FrontendBaseURL+"/login\n\nIf you did not perform this action, please contact support immediately.")
	s.logger.Info().Str("trace_id", traceID).Str("username", user.Username).Msg("password reset")
	return nil
}

// ValidateResetToken is a read-only probe used before rendering a reset form.
func (s *authService) ValidateResetToken(ctx context.Context, token string) error {
	stored, err := s.reset.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if stored.ExpiresAt.Before(s.now()) {
		return domain.ErrTokenExpired
	}
	return nil
}
