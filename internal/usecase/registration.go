package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/chintakjoshi/authapp/internal/domain"
)

// Register starts (or silently restarts) the OTP flow for an email. Any prior
// pending row for the same email is replaced; conflicts with verified users
// or other pending registrations are rejected.
func (s *authService) Register(ctx context.Context, traceID string, in RegisterInput) error {
	if in.Password != in.ConfirmPassword {
		return domain.ErrPasswordMismatch
	}

	taken, err := s.users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrAlreadyInUse
	}
	held, err := s.pending.ExistsUsernameElsewhere(ctx, in.Username, in.Email)
	if err != nil {
		return err
	}
	if held {
		return domain.ErrAlreadyInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	otp, err := generateOtp()
	if err != nil {
		return err
	}

	now := s.now()
	err = s.pending.Replace(ctx, &domain.PendingUser{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Otp:          otp,
		OtpSentAt:    now,
		ExpiresAt:    now.Add(s.cfg.OtpTTL),
	})
	if err != nil {
		// The unique indexes back the existence checks: a racing registration
		// holding the username or email surfaces here as a duplicate key.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyInUse
		}
		return err
	}

	s.notify(in.Email,
		"Verify your account",
		fmt.Sprintf("Your OTP for the registration is (This OTP will expire in %d minutes): %s",
			int(s.cfg.OtpTTL.Minutes()), otp))
	s.logger.Info().Str("trace_id", traceID).Str("email", in.Email).Msg("registration pending")
	return nil
}

// VerifyOtp promotes a pending registration to a verified account. The
// consume-and-create step is transactional, so a concurrent sweep or second
// verification observes not-found rather than promoting twice.
func (s *authService) VerifyOtp(ctx context.Context, traceID, email, otp string) error {
	pending, err := s.pending.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if pending.Otp != otp {
		return domain.ErrOtpMismatch
	}
	now := s.now()
	if pending.ExpiresAt.Before(now) {
		return domain.ErrOtpExpired
	}

	user := &domain.User{
		Username:     pending.Username,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		Role:         domain.RoleUser,
		Enabled:      true,
	}
	if err := s.pending.Promote(ctx, email, otp, now, user); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return domain.ErrNotFound
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return domain.ErrAlreadyInUse
		default:
			return err
		}
	}

	if s.events != nil {
		_ = s.events.UserCreated(ctx, user.ID, user.Username, user.Email)
	}
	s.notify(email,
		"Your account is verified",
		"Welcome!\nYour account is now verified. You can log in here: "+s.cfg.FrontendBaseURL+"/login")
	s.logger.Info().Str("trace_id", traceID).Str("username", user.Username).Msg("registration verified")
	return nil
}

// ResendOtp regenerates the OTP and restarts both the expiry window and the
// resend cooldown, at most once per cooldown interval.
func (s *authService) ResendOtp(ctx context.Context, traceID, email string) error {
	pending, err := s.pending.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	now := s.now()
	cutoff := now.Add(-s.cfg.OtpResendEvery)
	if pending.OtpSentAt.After(cutoff) {
		return domain.ErrThrottled
	}

	otp, err := generateOtp()
	if err != nil {
		return err
	}
	// Conditional update guarded by the old otp_sent_at: of two concurrent
	// resends only one rewrites the row, the other reports throttled.
	ok, err := s.pending.RefreshOtp(ctx, email, otp, cutoff, now, now.Add(s.cfg.OtpTTL))
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrThrottled
	}

	s.notify(email,
		"New OTP for verification",
		fmt.Sprintf("Your new OTP is: %s\n(This OTP is valid for %d minutes)",
			otp, int(s.cfg.OtpTTL.Minutes())))
	s.logger.Info().Str("trace_id", traceID).Str("email", email).Msg("otp resent")
	return nil
}

// generateOtp draws a 6-digit code from a cryptographically secure source.
func generateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", 100000+n.Int64()), nil
}
