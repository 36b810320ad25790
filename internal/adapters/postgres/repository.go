package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/chintakjoshi/authapp/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type PendingUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.PendingUser, error)
	ExistsUsernameElsewhere(ctx context.Context, username, email string) (bool, error)
	// Replace atomically removes any pending row for the email and inserts a
	// fresh one, restarting the registration flow.
	Replace(ctx context.Context, pending *domain.PendingUser) error
	// RefreshOtp rewrites the OTP and both time windows, guarded by the
	// previous otp_sent_at so concurrent resends cannot both pass the
	// throttle check. Returns false when the guard did not match.
	RefreshOtp(ctx context.Context, email, otp string, notSentSince, sentAt, expiresAt time.Time) (bool, error)
	// Promote consumes the pending row keyed by (email, otp, unexpired) and
	// creates the verified user in one transaction. gorm.ErrRecordNotFound is
	// returned when the row was already consumed, replaced, or swept.
	Promote(ctx context.Context, email, otp string, now time.Time, user *domain.User) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	// DeleteByToken is a compare-and-delete: zero rows affected means another
	// caller already consumed the token.
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteAllForUsername(ctx context.Context, username string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type ResetTokenRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.PasswordResetToken, error)
	FindByToken(ctx context.Context, token string) (*domain.PasswordResetToken, error)
	// Replace atomically supersedes any prior token for the email.
	Replace(ctx context.Context, token *domain.PasswordResetToken) error
	// Consume deletes the row for the token. Zero rows affected means the
	// token was already used or superseded.
	Consume(ctx context.Context, token string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type userRepo struct{ db *gorm.DB }

type pendingUserRepo struct{ db *gorm.DB }

type refreshTokenRepo struct{ db *gorm.DB }

type resetTokenRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func NewPendingUserRepository(db *gorm.DB) PendingUserRepository { return &pendingUserRepo{db: db} }

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepo{db: db}
}

func NewResetTokenRepository(db *gorm.DB) ResetTokenRepository { return &resetTokenRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (r *pendingUserRepo) FindByEmail(ctx context.Context, email string) (*domain.PendingUser, error) {
	var pending domain.PendingUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&pending).Error; err != nil {
		return nil, err
	}
	return &pending, nil
}

func (r *pendingUserRepo) ExistsUsernameElsewhere(ctx context.Context, username, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PendingUser{}).
		Where("username = ? AND email <> ?", username, email).
		Count(&count).Error
	return count > 0, err
}

func (r *pendingUserRepo) Replace(ctx context.Context, pending *domain.PendingUser) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", pending.Email).Delete(&domain.PendingUser{}).Error; err != nil {
			return err
		}
		return tx.Create(pending).Error
	})
}

func (r *pendingUserRepo) RefreshOtp(ctx context.Context, email, otp string, notSentSince, sentAt, expiresAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.PendingUser{}).
		Where("email = ? AND otp_sent_at <= ?", email, notSentSince).
		Updates(map[string]interface{}{
			"otp":         otp,
			"otp_sent_at": sentAt,
			"expires_at":  expiresAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *pendingUserRepo) Promote(ctx context.Context, email, otp string, now time.Time, user *domain.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("email = ? AND otp = ? AND expires_at > ?", email, otp, now).
			Delete(&domain.PendingUser{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(user).Error
	})
}

func (r *pendingUserRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&domain.PendingUser{})
	return res.RowsAffected, res.Error
}

func (r *refreshTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *refreshTokenRepo) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var stored domain.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *refreshTokenRepo) DeleteByToken(ctx context.Context, token string) (int64, error) {
	res := r.db.WithContext(ctx).Where("token = ?", token).Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *refreshTokenRepo) DeleteAllForUsername(ctx context.Context, username string) (int64, error) {
	res := r.db.WithContext(ctx).Where("username = ?", username).Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *refreshTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&domain.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *resetTokenRepo) FindByEmail(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	var token domain.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *resetTokenRepo) FindByToken(ctx context.Context, token string) (*domain.PasswordResetToken, error) {
	var stored domain.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *resetTokenRepo) Replace(ctx context.Context, token *domain.PasswordResetToken) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", token.Email).Delete(&domain.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *resetTokenRepo) Consume(ctx context.Context, token string) (int64, error) {
	res := r.db.WithContext(ctx).Where("token = ?", token).Delete(&domain.PasswordResetToken{})
	return res.RowsAffected, res.Error
}

func (r *resetTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&domain.PasswordResetToken{})
	return res.RowsAffected, res.Error
}
