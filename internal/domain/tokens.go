package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PendingUser is an unverified registration awaiting OTP confirmation.
// At most one row exists per email; a fresh registration replaces it.
type PendingUser struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Otp          string    `gorm:"not null" json:"-"`
	OtpSentAt    time.Time `gorm:"not null" json:"otp_sent_at"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
}

func (PendingUser) TableName() string { return "pending_users" }

func (p *PendingUser) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// RefreshToken is one issued refresh credential, bound at issuance to the
// client-supplied device id plus request metadata. Multiple devices may hold
// distinct rows for the same username concurrently.
type RefreshToken struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"index;not null" json:"username"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	Revoked   bool      `gorm:"not null" json:"revoked"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	DeviceID  string    `json:"device_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

func (t *RefreshToken) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// PasswordResetToken is a single-use opaque reset credential. At most one row
// exists per email; a newer request supersedes it.
type PasswordResetToken struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	SentAt    time.Time `gorm:"not null" json:"sent_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

func (PasswordResetToken) TableName() string { return "password_reset_tokens" }

func (t *PasswordResetToken) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
