package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the closed set of authority levels a verified account can hold.
type Role string

const RoleUser Role = "USER"

// ParseRole validates a role string at the boundary where a User row is
// constructed. Unknown values are rejected rather than stored.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	default:
		return "", ErrRoleInvalid
	}
}

func (r Role) String() string { return string(r) }

// User is a verified account. Rows are created only by OTP promotion and are
// never hard-deleted by this service.
type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"type:text;not null" json:"role"`
	Enabled      bool      `gorm:"not null" json:"enabled"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
