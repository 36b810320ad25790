package domain

import "errors"

var (
	// ErrInvalidCredentials covers bad username/password pairs and disabled
	// accounts. Callers must not learn which of the two failed.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrPasswordMismatch is returned when password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrAlreadyInUse is returned when a username or email is held by a
	// verified user or by a different pending registration.
	ErrAlreadyInUse = errors.New("username or email already in use")

	// ErrNotFound is returned when no matching pending, reset, or user record
	// exists for the request.
	ErrNotFound = errors.New("record not found")

	// ErrOtpMismatch is returned when the supplied OTP differs from the
	// stored one.
	ErrOtpMismatch = errors.New("invalid otp")

	// ErrOtpExpired is returned when a pending registration's OTP window has
	// passed.
	ErrOtpExpired = errors.New("otp expired")

	// ErrThrottled is returned when a resend or reset request arrives inside
	// the cooldown window.
	ErrThrottled = errors.New("request throttled")

	// ErrTokenMalformed is returned when a token cannot be parsed or its
	// signature does not verify.
	ErrTokenMalformed = errors.New("malformed token")

	// ErrTokenExpired is returned when a token's expiry is in the past.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenWrongType is returned when the typ claim does not match the
	// expected token family.
	ErrTokenWrongType = errors.New("wrong token type")

	// ErrTokenNotFound is returned when no stored refresh token matches,
	// including a token already consumed by a concurrent rotation.
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrTokenRevoked is returned when the stored refresh token is revoked.
	ErrTokenRevoked = errors.New("refresh token revoked")

	// ErrDeviceMismatch is returned when a rotation's device id differs from
	// the one bound at issuance.
	ErrDeviceMismatch = errors.New("invalid device context")

	// ErrRoleInvalid is returned when a role string outside the closed set is
	// supplied.
	ErrRoleInvalid = errors.New("invalid role")
)
