package tokenverify

import (
	"github.com/chintakjoshi/authapp/internal/usecase"
)

// Result is the introspection outcome shared by the NATS responder and the
// HTTP bearer middleware.
type Result struct {
	Username string
	Role     string
}

// Validator is the codec subset introspection needs.
type Validator interface {
	Validate(token, tokenType string) (*usecase.TokenClaims, error)
}

// VerifyAccess checks a typed access token and extracts its subject and role.
// Errors are the domain token sentinels from the codec.
func VerifyAccess(v Validator, token string) (*Result, error) {
	claims, err := v.Validate(token, usecase.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return &Result{Username: claims.Username, Role: claims.Role.String()}, nil
}
