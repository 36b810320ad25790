package usecase

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chintakjoshi/authapp/config"
	"github.com/chintakjoshi/authapp/internal/domain"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the verified content of a typed token.
type TokenClaims struct {
	Username string
	Role     domain.Role
}

// TokenCodec signs and verifies the two token families. Both carry the
// subject, role, and a typ claim; they differ only in lifetime.
type TokenCodec interface {
	IssueAccessToken(username string, role domain.Role) (string, error)
	IssueRefreshToken(username string, role domain.Role) (string, error)
	Validate(token, tokenType string) (*TokenClaims, error)
}

type jwtCodec struct {
	cfg *config.Config
	key []byte
	now func() time.Time
}

// NewTokenCodec builds an HS256 codec. The signing secret is re-checked here
// so a codec can never exist with a weak key, regardless of how the config
// was constructed.
func NewTokenCodec(cfg *config.Config, now func() time.Time) (TokenCodec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &jwtCodec{cfg: cfg, key: []byte(cfg.JWTSecret), now: now}, nil
}

func (s *jwtCodec) IssueAccessToken(username string, role domain.Role) (string, error) {
	return s.issue(username, role, TokenTypeAccess, s.cfg.AccessTTL)
}

func (s *jwtCodec) IssueRefreshToken(username string, role domain.Role) (string, error) {
	return s.issue(username, role, TokenTypeRefresh, s.cfg.RefreshTTL)
}

func (s *jwtCodec) issue(username string, role domain.Role, tokenType string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := jwt.MapClaims{
		"sub":  username,
		"role": role.String(),
		"typ":  tokenType,
		"iss":  s.cfg.JWTIssuer,
		"aud":  s.cfg.JWTAudience,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

func (s *jwtCodec) Validate(tokenStr, tokenType string) (*TokenClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.JWTIssuer),
		jwt.WithAudience(s.cfg.JWTAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenMalformed
	}
	if token == nil || !token.Valid {
		return nil, domain.ErrTokenMalformed
	}

	typ, _ := claims["typ"].(string)
	if typ != tokenType {
		return nil, domain.ErrTokenWrongType
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, domain.ErrTokenMalformed
	}
	roleStr, _ := claims["role"].(string)
	role, err := domain.ParseRole(roleStr)
	if err != nil {
		return nil, domain.ErrTokenMalformed
	}

	return &TokenClaims{Username: sub, Role: role}, nil
}
