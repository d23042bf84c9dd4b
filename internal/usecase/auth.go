package usecase

import (
	"strings"

	pkgAuth "github.com/polkiloo/warehouse/internal/pkg/auth"
)

// AuthUseCase resolves the acting warehouse user from a bearer token. Tokens are issued by
// the session service sharing the signing secret.
type AuthUseCase struct {
	tokens pkgAuth.Strategy
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(strategy pkgAuth.Strategy) *AuthUseCase {
	return &AuthUseCase{tokens: strategy}
}

// ParseToken extracts user ID from provided token.
func (u *AuthUseCase) ParseToken(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, pkgAuth.ErrInvalidToken
	}
	userID, err := u.tokens.ParseToken(token)
	if err != nil {
		return 0, err
	}
	if userID <= 0 {
		return 0, pkgAuth.ErrInvalidToken
	}
	return userID, nil
}
