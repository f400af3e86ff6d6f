// Package authtest signs bearer tokens for tests. Production tokens are
// issued by the identity service.
package authtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zepzep/zepzep-backend/pkg/config"
	"github.com/zepzep/zepzep-backend/pkg/enums"
)

// Token is who a minted token speaks for.
type Token struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Mint signs an HS256 token the way the identity service does, valid for
// cfg.ExpirationMinutes from now.
func Mint(cfg config.JWTConfig, now time.Time, tok Token) (string, error) {
	switch {
	case cfg.Secret == "" || cfg.Issuer == "":
		return "", errors.New("authtest: jwt secret and issuer are required")
	case cfg.ExpirationMinutes <= 0:
		return "", errors.New("authtest: expiration minutes must be positive")
	case tok.UserID == uuid.Nil:
		return "", errors.New("authtest: user id is required")
	case !tok.Role.IsValid():
		return "", fmt.Errorf("authtest: invalid role %q", tok.Role)
	}
	claims := jwt.MapClaims{
		"user_id": tok.UserID.String(),
		"role":    string(tok.Role),
		"jti":     uuid.NewString(),
		"iss":     cfg.Issuer,
		"sub":     tok.UserID.String(),
		"iat":     jwt.NewNumericDate(now),
		"exp":     jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}
