package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/studyhive/resource-api/internal/models"
	"github.com/studyhive/resource-api/pkg/config"
	appErrors "github.com/studyhive/resource-api/pkg/errors"
)

// AuthService verifies bearer tokens minted by the external identity provider.
// Identity resolution itself lives upstream; this service only checks the
// signature and extracts the caller id.
type AuthService struct {
	cfg config.JWTConfig
}

// NewAuthService constructs the verifier.
func NewAuthService(cfg config.JWTConfig) *AuthService {
	return &AuthService{cfg: cfg}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAuthRequired.Code, appErrors.ErrAuthRequired.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrAuthRequired, "invalid token claims")
	}
	if claims.CallerID() == "" {
		return nil, appErrors.Clone(appErrors.ErrAuthRequired, "token carries no user identity")
	}

	return claims, nil
}
