package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the payload of the externally issued access token. This service
// only verifies tokens; it never mints them.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// CallerID resolves the authenticated user id, falling back to the standard
// subject claim when the issuer does not set user_id.
func (c *Claims) CallerID() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}
