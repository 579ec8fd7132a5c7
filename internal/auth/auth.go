package auth

import "github.com/golang-jwt/jwt/v5"

// Authenticator validates the bearer tokens the identity provider issues.
// The review engine never creates accounts; it only needs a stable reviewer
// id and an optional moderator role out of the claims.
type Authenticator interface {
	GenerateToken(reviewerID, role string) (string, error)
	ValidateToken(token string) (*jwt.Token, error)
}
