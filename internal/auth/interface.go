package auth

import "pinroom/internal/domain/models"

// JWTVerifier validates access tokens issued by the identity provider.
type JWTVerifier interface {
	// VerifyToken returns the claims of a valid token, or domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
