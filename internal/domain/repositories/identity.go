package repositories

import (
	"context"

	"pinroom/internal/domain/models"
)

// IdentityGateway is the hosted auth service: password sign-up/sign-in and the admin
// user API.
type IdentityGateway interface {
	// SignUp registers a user. The session is nil when the project requires email
	// confirmation before the first sign-in.
	SignUp(ctx context.Context, email, password string) (*models.AuthSession, error)

	SignIn(ctx context.Context, email, password string) (*models.AuthSession, error)

	// SignOut revokes the session behind accessToken
	SignOut(ctx context.Context, accessToken string) error

	// DeleteUser removes a user with the admin API. Deleting a missing user is not an error.
	DeleteUser(ctx context.Context, userID string) error
}
