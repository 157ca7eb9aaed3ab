package roomsys

import (
	"context"

	"pinroom/internal/domain/models"
)

// CredentialsRequest is the body of sign-up and sign-in
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountService delegates identity operations to the auth gateway
type AccountService interface {
	SignUp(ctx context.Context, req *CredentialsRequest) (*models.AuthSession, error)
	SignIn(ctx context.Context, req *CredentialsRequest) (*models.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error

	// DeleteAccount purges blobs of every owned room, then deletes the user
	DeleteAccount(ctx context.Context, userID string) error
}
