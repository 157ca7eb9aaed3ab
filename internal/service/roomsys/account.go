package roomsys

import (
	"context"
	"fmt"
	"strings"

	"pinroom/internal/domain"
	"pinroom/internal/domain/models"
	"pinroom/internal/domain/repositories"
	roomsysSvc "pinroom/internal/domain/services/roomsys"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const minPasswordLength = 6

type accountService struct {
	identity repositories.IdentityGateway
	rooms    *roomService
}

// NewAccountService creates the account service. Account deletion reuses the room
// service's blob purge.
func NewAccountService(identity repositories.IdentityGateway, deps *Dependencies) roomsysSvc.AccountService {
	return &accountService{
		identity: identity,
		rooms:    &roomService{deps: deps.withDefaults()},
	}
}

func (s *accountService) SignUp(ctx context.Context, req *roomsysSvc.CredentialsRequest) (*models.AuthSession, error) {
	if err := validateCredentials(req); err != nil {
		return nil, err
	}

	session, err := s.identity.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, domain.NewRemoteError("sign up", req.Email, err)
	}
	if session == nil || session.AccessToken == "" {
		return nil, fmt.Errorf("%w: check your email to confirm your account, then sign in", domain.ErrValidation)
	}

	s.rooms.deps.Logger.Info("user signed up", "user_id", session.User.ID)
	return session, nil
}

func (s *accountService) SignIn(ctx context.Context, req *roomsysSvc.CredentialsRequest) (*models.AuthSession, error) {
	if err := validateCredentials(req); err != nil {
		return nil, err
	}

	session, err := s.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, domain.NewRemoteError("sign in", req.Email, err)
	}

	s.rooms.deps.Logger.Info("user signed in", "user_id", session.User.ID)
	return session, nil
}

func (s *accountService) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return &domain.UnauthorizedError{Message: "not signed in"}
	}
	if err := s.identity.SignOut(ctx, accessToken); err != nil {
		return domain.NewRemoteError("sign out", "", err)
	}
	return nil
}

// DeleteAccount purges the blobs of every owned room, then deletes the user. Rooms,
// folders and files are removed by the database cascade on the user row.
func (s *accountService) DeleteAccount(ctx context.Context, userID string) error {
	rooms, err := s.rooms.ListRooms(ctx, userID)
	if err != nil {
		return err
	}

	removed := 0
	for _, room := range rooms {
		n, err := s.rooms.purgeBlobs(ctx, room.Key)
		removed += n
		if err != nil {
			return err
		}
	}

	if err := s.identity.DeleteUser(ctx, userID); err != nil {
		return domain.NewRemoteError("delete user", userID, err)
	}

	s.rooms.deps.Logger.Info("account deleted",
		"user_id", userID,
		"rooms", len(rooms),
		"blobs_removed", removed,
	)
	return nil
}

func validateCredentials(req *roomsysSvc.CredentialsRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	err := validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, is.EmailFormat),
		validation.Field(&req.Password, validation.Required, validation.Length(minPasswordLength, 0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
