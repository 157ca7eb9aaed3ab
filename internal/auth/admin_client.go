package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// AdminClient calls the Supabase Admin API with the service role key. The server
// uses it to delete accounts; the seed command uses it to create the demo user.
type AdminClient struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

// NewAdminClient creates a new Supabase Admin API client.
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		supabaseURL: supabaseURL,
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateUserRequest is the payload for creating a new user
type CreateUserRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// AdminUser is a user as returned by the admin endpoints
type AdminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type listUsersResponse struct {
	Users []AdminUser `json:"users"`
}

func (c *AdminClient) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.serviceKey)
	h.Set("apikey", c.serviceKey)
	return h
}

// DeleteUser removes a user by id. Database rows owned by the user go with it
// through the auth.users foreign key.
func (c *AdminClient) DeleteUser(ctx context.Context, userID string) error {
	endpoint := fmt.Sprintf("%s/auth/v1/admin/users/%s", c.supabaseURL, url.PathEscape(userID))
	return doJSON(ctx, c.httpClient, http.MethodDelete, endpoint, c.headers(), nil, nil)
}

// DeleteUserByEmail finds a user by email and deletes them. Missing users are not an error.
func (c *AdminClient) DeleteUserByEmail(ctx context.Context, email string) error {
	userID, found, err := c.findUserIDByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return c.DeleteUser(ctx, userID)
}

func (c *AdminClient) findUserIDByEmail(ctx context.Context, email string) (string, bool, error) {
	var list listUsersResponse
	endpoint := fmt.Sprintf("%s/auth/v1/admin/users", c.supabaseURL)
	if err := doJSON(ctx, c.httpClient, http.MethodGet, endpoint, c.headers(), nil, &list); err != nil {
		return "", false, fmt.Errorf("list users: %w", err)
	}

	for _, user := range list.Users {
		if user.Email == email {
			return user.ID, true, nil
		}
	}
	return "", false, nil
}

// CreateUser creates a confirmed user and returns its id.
func (c *AdminClient) CreateUser(ctx context.Context, email, password string) (string, error) {
	payload := CreateUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
	}

	var created AdminUser
	endpoint := fmt.Sprintf("%s/auth/v1/admin/users", c.supabaseURL)
	if err := doJSON(ctx, c.httpClient, http.MethodPost, endpoint, c.headers(), payload, &created); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return created.ID, nil
}
