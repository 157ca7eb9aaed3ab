package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pinroom/internal/domain"
	"pinroom/internal/domain/models"
	"pinroom/internal/domain/repositories"
)

// GoTrueClient implements repositories.IdentityGateway against the Supabase Auth
// REST API. Sign-up, sign-in and sign-out use the anon key; account deletion goes
// through the admin client.
type GoTrueClient struct {
	supabaseURL string
	anonKey     string
	admin       *AdminClient
	httpClient  *http.Client
}

// NewGoTrueClient creates a client. admin may be nil, in which case DeleteUser fails.
func NewGoTrueClient(supabaseURL, anonKey string, admin *AdminClient) *GoTrueClient {
	return &GoTrueClient{
		supabaseURL: supabaseURL,
		anonKey:     anonKey,
		admin:       admin,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

var _ repositories.IdentityGateway = (*GoTrueClient)(nil)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse covers both /token and /signup. Signup returns the user at the top
// level and no access token while email confirmation is pending.
type tokenResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresIn    int              `json:"expires_in"`
	User         *models.AuthUser `json:"user"`
	ID           string           `json:"id"`
	Email        string           `json:"email"`
}

func (r *tokenResponse) session() *models.AuthSession {
	user := models.AuthUser{ID: r.ID, Email: r.Email}
	if r.User != nil {
		user = *r.User
	}
	return &models.AuthSession{
		User:         user,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresIn:    r.ExpiresIn,
	}
}

func (c *GoTrueClient) headers(bearer string) http.Header {
	h := http.Header{}
	h.Set("apikey", c.anonKey)
	if bearer != "" {
		h.Set("Authorization", "Bearer "+bearer)
	}
	return h
}

// SignUp registers a user. The returned session has no access token when the
// project requires email confirmation.
func (c *GoTrueClient) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	var resp tokenResponse
	endpoint := c.supabaseURL + "/auth/v1/signup"
	if err := doJSON(ctx, c.httpClient, http.MethodPost, endpoint, c.headers(""), credentials{email, password}, &resp); err != nil {
		return nil, err
	}
	return resp.session(), nil
}

// SignIn exchanges email and password for a session.
func (c *GoTrueClient) SignIn(ctx context.Context, email, password string) (*models.AuthSession, error) {
	var resp tokenResponse
	endpoint := c.supabaseURL + "/auth/v1/token?grant_type=password"
	if err := doJSON(ctx, c.httpClient, http.MethodPost, endpoint, c.headers(""), credentials{email, password}, &resp); err != nil {
		return nil, err
	}
	return resp.session(), nil
}

// SignOut revokes the refresh tokens of the session behind accessToken.
func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	endpoint := c.supabaseURL + "/auth/v1/logout"
	return doJSON(ctx, c.httpClient, http.MethodPost, endpoint, c.headers(accessToken), nil, nil)
}

func (c *GoTrueClient) DeleteUser(ctx context.Context, userID string) error {
	if c.admin == nil {
		return errors.New("account deletion requires the service role key")
	}
	return c.admin.DeleteUser(ctx, userID)
}

// apiError is the error body shape of the auth API. Older versions use error /
// error_description, newer ones msg.
type apiError struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// doJSON sends body as JSON and decodes a 2xx response into out. 400, 401, 403 and
// 422 come back as domain.UnauthorizedError carrying the provider's message; other
// statuses are plain errors.
func doJSON(ctx context.Context, client *http.Client, method, endpoint string, header http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(data, &apiErr)
		msg := apiErr.text()
		if msg == "" {
			msg = string(data)
		}
		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
			return &domain.UnauthorizedError{Message: msg}
		}
		return fmt.Errorf("%s %s failed with status %d: %s", method, req.URL.Path, resp.StatusCode, msg)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
