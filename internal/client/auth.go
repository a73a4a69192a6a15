package client

import (
	"context"
	"fmt"
	"net/http"

	"taskmind/internal/apperr"
	"taskmind/internal/models"
)

// AuthResult is the outcome of a login or registration call. Token is empty
// when the service registered the account without opening a session.
type AuthResult struct {
	Token string
	User  *models.Profile
}

type authResponse struct {
	Token    string          `json:"token"`
	User     *models.Profile `json:"user"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
}

func (r authResponse) result() AuthResult {
	res := AuthResult{Token: r.Token, User: r.User}
	if res.User == nil && (r.Username != "" || r.Email != "") {
		res.User = &models.Profile{Username: r.Username, Email: r.Email}
	}
	return res
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, "register", http.MethodPost, "/api/auth/register", "", body, &resp); err != nil {
		return AuthResult{}, err
	}
	return resp.result(), nil
}

// Login exchanges email and password for a bearer credential.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return AuthResult{}, err
	}
	if resp.Token == "" {
		return AuthResult{}, fmt.Errorf("login: %w: response carries no token", apperr.ErrServer)
	}
	return resp.result(), nil
}
