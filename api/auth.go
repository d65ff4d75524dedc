package api

import (
	"context"
	"net/http"
)

type authResponse struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

func (r authResponse) result() *AuthResult {
	return &AuthResult{
		User:  User{ID: r.ID, Name: r.Name, Email: r.Email},
		Token: r.Token,
	}
}

// SignUp registers a new account and returns its session.
func (c *Client) SignUp(ctx context.Context, name, email, password string) (*AuthResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, OpSignUp, http.MethodPost, PathSignUp, "", body, &resp); err != nil {
		return nil, err
	}
	return resp.result(), nil
}

// SignIn opens a session for an existing account.
func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.do(ctx, OpSignIn, http.MethodPost, PathSignIn, "", body, &resp); err != nil {
		return nil, err
	}
	return resp.result(), nil
}

// UpdateProfile changes the account name and password.
//
// The returned user carries only the name echoed by the server; callers keep
// the id and email they already hold.
func (c *Client) UpdateProfile(ctx context.Context, token, name, password string) (*User, error) {
	if err := requireToken(OpUpdateProfile, token); err != nil {
		return nil, err
	}
	body := map[string]string{"name": name, "password": password}
	var resp authResponse
	if err := c.do(ctx, OpUpdateProfile, http.MethodPost, PathUpdateUser, token, body, &resp); err != nil {
		return nil, err
	}
	return &User{Name: resp.Name}, nil
}
